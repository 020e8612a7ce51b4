package contact

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/datafile"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/interval"
	"github.com/star/orbitcov/internal/visibility"
)

// OutputType selects interval or per-step output.
type OutputType int

const (
	Interval OutputType = iota
	Detail
)

// ParseOutputType maps "INTERVAL" or "DETAIL" to an OutputType.
func ParseOutputType(s string) (OutputType, error) {
	switch s {
	case config.OutputInterval:
		return Interval, nil
	case config.OutputDetail:
		return Detail, nil
	default:
		return 0, &config.ConfigError{Field: "settings.outputType", Reason: fmt.Sprintf("unknown output type %q", s)}
	}
}

func (o OutputType) String() string {
	if o == Detail {
		return config.OutputDetail
	}
	return config.OutputInterval
}

// IntervalColumns is the column row of interval files.
var IntervalColumns = []string{"start index", "end index"}

// detailColumns returns the column row of a detail file. flag names the
// boolean column.
func detailColumns(flag string, elevation bool) []string {
	cols := []string{"time index", flag, "range [km]"}
	if elevation {
		cols = append(cols, "elevation [deg]")
	}
	return cols
}

// table is what a pair evaluation writes out.
type table struct {
	header    datafile.PairHeader
	index     []int
	samples   []visibility.Access
	flag      string // boolean column name
	elevation bool   // include the elevation column
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func (t *table) write(w io.Writer, out OutputType, intervals []interval.Interval) error {
	bw := bufio.NewWriter(w)
	if err := datafile.WritePairHeader(bw, t.header); err != nil {
		return err
	}
	cw := csv.NewWriter(bw)
	switch out {
	case Detail:
		if err := cw.Write(detailColumns(t.flag, t.elevation)); err != nil {
			return err
		}
		for i, s := range t.samples {
			row := []string{strconv.Itoa(t.index[i]), formatBool(s.Visible), datafile.FormatFixed(s.RangeKm, 3)}
			if t.elevation {
				row = append(row, datafile.FormatFixed(geometry.Rad2Deg(s.Elevation), 3))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	default:
		if err := cw.Write(IntervalColumns); err != nil {
			return err
		}
		for _, iv := range intervals {
			if err := cw.Write([]string{strconv.Itoa(iv.Start), strconv.Itoa(iv.End)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

func (t *table) writeFile(path string, out OutputType, intervals []interval.Interval) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s file: %w", out, err)
	}
	if err := t.write(f, out, intervals); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadIntervals parses an interval file written by a contact or eclipse
// evaluation.
func ReadIntervals(r io.Reader) (datafile.PairHeader, []interval.Interval, error) {
	br := bufio.NewReader(r)
	h, err := datafile.ReadPairHeader(br)
	if err != nil {
		return h, nil, err
	}
	if err := datafile.ReadColumns(br, 4, IntervalColumns); err != nil {
		return h, nil, err
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(IntervalColumns)
	var out []interval.Interval
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var ce *csv.ParseError
			if errors.As(err, &ce) {
				return h, nil, &datafile.ParseError{Line: ce.Line + 4, Reason: ce.Err.Error()}
			}
			return h, nil, fmt.Errorf("reading interval rows: %w", err)
		}
		line, _ := cr.FieldPos(0)
		start, err1 := strconv.Atoi(row[0])
		end, err2 := strconv.Atoi(row[1])
		if err := errors.Join(err1, err2); err != nil {
			return h, nil, &datafile.ParseError{Line: line + 4, Reason: err.Error()}
		}
		out = append(out, interval.Interval{Start: start, End: end})
	}
	return h, out, nil
}

// ReadIntervalsFile parses the interval file at path.
func ReadIntervalsFile(path string) (datafile.PairHeader, []interval.Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return datafile.PairHeader{}, nil, fmt.Errorf("opening interval file: %w", err)
	}
	defer f.Close()
	h, ivs, err := ReadIntervals(f)
	if err != nil {
		var pe *datafile.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return h, nil, fmt.Errorf("reading interval file %s: %w", path, err)
	}
	return h, ivs, nil
}

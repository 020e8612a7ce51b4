package access

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/star/orbitcov/internal/datafile"
)

// latLonDecimals is the precision of computed (non-grid) coordinates.
const latLonDecimals = 4

// Write writes records under a header for kind. Grid coordinates are written
// as given; pointing-options coordinates are computed and rounded.
func Write(w io.Writer, kind Kind, h datafile.Header, recs []Record) error {
	h.Label = kind.Label()
	bw := bufio.NewWriter(w)
	if err := datafile.WriteHeader(bw, h); err != nil {
		return err
	}
	cw := csv.NewWriter(bw)
	cols := kind.Columns()
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, 0, len(cols))
	for _, r := range recs {
		row = row[:0]
		row = append(row, strconv.Itoa(r.TimeIndex))
		if kind.HasPointingOption() {
			row = append(row, strconv.Itoa(r.PointingOption))
		}
		if kind.HasGridPoint() {
			row = append(row, strconv.Itoa(r.GridPoint), datafile.FormatFloat(r.Lat), datafile.FormatFloat(r.Lon))
		} else {
			row = append(row, datafile.FormatFixed(r.Lat, latLonDecimals), datafile.FormatFixed(r.Lon, latLonDecimals))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile writes records to path, creating or truncating it.
func WriteFile(path string, kind Kind, h datafile.Header, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating access file: %w", err)
	}
	if err := Write(f, kind, h, recs); err != nil {
		f.Close()
		return fmt.Errorf("writing access file %s: %w", path, err)
	}
	return f.Close()
}

// Read parses an access file. The kind is taken from the label line.
func Read(r io.Reader) (Kind, datafile.Header, []Record, error) {
	br := bufio.NewReader(r)
	h, err := datafile.ReadHeader(br)
	if err != nil {
		return 0, h, nil, err
	}
	var kind Kind
	switch h.Label {
	case Grid.Label():
		kind = Grid
	case PointingOptions.Label():
		kind = PointingOptions
	case PointingOptionsWithGrid.Label():
		kind = PointingOptionsWithGrid
	default:
		return 0, h, nil, &datafile.ParseError{Line: 1, Reason: fmt.Sprintf("unknown coverage label %q", h.Label)}
	}
	cols := kind.Columns()
	if err := datafile.ReadColumns(br, 5, cols); err != nil {
		return 0, h, nil, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(cols)
	var recs []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var ce *csv.ParseError
			if errors.As(err, &ce) {
				return 0, h, nil, &datafile.ParseError{Line: ce.Line + 5, Reason: ce.Err.Error()}
			}
			return 0, h, nil, fmt.Errorf("reading access rows: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(kind, row)
		if err != nil {
			return 0, h, nil, &datafile.ParseError{Line: line + 5, Reason: err.Error()}
		}
		recs = append(recs, rec)
	}
	return kind, h, recs, nil
}

// ReadFile parses the access file at path.
func ReadFile(path string) (Kind, datafile.Header, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, datafile.Header{}, nil, fmt.Errorf("opening access file: %w", err)
	}
	defer f.Close()
	kind, h, recs, err := Read(f)
	if err != nil {
		var pe *datafile.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return 0, h, nil, fmt.Errorf("reading access file %s: %w", path, err)
	}
	return kind, h, recs, nil
}

func parseRow(kind Kind, row []string) (Record, error) {
	rec := Record{PointingOption: -1, GridPoint: -1}
	i := 0
	next := func() string { s := row[i]; i++; return s }
	var err error
	if rec.TimeIndex, err = strconv.Atoi(next()); err != nil {
		return rec, fmt.Errorf("invalid time index: %w", err)
	}
	if kind.HasPointingOption() {
		if rec.PointingOption, err = strconv.Atoi(next()); err != nil {
			return rec, fmt.Errorf("invalid pnt-opt index: %w", err)
		}
	}
	if kind.HasGridPoint() {
		if rec.GridPoint, err = strconv.Atoi(next()); err != nil {
			return rec, fmt.Errorf("invalid GP index: %w", err)
		}
	}
	if rec.Lat, err = strconv.ParseFloat(next(), 64); err != nil {
		return rec, fmt.Errorf("invalid lat: %w", err)
	}
	if rec.Lon, err = strconv.ParseFloat(next(), 64); err != nil {
		return rec, fmt.Errorf("invalid lon: %w", err)
	}
	return rec, nil
}

// Package state holds the propagated state time series consumed by the
// coverage and visibility evaluators, and its on-disk format.
package state

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/star/orbitcov/internal/datafile"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/transform"
)

// Columns is the column row of a state file.
var Columns = []string{"time index", "x [km]", "y [km]", "z [km]", "vx [km/s]", "vy [km/s]", "vz [km/s]"}

// Label is written as the first header line of propagated state files.
const Label = "Satellite states are in CARTESIAN_EARTH_CENTERED_INERTIAL (equatorial-plane) coordinates"

// Record is one sample of a state time series.
type Record struct {
	Index    int
	Position geometry.Vec3 // km, inertial
	Velocity geometry.Vec3 // km/s, inertial
}

// Series is an ordered state time series. Record i has Index i and lies at
// Epoch + i*StepSize/86400 days.
type Series struct {
	Epoch    float64 // Julian Date UT1
	StepSize float64 // seconds
	Duration float64 // days
	Records  []Record
}

// JD returns the Julian Date of time index i.
func (s *Series) JD(i int) float64 {
	return s.Epoch + float64(i)*s.StepSize/86400.0
}

// Indices returns the time index of every record.
func (s *Series) Indices() []int {
	out := make([]int, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Index
	}
	return out
}

// Header returns the file header for this series under the given label.
func (s *Series) Header(label string) datafile.Header {
	return datafile.Header{Label: label, Epoch: s.Epoch, StepSize: s.StepSize, Duration: s.Duration}
}

// Validate checks the indexing invariant: contiguous indices from 0.
func (s *Series) Validate() error {
	if !(s.StepSize > 0) {
		return fmt.Errorf("step size %g s must be positive", s.StepSize)
	}
	for i, r := range s.Records {
		if r.Index != i {
			return fmt.Errorf("record %d has time index %d, want %d", i, r.Index, i)
		}
	}
	return nil
}

// EarthRotation returns the inertial to Earth-fixed rotation at record i.
func (s *Series) EarthRotation(i int) geometry.DCM {
	return transform.EarthRotation(transform.GMSTFromJD(s.JD(s.Records[i].Index)))
}

// Read parses a state file from r.
func Read(r io.Reader) (*Series, error) {
	br := bufio.NewReader(r)
	h, err := datafile.ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if err := datafile.ReadColumns(br, 5, Columns); err != nil {
		return nil, err
	}

	s := &Series{Epoch: h.Epoch, StepSize: h.StepSize, Duration: h.Duration}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(Columns)
	cr.ReuseRecord = true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err, 5)
		}
		line, _ := cr.FieldPos(0)
		line += 5
		rec, err := parseRecord(row)
		if err != nil {
			return nil, &datafile.ParseError{Line: line, Reason: err.Error()}
		}
		if rec.Index != len(s.Records) {
			return nil, &datafile.ParseError{Line: line, Reason: fmt.Sprintf("time index %d, want %d", rec.Index, len(s.Records))}
		}
		s.Records = append(s.Records, rec)
	}
	if len(s.Records) == 0 {
		return nil, &datafile.ParseError{Line: 6, Reason: "no state records"}
	}
	return s, nil
}

// ReadFile parses the state file at path.
func ReadFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		var pe *datafile.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}
	return s, nil
}

// csvError maps an encoding/csv error to a ParseError with a file line number.
func csvError(err error, offset int) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &datafile.ParseError{Line: ce.Line + offset, Reason: ce.Err.Error()}
	}
	return fmt.Errorf("reading rows: %w", err)
}

func parseRecord(row []string) (Record, error) {
	idx, err := strconv.Atoi(row[0])
	if err != nil {
		return Record{}, fmt.Errorf("invalid time index %q", row[0])
	}
	var v [6]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return Record{}, fmt.Errorf("invalid %s %q", Columns[i+1], row[i+1])
		}
	}
	return Record{
		Index:    idx,
		Position: geometry.Vec3{X: v[0], Y: v[1], Z: v[2]},
		Velocity: geometry.Vec3{X: v[3], Y: v[4], Z: v[5]},
	}, nil
}

// Write writes s in the state file format.
func Write(w io.Writer, s *Series) error {
	bw := bufio.NewWriter(w)
	if err := datafile.WriteHeader(bw, s.Header(Label)); err != nil {
		return err
	}
	cw := csv.NewWriter(bw)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	row := make([]string, len(Columns))
	for _, r := range s.Records {
		row[0] = strconv.Itoa(r.Index)
		for i, f := range [6]float64{r.Position.X, r.Position.Y, r.Position.Z, r.Velocity.X, r.Velocity.Y, r.Velocity.Z} {
			row[i+1] = strconv.FormatFloat(f, 'f', -1, 64)
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

// WriteFile writes s to path, creating or truncating it.
func WriteFile(path string, s *Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating state file: %w", err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return fmt.Errorf("writing state file %s: %w", path, err)
	}
	return f.Close()
}

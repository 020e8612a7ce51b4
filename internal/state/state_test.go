package state

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/star/orbitcov/internal/datafile"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/transform"
)

const sample = `Satellite states
Epoch [JDUT1] is 2458265.0
Step size [s] is 60.0
Mission Duration [Days] is 0.001
time index,x [km],y [km],z [km],vx [km/s],vy [km/s],vz [km/s]
0,7000.0,0.0,0.0,0.0,7.5,0.0
1,6998.4,450.0,0.0,-0.48,7.48,0.0
`

func TestRead(t *testing.T) {
	s, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Epoch != 2458265.0 || s.StepSize != 60 || s.Duration != 0.001 {
		t.Errorf("header = %+v", s)
	}
	if len(s.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(s.Records))
	}
	if s.Records[1].Position.Y != 450 || s.Records[1].Velocity.X != -0.48 {
		t.Errorf("record 1 = %+v", s.Records[1])
	}
	if got := s.JD(1); got != 2458265.0+60.0/86400.0 {
		t.Errorf("JD(1) = %v", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	lines := strings.Split(sample, "\n")
	mutate := func(i int, with string) string {
		c := append([]string(nil), lines...)
		c[i] = with
		return strings.Join(c, "\n")
	}
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"missing step line", strings.Join(append(lines[:2:2], lines[3:]...), "\n"), 3},
		{"wrong columns", mutate(4, "t,x,y,z,vx,vy,vz"), 5},
		{"short row", mutate(6, "1,1,2,3"), 7},
		{"bad number", mutate(5, "0,abc,0,0,0,0,0"), 6},
		{"index gap", mutate(6, "2,1,2,3,4,5,6"), 7},
		{"no records", strings.Join(lines[:5], "\n") + "\n", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			var pe *datafile.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *datafile.ParseError", err)
			}
			if pe.Line != tt.line {
				t.Errorf("line = %d, want %d (%v)", pe.Line, tt.line, err)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	s := &Series{
		Epoch:    2459000.5,
		StepSize: 10,
		Duration: 0.0002,
		Records: []Record{
			{Index: 0, Position: geometry.Vec3{X: 7078.137, Y: 1.5, Z: -2.25}, Velocity: geometry.Vec3{Y: 7.5}},
			{Index: 1, Position: geometry.Vec3{X: 7077.9, Y: 76.5, Z: -2.0}, Velocity: geometry.Vec3{X: -0.08, Y: 7.49}},
		},
	}
	path := filepath.Join(t.TempDir(), "state.csv")
	if err := WriteFile(path, s); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Epoch != s.Epoch || got.StepSize != s.StepSize || got.Duration != s.Duration {
		t.Errorf("header mismatch: %+v", got)
	}
	for i := range s.Records {
		if got.Records[i] != s.Records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got.Records[i], s.Records[i])
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), Label+"\nEpoch [JDUT1] is 2459000.5\n") {
		t.Errorf("unexpected header:\n%s", buf.String())
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEarthRotation(t *testing.T) {
	s, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	for i := range s.Records {
		want := transform.EarthRotation(transform.GMSTFromJD(2458265.0 + float64(i)*60/86400))
		if !s.EarthRotation(i).Equal(want, 1e-12) {
			t.Errorf("record %d: rotation does not match GMST at its epoch", i)
		}
	}
	// A position on the x axis at the first step lands at longitude -GMST.
	got := s.EarthRotation(0).Apply(s.Records[0].Position)
	if want := -transform.GMSTFromJD(2458265.0); math.Abs(math.Remainder(math.Atan2(got.Y, got.X)-want, 2*math.Pi)) > 1e-9 {
		t.Errorf("longitude %g rad, want %g", math.Atan2(got.Y, got.X), want)
	}
}

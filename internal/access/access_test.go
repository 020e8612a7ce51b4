package access

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/star/orbitcov/internal/datafile"
)

func gp(t, g int) Record {
	return Record{TimeIndex: t, PointingOption: -1, GridPoint: g, Lat: float64(g), Lon: -float64(g)}
}

func po(t, p, g int) Record {
	return Record{TimeIndex: t, PointingOption: p, GridPoint: g}
}

func TestFilterMidAccess(t *testing.T) {
	tests := []struct {
		name string
		in   []Record
		want []Record
	}{
		{"empty", nil, []Record{}},
		{"single row", []Record{gp(3, 0)}, []Record{gp(3, 0)}},
		{"odd run", []Record{gp(1, 0), gp(2, 0), gp(3, 0)}, []Record{gp(2, 0)}},
		// Positions 0..3: floor(1.5 + 0.5) = 2.
		{"even run rounds half up", []Record{gp(1, 0), gp(2, 0), gp(3, 0), gp(4, 0)}, []Record{gp(3, 0)}},
		{"two runs", []Record{gp(0, 0), gp(1, 0), gp(5, 0), gp(6, 0), gp(7, 0)}, []Record{gp(1, 0), gp(6, 0)}},
		{
			"interleaved points re-sorted by time",
			[]Record{gp(0, 4), gp(1, 2), gp(1, 4), gp(2, 2), gp(2, 4), gp(3, 2), gp(4, 2)},
			[]Record{gp(1, 4), gp(3, 2)},
		},
		{
			"pointing options grouped separately",
			[]Record{po(0, 0, 7), po(0, 1, 7), po(1, 0, 7), po(1, 1, 7), po(2, 1, 7)},
			[]Record{po(1, 0, 7), po(1, 1, 7)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterMidAccess(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterMidAccess = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterMidAccessIdempotent(t *testing.T) {
	var in []Record
	for tm := 0; tm < 60; tm++ {
		for g := 0; g < 5; g++ {
			if (tm/(g+2))%3 != 0 {
				in = append(in, gp(tm, g))
			}
		}
	}
	once := FilterMidAccess(in)
	twice := FilterMidAccess(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filter not idempotent:\nonce  %v\ntwice %v", once, twice)
	}
	if len(once) >= len(in) {
		t.Errorf("filter kept %d of %d rows", len(once), len(in))
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	h := datafile.Header{Epoch: 2458265.0, StepSize: 1, Duration: 0.1}
	tests := []struct {
		kind Kind
		recs []Record
	}{
		{Grid, []Record{gp(0, 1), gp(0, 2), gp(4, 1)}},
		{PointingOptions, []Record{{TimeIndex: 0, PointingOption: 1, GridPoint: -1, Lat: 12.3457, Lon: -45.5}}},
		{PointingOptionsWithGrid, []Record{{TimeIndex: 2, PointingOption: 0, GridPoint: 3, Lat: 1.5, Lon: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Label(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "access.csv")
			if err := WriteFile(path, tt.kind, h, tt.recs); err != nil {
				t.Fatal(err)
			}
			kind, gotH, recs, err := ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if kind != tt.kind {
				t.Errorf("kind = %v, want %v", kind, tt.kind)
			}
			h.Label = tt.kind.Label()
			if gotH != h {
				t.Errorf("header = %+v, want %+v", gotH, h)
			}
			if !reflect.DeepEqual(recs, tt.recs) {
				t.Errorf("records = %v, want %v", recs, tt.recs)
			}
		})
	}
}

func TestWriteGridFormat(t *testing.T) {
	var buf bytes.Buffer
	h := datafile.Header{Epoch: 2458265.0, StepSize: 1, Duration: 0.1}
	if err := Write(&buf, Grid, h, []Record{{TimeIndex: 7, PointingOption: -1, GridPoint: 12, Lat: 2, Lon: -178.5}}); err != nil {
		t.Fatal(err)
	}
	want := `GRID COVERAGE
Epoch [JDUT1] is 2458265.0
Step size [s] is 1.0
Mission Duration [Days] is 0.1
time index,GP index,lat [deg],lon [deg]
7,12,2.0,-178.5
`
	if buf.String() != want {
		t.Errorf("file =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestReadErrors(t *testing.T) {
	head := "GRID COVERAGE\nEpoch [JDUT1] is 1.0\nStep size [s] is 1.0\nMission Duration [Days] is 1.0\n"
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"unknown label", strings.Replace(head, "GRID", "SWATH", 1), 1},
		{"wrong columns", head + "time index,lat [deg],lon [deg]\n", 5},
		{"bad gp", head + "time index,GP index,lat [deg],lon [deg]\n0,x,1,2\n", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Read(strings.NewReader(tt.in))
			var pe *datafile.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ParseError", err)
			}
			if pe.Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

package contact

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/interval"
	"github.com/star/orbitcov/internal/propagation"
	"github.com/star/orbitcov/internal/state"
	"github.com/star/orbitcov/internal/transform"
)

const testEpoch = 2458265.0

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func circularStates(t *testing.T, altKm, taDeg, step, days float64) *state.Series {
	t.Helper()
	k, err := propagation.NewKepler(propagation.Elements{
		SMA: transform.EarthRadius + altKm,
		Inc: geometry.Deg2Rad(30),
		TA:  geometry.Deg2Rad(taDeg),
	}, testEpoch)
	if err != nil {
		t.Fatal(err)
	}
	s, err := propagation.Propagate(context.Background(), k, propagation.Config{Epoch: testEpoch, StepSize: step, Duration: days})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestConstellationContacts places eight satellites evenly in one plane at
// 700 km. Neighbours see each other for the whole run; satellites a quarter
// orbit apart are blocked by the Earth throughout.
func TestConstellationContacts(t *testing.T) {
	sats := make([]*Spacecraft, 8)
	for i := range sats {
		sats[i] = &Spacecraft{ID: fmt.Sprintf("sat%d", i), States: circularStates(t, 700, float64(i)*45, 60, 0.1)}
	}
	last := len(sats[0].States.Records) - 1
	f := NewFinder(testLogger())
	r := transform.EarthRadius + 700
	wantRange := 2 * r * math.Sin(geometry.Deg2Rad(22.5))

	for i := range sats {
		adj, err := f.Contacts(context.Background(), Request{A: sats[i], B: sats[(i+1)%8], OutputType: Interval})
		if err != nil {
			t.Fatal(err)
		}
		if len(adj.Intervals) != 1 || adj.Intervals[0] != (interval.Interval{Start: 0, End: last}) {
			t.Errorf("sat%d-sat%d intervals %v, want [{0 %d}]", i, (i+1)%8, adj.Intervals, last)
		}
		for _, s := range adj.Samples {
			if math.Abs(s.RangeKm-wantRange) > 1e-3 {
				t.Fatalf("sat%d-sat%d range %f, want %f", i, (i+1)%8, s.RangeKm, wantRange)
			}
		}

		far, err := f.Contacts(context.Background(), Request{A: sats[i], B: sats[(i+2)%8], OutputType: Interval})
		if err != nil {
			t.Fatal(err)
		}
		if len(far.Intervals) != 0 {
			t.Errorf("sat%d-sat%d intervals %v, want none", i, (i+2)%8, far.Intervals)
		}
	}
}

func TestOpaqueAtmosphere(t *testing.T) {
	// 50 degrees apart at 700 km the segment passes about 37 km above the
	// surface.
	a := &Spacecraft{ID: "a", States: circularStates(t, 700, 0, 60, 0.01)}
	b := &Spacecraft{ID: "b", States: circularStates(t, 700, 50, 60, 0.01)}
	f := NewFinder(testLogger())
	clear, err := f.Contacts(context.Background(), Request{A: a, B: b})
	if err != nil {
		t.Fatal(err)
	}
	if len(clear.Intervals) != 1 {
		t.Fatalf("no atmosphere: intervals %v, want one", clear.Intervals)
	}
	blocked, err := f.Contacts(context.Background(), Request{A: a, B: b, OpaqueAtmosHeight: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(blocked.Intervals) != 0 {
		t.Errorf("100 km atmosphere: intervals %v, want none", blocked.Intervals)
	}
}

func TestContactErrors(t *testing.T) {
	f := NewFinder(testLogger())
	gs1 := &GroundStation{ID: "gs0"}
	gs2 := &GroundStation{ID: "gs1", Lat: 10}
	_, err := f.Contacts(context.Background(), Request{A: gs1, B: gs2})
	var up *UnsupportedPairError
	if !errors.As(err, &up) || up.A != "gs0" || up.B != "gs1" {
		t.Errorf("err = %v, want UnsupportedPairError", err)
	}

	a := &Spacecraft{ID: "a", States: circularStates(t, 700, 0, 60, 0.01)}
	tests := []struct {
		name  string
		b     *state.Series
		field string
	}{
		{"step", circularStates(t, 700, 45, 30, 0.01), "step size"},
		{"duration", circularStates(t, 700, 45, 60, 0.02), "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Contacts(context.Background(), Request{A: a, B: &Spacecraft{ID: "b", States: tt.b}})
			var de *DesyncError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want DesyncError", err)
			}
			if de.Field != tt.field {
				t.Errorf("field %q, want %q", de.Field, tt.field)
			}
		})
	}
}

// TestGroundStationContact puts a station under the satellite at the first
// step and checks the pair is swapped so the spacecraft comes first.
func TestGroundStationContact(t *testing.T) {
	states := circularStates(t, 700, 0, 10, 0.1)
	sub := states.EarthRotation(0).Apply(states.Records[0].Position)
	lat, lon, _ := transform.ECEFToGeo(sub)
	sc := &Spacecraft{ID: "sat0", States: states}
	f := NewFinder(testLogger())

	low, err := f.Contacts(context.Background(), Request{A: &GroundStation{ID: "gs0", Lat: lat, Lon: lon}, B: sc})
	if err != nil {
		t.Fatal(err)
	}
	if low.AID != "sat0" || low.BID != "gs0" {
		t.Errorf("pair (%s, %s), want (sat0, gs0)", low.AID, low.BID)
	}
	if !strings.HasPrefix(low.Header.Title, "Contacts between Entity1 with id sat0 with Entity2 with id gs0") {
		t.Errorf("title %q", low.Header.Title)
	}
	if el := geometry.Rad2Deg(low.Samples[0].Elevation); el < 89.9 {
		t.Errorf("elevation at index 0 = %f deg, want overhead", el)
	}
	if len(low.Intervals) == 0 || low.Intervals[0].Start != 0 {
		t.Fatalf("intervals %v, want a pass from index 0", low.Intervals)
	}

	high, err := f.Contacts(context.Background(), Request{A: sc, B: &GroundStation{ID: "gs0", Lat: lat, Lon: lon, MinElevation: geometry.Deg2Rad(60)}})
	if err != nil {
		t.Fatal(err)
	}
	if len(high.Intervals) == 0 || high.Intervals[0].Duration() >= low.Intervals[0].Duration() {
		t.Errorf("60 deg mask pass %v not shorter than horizon pass %v", high.Intervals, low.Intervals)
	}
	for i, s := range high.Samples {
		if s.Visible && geometry.Rad2Deg(s.Elevation) < 60 {
			t.Fatalf("index %d visible at %f deg", i, geometry.Rad2Deg(s.Elevation))
		}
	}
}

func TestEclipses(t *testing.T) {
	// One orbit of a 500 km satellite.
	period := 2 * math.Pi * math.Sqrt(math.Pow(transform.EarthRadius+500, 3)/propagation.MuEarth)
	states := circularStates(t, 500, 0, 10, period/86400)
	f := NewFinder(testLogger())
	res, err := f.Eclipses(context.Background(), EclipseRequest{Spacecraft: &Spacecraft{ID: "sat0", States: states}})
	if err != nil {
		t.Fatal(err)
	}
	var dark int
	for _, s := range res.Samples {
		if s.Visible {
			dark++
			if s.Elevation > 0 {
				t.Fatalf("eclipsed with the Sun %f rad above the local horizontal", s.Elevation)
			}
		}
		if math.Abs(s.RangeKm/transform.AU-1) > 0.02 {
			t.Fatalf("sun range %f AU", s.RangeKm/transform.AU)
		}
	}
	frac := float64(dark) / float64(len(res.Samples))
	if frac < 0.2 || frac > 0.45 {
		t.Errorf("eclipse fraction %f, want between 0.2 and 0.45", frac)
	}
	if len(res.Intervals) == 0 || len(res.Intervals) > 2 {
		t.Errorf("eclipse intervals %v", res.Intervals)
	}
	if res.BID != SunID || !strings.HasSuffix(res.Header.Title, "with Entity2 with id Sun") {
		t.Errorf("title %q", res.Header.Title)
	}
}

// fileShape returns the preamble lines and the column count of a contact or
// eclipse file.
func fileShape(t *testing.T, path string) (preamble []string, columns int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for i := 0; i < 4 && sc.Scan(); i++ {
		preamble = append(preamble, sc.Text())
	}
	if len(preamble) != 4 {
		t.Fatalf("%s: %d header lines", path, len(preamble))
	}
	return preamble[:3], len(strings.Split(preamble[3], ","))
}

// TestEclipseContactFormatSymmetry compares eclipse files with station
// contact files of the same series.
func TestEclipseContactFormatSymmetry(t *testing.T) {
	states := circularStates(t, 500, 0, 60, 0.05)
	sc := &Spacecraft{ID: "sat0", States: states}
	gs := &GroundStation{ID: "gs0", Lat: 10, Lon: 20}
	f := NewFinder(testLogger())
	dir := t.TempDir()

	for _, out := range []OutputType{Interval, Detail} {
		t.Run(out.String(), func(t *testing.T) {
			cPath := filepath.Join(dir, "contact_"+out.String()+".csv")
			ePath := filepath.Join(dir, "eclipse_"+out.String()+".csv")
			if _, err := f.Contacts(context.Background(), Request{A: sc, B: gs, OutputType: out, OutPath: cPath}); err != nil {
				t.Fatal(err)
			}
			if _, err := f.Eclipses(context.Background(), EclipseRequest{Spacecraft: sc, OutputType: out, OutPath: ePath}); err != nil {
				t.Fatal(err)
			}
			cPre, cCols := fileShape(t, cPath)
			ePre, eCols := fileShape(t, ePath)
			if cCols != eCols {
				t.Errorf("column counts %d and %d differ", cCols, eCols)
			}
			for i := 1; i < 3; i++ {
				if cPre[i] != ePre[i] {
					t.Errorf("preamble line %d: %q vs %q", i+1, cPre[i], ePre[i])
				}
			}
			if len(strings.Fields(cPre[0])) != len(strings.Fields(ePre[0])) {
				t.Errorf("titles differ in shape: %q vs %q", cPre[0], ePre[0])
			}
		})
	}
}

func TestDetailFile(t *testing.T) {
	a := &Spacecraft{ID: "a", States: circularStates(t, 700, 0, 60, 0.01)}
	b := &Spacecraft{ID: "b", States: circularStates(t, 700, 45, 60, 0.01)}
	path := filepath.Join(t.TempDir(), "a_to_b.csv")
	if _, err := NewFinder(testLogger()).Contacts(context.Background(), Request{A: a, B: b, OutputType: Detail, OutPath: path}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if want := 4 + len(a.States.Records); len(lines) != want {
		t.Fatalf("%d lines, want %d", len(lines), want)
	}
	if lines[0] != "Contacts between Entity1 with id a with Entity2 with id b" {
		t.Errorf("title %q", lines[0])
	}
	if lines[1] != "Epoch [JDUT1] is 2458265.0" || lines[2] != "Step size [s] is 60.0" {
		t.Errorf("preamble %q %q", lines[1], lines[2])
	}
	if lines[3] != "time index,access,range [km]" {
		t.Errorf("columns %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "0,True,") {
		t.Errorf("first row %q", lines[4])
	}
}

func TestIntervalFileRoundTrip(t *testing.T) {
	a := &Spacecraft{ID: "a", States: circularStates(t, 700, 0, 60, 0.01)}
	b := &Spacecraft{ID: "b", States: circularStates(t, 700, 45, 60, 0.01)}
	path := filepath.Join(t.TempDir(), "a_to_b.csv")
	res, err := NewFinder(testLogger()).Contacts(context.Background(), Request{A: a, B: b, OutPath: path})
	if err != nil {
		t.Fatal(err)
	}
	h, ivs, err := ReadIntervalsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if h != res.Header {
		t.Errorf("header %+v, want %+v", h, res.Header)
	}
	if len(ivs) != 1 || ivs[0] != res.Intervals[0] {
		t.Errorf("intervals %v, want %v", ivs, res.Intervals)
	}
}

func TestParseOutputType(t *testing.T) {
	for _, o := range []OutputType{Interval, Detail} {
		got, err := ParseOutputType(o.String())
		if err != nil || got != o {
			t.Errorf("ParseOutputType(%q) = %v, %v", o.String(), got, err)
		}
	}
	if _, err := ParseOutputType("SUMMARY"); err == nil {
		t.Error("expected error")
	}
}

package instrument

import (
	"errors"
	"math"
	"testing"

	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/geometry"
)

func testSpacecraft(t *testing.T) *Spacecraft {
	t.Helper()
	sc := config.Spacecraft{
		ID: "sat0",
		Instruments: []config.Instrument{
			{
				ID:       "imager",
				Geometry: &config.FOVGeometry{Shape: "CIRCULAR", Diameter: 10},
				Modes: []config.ModeSpec{
					{ID: "narrow"},
					{ID: "agile", Maneuver: &config.Maneuver{Type: config.ManeuverDoubleRoll, ARollMin: 5, ARollMax: 25, BRollMin: -25, BRollMax: -5}},
				},
			},
			{
				ID:          "sar",
				Orientation: &config.Orientation{ReferenceFrame: "NADIR_POINTING", Convention: "SIDE_LOOK", SideLookAngle: 30},
				Geometry:    &config.FOVGeometry{Shape: "RECTANGULAR", AngleHeight: 2, AngleWidth: 6},
				Maneuver:    &config.Maneuver{Type: config.ManeuverCircular, Diameter: 20},
				PointingOptions: []config.Orientation{
					{Convention: "SIDE_LOOK", SideLookAngle: -20},
					{Convention: "SIDE_LOOK", SideLookAngle: 20},
				},
			},
		},
	}
	s, err := FromConfig(sc)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	return s
}

func TestSelect(t *testing.T) {
	s := testSpacecraft(t)
	tests := []struct {
		name       string
		inst, mode string
		wantInst   string
		wantMode   string
		notFound   string
	}{
		{"defaults", "", "", "imager", "narrow", ""},
		{"explicit mode", "imager", "agile", "imager", "agile", ""},
		{"second instrument default mode", "sar", "", "sar", "0", ""},
		{"missing instrument", "lidar", "", "", "", "instrument"},
		{"missing mode", "imager", "night", "", "", "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, m, err := s.Select(tt.inst, tt.mode)
			if tt.notFound != "" {
				var nf *config.NotFoundError
				if !errors.As(err, &nf) || nf.Kind != tt.notFound {
					t.Fatalf("err = %v, want NotFoundError for %s", err, tt.notFound)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if in.ID != tt.wantInst || m.ID != tt.wantMode {
				t.Errorf("selected %s/%s, want %s/%s", in.ID, m.ID, tt.wantInst, tt.wantMode)
			}
		})
	}

	empty := &Spacecraft{ID: "bare"}
	var nf *config.NotFoundError
	if _, _, err := empty.Select("", ""); !errors.As(err, &nf) {
		t.Errorf("no instruments: err = %v, want NotFoundError", err)
	}

	modeless := &Spacecraft{ID: "bare", Instruments: []Instrument{{ID: "cam"}}}
	for _, modeID := range []string{"", "0"} {
		if _, _, err := modeless.Select("cam", modeID); !errors.As(err, &nf) || nf.Kind != "mode" {
			t.Errorf("instrument without modes, mode %q: err = %v, want mode NotFoundError", modeID, err)
		}
	}
}

func TestFieldOfRegardDerivation(t *testing.T) {
	s := testSpacecraft(t)

	_, narrow, _ := s.Select("imager", "narrow")
	if len(narrow.FieldOfRegard) != 1 || narrow.FieldOfRegard[0].Shape != narrow.SceneFOV.Shape {
		t.Errorf("no maneuver: field of regard should be the scene FOV, got %+v", narrow.FieldOfRegard)
	}
	if narrow.SceneFOV.Orientation.Frame != geometry.SCBodyFixed {
		t.Errorf("default sensor frame = %s", narrow.SceneFOV.Orientation.Frame)
	}

	_, agile, _ := s.Select("imager", "agile")
	if len(agile.FieldOfRegard) != 2 {
		t.Fatalf("double roll lobes = %d, want 2", len(agile.FieldOfRegard))
	}
	for i, wantRoll := range []float64{15, -15} {
		l := agile.FieldOfRegard[i]
		if got := geometry.Rad2Deg(l.Orientation.Angles[0]); math.Abs(got-wantRoll) > 1e-9 {
			t.Errorf("lobe %d roll = %g, want %g", i, got, wantRoll)
		}
		along, cross := l.Shape.Extent()
		if math.Abs(geometry.Rad2Deg(along)-10) > 1e-9 || math.Abs(geometry.Rad2Deg(cross)-30) > 1e-9 {
			t.Errorf("lobe %d extent = %g x %g deg", i, geometry.Rad2Deg(along), geometry.Rad2Deg(cross))
		}
	}

	_, sar, _ := s.Select("sar", "")
	c, ok := sar.FieldOfRegard[0].Shape.(*geometry.Circular)
	if !ok {
		t.Fatalf("circular maneuver lobe is %T", sar.FieldOfRegard[0].Shape)
	}
	want := geometry.Deg2Rad(10) + sar.SceneFOV.Shape.ProxyHalfAngle()
	if math.Abs(c.HalfAngle-want) > 1e-12 {
		t.Errorf("circular lobe half-angle = %g, want %g", c.HalfAngle, want)
	}
	if len(sar.PointingOptions) != 2 || sar.PointingOptions[1].Frame != geometry.NadirPointing {
		t.Errorf("pointing options = %+v", sar.PointingOptions)
	}
}

func TestFromConfigErrors(t *testing.T) {
	sc := config.Spacecraft{
		ID:          "sat0",
		Instruments: []config.Instrument{{ID: "x"}},
	}
	var ce *config.ConfigError
	if _, err := FromConfig(sc); !errors.As(err, &ce) {
		t.Errorf("missing geometry: err = %v, want ConfigError", err)
	}

	sc.Bus.Orientation = &config.Orientation{ReferenceFrame: "SC_BODY_FIXED"}
	sc.Instruments = nil
	if _, err := FromConfig(sc); !errors.As(err, &ce) {
		t.Errorf("bus frame: err = %v, want ConfigError", err)
	}
}

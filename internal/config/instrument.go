package config

import (
	"fmt"

	"github.com/star/orbitcov/internal/geometry"
)

// Orientation is a configured orientation in degrees.
type Orientation struct {
	ReferenceFrame string  `json:"referenceFrame"`
	Convention     string  `json:"convention"`
	SideLookAngle  float64 `json:"sideLookAngle"`
	XRotation      float64 `json:"xRotation"`
	YRotation      float64 `json:"yRotation"`
	ZRotation      float64 `json:"zRotation"`
	EulerAngle1    float64 `json:"eulerAngle1"`
	EulerAngle2    float64 `json:"eulerAngle2"`
	EulerAngle3    float64 `json:"eulerAngle3"`
	EulerSeq1      int     `json:"eulerSeq1"`
	EulerSeq2      int     `json:"eulerSeq2"`
	EulerSeq3      int     `json:"eulerSeq3"`
}

// FOVGeometry is a configured sensor shape in degrees.
type FOVGeometry struct {
	Shape       string    `json:"shape"` // CIRCULAR, RECTANGULAR or CUSTOM
	Diameter    float64   `json:"diameter"`
	AngleHeight float64   `json:"angleHeight"`
	AngleWidth  float64   `json:"angleWidth"`
	ConeAngles  []float64 `json:"customConeAnglesVector"`
	ClockAngles []float64 `json:"customClockAnglesVector"`
}

// Maneuver describes how far the sensor can be slewed. Angles in degrees.
type Maneuver struct {
	Type     string  `json:"maneuverType"` // CIRCULAR, SINGLE_ROLL_ONLY or DOUBLE_ROLL_ONLY
	Diameter float64 `json:"diameter"`
	ARollMin float64 `json:"A_rollMin"`
	ARollMax float64 `json:"A_rollMax"`
	BRollMin float64 `json:"B_rollMin"`
	BRollMax float64 `json:"B_rollMax"`
}

// Maneuver types.
const (
	ManeuverCircular   = "CIRCULAR"
	ManeuverSingleRoll = "SINGLE_ROLL_ONLY"
	ManeuverDoubleRoll = "DOUBLE_ROLL_ONLY"
)

// Lobe is one explicit field-of-regard lobe.
type Lobe struct {
	Orientation *Orientation `json:"orientation"`
	Geometry    FOVGeometry  `json:"fieldOfViewGeometry"`
}

// ModeSpec holds the per-mode sensor settings. Fields left empty on a mode
// inherit the instrument-level value.
type ModeSpec struct {
	ID              string        `json:"@id"`
	Orientation     *Orientation  `json:"orientation"`
	Geometry        *FOVGeometry  `json:"fieldOfViewGeometry"`
	Maneuver        *Maneuver     `json:"maneuver"`
	FieldOfRegard   []Lobe        `json:"fieldOfRegard"`
	PointingOptions []Orientation `json:"pointingOption"`
}

// Instrument is a sensor with its default settings and optional modes.
type Instrument struct {
	ID              string        `json:"@id"`
	Name            string        `json:"name"`
	Orientation     *Orientation  `json:"orientation"`
	Geometry        *FOVGeometry  `json:"fieldOfViewGeometry"`
	Maneuver        *Maneuver     `json:"maneuver"`
	FieldOfRegard   []Lobe        `json:"fieldOfRegard"`
	PointingOptions []Orientation `json:"pointingOption"`
	Modes           []ModeSpec    `json:"mode"`
}

// ResolvedModes returns the modes with instrument-level values filled in.
// An instrument without modes has a single mode with id "0".
func (in Instrument) ResolvedModes() []ModeSpec {
	base := ModeSpec{
		ID:              "0",
		Orientation:     in.Orientation,
		Geometry:        in.Geometry,
		Maneuver:        in.Maneuver,
		FieldOfRegard:   in.FieldOfRegard,
		PointingOptions: in.PointingOptions,
	}
	if len(in.Modes) == 0 {
		return []ModeSpec{base}
	}
	out := make([]ModeSpec, len(in.Modes))
	for i, m := range in.Modes {
		r := m
		if r.Orientation == nil {
			r.Orientation = base.Orientation
		}
		if r.Geometry == nil {
			r.Geometry = base.Geometry
		}
		if r.Maneuver == nil {
			r.Maneuver = base.Maneuver
		}
		if r.FieldOfRegard == nil {
			r.FieldOfRegard = base.FieldOfRegard
		}
		if r.PointingOptions == nil {
			r.PointingOptions = base.PointingOptions
		}
		out[i] = r
	}
	return out
}

func (in Instrument) validate(field string) error {
	seen := make(map[string]bool)
	for i, m := range in.ResolvedModes() {
		mf := fmt.Sprintf("%s.mode[%d]", field, i)
		if seen[m.ID] {
			return invalid(mf+".@id", "duplicate mode id %q", m.ID)
		}
		seen[m.ID] = true
		if m.Geometry == nil {
			return invalid(mf+".fieldOfViewGeometry", "required")
		}
		if _, err := m.Geometry.Build(mf + ".fieldOfViewGeometry"); err != nil {
			return err
		}
		if err := m.Orientation.validate(mf + ".orientation"); err != nil {
			return err
		}
		if err := m.Maneuver.validate(mf + ".maneuver"); err != nil {
			return err
		}
		for j, l := range m.FieldOfRegard {
			lf := fmt.Sprintf("%s.fieldOfRegard[%d]", mf, j)
			if _, err := l.Geometry.Build(lf + ".fieldOfViewGeometry"); err != nil {
				return err
			}
			if err := l.Orientation.validate(lf + ".orientation"); err != nil {
				return err
			}
		}
		for j := range m.PointingOptions {
			if err := m.PointingOptions[j].validate(fmt.Sprintf("%s.pointingOption[%d]", mf, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *Orientation) validate(field string) error {
	_, err := o.Build(field, geometry.NadirPointing)
	return err
}

// Build converts o into a geometry orientation. A nil o is
// aligned with defaultFrame. An empty reference frame also means defaultFrame.
func (o *Orientation) Build(field string, defaultFrame geometry.ReferenceFrame) (geometry.Orientation, error) {
	if o == nil {
		return geometry.Aligned(defaultFrame), nil
	}
	frame := geometry.ReferenceFrame(o.ReferenceFrame)
	switch frame {
	case "":
		frame = defaultFrame
	case geometry.NadirPointing, geometry.SCBodyFixed:
	default:
		return geometry.Orientation{}, invalid(field+".referenceFrame", "unknown frame %q", o.ReferenceFrame)
	}
	rad := geometry.Deg2Rad
	switch geometry.Convention(o.Convention) {
	case geometry.RefFrameAligned, "":
		return geometry.Aligned(frame), nil
	case geometry.SideLook:
		return geometry.SideLooking(frame, rad(o.SideLookAngle)), nil
	case geometry.XYZ:
		return geometry.XYZRotation(frame, rad(o.XRotation), rad(o.YRotation), rad(o.ZRotation)), nil
	case geometry.Euler:
		seq := [3]int{o.EulerSeq1, o.EulerSeq2, o.EulerSeq3}
		for i, a := range seq {
			if a < 1 || a > 3 {
				return geometry.Orientation{}, invalid(fmt.Sprintf("%s.eulerSeq%d", field, i+1), "axis %d out of range 1..3", a)
			}
		}
		return geometry.EulerRotation(frame, seq, [3]float64{rad(o.EulerAngle1), rad(o.EulerAngle2), rad(o.EulerAngle3)}), nil
	default:
		return geometry.Orientation{}, invalid(field+".convention", "unknown convention %q", o.Convention)
	}
}

// Build converts g into a sensor shape.
func (g *FOVGeometry) Build(field string) (geometry.Shape, error) {
	rad := geometry.Deg2Rad
	var (
		s   geometry.Shape
		err error
	)
	switch g.Shape {
	case "CIRCULAR":
		s, err = geometry.NewCircular(rad(g.Diameter))
	case "RECTANGULAR":
		s, err = geometry.NewRectangular(rad(g.AngleHeight), rad(g.AngleWidth))
	case "CUSTOM":
		cone := make([]float64, len(g.ConeAngles))
		for i, c := range g.ConeAngles {
			cone[i] = rad(c)
		}
		clock := make([]float64, len(g.ClockAngles))
		for i, c := range g.ClockAngles {
			clock[i] = rad(c)
		}
		s, err = geometry.NewCustom(cone, clock)
	default:
		return nil, invalid(field+".shape", "unknown shape %q", g.Shape)
	}
	if err != nil {
		return nil, invalid(field, "%v", err)
	}
	return s, nil
}

func (m *Maneuver) validate(field string) error {
	if m == nil {
		return nil
	}
	switch m.Type {
	case ManeuverCircular:
		if !(m.Diameter > 0) || m.Diameter >= 180 {
			return invalid(field+".diameter", "%g out of range (0, 180)", m.Diameter)
		}
	case ManeuverSingleRoll:
		if m.ARollMin > m.ARollMax {
			return invalid(field, "A_rollMin %g > A_rollMax %g", m.ARollMin, m.ARollMax)
		}
	case ManeuverDoubleRoll:
		if m.ARollMin > m.ARollMax || m.BRollMin > m.BRollMax {
			return invalid(field, "roll ranges [%g, %g] and [%g, %g] invalid", m.ARollMin, m.ARollMax, m.BRollMin, m.BRollMax)
		}
	default:
		return invalid(field+".maneuverType", "unknown maneuver %q", m.Type)
	}
	return nil
}

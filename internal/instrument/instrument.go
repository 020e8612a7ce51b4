// Package instrument resolves a spacecraft's sensors into the view
// geometries used by coverage: the scene field of view, the field-of-regard
// lobes and the pointing options of each mode.
package instrument

import (
	"fmt"
	"math"

	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/geometry"
)

// Spacecraft is the sensor-side view of a satellite.
type Spacecraft struct {
	ID          string
	Bus         geometry.Orientation
	Instruments []Instrument
}

// Instrument is a sensor with one or more modes.
type Instrument struct {
	ID    string
	Modes []Mode
}

// Mode holds the geometry of one sensor mode. FieldOfRegard always has at
// least one lobe; with no maneuver it equals the scene field of view.
type Mode struct {
	ID              string
	SceneFOV        geometry.ViewGeometry
	FieldOfRegard   []geometry.ViewGeometry
	PointingOptions []geometry.Orientation
}

// FromConfig resolves a configured spacecraft.
func FromConfig(sc config.Spacecraft) (*Spacecraft, error) {
	field := "spacecraft " + sc.ID
	bus, err := sc.Bus.Orientation.Build(field+".spacecraftBus.orientation", geometry.NadirPointing)
	if err != nil {
		return nil, err
	}
	if bus.Frame != geometry.NadirPointing {
		return nil, &config.ConfigError{Field: field + ".spacecraftBus.orientation.referenceFrame", Reason: "bus must be oriented relative to NADIR_POINTING"}
	}
	out := &Spacecraft{ID: sc.ID, Bus: bus}
	for _, in := range sc.Instruments {
		inst := Instrument{ID: in.ID}
		for _, ms := range in.ResolvedModes() {
			m, err := buildMode(fmt.Sprintf("%s.instrument %s.mode %s", field, in.ID, ms.ID), ms)
			if err != nil {
				return nil, err
			}
			inst.Modes = append(inst.Modes, m)
		}
		out.Instruments = append(out.Instruments, inst)
	}
	return out, nil
}

// Select picks an instrument and mode. An empty id selects the first entry;
// an explicit id that does not exist is a NotFoundError.
func (s *Spacecraft) Select(instrumentID, modeID string) (*Instrument, *Mode, error) {
	if len(s.Instruments) == 0 {
		return nil, nil, &config.NotFoundError{Kind: "instrument", ID: instrumentID, Owner: "spacecraft " + s.ID}
	}
	in := &s.Instruments[0]
	if instrumentID != "" {
		in = nil
		for i := range s.Instruments {
			if s.Instruments[i].ID == instrumentID {
				in = &s.Instruments[i]
				break
			}
		}
		if in == nil {
			return nil, nil, &config.NotFoundError{Kind: "instrument", ID: instrumentID, Owner: "spacecraft " + s.ID}
		}
	}
	if len(in.Modes) == 0 {
		return nil, nil, &config.NotFoundError{Kind: "mode", ID: modeID, Owner: "instrument " + in.ID}
	}
	m := &in.Modes[0]
	if modeID != "" {
		m = nil
		for i := range in.Modes {
			if in.Modes[i].ID == modeID {
				m = &in.Modes[i]
				break
			}
		}
		if m == nil {
			return nil, nil, &config.NotFoundError{Kind: "mode", ID: modeID, Owner: "instrument " + in.ID}
		}
	}
	return in, m, nil
}

func buildMode(field string, ms config.ModeSpec) (Mode, error) {
	if ms.Geometry == nil {
		return Mode{}, &config.ConfigError{Field: field + ".fieldOfViewGeometry", Reason: "required"}
	}
	shape, err := ms.Geometry.Build(field + ".fieldOfViewGeometry")
	if err != nil {
		return Mode{}, err
	}
	orien, err := ms.Orientation.Build(field+".orientation", geometry.SCBodyFixed)
	if err != nil {
		return Mode{}, err
	}
	m := Mode{ID: ms.ID, SceneFOV: geometry.ViewGeometry{Orientation: orien, Shape: shape}}

	switch {
	case len(ms.FieldOfRegard) > 0:
		for i, l := range ms.FieldOfRegard {
			lf := fmt.Sprintf("%s.fieldOfRegard[%d]", field, i)
			ls, err := l.Geometry.Build(lf + ".fieldOfViewGeometry")
			if err != nil {
				return Mode{}, err
			}
			lo, err := l.Orientation.Build(lf+".orientation", geometry.NadirPointing)
			if err != nil {
				return Mode{}, err
			}
			m.FieldOfRegard = append(m.FieldOfRegard, geometry.ViewGeometry{Orientation: lo, Shape: ls})
		}
	case ms.Maneuver != nil:
		lobes, err := FieldOfRegard(*ms.Maneuver, shape)
		if err != nil {
			return Mode{}, &config.ConfigError{Field: field + ".maneuver", Reason: err.Error()}
		}
		m.FieldOfRegard = lobes
	default:
		m.FieldOfRegard = []geometry.ViewGeometry{m.SceneFOV}
	}

	for i := range ms.PointingOptions {
		po, err := ms.PointingOptions[i].Build(fmt.Sprintf("%s.pointingOption[%d]", field, i), geometry.NadirPointing)
		if err != nil {
			return Mode{}, err
		}
		m.PointingOptions = append(m.PointingOptions, po)
	}
	return m, nil
}

// FieldOfRegard derives field-of-regard lobes, relative to the nadir-pointing
// frame, from a maneuver and the scene shape:
//
//   - CIRCULAR: one cone of half-angle diameter/2 plus the scene's proxy half-angle.
//   - SINGLE_ROLL_ONLY: one rectangle rolled to the middle of the roll range,
//     as tall as the scene and as wide as the roll range plus the scene width.
//   - DOUBLE_ROLL_ONLY: one such rectangle per roll range.
func FieldOfRegard(man config.Maneuver, scene geometry.Shape) ([]geometry.ViewGeometry, error) {
	rad := geometry.Deg2Rad
	switch man.Type {
	case config.ManeuverCircular:
		d := rad(man.Diameter) + 2*scene.ProxyHalfAngle()
		if d >= 2*math.Pi {
			return nil, fmt.Errorf("field of regard cone %g rad too wide", d)
		}
		c, err := geometry.NewCircular(d)
		if err != nil {
			return nil, err
		}
		return []geometry.ViewGeometry{{Orientation: geometry.Aligned(geometry.NadirPointing), Shape: c}}, nil
	case config.ManeuverSingleRoll:
		l, err := rollLobe(rad(man.ARollMin), rad(man.ARollMax), scene)
		if err != nil {
			return nil, err
		}
		return []geometry.ViewGeometry{l}, nil
	case config.ManeuverDoubleRoll:
		a, err := rollLobe(rad(man.ARollMin), rad(man.ARollMax), scene)
		if err != nil {
			return nil, err
		}
		b, err := rollLobe(rad(man.BRollMin), rad(man.BRollMax), scene)
		if err != nil {
			return nil, err
		}
		return []geometry.ViewGeometry{a, b}, nil
	default:
		return nil, fmt.Errorf("unknown maneuver %q", man.Type)
	}
}

func rollLobe(rollMin, rollMax float64, scene geometry.Shape) (geometry.ViewGeometry, error) {
	along, cross := scene.Extent()
	r, err := geometry.NewRectangular(along, rollMax-rollMin+cross)
	if err != nil {
		return geometry.ViewGeometry{}, err
	}
	return geometry.ViewGeometry{
		Orientation: geometry.SideLooking(geometry.NadirPointing, (rollMin+rollMax)/2),
		Shape:       r,
	}, nil
}

// Package contact finds line-of-sight contacts between spacecraft and
// ground stations, and eclipses of spacecraft by the Earth.
package contact

import (
	"fmt"

	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/state"
	"github.com/star/orbitcov/internal/transform"
)

// Entity is one end of a contact pair: a *Spacecraft or a *GroundStation.
type Entity interface {
	EntityID() string
	entity()
}

// Spacecraft is an entity moving along a propagated state series.
type Spacecraft struct {
	ID     string
	States *state.Series
}

func (s *Spacecraft) EntityID() string { return s.ID }
func (*Spacecraft) entity()            {}

// GroundStation is a fixed site on the Earth sphere.
type GroundStation struct {
	ID           string
	Lat, Lon     float64 // degrees, geocentric
	Alt          float64 // km above the sphere
	MinElevation float64 // radians
}

func (g *GroundStation) EntityID() string { return g.ID }
func (*GroundStation) entity()            {}

// Position returns the station position in the Earth-fixed frame.
func (g *GroundStation) Position() geometry.Vec3 {
	return transform.GeoToECEF(g.Lat, g.Lon, g.Alt)
}

// UnsupportedPairError reports a pair with no spacecraft in it.
type UnsupportedPairError struct {
	A, B string
}

func (e *UnsupportedPairError) Error() string {
	return fmt.Sprintf("unsupported contact pair %s and %s: at least one entity must be a spacecraft", e.A, e.B)
}

// DesyncError reports two state series that are not sampled on the same
// time grid.
type DesyncError struct {
	A, B  string
	Field string
	ValA  float64
	ValB  float64
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("state series of %s and %s differ in %s: %g != %g", e.A, e.B, e.Field, e.ValA, e.ValB)
}

// canonical orders a pair so the spacecraft comes first. Two spacecraft keep
// their order.
func canonical(a, b Entity) (*Spacecraft, Entity, error) {
	switch a := a.(type) {
	case *Spacecraft:
		return a, b, nil
	case *GroundStation:
		if sb, ok := b.(*Spacecraft); ok {
			return sb, a, nil
		}
	}
	return nil, nil, &UnsupportedPairError{A: a.EntityID(), B: b.EntityID()}
}

// checkSync requires identical sampling of two series.
func checkSync(a, b *Spacecraft) error {
	sa, sb := a.States, b.States
	checks := []struct {
		field  string
		va, vb float64
	}{
		{"epoch", sa.Epoch, sb.Epoch},
		{"step size", sa.StepSize, sb.StepSize},
		{"duration", sa.Duration, sb.Duration},
		{"record count", float64(len(sa.Records)), float64(len(sb.Records))},
	}
	for _, c := range checks {
		if c.va != c.vb {
			return &DesyncError{A: a.ID, B: b.ID, Field: c.field, ValA: c.va, ValB: c.vb}
		}
	}
	return nil
}

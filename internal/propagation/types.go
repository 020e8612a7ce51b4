package propagation

import (
	"github.com/star/orbitcov/internal/state"
	"github.com/star/orbitcov/internal/transform"
)

// Propagator names, matching the mission propagator types.
const (
	NameKepler = "KEPLER"
	NameSGP4   = "SGP4"
)

// Propagator produces the inertial state of one spacecraft at a Julian Date.
type Propagator interface {
	Name() string
	StateAt(jd float64) (transform.State, error)
}

// Config is the sampling grid shared by every spacecraft in a run.
type Config struct {
	Epoch    float64 // Julian Date UT1
	StepSize float64 // seconds
	Duration float64 // days
}

// Job is one spacecraft to propagate.
type Job struct {
	SpacecraftID string
	Propagator   Propagator
}

// Result is the outcome of one Job.
type Result struct {
	SpacecraftID string
	Series       *state.Series
	Err          error
}

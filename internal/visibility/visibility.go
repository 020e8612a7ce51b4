// Package visibility decides line of sight between two positions past an
// obstructing sphere centred at the origin, and the elevation of one
// position as seen from the other.
package visibility

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/orbitcov/internal/geometry"
)

// ErrDegenerate is matched by every GeometryDegenerateError.
var ErrDegenerate = errors.New("degenerate geometry")

// GeometryDegenerateError reports inputs for which line of sight or elevation
// is undefined: coincident positions, a zero observer position, or
// non-finite components.
type GeometryDegenerateError struct {
	A, B   geometry.Vec3
	Reason string
}

func (e *GeometryDegenerateError) Error() string {
	return fmt.Sprintf("degenerate geometry between %+v and %+v: %s", e.A, e.B, e.Reason)
}

func (e *GeometryDegenerateError) Is(target error) bool {
	return target == ErrDegenerate
}

// radiusTolerance keeps an observer lying on the sphere from being obstructed
// by its own surface through rounding.
const radiusTolerance = 1e-9

func check(a, b geometry.Vec3) error {
	if !a.IsFinite() || !b.IsFinite() {
		return &GeometryDegenerateError{A: a, B: b, Reason: "non-finite component"}
	}
	if a == b {
		return &GeometryDegenerateError{A: a, B: b, Reason: "coincident positions"}
	}
	return nil
}

// LineOfSight reports whether the segment from a to b stays clear of the
// sphere of the given radius.
func LineOfSight(a, b geometry.Vec3, radius float64) (bool, error) {
	if err := check(a, b); err != nil {
		return false, err
	}
	d := b.Sub(a)
	// Closest point on the segment to the centre.
	t := -a.Dot(d) / d.Dot(d)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(d.Scale(t))
	limit := radius * (1 - radiusTolerance)
	return closest.Dot(closest) >= limit*limit, nil
}

// Range returns |a - b| in the units of the inputs.
func Range(a, b geometry.Vec3) float64 {
	return b.Sub(a).Norm()
}

// Elevation returns the angle in radians of target above the local
// horizontal plane at observer: π/2 − acos(unit(observer) · unit(target − observer)).
func Elevation(target, observer geometry.Vec3) (float64, error) {
	if err := check(target, observer); err != nil {
		return 0, err
	}
	up, ok := observer.Unit()
	if !ok {
		return 0, &GeometryDegenerateError{A: target, B: observer, Reason: "observer at origin"}
	}
	los, _ := target.Sub(observer).Unit()
	c := math.Max(-1, math.Min(1, up.Dot(los)))
	return math.Pi/2 - math.Acos(c), nil
}

// Access is the per-sample outcome of a pair evaluation.
type Access struct {
	Visible   bool
	RangeKm   float64
	Elevation float64 // radians; zero unless requested
}

// Evaluate combines line of sight with an optional minimum elevation of a as
// seen from b, which the elevation must strictly exceed. When minElevation is nil only the line of sight is tested.
func Evaluate(a, b geometry.Vec3, radius float64, minElevation *float64) (Access, error) {
	los, err := LineOfSight(a, b, radius)
	if err != nil {
		return Access{}, err
	}
	out := Access{Visible: los, RangeKm: Range(a, b)}
	if minElevation == nil {
		return out, nil
	}
	el, err := Elevation(a, b)
	if err != nil {
		return Access{}, err
	}
	out.Elevation = el
	if los && el <= *minElevation {
		out.Visible = false
	}
	return out, nil
}

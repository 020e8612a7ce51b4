package transform

import (
	"math"

	"github.com/star/orbitcov/internal/geometry"
)

// State is a position (km) and velocity (km/s) pair.
type State struct {
	Position geometry.Vec3
	Velocity geometry.Vec3
}

// EarthRotation returns the ECI-to-ECEF rotation R3(gmst).
func EarthRotation(gmst float64) geometry.DCM {
	return geometry.R3(gmst)
}

// ValidOrbitPosition checks that a position (km) is physically reasonable for
// an Earth-orbiting satellite: finite, and between 6200 km and 50000 km from
// the centre.
func ValidOrbitPosition(r geometry.Vec3) bool {
	if !r.IsFinite() {
		return false
	}
	mag := r.Norm()
	return mag >= 6200.0 && mag <= 50000.0 && !math.IsNaN(mag)
}

package propagation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/transform"
)

// SGP4Propagator wraps go-satellite for a single TLE. go-satellite samples
// whole calendar seconds, so requested times are rounded to the second.
//
// Output is in the TEME frame, which is used as the inertial frame without
// a precession-nutation correction.
type SGP4Propagator struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4Propagator creates an SGP4 propagator from TLE lines. The lines are
// checked first since go-satellite calls log.Fatal on malformed input.
func NewSGP4Propagator(line1, line2 string, noradID int) (*SGP4Propagator, error) {
	line1, line2 = strings.TrimSpace(line1), strings.TrimSpace(line2)
	if err := checkTLE(line1, line2, noradID); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, noradID: noradID}, nil
}

// checkTLE verifies line numbers and lengths, and that both lines carry the
// same catalog number. A non-zero noradID must match it as well.
func checkTLE(line1, line2 string, noradID int) error {
	for i, l := range [2]string{line1, line2} {
		if len(l) != 69 {
			return fmt.Errorf("line %d has %d characters, want 69", i+1, len(l))
		}
		if l[0] != byte('1'+i) {
			return fmt.Errorf("line %d starts with %q", i+1, l[0])
		}
	}
	id1, id2 := strings.TrimSpace(line1[2:7]), strings.TrimSpace(line2[2:7])
	if id1 != id2 {
		return fmt.Errorf("catalog numbers differ: %s and %s", id1, id2)
	}
	if n, err := strconv.Atoi(id1); noradID != 0 && (err != nil || n != noradID) {
		return fmt.Errorf("catalog number %s, want %d", id1, noradID)
	}
	return nil
}

func (p *SGP4Propagator) Name() string { return NameSGP4 }

// StateAt returns the TEME state (km, km/s) at jd rounded to the second.
func (p *SGP4Propagator) StateAt(jd float64) (transform.State, error) {
	t := transform.TimeFromJD(jd).Round(time.Second)
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	r := geometry.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}
	v := geometry.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z}
	// Propagate takes the satellite by value, so SGP4 error codes are lost;
	// failures show up as NaN or an unreasonable radius.
	if !v.IsFinite() || !transform.ValidOrbitPosition(r) {
		return transform.State{}, fmt.Errorf("sgp4 propagation failed for NORAD %d at %s: position %.1f km",
			p.noradID, t.Format(time.RFC3339), r.Norm())
	}
	return transform.State{Position: r, Velocity: v}, nil
}

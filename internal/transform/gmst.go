// Package transform provides time scales and Earth-centred frame conversions
// used by propagation, coverage and visibility.
//
// Frames: ECI here is the inertial frame the propagators emit (TEME for SGP4,
// mean equator of date for the Kepler propagator). ECEF is reached by a single
// GMST rotation about Z, which ignores polar motion and the equation of the
// equinoxes.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// jdUnixEpoch is the Julian Date of 1970-01-01T00:00:00Z.
const jdUnixEpoch = 2440587.5

// JulianDate converts t to a Julian Date, counting days from the Unix epoch.
// TimeFromJD is its inverse to the microsecond.
func JulianDate(t time.Time) float64 {
	return jdUnixEpoch + float64(t.UnixMicro())/86400e6
}

// TimeFromJD converts a Julian Date to UTC, rounded to the microsecond.
func TimeFromJD(jd float64) time.Time {
	us := math.Round((jd - jdUnixEpoch) * 86400e6)
	return time.UnixMicro(int64(us)).UTC()
}

// GMST returns Greenwich Mean Sidereal Time in radians at t.
func GMST(t time.Time) float64 {
	return GMSTFromJD(JulianDate(t))
}

// GMSTFromJD returns the IAU-82 Greenwich Mean Sidereal Time in radians,
// in [0, 2π), for a UT1 Julian Date (Vallado Eq. 3-47).
func GMSTFromJD(jd float64) float64 {
	const secPerCentury = 876600 * 3600.0
	c := (jd - j2000) / 36525.0
	sec := 67310.54841 + (secPerCentury+8640184.812866)*c + 0.093104*c*c - 6.2e-6*c*c*c
	sec = math.Mod(sec, 86400)
	if sec < 0 {
		sec += 86400
	}
	return 2 * math.Pi * sec / 86400
}

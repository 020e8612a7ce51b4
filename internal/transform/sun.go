package transform

import (
	"math"

	"github.com/star/orbitcov/internal/geometry"
)

// AU is the astronomical unit in km.
const AU = 149597870.7

// SunPositionECI returns the geocentric position of the Sun (km) in the
// mean equator and equinox of date at Julian Date jd.
// Uses the low-precision solar coordinates of the Astronomical Almanac,
// good to about 0.01 degrees.
func SunPositionECI(jd float64) geometry.Vec3 {
	// Julian centuries from J2000.0
	T := (jd - j2000) / 36525.0

	L0 := normalizeDeg(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := normalizeDeg(357.52911 + 35999.05029*T - 0.0001537*T*T)
	mRad := geometry.Deg2Rad(M)

	// Equation of centre.
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(mRad) +
		(0.019993-0.000101*T)*math.Sin(2*mRad) +
		0.000289*math.Sin(3*mRad)
	lambda := geometry.Deg2Rad(L0 + C)

	// Distance in AU.
	R := 1.000140612 - 0.016708617*math.Cos(mRad) - 0.000139589*math.Cos(2*mRad)

	eps := geometry.Deg2Rad(23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T)

	sl, cl := math.Sincos(lambda)
	se, ce := math.Sincos(eps)
	return geometry.Vec3{X: R * cl, Y: R * ce * sl, Z: R * se * sl}.Scale(AU)
}

func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

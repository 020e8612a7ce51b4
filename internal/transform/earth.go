package transform

import (
	"math"

	"github.com/star/orbitcov/internal/geometry"
)

// EarthRadius is the equatorial radius in km. Coverage, line-of-sight and
// ground-station geometry all use a sphere of this radius.
const EarthRadius = 6378.137

// GeoToECEF converts geocentric latitude and longitude (degrees) and an
// altitude above the sphere (km) to an Earth-fixed position in km.
func GeoToECEF(latDeg, lonDeg, altKm float64) geometry.Vec3 {
	sLat, cLat := math.Sincos(geometry.Deg2Rad(latDeg))
	sLon, cLon := math.Sincos(geometry.Deg2Rad(lonDeg))
	r := EarthRadius + altKm
	return geometry.Vec3{X: r * cLat * cLon, Y: r * cLat * sLon, Z: r * sLat}
}

// ECEFToGeo is the inverse of GeoToECEF. Longitude is in [-180, 180].
func ECEFToGeo(v geometry.Vec3) (latDeg, lonDeg, altKm float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0, -EarthRadius
	}
	latDeg = geometry.Rad2Deg(math.Asin(v.Z / r))
	lonDeg = geometry.Rad2Deg(math.Atan2(v.Y, v.X))
	return latDeg, lonDeg, r - EarthRadius
}

package geometry

import "math"

// PointGroup stores fixed surface points as unit vectors in the Earth-fixed
// frame so a footprint query is a horizon test plus a shape test.
type PointGroup struct {
	radius float64
	units  []Vec3
}

// NewPointGroup converts geocentric latitudes and longitudes (degrees) into a
// point group on a sphere of the given radius.
func NewPointGroup(latDeg, lonDeg []float64, radius float64) *PointGroup {
	g := &PointGroup{radius: radius, units: make([]Vec3, len(latDeg))}
	for i := range latDeg {
		sLat, cLat := math.Sincos(Deg2Rad(latDeg[i]))
		sLon, cLon := math.Sincos(Deg2Rad(lonDeg[i]))
		g.units[i] = Vec3{X: cLat * cLon, Y: cLat * sLon, Z: sLat}
	}
	return g
}

// Len returns the number of points.
func (g *PointGroup) Len() int { return len(g.units) }

// Position returns point i in the Earth-fixed frame.
func (g *PointGroup) Position(i int) Vec3 { return g.units[i].Scale(g.radius) }

// InView appends to dst, in ascending order, the index of every point above
// the local horizon of an observer at obs (Earth-fixed) whose direction,
// rotated into the sensor frame by toSensor, lies inside shape.
func (g *PointGroup) InView(obs Vec3, toSensor DCM, shape Shape, dst []int) []int {
	for i, u := range g.units {
		if obs.Dot(u) <= g.radius {
			continue
		}
		d, ok := u.Scale(g.radius).Sub(obs).Unit()
		if !ok {
			continue
		}
		if shape.Contains(toSensor.Apply(d)) {
			dst = append(dst, i)
		}
	}
	return dst
}

// RaySphere intersects the ray origin + t*dir (t >= 0) with a sphere of the
// given radius centred at the origin. Of two roots the one nearer the ray
// origin is returned; a tangent ray yields its single root. ok is false when
// the ray misses or the sphere lies behind the origin.
func RaySphere(origin, dir Vec3, radius float64) (hit Vec3, ok bool) {
	d, valid := dir.Unit()
	if !valid {
		return Vec3{}, false
	}
	b := origin.Dot(d)
	c := origin.Dot(origin) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return Vec3{}, false
	}
	var t float64
	if disc == 0 {
		t = -b
	} else {
		sq := math.Sqrt(disc)
		t1, t2 := -b-sq, -b+sq
		switch {
		case t1 >= 0:
			t = t1
		case t2 >= 0:
			t = t2
		default:
			return Vec3{}, false
		}
	}
	if t < 0 {
		return Vec3{}, false
	}
	return origin.Add(d.Scale(t)), true
}

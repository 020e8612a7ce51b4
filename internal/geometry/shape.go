package geometry

import (
	"fmt"
	"math"
)

// Shape is a sensor's angular footprint in its own frame, boresight along +Z.
type Shape interface {
	// Contains reports whether the unit direction u (sensor frame) is inside.
	Contains(u Vec3) bool
	// ProxyHalfAngle is the half-angle of the smallest circular cone about
	// the boresight that encloses the shape.
	ProxyHalfAngle() float64
	// Extent returns the full angular size along the sensor X axis
	// (along-track) and Y axis (cross-track).
	Extent() (alongTrack, crossTrack float64)
}

// ViewGeometry pairs an orientation with a shape. It describes a scene
// field of view or one lobe of a field of regard.
type ViewGeometry struct {
	Orientation Orientation
	Shape       Shape
}

// Circular is a right circular cone.
type Circular struct {
	HalfAngle float64
	cosHalf   float64
}

// NewCircular builds a circular cone from its full apex angle in radians.
func NewCircular(diameter float64) (*Circular, error) {
	if !(diameter > 0) || diameter >= 2*math.Pi {
		return nil, fmt.Errorf("circular diameter %g rad out of range", diameter)
	}
	h := diameter / 2
	return &Circular{HalfAngle: h, cosHalf: math.Cos(h)}, nil
}

func (c *Circular) Contains(u Vec3) bool {
	return u.Z >= c.cosHalf
}

func (c *Circular) ProxyHalfAngle() float64 { return c.HalfAngle }

func (c *Circular) Extent() (float64, float64) { return 2 * c.HalfAngle, 2 * c.HalfAngle }

// Polygon is a spherical polygon whose edges are great-circle arcs. It is
// stored by the gnomonic projection of its vertices onto the z=1 plane,
// where great circles through the origin become straight lines.
type Polygon struct {
	vx, vy []float64
	proxy  float64
	along  float64
	cross  float64
}

// NewRectangular builds a rectangular pyramid from its along-track (height)
// and cross-track (width) full angles in radians.
func NewRectangular(height, width float64) (*Polygon, error) {
	if !(height > 0) || !(width > 0) || height >= math.Pi || width >= math.Pi {
		return nil, fmt.Errorf("rectangular angles %g x %g rad out of range", height, width)
	}
	tx := math.Tan(height / 2)
	ty := math.Tan(width / 2)
	p := &Polygon{
		vx:    []float64{tx, -tx, -tx, tx},
		vy:    []float64{ty, ty, -ty, -ty},
		along: height,
		cross: width,
	}
	p.proxy = math.Atan(math.Hypot(tx, ty))
	return p, nil
}

// NewCustom builds a polygon from vertex cone and clock angles in radians.
// Clock angles are measured from +X towards +Y. Cone angles must be below 90°.
func NewCustom(cone, clock []float64) (*Polygon, error) {
	if len(cone) != len(clock) {
		return nil, fmt.Errorf("custom shape has %d cone and %d clock angles", len(cone), len(clock))
	}
	if len(cone) < 3 {
		return nil, fmt.Errorf("custom shape needs at least 3 vertices, got %d", len(cone))
	}
	p := &Polygon{vx: make([]float64, len(cone)), vy: make([]float64, len(cone))}
	var maxX, maxY float64
	for i := range cone {
		if cone[i] < 0 || cone[i] >= math.Pi/2 {
			return nil, fmt.Errorf("custom shape vertex %d cone angle %g rad out of range", i, cone[i])
		}
		t := math.Tan(cone[i])
		s, c := math.Sincos(clock[i])
		p.vx[i] = t * c
		p.vy[i] = t * s
		p.proxy = math.Max(p.proxy, cone[i])
		maxX = math.Max(maxX, math.Abs(p.vx[i]))
		maxY = math.Max(maxY, math.Abs(p.vy[i]))
	}
	p.along = 2 * math.Atan(maxX)
	p.cross = 2 * math.Atan(maxY)
	return p, nil
}

// Contains uses an even-odd crossing test in the gnomonic plane.
func (p *Polygon) Contains(u Vec3) bool {
	if u.Z <= 0 {
		return false
	}
	x, y := u.X/u.Z, u.Y/u.Z
	inside := false
	n := len(p.vx)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if (p.vy[i] > y) != (p.vy[j] > y) {
			xc := (p.vx[j]-p.vx[i])*(y-p.vy[i])/(p.vy[j]-p.vy[i]) + p.vx[i]
			if x < xc {
				inside = !inside
			}
		}
	}
	return inside
}

func (p *Polygon) ProxyHalfAngle() float64 { return p.proxy }

func (p *Polygon) Extent() (float64, float64) { return p.along, p.cross }

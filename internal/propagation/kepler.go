package propagation

import (
	"fmt"
	"math"

	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/transform"
)

// MuEarth is the Earth gravitational parameter in km^3/s^2.
const MuEarth = 398600.4418

// Elements are classical orbital elements. Angles are in radians.
type Elements struct {
	SMA  float64 // km
	Ecc  float64
	Inc  float64
	RAAN float64
	AOP  float64
	TA   float64 // true anomaly at epoch
}

// Kepler is an unperturbed two-body propagator.
type Kepler struct {
	el      Elements
	epoch   float64 // Julian Date of the elements
	meanMot float64 // rad/s
	m0      float64 // mean anomaly at epoch
	toECI   geometry.DCM
}

// NewKepler builds a two-body propagator for elements valid at epoch.
func NewKepler(el Elements, epoch float64) (*Kepler, error) {
	if !(el.SMA > 0) {
		return nil, fmt.Errorf("semi-major axis %g km must be positive", el.SMA)
	}
	if el.Ecc < 0 || el.Ecc >= 1 {
		return nil, fmt.Errorf("eccentricity %g out of range [0, 1)", el.Ecc)
	}
	e := el.Ecc
	sNu, cNu := math.Sincos(el.TA)
	e0 := math.Atan2(math.Sqrt(1-e*e)*sNu, e+cNu)
	// PQW -> ECI is the transpose of R3(aop) R1(inc) R3(raan).
	toPQW := geometry.R3(el.AOP).Mul(geometry.R1(el.Inc)).Mul(geometry.R3(el.RAAN))
	return &Kepler{
		el:      el,
		epoch:   epoch,
		meanMot: math.Sqrt(MuEarth / (el.SMA * el.SMA * el.SMA)),
		m0:      e0 - e*math.Sin(e0),
		toECI:   toPQW.Transpose(),
	}, nil
}

func (k *Kepler) Name() string { return NameKepler }

// StateAt returns the inertial state at jd.
func (k *Kepler) StateAt(jd float64) (transform.State, error) {
	e := k.el.Ecc
	m := k.m0 + k.meanMot*(jd-k.epoch)*86400.0
	ea, err := eccentricAnomaly(m, e)
	if err != nil {
		return transform.State{}, err
	}
	sE, cE := math.Sincos(ea)
	nu := math.Atan2(math.Sqrt(1-e*e)*sE, cE-e)
	sNu, cNu := math.Sincos(nu)

	p := k.el.SMA * (1 - e*e)
	r := k.el.SMA * (1 - e*cE)
	vs := math.Sqrt(MuEarth / p)
	rPQW := geometry.Vec3{X: r * cNu, Y: r * sNu}
	vPQW := geometry.Vec3{X: -vs * sNu, Y: vs * (e + cNu)}
	return transform.State{Position: k.toECI.Apply(rPQW), Velocity: k.toECI.Apply(vPQW)}, nil
}

// eccentricAnomaly solves Kepler's equation E - e sin E = M by Newton
// iteration.
func eccentricAnomaly(m, e float64) (float64, error) {
	m = math.Remainder(m, 2*math.Pi)
	ea := m
	if e > 0.8 {
		ea = math.Pi
		if m < 0 {
			ea = -math.Pi
		}
	}
	for i := 0; i < 50; i++ {
		d := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= d
		if math.Abs(d) < 1e-13 {
			return ea, nil
		}
	}
	return 0, fmt.Errorf("kepler equation did not converge for M=%g e=%g", m, e)
}

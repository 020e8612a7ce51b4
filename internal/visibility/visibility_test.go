package visibility

import (
	"errors"
	"math"
	"testing"

	"github.com/star/orbitcov/internal/geometry"
)

const re = 6378.137

func TestLineOfSight(t *testing.T) {
	r := re + 700
	at := func(deg float64) geometry.Vec3 {
		s, c := math.Sincos(geometry.Deg2Rad(deg))
		return geometry.Vec3{X: r * c, Y: r * s}
	}
	tests := []struct {
		name   string
		a, b   geometry.Vec3
		radius float64
		want   bool
	}{
		{"45 degrees apart clear", at(0), at(45), re, true},
		{"90 degrees apart blocked", at(0), at(90), re, false},
		{"opposite sides blocked", at(0), at(180), re, false},
		{"thick atmosphere blocks 45", at(0), at(45), re + 200, false},
		{"radial pair clear", geometry.Vec3{X: re + 100}, geometry.Vec3{X: re + 900}, re, true},
		{"ground to overhead", geometry.Vec3{X: re}, geometry.Vec3{X: r}, re, true},
		{"ground to below horizon", geometry.Vec3{X: re}, at(60), re, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LineOfSight(tt.a, tt.b, tt.radius)
			if err != nil {
				t.Fatalf("LineOfSight: %v", err)
			}
			if got != tt.want {
				t.Errorf("LineOfSight = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDegenerate(t *testing.T) {
	p := geometry.Vec3{X: 7000}
	_, err := LineOfSight(p, p, re)
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("coincident: err = %v, want ErrDegenerate", err)
	}
	var ge *GeometryDegenerateError
	if !errors.As(err, &ge) || ge.Reason != "coincident positions" {
		t.Errorf("errors.As failed or wrong reason: %v", err)
	}

	_, err = LineOfSight(geometry.Vec3{X: math.NaN()}, p, re)
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("NaN: err = %v, want ErrDegenerate", err)
	}

	_, err = Elevation(p, geometry.Vec3{})
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("zero observer: err = %v, want ErrDegenerate", err)
	}
}

func TestElevation(t *testing.T) {
	gs := geometry.Vec3{X: re}
	tests := []struct {
		name   string
		target geometry.Vec3
		want   float64
	}{
		{"zenith", geometry.Vec3{X: re + 500}, 90},
		{"horizon", geometry.Vec3{X: re, Y: 1000}, 0},
		{"45 degrees", geometry.Vec3{X: re + 1000, Y: 1000}, 45},
		{"below horizon", geometry.Vec3{X: re - 1000, Y: 1000}, -45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := Elevation(tt.target, gs)
			if err != nil {
				t.Fatal(err)
			}
			if got := geometry.Rad2Deg(el); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("elevation = %.9f°, want %g°", got, tt.want)
			}
		})
	}
}

func TestEvaluateMinElevation(t *testing.T) {
	gs := geometry.Vec3{X: re}
	sat := geometry.Vec3{X: re + 1000, Y: 1000} // 45° elevation

	low := geometry.Deg2Rad(10)
	acc, err := Evaluate(sat, gs, re, &low)
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Visible {
		t.Error("expected access above 10° mask")
	}
	if math.Abs(acc.RangeKm-math.Sqrt2*1000) > 1e-6 {
		t.Errorf("range = %g", acc.RangeKm)
	}

	high := geometry.Deg2Rad(60)
	acc, err = Evaluate(sat, gs, re, &high)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Visible {
		t.Error("expected no access below 60° mask")
	}

	exact, err := Elevation(sat, gs)
	if err != nil {
		t.Fatal(err)
	}
	if acc, err = Evaluate(sat, gs, re, &exact); err != nil || acc.Visible {
		t.Errorf("elevation equal to the mask: visible %v, err %v", acc.Visible, err)
	}
	below := exact - 1e-9
	if acc, err = Evaluate(sat, gs, re, &below); err != nil || !acc.Visible {
		t.Errorf("elevation just above the mask: visible %v, err %v", acc.Visible, err)
	}

	acc, err = Evaluate(sat, gs, re, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Visible || acc.Elevation != 0 {
		t.Errorf("plain line of sight = %+v", acc)
	}
}

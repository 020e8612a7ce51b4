package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DCM is a 3x3 direction cosine matrix. A DCM C maps the coordinates of a
// vector in a parent frame to the coordinates of the same vector in a child
// frame: v_child = C * v_parent.
type DCM struct {
	m *mat.Dense
}

// Identity returns the identity rotation.
func Identity() DCM {
	return DCM{m: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})}
}

// R1 is the frame rotation about the first axis by x radians.
func R1(x float64) DCM {
	s, c := math.Sincos(x)
	return DCM{m: mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})}
}

// R2 is the frame rotation about the second axis by x radians.
func R2(x float64) DCM {
	s, c := math.Sincos(x)
	return DCM{m: mat.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})}
}

// R3 is the frame rotation about the third axis by x radians.
func R3(x float64) DCM {
	s, c := math.Sincos(x)
	return DCM{m: mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})}
}

// axisRotation returns R1, R2 or R3 for axis 1, 2 or 3.
func axisRotation(axis int, angle float64) (DCM, error) {
	switch axis {
	case 1:
		return R1(angle), nil
	case 2:
		return R2(angle), nil
	case 3:
		return R3(angle), nil
	default:
		return DCM{}, fmt.Errorf("euler axis %d out of range 1..3", axis)
	}
}

// EulerDCM builds the rotation for an Euler sequence. The rotations are
// applied in order: first about seq[0] by angles[0], then seq[1], then seq[2],
// so C = R_seq[2](angles[2]) * R_seq[1](angles[1]) * R_seq[0](angles[0]).
func EulerDCM(seq [3]int, angles [3]float64) (DCM, error) {
	out := Identity()
	for i := 0; i < 3; i++ {
		r, err := axisRotation(seq[i], angles[i])
		if err != nil {
			return DCM{}, err
		}
		out = r.Mul(out)
	}
	return out, nil
}

// Mul returns the composition c * o, i.e. apply o first and then c.
func (c DCM) Mul(o DCM) DCM {
	var out mat.Dense
	out.Mul(c.m, o.m)
	return DCM{m: &out}
}

// Transpose returns the inverse rotation.
func (c DCM) Transpose() DCM {
	return DCM{m: mat.DenseCopyOf(c.m.T())}
}

// Apply returns C * v.
func (c DCM) Apply(v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(c.m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// ApplyT returns C^T * v, mapping child-frame coordinates back to the parent.
func (c DCM) ApplyT(v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(c.m.T(), mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Row returns row i of the matrix, which is child axis i expressed in the
// parent frame.
func (c DCM) Row(i int) Vec3 {
	return Vec3{X: c.m.At(i, 0), Y: c.m.At(i, 1), Z: c.m.At(i, 2)}
}

// FromRows builds a DCM whose rows are the child axes written in the parent frame.
func FromRows(x, y, z Vec3) DCM {
	return DCM{m: mat.NewDense(3, 3, []float64{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	})}
}

// Equal reports whether two rotations agree element-wise within tol.
func (c DCM) Equal(o DCM, tol float64) bool {
	return mat.EqualApprox(c.m, o.m, tol)
}

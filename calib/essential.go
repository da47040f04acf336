package calib

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// EssentialMatrix is the 3x3 matrix encoding the epipolar constraint between
// camera 0 and camera j: f0^T * E * fj = 0 for corresponding bearings.
type EssentialMatrix struct {
	m *mat.Dense
}

// skew returns the 3x3 cross-product matrix [t]_x such that [t]_x * v == t x v,
// the construction used by the teacher's two-view geometry helpers
// (rimage/transform/two_view_geom.go's SVD-based essential/fundamental
// matrix code) for building E from a translation and rotation.
func skew(t r3.Vector) *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	m.Set(0, 1, -t.Z)
	m.Set(0, 2, t.Y)
	m.Set(1, 0, t.Z)
	m.Set(1, 2, -t.X)
	m.Set(2, 0, -t.Y)
	m.Set(2, 1, t.X)
	return m
}

func rot3ToDense(r rot3) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		r[0].X, r[0].Y, r[0].Z,
		r[1].X, r[1].Y, r[1].Z,
		r[2].X, r[2].Y, r[2].Z,
	})
}

// NewEssentialMatrix builds E = [t]_x R from the rig baseline pose
// T_cam0_camj = (R, t), the sign/orientation convention documented in
// spec.md §9 ("Essential-matrix convention").
func NewEssentialMatrix(pose Pose) *EssentialMatrix {
	var e mat.Dense
	e.Mul(skew(pose.T), rot3ToDense(pose.R))
	return &EssentialMatrix{m: &e}
}

// Residual computes the algebraic epipolar residual rho = |f0^T E f1| for a
// pair of unit bearing vectors observed in camera 0 and camera j
// respectively. A perfectly consistent pair yields rho == 0.
func (e *EssentialMatrix) Residual(f0, f1 r3.Vector) float64 {
	ef1 := r3.Vector{
		X: e.m.At(0, 0)*f1.X + e.m.At(0, 1)*f1.Y + e.m.At(0, 2)*f1.Z,
		Y: e.m.At(1, 0)*f1.X + e.m.At(1, 1)*f1.Y + e.m.At(1, 2)*f1.Z,
		Z: e.m.At(2, 0)*f1.X + e.m.At(2, 1)*f1.Y + e.m.At(2, 2)*f1.Z,
	}
	return math.Abs(f0.Dot(ef1))
}

// Package opticalflow implements the patch-based inverse-compositional
// optical flow tracker: pyramid-level patch alignment, forward-backward
// validation, FAST/BRIEF-based detection, and depth-guided stereo matching.
package opticalflow

import (
	"math"

	"github.com/golang/geo/r2"
)

// mat2x2 is a 2x2 linear map, the "linear part" of an affine warp. Kept as a
// fixed-size value rather than gonum's mat.Dense so the hot tracking loop
// allocates nothing per iteration.
type mat2x2 [2][2]float64

var identity2x2 = mat2x2{{1, 0}, {0, 1}}

func (m mat2x2) apply(p r2.Point) r2.Point {
	return r2.Point{
		X: m[0][0]*p.X + m[0][1]*p.Y,
		Y: m[1][0]*p.X + m[1][1]*p.Y,
	}
}

func (m mat2x2) mul(n mat2x2) mat2x2 {
	return mat2x2{
		{m[0][0]*n[0][0] + m[0][1]*n[1][0], m[0][0]*n[0][1] + m[0][1]*n[1][1]},
		{m[1][0]*n[0][0] + m[1][1]*n[1][0], m[1][0]*n[0][1] + m[1][1]*n[1][1]},
	}
}

// Warp is the 2D affine pose of a tracked patch: a 2x2 linear part
// (rotation/scale/shear) and a translation, applied as p' = Linear*p +
// Translation (spec.md §3: "Affine warp (W). A 2×2 linear part plus a 2D
// translation").
type Warp struct {
	Linear      mat2x2
	Translation r2.Point
}

// NewIdentityWarp returns a warp with an identity linear part translated to at.
func NewIdentityWarp(at r2.Point) Warp {
	return Warp{Linear: identity2x2, Translation: at}
}

// Apply maps a pattern-frame offset through the warp into image coordinates.
func (w Warp) Apply(offset r2.Point) r2.Point {
	return w.Linear.apply(offset).Add(w.Translation)
}

// ScaleTranslation returns a copy of w with its translation multiplied by
// the given factor; the linear part is unchanged. Used when
// descending/ascending pyramid levels, with factor 1/2^level going down and
// 2^level coming back up (spec.md §4.3).
func (w Warp) ScaleTranslation(factor float64) Warp {
	return Warp{Linear: w.Linear, Translation: w.Translation.Mul(factor)}
}

// se2Increment is the 3-vector output of one Gauss-Newton step: 2 translation
// components followed by 1 rotation component, the ordering spec.md §4.3
// step 3 specifies ("ordered: 2 translation, 1 rotation").
type se2Increment struct {
	Tx, Ty, Theta float64
}

// expSE2 computes the closed-form SE(2) exponential map of an increment
// (tx, ty, theta), returning the corresponding Warp (a pure rotation
// composed with the coupled V*t translation). A small-angle Taylor branch
// below 1e-8 radians avoids catastrophic cancellation in the V matrix
// (spec.md §9: "SE(2) exponential... small-angle Taylor branch for |theta|
// < 1e-8").
func expSE2(delta se2Increment) Warp {
	theta := delta.Theta
	var sinOverTheta, oneMinusCosOverTheta float64
	if math.Abs(theta) < 1e-8 {
		// sin(theta)/theta -> 1 - theta^2/6, (1-cos(theta))/theta -> theta/2
		sinOverTheta = 1 - theta*theta/6
		oneMinusCosOverTheta = theta / 2
	} else {
		sinOverTheta = math.Sin(theta) / theta
		oneMinusCosOverTheta = (1 - math.Cos(theta)) / theta
	}

	v := mat2x2{
		{sinOverTheta, -oneMinusCosOverTheta},
		{oneMinusCosOverTheta, sinOverTheta},
	}
	translation := v.apply(r2.Point{X: delta.Tx, Y: delta.Ty})

	c, s := math.Cos(theta), math.Sin(theta)
	rot := mat2x2{{c, -s}, {s, c}}
	return Warp{Linear: rot, Translation: translation}
}

// Compose returns w composed with an SE(2) increment on the right:
// w <- w * exp_SE2(delta) (spec.md §4.3 step 5).
func (w Warp) Compose(delta se2Increment) Warp {
	inc := expSE2(delta)
	return Warp{
		Linear:      w.Linear.mul(inc.Linear),
		Translation: w.Linear.apply(inc.Translation).Add(w.Translation),
	}
}

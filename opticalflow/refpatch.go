package opticalflow

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/opticalflow/rimage"
)

// gradientStep is the bilinear-sampling margin the Sobel gradient grids need
// beyond the pattern's own extent (one pixel, for the neighbor a bilinear
// sample of the gradient grid reads).
const gradientStep = 1.0

// sobelAnchor centers GetSobelX/GetSobelY's 3x3 support on the pixel being
// filtered, matching PaddingGray16's anchor convention.
var sobelAnchor = image.Point{X: 1, Y: 1}

// sobelScale normalizes the raw integer Sobel taps (which sum to 4 on either
// side of the kernel's zero column/row, two pixels apart, so a unit-slope
// ramp yields 8) down to a per-pixel derivative.
const sobelScale = 1.0 / 8.0

// refPatch is the reference patch for one keypoint at one pyramid level
// (spec.md §3): the sampled intensities at creation, their mean, and the
// pre-computed inverse-compositional normal equation (JᵀJ)⁻¹Jᵀ, where J is
// the SE(2) Jacobian of warped intensity with respect to an increment at the
// reference location. J itself is only used while building the patch and is
// not kept. Immutable once built.
type refPatch struct {
	intensities []float64
	mean        float64
	hInvJT      *mat.Dense // 3 x P
	valid       bool
}

// newRefPatch samples the fixed pattern around center in img and builds the
// inverse-compositional Jacobian. valid is false if any sample (including
// the gradient taps) fell outside the image, or if the normal equation is
// ill-conditioned (spec.md §3, §9: "reject creation when any level's patch
// would be invalid").
func newRefPatch(img *rimage.Image16, center r2.Point) *refPatch {
	p := len(patternOffsets)
	intensities := make([]float64, p)
	jac := mat.NewDense(p, 3, nil)

	margin := patternHalfExtent + gradientStep + 1
	if !img.InBoundsWithMargin(toRimagePoint(center), margin) {
		return &refPatch{valid: false}
	}

	gx, gy, err := sobelGradients(img)
	if err != nil {
		return &refPatch{valid: false}
	}

	sum := 0.0
	for i, off := range patternOffsets {
		pos := center.Add(off)
		v, serr := img.SampleBilinear(toRimagePoint(pos))
		if serr != nil {
			return &refPatch{valid: false}
		}
		intensities[i] = v
		sum += v

		gxv, gyv, ok := sampleGradient(gx, gy, img.Width, img.Height, toRimagePoint(pos))
		if !ok {
			return &refPatch{valid: false}
		}
		// d(position)/d(tx, ty, theta) at identity is [[1,0,-off.y],[0,1,off.x]];
		// chain rule with the image gradient gives one Jacobian row per sample.
		jac.Set(i, 0, gxv)
		jac.Set(i, 1, gyv)
		jac.Set(i, 2, gxv*(-off.Y)+gyv*off.X)
	}
	mean := sum / float64(p)

	var jacT mat.Dense
	jacT.CloneFrom(jac.T())
	var hessian mat.Dense
	hessian.Mul(&jacT, jac)

	var hInv mat.Dense
	if err := hInv.Inverse(&hessian); err != nil {
		return &refPatch{valid: false}
	}
	var hInvJT mat.Dense
	hInvJT.Mul(&hInv, &jacT)

	return &refPatch{intensities: intensities, mean: mean, hInvJT: &hInvJT, valid: true}
}

// sobelGradients convolves img once with the normalized Sobel x/y kernels,
// producing the dense per-pixel gradient response grids sampleGradient reads
// from (rimage/convolution.go's GetSobelX/GetSobelY/ConvolveGray16Float),
// rather than the ad hoc per-tap finite difference a hand-rolled gradient
// would need.
func sobelGradients(img *rimage.Image16) (gx, gy [][]float64, err error) {
	gx, err = rimage.ConvolveGray16Float(img, rimage.GetSobelX().Scaled(sobelScale), sobelAnchor, rimage.BorderReplicate)
	if err != nil {
		return nil, nil, err
	}
	gy, err = rimage.ConvolveGray16Float(img, rimage.GetSobelY().Scaled(sobelScale), sobelAnchor, rimage.BorderReplicate)
	if err != nil {
		return nil, nil, err
	}
	return gx, gy, nil
}

// sampleGradient bilinearly samples the precomputed Sobel gradient grids at
// p, ok is false if the sample's neighbors fall outside the image.
func sampleGradient(gx, gy [][]float64, width, height int, p rimage.Point) (float64, float64, bool) {
	gxv, ok := rimage.SampleBilinearFloat(gx, width, height, p)
	if !ok {
		return 0, 0, false
	}
	gyv, ok := rimage.SampleBilinearFloat(gy, width, height, p)
	if !ok {
		return 0, 0, false
	}
	return gxv, gyv, true
}

func toRimagePoint(p r2.Point) rimage.Point {
	return rimage.Point{X: p.X, Y: p.Y}
}

// residual computes the mean-normalized intensity difference between the
// current warped samples in img and the stored reference, r = I(warped) -
// I_ref, both divided by their own means (spec.md §4.3 step 2). ok is false
// on any out-of-bounds sample.
func (rp *refPatch) residual(img *rimage.Image16, warp Warp) (res []float64, ok bool) {
	p := len(patternOffsets)
	warped := make([]float64, p)
	sum := 0.0
	for i, off := range patternOffsets {
		pos := warp.Apply(off)
		v, err := img.SampleBilinear(toRimagePoint(pos))
		if err != nil {
			return nil, false
		}
		warped[i] = v
		sum += v
	}
	warpedMean := sum / float64(p)
	if warpedMean == 0 || rp.mean == 0 {
		return nil, false
	}
	res = make([]float64, p)
	for i := range res {
		res[i] = warped[i]/warpedMean - rp.intensities[i]/rp.mean
	}
	return res, true
}

// solveIncrement returns delta = -hInvJT * r, the Gauss-Newton step
// (spec.md §4.3 step 3).
func (rp *refPatch) solveIncrement(res []float64) se2Increment {
	r := mat.NewVecDense(len(res), res)
	var delta mat.VecDense
	delta.MulVec(rp.hInvJT, r)
	return se2Increment{Tx: -delta.AtVec(0), Ty: -delta.AtVec(1), Theta: -delta.AtVec(2)}
}

func finiteIncrement(d se2Increment) bool {
	return !math.IsNaN(d.Tx) && !math.IsInf(d.Tx, 0) &&
		!math.IsNaN(d.Ty) && !math.IsInf(d.Ty, 0) &&
		!math.IsNaN(d.Theta) && !math.IsInf(d.Theta, 0)
}

func incrementInfNorm(d se2Increment) float64 {
	return math.Max(math.Abs(d.Tx), math.Max(math.Abs(d.Ty), math.Abs(d.Theta)))
}

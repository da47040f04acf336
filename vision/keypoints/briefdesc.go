package keypoints

import (
	"image"
	"math"

	"go.viam.com/opticalflow/rimage"
)

// briefPatchSize is the side length of the square patch BRIEF samples are
// drawn from around a keypoint.
const briefPatchSize = 31

// briefNumBits is the descriptor length (spec.md §4.4: "256-bit, BRIEF-style").
const briefNumBits = 256

// SamplePairs is the fixed set of briefNumBits patch-relative offset pairs
// BRIEF compares to build a descriptor.
type SamplePairs struct {
	P0, P1 []image.Point
}

// GenerateSamplePairs builds the fixed BRIEF sampling pattern (spec.md §4.4:
// "a fixed sampling pattern"), deterministic so descriptors from different
// detection passes remain directly comparable.
func GenerateSamplePairs(patchSize int) *SamplePairs {
	half := patchSize / 2
	n := briefNumBits
	xs0 := sampleRegularlySpaced(n, -half, half)
	ys0 := sampleRegularlySpaced(n, -half, half)
	p0 := make([]image.Point, n)
	p1 := make([]image.Point, n)
	for i := 0; i < n; i++ {
		x0 := xs0[i]
		x1 := -2 * xs0[i] / 3
		y1 := ys0[i]
		if i%2 != 0 {
			x1 = xs0[i]
			y1 = -ys0[i]
		} else {
			x0 = 2 * xs0[i] / 3
		}
		p0[i] = image.Point{X: x0, Y: ys0[i]}
		p1[i] = image.Point{X: x1, Y: y1}
	}
	return &SamplePairs{P0: p0, P1: p1}
}

func sampleRegularlySpaced(n, lo, hi int) []int {
	out := make([]int, n)
	span := float64(hi - lo)
	for i := 0; i < n; i++ {
		out[i] = lo + int(math.Round(span*float64(i)/float64(n-1)))
	}
	return out
}

// BlurForDescriptor low-pass filters img with a 5x5 binomial kernel before
// BRIEF sampling, reducing the descriptor's sensitivity to pixel noise.
func BlurForDescriptor(img *rimage.Image16) (*rimage.Image16, error) {
	g := rimage.GetGaussian5()
	values := make([][]float64, len(g))
	for i, wi := range g {
		row := make([]float64, len(g))
		for j, wj := range g {
			row[j] = wi * wj
		}
		values[i] = row
	}
	kernel := rimage.NewKernel(values)
	return rimage.ConvolveGray16(img, kernel, image.Point{X: 2, Y: 2}, rimage.BorderReplicate)
}

// ComputeDescriptor computes the 256-bit rotated BRIEF descriptor at kp in
// the already-blurred image blurred. Returns ok=false if the sampling patch
// around kp falls outside blurred (spec.md §4.4 step 3).
func ComputeDescriptor(blurred *rimage.Image16, kp image.Point, orientation float64, useOrientation bool, sp *SamplePairs) (desc [4]uint64, ok bool) {
	half := briefPatchSize / 2
	corners := [4]image.Point{
		{X: kp.X + half, Y: kp.Y + half}, {X: kp.X + half, Y: kp.Y - half},
		{X: kp.X - half, Y: kp.Y + half}, {X: kp.X - half, Y: kp.Y - half},
	}
	for _, c := range corners {
		if !blurred.In(c.X, c.Y) {
			return [4]uint64{}, false
		}
	}

	cosTheta, sinTheta := 1.0, 0.0
	if useOrientation {
		cosTheta, sinTheta = math.Cos(orientation), math.Sin(orientation)
	}
	for i := 0; i < briefNumBits; i++ {
		x0, y0 := float64(sp.P0[i].X), float64(sp.P0[i].Y)
		x1, y1 := float64(sp.P1[i].X), float64(sp.P1[i].Y)
		rx0 := kp.X + int(math.Round(cosTheta*x0-sinTheta*y0))
		ry0 := kp.Y + int(math.Round(sinTheta*x0+cosTheta*y0))
		rx1 := kp.X + int(math.Round(cosTheta*x1-sinTheta*y1))
		ry1 := kp.Y + int(math.Round(sinTheta*x1+cosTheta*y1))
		var v0, v1 uint16
		if blurred.In(rx0, ry0) {
			v0 = blurred.At(rx0, ry0)
		}
		if blurred.In(rx1, ry1) {
			v1 = blurred.At(rx1, ry1)
		}
		if v0 > v1 {
			desc[i/64] |= 1 << uint(i%64)
		}
	}
	return desc, true
}

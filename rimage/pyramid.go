package rimage

import "image"

// Pyramid is an image pyramid: level 0 is the full-resolution image, and each
// subsequent level is half the width and height of the one below it
// (spec.md §3, §4.1). Levels are shared, immutable once built, and safe for
// concurrent read access by multiple tracked points.
type Pyramid struct {
	Levels []*Image16
}

// NumLevels returns the number of levels in the pyramid.
func (p *Pyramid) NumLevels() int {
	return len(p.Levels)
}

// At returns the image at the given pyramid level, level 0 being full resolution.
func (p *Pyramid) At(level int) *Image16 {
	return p.Levels[level]
}

// pyramidBlurSigma is the standard deviation of the isotropic gaussian
// applied before each 2:1 decimation step. GaussianKernel(0.5) covers a
// 5x5 support, the same footprint as a binomial [1 4 6 4 1]/16 blur.
const pyramidBlurSigma = 0.5

var pyramidKernel = NewKernel(GaussianKernel(pyramidBlurSigma))
var pyramidAnchor = image.Point{X: pyramidKernel.Width / 2, Y: pyramidKernel.Height / 2}

// NewPyramid builds a pyramid with the given number of levels from a
// full-resolution source image. Each level above 0 is produced by applying a
// gaussian low-pass filter and then subsampling every other pixel in both
// dimensions, the filter-then-decimate scheme used throughout pyramidal
// Lucas-Kanade style trackers.
func NewPyramid(src *Image16, numLevels int) *Pyramid {
	levels := make([]*Image16, numLevels)
	levels[0] = src
	for l := 1; l < numLevels; l++ {
		levels[l] = downsampleHalf(levels[l-1])
	}
	return &Pyramid{Levels: levels}
}

// downsampleHalf low-pass filters img with the gaussian pyramid kernel and
// returns every other pixel in x and y, halving the resolution (rounding up,
// spec.md §4.1: level k has size (⌈w/2^k⌉, ⌈h/2^k⌉)). For an odd source
// dimension the extra trailing output column/row samples the last blurred
// source pixel, the same border-replicate convention blur5 uses internally.
func downsampleHalf(img *Image16) *Image16 {
	blurred := blur5(img)
	outW := (img.Width + 1) / 2
	outH := (img.Height + 1) / 2
	out := NewImage16(outW, outH)
	for y := 0; y < outH; y++ {
		sy := clampIndex(2*y, img.Height)
		for x := 0; x < outW; x++ {
			sx := clampIndex(2*x, img.Width)
			out.Set(x, y, blurred.At(sx, sy))
		}
	}
	return out
}

// blur5 convolves img with the gaussian pyramid kernel, replicating border
// pixels so every output pixel of the source image gets a well-defined
// response. Errors only on a malformed kernel, which pyramidKernel never is,
// so the error is discarded.
func blur5(img *Image16) *Image16 {
	out, _ := ConvolveGray16(img, pyramidKernel, pyramidAnchor, BorderReplicate)
	return out
}

// PyramidScale returns the downscale factor of a level relative to level 0,
// i.e. 2^level.
func PyramidScale(level int) float64 {
	return float64(uint(1) << uint(level))
}

// RectAtLevel converts a full-resolution rectangle to its equivalent rectangle
// at the given pyramid level.
func RectAtLevel(r image.Rectangle, level int) image.Rectangle {
	scale := PyramidScale(level)
	return image.Rect(
		int(float64(r.Min.X)/scale), int(float64(r.Min.Y)/scale),
		int(float64(r.Max.X)/scale), int(float64(r.Max.Y)/scale),
	)
}

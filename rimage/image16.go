// Package rimage provides single-channel 16-bit image primitives used by the
// optical flow tracker: a Gaussian image pyramid, convolution kernels, border
// padding, and bilinear sub-pixel sampling. It is the 16-bit, grayscale-only
// counterpart of the teacher's RGB rimage package.
package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Image16 is a single-channel image with 16-bit unsigned intensities, the
// storage format for every level of an image pyramid (spec.md §3: "All
// levels store unsigned 16-bit intensities").
type Image16 struct {
	Width, Height int
	Pix           []uint16
}

// NewImage16 allocates a zeroed Image16 of the given dimensions.
func NewImage16(width, height int) *Image16 {
	return &Image16{Width: width, Height: height, Pix: make([]uint16, width*height)}
}

// NewImage16FromGray converts an 8-bit grayscale image into a 16-bit one by
// scaling each intensity by 257 (0xFF -> 0xFFFF), the standard Gray -> Gray16
// promotion used throughout the image/color stdlib packages.
func NewImage16FromGray(src *image.Gray) *Image16 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewImage16(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			out.Set(x, y, uint16(v)*257)
		}
	}
	return out
}

// Bounds returns the pixel bounding rectangle, [0,0)-(Width,Height).
func (im *Image16) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.Width, im.Height)
}

// In reports whether (x, y) is a valid pixel coordinate.
func (im *Image16) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < im.Width && y < im.Height
}

// At returns the raw intensity at (x, y). Callers must check In first;
// this mirrors the teacher's GrayAt convention of unchecked direct access
// in the hot convolution/sampling loops.
func (im *Image16) At(x, y int) uint16 {
	return im.Pix[y*im.Width+x]
}

// Set writes the intensity at (x, y).
func (im *Image16) Set(x, y int, v uint16) {
	im.Pix[y*im.Width+x] = v
}

// InBoundsWithMargin reports whether p lies at least margin pixels inside
// every border of the image, the guard used by track_at_level's border
// check (spec.md §4.3 step 6).
func (im *Image16) InBoundsWithMargin(p Point, margin float64) bool {
	return p.X >= margin && p.Y >= margin &&
		p.X < float64(im.Width)-margin && p.Y < float64(im.Height)-margin
}

// Point is a real-valued 2D image coordinate, origin top-left, x right, y down.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// SquaredNorm returns |p|^2.
func (p Point) SquaredNorm() float64 { return p.X*p.X + p.Y*p.Y }

// ErrOutOfBounds is the sampling failure signal from spec.md §3: "out-of-bounds
// sampling is a failure signal."
var ErrOutOfBounds = errors.New("sample position out of image bounds")

// SampleBilinear performs bilinear interpolation of the image intensity at a
// sub-pixel position. Returns ErrOutOfBounds if any of the 4 neighbors needed
// for interpolation fall outside the image.
func (im *Image16) SampleBilinear(p Point) (float64, error) {
	x0 := math.Floor(p.X)
	y0 := math.Floor(p.Y)
	x1 := x0 + 1
	y1 := y0 + 1

	ix0, iy0 := int(x0), int(y0)
	ix1, iy1 := int(x1), int(y1)

	if !im.In(ix0, iy0) || !im.In(ix1, iy1) {
		return 0, ErrOutOfBounds
	}

	dx := p.X - x0
	dy := p.Y - y0

	v00 := float64(im.At(ix0, iy0))
	v10 := float64(im.At(ix1, iy0))
	v01 := float64(im.At(ix0, iy1))
	v11 := float64(im.At(ix1, iy1))

	top := v00*(1-dx) + v10*dx
	bot := v01*(1-dx) + v11*dx
	return top*(1-dy) + bot*dy, nil
}

package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// BorderPad selects how ConvolveGray16 extends an image past its edges
// before applying a kernel.
type BorderPad int

const (
	// BorderReplicate repeats the edge pixel outward.
	BorderReplicate BorderPad = iota
	// BorderReflect mirrors pixels across the edge.
	BorderReflect
	// BorderConstant pads with zero.
	BorderConstant
)

// Kernel is a 2D convolution kernel of float64 weights.
type Kernel struct {
	Values [][]float64
	Height int
	Width  int
}

// NewKernel builds a Kernel from a dense row-major weight matrix.
func NewKernel(values [][]float64) Kernel {
	h := len(values)
	w := 0
	if h > 0 {
		w = len(values[0])
	}
	return Kernel{Values: values, Height: h, Width: w}
}

// Size returns the kernel dimensions as an image.Point{Width, Height}.
func (k Kernel) Size() image.Point {
	return image.Point{X: k.Width, Y: k.Height}
}

// At returns the kernel weight at (x, y).
func (k Kernel) At(x, y int) float64 {
	return k.Values[y][x]
}

// GetSobelX returns the 3x3 Sobel kernel for the x-direction gradient.
func GetSobelX() Kernel {
	return NewKernel([][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	})
}

// GetSobelY returns the 3x3 Sobel kernel for the y-direction gradient.
func GetSobelY() Kernel {
	return NewKernel([][]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	})
}

// Scaled returns a copy of k with every weight multiplied by s, used to
// normalize GetSobelX/GetSobelY (whose raw integer taps sum to 4 on either
// side of the zero column/row, two pixels apart, so a unit-slope ramp yields
// 8) down to a per-pixel derivative estimate.
func (k Kernel) Scaled(s float64) Kernel {
	values := make([][]float64, k.Height)
	for y, row := range k.Values {
		scaledRow := make([]float64, len(row))
		for x, v := range row {
			scaledRow[x] = v * s
		}
		values[y] = scaledRow
	}
	return NewKernel(values)
}

// PaddingGray16 returns a copy of img padded by half the kernel size on every
// side, using the given border policy, so a kernel can be walked across the
// full original image without bounds checks in the inner loop.
func PaddingGray16(img *Image16, kernelSize image.Point, anchor image.Point, border BorderPad) (*Image16, error) {
	if kernelSize.X <= 0 || kernelSize.Y <= 0 {
		return nil, errors.Errorf("invalid kernel size %v", kernelSize)
	}
	left := anchor.X
	top := anchor.Y
	right := kernelSize.X - anchor.X - 1
	bottom := kernelSize.Y - anchor.Y - 1

	w, h := img.Width, img.Height
	padded := NewImage16(w+left+right, h+top+bottom)

	for y := 0; y < padded.Height; y++ {
		for x := 0; x < padded.Width; x++ {
			sx, sy := x-left, y-top
			v, ok := sampleBordered(img, sx, sy, border)
			if !ok {
				continue
			}
			padded.Set(x, y, v)
		}
	}
	return padded, nil
}

func sampleBordered(img *Image16, x, y int, border BorderPad) (uint16, bool) {
	w, h := img.Width, img.Height
	switch border {
	case BorderConstant:
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0, true
		}
		return img.At(x, y), true
	case BorderReflect:
		x = reflectIndex(x, w)
		y = reflectIndex(y, h)
		return img.At(x, y), true
	default: // BorderReplicate
		x = clampIndex(x, w)
		y = clampIndex(y, h)
		return img.At(x, y), true
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = i % period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// ConvolveGray16 applies kernel to img, anchored at anchor, with the given
// border policy. Each weighted sum is clamped to [0, 65535] and truncated
// to uint16; gradient kernels, whose responses can be negative, go through
// ConvolveGray16Float instead.
func ConvolveGray16(img *Image16, kernel Kernel, anchor image.Point, border BorderPad) (*Image16, error) {
	kernelSize := kernel.Size()
	padded, err := PaddingGray16(img, kernelSize, anchor, border)
	if err != nil {
		return nil, err
	}
	result := NewImage16(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			sum := 0.0
			for ky := 0; ky < kernelSize.Y; ky++ {
				for kx := 0; kx < kernelSize.X; kx++ {
					sum += float64(padded.At(x+kx, y+ky)) * kernel.At(kx, ky)
				}
			}
			result.Set(x, y, clampUint16(sum))
		}
	}
	return result, nil
}

// ConvolveGray16Float applies kernel to img and returns the raw float64
// response per pixel, used for Sobel gradients where negative values and
// values outside the uint16 range must be preserved.
func ConvolveGray16Float(img *Image16, kernel Kernel, anchor image.Point, border BorderPad) ([][]float64, error) {
	kernelSize := kernel.Size()
	padded, err := PaddingGray16(img, kernelSize, anchor, border)
	if err != nil {
		return nil, err
	}
	result := make([][]float64, img.Height)
	for y := 0; y < img.Height; y++ {
		row := make([]float64, img.Width)
		for x := 0; x < img.Width; x++ {
			sum := 0.0
			for ky := 0; ky < kernelSize.Y; ky++ {
				for kx := 0; kx < kernelSize.X; kx++ {
					sum += float64(padded.At(x+kx, y+ky)) * kernel.At(kx, ky)
				}
			}
			row[x] = sum
		}
		result[y] = row
	}
	return result, nil
}

// SampleBilinearFloat performs the same bilinear interpolation as
// Image16.SampleBilinear, but over a dense float64 response grid such as the
// one ConvolveGray16Float returns (e.g. a Sobel gradient map), sampled at a
// sub-pixel position. ok is false if any of the 4 neighbors needed for
// interpolation fall outside [0,width)x[0,height).
func SampleBilinearFloat(grid [][]float64, width, height int, p Point) (float64, bool) {
	x0 := math.Floor(p.X)
	y0 := math.Floor(p.Y)
	x1 := x0 + 1
	y1 := y0 + 1

	ix0, iy0 := int(x0), int(y0)
	ix1, iy1 := int(x1), int(y1)

	if ix0 < 0 || iy0 < 0 || ix1 >= width || iy1 >= height {
		return 0, false
	}

	dx := p.X - x0
	dy := p.Y - y0

	v00 := grid[iy0][ix0]
	v10 := grid[iy0][ix1]
	v01 := grid[iy1][ix0]
	v11 := grid[iy1][ix1]

	top := v00*(1-dx) + v10*dx
	bot := v01*(1-dx) + v11*dx
	return top*(1-dy) + bot*dy, true
}

func clampUint16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

package opticalflow

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/opticalflow/rimage"
)

// syntheticImage builds a deterministic, texture-rich image so every pattern
// sample sees a nonzero gradient: a sum of two off-axis sinusoids avoids the
// degenerate flat-field case where the Jacobian is singular.
func syntheticImage(w, h int) *rimage.Image16 {
	img := rimage.NewImage16(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 32768 + 8000*math.Sin(float64(x)/9.0) + 8000*math.Cos(float64(y)/11.0+float64(x)/23.0)
			if v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			img.Set(x, y, uint16(v))
		}
	}
	return img
}

// translatedImage returns a copy of img with its content shifted by (dx, dy)
// pixels using bilinear sampling, for synthesizing a pure-translation frame.
func translatedImage(img *rimage.Image16, dx, dy float64) *rimage.Image16 {
	out := rimage.NewImage16(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v, err := img.SampleBilinear(rimage.Point{X: float64(x) - dx, Y: float64(y) - dy})
			if err != nil {
				continue
			}
			out.Set(x, y, uint16(v))
		}
	}
	return out
}

func buildStack(pyr *rimage.Pyramid, pos r2.Point) patchStack {
	return newPatchStack(pyr, pos)
}

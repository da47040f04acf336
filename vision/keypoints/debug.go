package keypoints

import (
	"image"
	"image/color"
	"path/filepath"

	"github.com/fogleman/gg"

	"go.viam.com/opticalflow/rimage"
)

// PlotKeypoints renders img (converted to 8-bit grayscale for display) with a
// filled circle at every point in kps and writes the result to outName as a
// PNG. A debug-only visual aid, never called from the tracking hot path;
// adapted from the teacher's vision/keypoints/keypoints.go PlotKeypoints,
// generalized from 8-bit image.Gray to this package's 16-bit rimage.Image16.
func PlotKeypoints(img *rimage.Image16, kps KeyPoints, outName string) error {
	gray := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(img.At(x, y) >> 8)})
		}
	}

	dc := gg.NewContext(img.Width, img.Height)
	dc.DrawImage(gray, 0, 0)

	dc.SetRGBA(0, 0, 1, 0.5)
	for _, p := range kps {
		dc.DrawCircle(float64(p.X), float64(p.Y), 3.0)
		dc.Fill()
	}
	return dc.SavePNG(filepath.Clean(outName))
}

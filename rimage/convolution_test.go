package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"
)

// flatImage16 builds an Image16 where every pixel holds the same intensity,
// useful for checking that a convolution leaves a constant field unchanged.
func flatImage16(w, h int, v uint16) *Image16 {
	im := NewImage16(w, h)
	for i := range im.Pix {
		im.Pix[i] = v
	}
	return im
}

func TestConvolveGray16FlatFieldUnchanged(t *testing.T) {
	im := flatImage16(20, 20, 1000)
	kernel := NewKernel(GaussianKernel(1.0))
	anchor := image.Point{X: kernel.Width / 2, Y: kernel.Height / 2}
	out, err := ConvolveGray16(im, kernel, anchor, BorderReplicate)
	test.That(t, err, test.ShouldBeNil)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			test.That(t, out.At(x, y), test.ShouldEqual, uint16(1000))
		}
	}
}

func TestSobelXDetectsVerticalEdge(t *testing.T) {
	im := NewImage16(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				im.Set(x, y, 0)
			} else {
				im.Set(x, y, 1000)
			}
		}
	}
	kernel := GetSobelX()
	grad, err := ConvolveGray16Float(im, kernel, image.Point{X: 1, Y: 1}, BorderReplicate)
	test.That(t, err, test.ShouldBeNil)
	// at the edge column, the x-gradient should be large and positive
	test.That(t, grad[5][5] > 0, test.ShouldBeTrue)
	// away from the edge, gradient should be ~0
	test.That(t, grad[5][1], test.ShouldEqual, 0.0)
}

func TestPaddingGray16Replicate(t *testing.T) {
	im := NewImage16(4, 4)
	for i := range im.Pix {
		im.Pix[i] = uint16(i)
	}
	padded, err := PaddingGray16(im, image.Point{X: 3, Y: 3}, image.Point{X: 1, Y: 1}, BorderReplicate)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, padded.Width, test.ShouldEqual, 6)
	test.That(t, padded.Height, test.ShouldEqual, 6)
	// top-left corner of the pad should replicate the original (0,0) pixel
	test.That(t, padded.At(0, 0), test.ShouldEqual, im.At(0, 0))
}

func TestReflectIndex(t *testing.T) {
	test.That(t, reflectIndex(-1, 5), test.ShouldEqual, 1)
	test.That(t, reflectIndex(5, 5), test.ShouldEqual, 3)
	test.That(t, reflectIndex(2, 5), test.ShouldEqual, 2)
}

package rimage

import (
	"testing"

	"go.viam.com/test"
)

func TestNewPyramidLevelSizesHalve(t *testing.T) {
	src := NewImage16(64, 48)
	for i := range src.Pix {
		src.Pix[i] = uint16(i % 4096)
	}
	pyr := NewPyramid(src, 4)
	test.That(t, pyr.NumLevels(), test.ShouldEqual, 4)

	wantW, wantH := 64, 48
	for l := 0; l < pyr.NumLevels(); l++ {
		lvl := pyr.At(l)
		test.That(t, lvl.Width, test.ShouldEqual, wantW)
		test.That(t, lvl.Height, test.ShouldEqual, wantH)
		wantW /= 2
		wantH /= 2
	}
}

func TestNewPyramidConstantFieldStaysConstant(t *testing.T) {
	src := flatImage16(32, 32, 500)
	pyr := NewPyramid(src, 3)
	for l := 0; l < pyr.NumLevels(); l++ {
		lvl := pyr.At(l)
		for _, v := range lvl.Pix {
			test.That(t, v, test.ShouldEqual, uint16(500))
		}
	}
}

func TestNewPyramidOddDimensionsRoundUp(t *testing.T) {
	src := NewImage16(641, 481)
	for i := range src.Pix {
		src.Pix[i] = uint16(i % 4096)
	}
	pyr := NewPyramid(src, 4)
	test.That(t, pyr.NumLevels(), test.ShouldEqual, 4)

	wantW, wantH := 641, 481
	for l := 0; l < pyr.NumLevels(); l++ {
		lvl := pyr.At(l)
		test.That(t, lvl.Width, test.ShouldEqual, wantW)
		test.That(t, lvl.Height, test.ShouldEqual, wantH)
		wantW = (wantW + 1) / 2
		wantH = (wantH + 1) / 2
	}
}

func TestPyramidScale(t *testing.T) {
	test.That(t, PyramidScale(0), test.ShouldEqual, 1.0)
	test.That(t, PyramidScale(1), test.ShouldEqual, 2.0)
	test.That(t, PyramidScale(3), test.ShouldEqual, 8.0)
}

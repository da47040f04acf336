package keypoints

import (
	"image"
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/opticalflow/rimage"
)

func syntheticImage(w, h int) *rimage.Image16 {
	img := rimage.NewImage16(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 32768 + 8000*math.Sin(float64(x)/7.0) + 8000*math.Cos(float64(y)/9.0+float64(x)/17.0)
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

func TestGenerateSamplePairsCount(t *testing.T) {
	sp := GenerateSamplePairs(31)
	test.That(t, len(sp.P0), test.ShouldEqual, briefNumBits)
	test.That(t, len(sp.P1), test.ShouldEqual, briefNumBits)
}

func TestComputeDescriptorDeterministic(t *testing.T) {
	img := syntheticImage(100, 100)
	blurred, err := BlurForDescriptor(img)
	test.That(t, err, test.ShouldBeNil)

	sp := GenerateSamplePairs(31)
	kp := image.Point{X: 50, Y: 50}
	d1, ok1 := ComputeDescriptor(blurred, kp, 0, false, sp)
	test.That(t, ok1, test.ShouldBeTrue)
	d2, ok2 := ComputeDescriptor(blurred, kp, 0, false, sp)
	test.That(t, ok2, test.ShouldBeTrue)
	test.That(t, d1, test.ShouldResemble, d2)
}

func TestComputeDescriptorRejectsNearBorder(t *testing.T) {
	img := syntheticImage(40, 40)
	blurred, err := BlurForDescriptor(img)
	test.That(t, err, test.ShouldBeNil)

	sp := GenerateSamplePairs(31)
	_, ok := ComputeDescriptor(blurred, image.Point{X: 1, Y: 1}, 0, false, sp)
	test.That(t, ok, test.ShouldBeFalse)
}

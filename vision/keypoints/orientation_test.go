package keypoints

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/opticalflow/rimage"
)

func TestIntensityCentroidOrientationPointsTowardBrightSide(t *testing.T) {
	img := rimage.NewImage16(61, 61)
	for y := 0; y < 61; y++ {
		for x := 30; x < 61; x++ {
			img.Set(x, y, 65535)
		}
	}
	kps := KeyPoints{{X: 30, Y: 30}}
	orientations := ComputeOrientations(img, kps)
	test.That(t, len(orientations), test.ShouldEqual, 1)
	test.That(t, math.Cos(orientations[0]) > 0, test.ShouldBeTrue)
}

func TestIntensityCentroidOrientationSymmetricIsZero(t *testing.T) {
	img := rimage.NewImage16(61, 61)
	for y := 0; y < 61; y++ {
		for x := 0; x < 61; x++ {
			img.Set(x, y, 30000)
		}
	}
	orientations := ComputeOrientations(img, KeyPoints{{X: 30, Y: 30}})
	test.That(t, orientations[0], test.ShouldEqual, 0.0)
}

package rimage

import (
	"testing"

	"go.viam.com/test"
)

func TestSampleBilinearExactPixel(t *testing.T) {
	im := NewImage16(4, 4)
	im.Set(2, 2, 4000)
	v, err := im.SampleBilinear(Point{X: 2, Y: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 4000.0)
}

func TestSampleBilinearInterpolates(t *testing.T) {
	im := NewImage16(4, 4)
	im.Set(1, 1, 0)
	im.Set(2, 1, 1000)
	im.Set(1, 2, 0)
	im.Set(2, 2, 1000)
	v, err := im.SampleBilinear(Point{X: 1.5, Y: 1.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 500.0)
}

func TestSampleBilinearOutOfBounds(t *testing.T) {
	im := NewImage16(4, 4)
	_, err := im.SampleBilinear(Point{X: -1, Y: 0})
	test.That(t, err, test.ShouldEqual, ErrOutOfBounds)
	_, err = im.SampleBilinear(Point{X: 3.5, Y: 0})
	test.That(t, err, test.ShouldEqual, ErrOutOfBounds)
}

func TestInBoundsWithMargin(t *testing.T) {
	im := NewImage16(10, 10)
	test.That(t, im.InBoundsWithMargin(Point{X: 5, Y: 5}, 3), test.ShouldBeTrue)
	test.That(t, im.InBoundsWithMargin(Point{X: 1, Y: 5}, 3), test.ShouldBeFalse)
	test.That(t, im.InBoundsWithMargin(Point{X: 8, Y: 5}, 3), test.ShouldBeFalse)
}

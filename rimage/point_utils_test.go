package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestPointDistance(t *testing.T) {
	test.That(t, PointDistance(image.Point{X: 0, Y: 3}, image.Point{X: 4, Y: 0}), test.ShouldEqual, 5.0)
}

func TestPointCenter(t *testing.T) {
	all := []image.Point{
		{X: 0, Y: 0},
		{X: 2, Y: 0},
		{X: 0, Y: 2},
		{X: 2, Y: 2},
	}

	test.That(t, Center(all, 1000), test.ShouldResemble, image.Point{X: 1, Y: 1})

	all = append(all, image.Point{X: 100, Y: 100})

	test.That(t, Center(all, 1000), test.ShouldResemble, image.Point{X: 50, Y: 50})
	test.That(t, Center(all, 48), test.ShouldResemble, image.Point{X: 1, Y: 1})
}

func TestPointBoundingBox(t *testing.T) {
	r := BoundingBox([]image.Point{
		{X: 100, Y: 100},
		{X: 200, Y: 200},
		{X: 50, Y: 50},
		{X: 1000, Y: 1000},
		{X: 1, Y: 1},
	})

	test.That(t, r.Min, test.ShouldResemble, image.Point{X: 1, Y: 1})
	test.That(t, r.Max, test.ShouldResemble, image.Point{X: 1000, Y: 1000})
}

func TestAllPointsIn(t *testing.T) {
	size := image.Point{X: 10, Y: 10}
	test.That(t, AllPointsIn(size, []image.Point{{X: 0, Y: 0}, {X: 9, Y: 9}}), test.ShouldBeTrue)
	test.That(t, AllPointsIn(size, []image.Point{{X: 10, Y: 5}}), test.ShouldBeFalse)
	test.That(t, AllPointsIn(size, []image.Point{{X: -1, Y: 5}}), test.ShouldBeFalse)
}

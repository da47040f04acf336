package opticalflow

import (
	"math"

	"github.com/golang/geo/r2"
)

// patternOffsets is the fixed set of sample offsets around a keypoint's
// center used for every reference patch (spec.md §3: "Fixed set of P sample
// offsets (a compile-time pattern, e.g. 52 points arranged around the
// corner)"). It is built once at package init from concentric rings rather
// than hand-listed, but the resulting slice is never mutated afterward, so
// every patch at every level samples the exact same pattern.
var patternOffsets = buildPattern()

// PatternSize is the number of sample offsets P in the reference patch pattern.
var PatternSize = len(patternOffsets)

func buildPattern() []r2.Point {
	offsets := []r2.Point{{X: 0, Y: 0}}
	rings := []struct {
		radius float64
		count  int
	}{
		{radius: 1.5, count: 8},
		{radius: 3.0, count: 12},
		{radius: 4.5, count: 16},
		{radius: 6.0, count: 15},
	}
	for _, ring := range rings {
		for i := 0; i < ring.count; i++ {
			theta := 2 * math.Pi * float64(i) / float64(ring.count)
			offsets = append(offsets, r2.Point{
				X: ring.radius * math.Cos(theta),
				Y: ring.radius * math.Sin(theta),
			})
		}
	}
	return offsets
}

// patternHalfExtent is the radius of the smallest square that fully contains
// the sample pattern, used for the out-of-bounds margin check at patch
// creation and at tracking time.
var patternHalfExtent = func() float64 {
	max := 0.0
	for _, p := range patternOffsets {
		if v := math.Abs(p.X); v > max {
			max = v
		}
		if v := math.Abs(p.Y); v > max {
			max = v
		}
	}
	return max
}()

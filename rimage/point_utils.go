package rimage

import (
	"image"
	"math"
)

// NoPoint is returned by Center when a contour/point set is empty.
var NoPoint = image.Point{X: -1, Y: -1}

// Center returns the center of a set of points, a weighted middle-of-contour
// estimate refined by discarding points further than maxDiff from it, the
// seeding heuristic used when collapsing a cluster of adjacent FAST
// responses to one keypoint candidate per cluster.
func Center(contour []image.Point, maxDiff int) image.Point {
	if len(contour) == 0 {
		return NoPoint
	}

	x, y := 0, 0
	for _, p := range contour {
		x += p.X
		y += p.Y
	}
	weightedMiddle := image.Point{X: x / len(contour), Y: y / len(contour)}

	numPoints := 0
	box := image.Rectangle{Min: image.Point{X: 1000000, Y: 1000000}, Max: image.Point{X: 0, Y: 0}}
	for _, p := range contour {
		if absInt(p.X-weightedMiddle.X) > maxDiff || absInt(p.Y-weightedMiddle.Y) > maxDiff {
			continue
		}
		numPoints++
		if p.X < box.Min.X {
			box.Min.X = p.X
		}
		if p.Y < box.Min.Y {
			box.Min.Y = p.Y
		}
		if p.X > box.Max.X {
			box.Max.X = p.X
		}
		if p.Y > box.Max.Y {
			box.Max.Y = p.Y
		}
	}

	if numPoints == 0 {
		return NoPoint
	}
	return image.Point{X: (box.Min.X + box.Max.X) / 2, Y: (box.Min.Y + box.Max.Y) / 2}
}

// PointDistance returns the Euclidean distance between two integer pixel points.
func PointDistance(a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// BoundingBox returns the smallest axis-aligned rectangle containing pts.
func BoundingBox(pts []image.Point) image.Rectangle {
	min := image.Point{X: math.MaxInt32, Y: math.MaxInt32}
	max := image.Point{X: 0, Y: 0}
	for _, p := range pts {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return image.Rectangle{Min: min, Max: max}
}

// AllPointsIn reports whether every point in pts lies within [0,size).
func AllPointsIn(size image.Point, pts []image.Point) bool {
	for _, p := range pts {
		if p.X < 0 || p.Y < 0 || p.X >= size.X || p.Y >= size.Y {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

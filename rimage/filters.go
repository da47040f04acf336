package rimage

import "math"

// makeRangeArray builds the symmetric integer offset range used to walk a
// kernel window around a center pixel. If length is even, the origin sits to
// the right of the middle, e.g. 4 -> {-2, -1, 0, 1}.
func makeRangeArray(length int) []int {
	if length <= 0 {
		return make([]int, 0)
	}
	rangeArray := make([]int, length)
	var span int
	if length%2 == 0 {
		oddArr := makeRangeArray(length - 1)
		span = length / 2
		rangeArray = append([]int{-span}, oddArr...)
	} else {
		span = (length - 1) / 2
		for i := 0; i < span; i++ {
			rangeArray[length-1-i] = span - i
			rangeArray[i] = -span + i
		}
	}
	return rangeArray
}

// GaussianFunction2D returns an isotropic 2D gaussian weighting function.
func GaussianFunction2D(sigma float64) func(p1, p2 float64) float64 {
	if sigma <= 0. {
		return func(p1, p2 float64) float64 { return 1. }
	}
	return func(p1, p2 float64) float64 {
		return math.Exp(-0.5*(p1*p1+p2*p2)/(sigma*sigma)) / (sigma * sigma * 2. * math.Pi)
	}
}

// GaussianKernel builds a square, normalized 2D gaussian kernel sized to
// cover roughly 4 sigma on either side of center.
func GaussianKernel(sigma float64) [][]float64 {
	gaus2D := GaussianFunction2D(sigma)
	k := maxInt(3, 1+2*int(math.Ceil(4.*sigma)))
	xRange := makeRangeArray(k)
	kernel := make([][]float64, k)
	sum := 0.0
	for y, dy := range xRange {
		row := make([]float64, k)
		for x, dx := range xRange {
			v := gaus2D(float64(dx), float64(dy))
			row[x] = v
			sum += v
		}
		kernel[y] = row
	}
	for y := range kernel {
		for x := range kernel[y] {
			kernel[y][x] /= sum
		}
	}
	return kernel
}

// GetGaussian5 returns the fixed 5-tap binomial approximation to a gaussian
// low-pass filter, [1 4 6 4 1]/16, used to blur a patch before BRIEF sampling
// (spec.md §4.4 step 3).
func GetGaussian5() []float64 {
	return []float64{1. / 16., 4. / 16., 6. / 16., 4. / 16., 1. / 16.}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

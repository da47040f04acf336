// Package keypoints implements the corner detection, orientation, and binary
// description steps of the detector (spec.md §4.4): a FAST-style corner test,
// an intensity-centroid orientation estimate, and a rotated BRIEF descriptor.
package keypoints

import (
	"encoding/json"
	"image"
	"math"
	"os"
	"path/filepath"

	uts "go.viam.com/utils"

	"go.viam.com/opticalflow/rimage"
)

type (
	// KeyPoint is a pixel-grid corner location.
	KeyPoint image.Point
	// KeyPoints is a set of corner locations.
	KeyPoints []image.Point
)

// NeighborhoodType selects which ring of the FAST-16 circle
// GetPointValuesInNeighborhood samples.
type NeighborhoodType int

const (
	// CrossIdx selects the 4 axis-aligned points of the circle, used as a
	// cheap pre-test before paying for the full 16-point circle.
	CrossIdx NeighborhoodType = iota
	// CircleIdx selects all 16 points of the Bresenham circle of radius 3.
	CircleIdx
)

// circleOffsets is the 16-point Bresenham circle of radius 3 around a
// candidate corner, the classic FAST-16 sampling ring.
var circleOffsets = [16]image.Point{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// crossOffsets is the circle's 4 axis-aligned points (N, E, S, W).
var crossOffsets = [4]image.Point{
	{0, -3}, {3, 0}, {0, 3}, {-3, 0},
}

// GetPointValuesInNeighborhood returns the raw intensities sampled at the
// requested FAST ring around center. Offsets that fall outside img read as 0.
func GetPointValuesInNeighborhood(img *rimage.Image16, center image.Point, kind NeighborhoodType) []float64 {
	offsets := circleOffsets[:]
	if kind == CrossIdx {
		offsets = crossOffsets[:]
	}
	vals := make([]float64, len(offsets))
	for i, o := range offsets {
		x, y := center.X+o.X, center.Y+o.Y
		if !img.In(x, y) {
			continue
		}
		vals[i] = float64(img.At(x, y))
	}
	return vals
}

// isValidSliceVals reports whether the circular slice vals contains a
// contiguous run of nonzero entries strictly longer than n.
func isValidSliceVals(vals []float64, n int) bool {
	l := len(vals)
	if l == 0 {
		return false
	}
	maxRun, run := 0, 0
	for i := 0; i < 2*l; i++ {
		if vals[i%l] != 0 {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	if maxRun > l {
		maxRun = l
	}
	return maxRun > n
}

// sumOfPositiveValuesSlice sums the strictly-positive entries of s.
func sumOfPositiveValuesSlice(s []float64) float64 {
	sum := 0.0
	for _, v := range s {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

// sumOfNegativeValuesSlice sums the strictly-negative entries of s.
func sumOfNegativeValuesSlice(s []float64) float64 {
	sum := 0.0
	for _, v := range s {
		if v < 0 {
			sum += v
		}
	}
	return sum
}

// getBrighterValues returns a 0/1 mask of the entries of s strictly greater than t.
func getBrighterValues(s []float64, t float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v > t {
			out[i] = 1
		}
	}
	return out
}

// getDarkerValues returns a 0/1 mask of the entries of s strictly less than t.
func getDarkerValues(s []float64, t float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v < t {
			out[i] = 1
		}
	}
	return out
}

// FASTConfig holds the parameters for the FAST-style corner test.
type FASTConfig struct {
	NMatchesCircle int  `json:"n_matches_circle"`
	Oriented       bool `json:"oriented"`
}

// LoadFASTConfiguration loads a FASTConfig from a json file, returning nil on any error.
func LoadFASTConfiguration(file string) *FASTConfig {
	var config FASTConfig
	filePath := filepath.Clean(file)
	configFile, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer uts.UncheckedErrorFunc(configFile.Close)
	jsonParser := json.NewDecoder(configFile)
	if err := jsonParser.Decode(&config); err != nil {
		return nil
	}
	return &config
}

// IsCorner reports whether center is a FAST corner of img at the given
// absolute intensity threshold, using cfg.NMatchesCircle contiguous circle
// points as the acceptance run length.
func IsCorner(img *rimage.Image16, center image.Point, cfg *FASTConfig, threshold float64) bool {
	intensity := float64(img.At(center.X, center.Y))
	cross := GetPointValuesInNeighborhood(img, center, CrossIdx)
	brighterCross := getBrighterValues(cross, intensity+threshold)
	darkerCross := getDarkerValues(cross, intensity-threshold)
	if sumOfPositiveValuesSlice(brighterCross) < 3 && sumOfPositiveValuesSlice(darkerCross) < 3 {
		return false
	}
	circle := GetPointValuesInNeighborhood(img, center, CircleIdx)
	brighter := getBrighterValues(circle, intensity+threshold)
	darker := getDarkerValues(circle, intensity-threshold)
	// isValidSliceVals needs a run strictly longer than its n argument.
	return isValidSliceVals(brighter, cfg.NMatchesCircle-1) || isValidSliceVals(darker, cfg.NMatchesCircle-1)
}

// fastBorderMargin is the half-width of the FAST-16 circle; a candidate
// center must keep this many pixels clear of every image edge.
const fastBorderMargin = 3

// ComputeFAST scans region (clipped to img's bounds minus the circle's
// border margin) for FAST corners at the given absolute threshold.
func ComputeFAST(img *rimage.Image16, region image.Rectangle, cfg *FASTConfig, threshold float64) KeyPoints {
	bounds := img.Bounds().Inset(fastBorderMargin).Intersect(region)
	var kps KeyPoints
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := image.Point{X: x, Y: y}
			if IsCorner(img, p, cfg, threshold) {
				kps = append(kps, p)
			}
		}
	}
	return kps
}

// CornerScore returns a FAST corner strength score for center: the summed
// absolute intensity deviation of the circle's brighter/darker ring points
// from center's own intensity. Larger is a stronger corner response.
func CornerScore(img *rimage.Image16, center image.Point) float64 {
	intensity := float64(img.At(center.X, center.Y))
	circle := GetPointValuesInNeighborhood(img, center, CircleIdx)
	score := 0.0
	for _, v := range circle {
		score += math.Abs(v - intensity)
	}
	return score
}

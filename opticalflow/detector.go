package opticalflow

import (
	"image"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/opticalflow/rimage"
	"go.viam.com/opticalflow/vision/keypoints"
)

// Mask is a rectangle excluded from detection (spec.md §4.4: "an optional
// mask set (disjoint rectangles to exclude)").
type Mask = image.Rectangle

// minCornerSeparation is the minimum pixel distance kept between two corners
// accepted from the same cell (spec.md §4.4 step 2: "non-adjacent corners").
const minCornerSeparation = 5

// Detector seeds new keypoints on a spatial grid using a FAST-style corner
// detector with adaptive threshold, an intensity-centroid orientation, and a
// rotated BRIEF descriptor (spec.md §4.4).
type Detector struct {
	cfg         Config
	fastCfg     *keypoints.FASTConfig
	samplePairs *keypoints.SamplePairs
	nextID      uint64
}

// NewDetector builds a Detector from cfg, using a fixed 31x31 BRIEF sampling
// pattern and a 9-of-16 FAST acceptance rule.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:         cfg,
		fastCfg:     &keypoints.FASTConfig{NMatchesCircle: 9, Oriented: true},
		samplePairs: keypoints.GenerateSamplePairs(31),
	}
}

// Detected is one freshly seeded keypoint: its record and the patch stack
// built for it across pyr's levels.
type Detected struct {
	Record *KeypointRecord
	Stack  patchStack
}

// Detect seeds new keypoints in empty cells of a grid_size tiling of pyr's
// level-0 image. existing holds the level-0 positions of keypoints already
// live in camera 0; masks holds rectangles to exclude (spec.md §4.4).
func (d *Detector) Detect(pyr *rimage.Pyramid, masks []Mask, existing []r2.Point) ([]Detected, error) {
	img := pyr.At(0)
	blurred, err := keypoints.BlurForDescriptor(img)
	if err != nil {
		return nil, err
	}

	grid := d.cfg.DetectionGridSize
	occupied := make(map[[2]int]bool, len(existing))
	for _, p := range existing {
		occupied[cellOf(p, grid)] = true
	}

	var out []Detected
	for cy := 0; cy*grid < img.Height; cy++ {
		for cx := 0; cx*grid < img.Width; cx++ {
			cellRect := image.Rect(cx*grid, cy*grid, (cx+1)*grid, (cy+1)*grid).Intersect(img.Bounds())
			if cellRect.Empty() {
				continue
			}
			center := r2.Point{
				X: float64(cellRect.Min.X+cellRect.Max.X) / 2,
				Y: float64(cellRect.Min.Y+cellRect.Max.Y) / 2,
			}
			if occupied[[2]int{cx, cy}] || maskedOut(center, masks) {
				continue
			}

			corners := d.detectCellCorners(img, cellRect)
			if !rimage.AllPointsIn(image.Point{X: img.Width, Y: img.Height}, corners) {
				continue
			}
			orientations := keypoints.ComputeOrientations(img, corners)
			for i, corner := range corners {
				desc, ok := keypoints.ComputeDescriptor(blurred, corner, orientations[i], d.fastCfg.Oriented, d.samplePairs)
				if !ok {
					continue
				}
				pos := r2.Point{X: float64(corner.X), Y: float64(corner.Y)}
				stack := newPatchStack(pyr, pos)
				if !stack.valid() {
					continue
				}
				record := &KeypointRecord{
					ID:                d.nextID,
					Pose:              NewIdentityWarp(pos),
					Descriptor:        desc,
					DetectedByOptFlow: false,
				}
				d.nextID++
				out = append(out, Detected{Record: record, Stack: stack})
			}
		}
	}
	return out, nil
}

// detectCellCorners runs the adaptive FAST ramp over a single grid cell,
// collapses adjacent responses from the same corner blob to one point each,
// then keeps up to DetectionNumPointsCell non-adjacent corners from the
// strongest threshold tier that still produced any (spec.md §4.4 step 2).
func (d *Detector) detectCellCorners(img *rimage.Image16, cell image.Rectangle) keypoints.KeyPoints {
	var best keypoints.KeyPoints
	for threshold := d.cfg.DetectionMinThreshold; threshold <= d.cfg.DetectionMaxThreshold; threshold++ {
		found := keypoints.ComputeFAST(img, cell, d.fastCfg, float64(threshold))
		if len(found) > 0 {
			best = found
		}
	}
	return nonAdjacent(img, clusterCorners(best), d.cfg.DetectionNumPointsCell)
}

// clusterCorners merges raw FAST hits that respond together as one blob (the
// test routinely fires on several pixels around a single true corner) into
// one representative point per blob, the non-maximum-suppression pass
// spec.md §4.4 step 2 calls for, using rimage's point-set geometry helpers
// (rimage/point_utils.go) the way they're built for: PointDistance groups
// nearby hits, BoundingBox guards against collapsing a cluster that's grown
// too wide to be one corner, and Center collapses an accepted cluster to its
// weighted-middle estimate.
func clusterCorners(candidates keypoints.KeyPoints) keypoints.KeyPoints {
	visited := make([]bool, len(candidates))
	var out keypoints.KeyPoints
	for i, c := range candidates {
		if visited[i] {
			continue
		}
		visited[i] = true
		cluster := []image.Point{c}
		for j := i + 1; j < len(candidates); j++ {
			if !visited[j] && rimage.PointDistance(c, candidates[j]) <= float64(minCornerSeparation) {
				visited[j] = true
				cluster = append(cluster, candidates[j])
			}
		}
		if len(cluster) == 1 {
			out = append(out, c)
			continue
		}
		if bb := rimage.BoundingBox(cluster); bb.Dx() > 2*minCornerSeparation || bb.Dy() > 2*minCornerSeparation {
			out = append(out, cluster...)
			continue
		}
		if center := rimage.Center(cluster, minCornerSeparation); center != rimage.NoPoint {
			out = append(out, center)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// nonAdjacent ranks candidates by FAST corner strength (strongest first,
// via gonum/floats.Argsort over the negated score, matching
// vision/keypoints/matching.go's Argsort-over-a-distance-row idiom) and
// greedily keeps up to max of them, skipping any point within
// minCornerSeparation pixels of one already kept.
func nonAdjacent(img *rimage.Image16, candidates keypoints.KeyPoints, max int) keypoints.KeyPoints {
	negScores := make([]float64, len(candidates))
	order := make([]int, len(candidates))
	for i, c := range candidates {
		negScores[i] = -keypoints.CornerScore(img, c)
		order[i] = i
	}
	floats.Argsort(negScores, order)

	var kept keypoints.KeyPoints
	for _, idx := range order {
		if len(kept) >= max {
			break
		}
		c := candidates[idx]
		tooClose := false
		for _, k := range kept {
			if rimage.PointDistance(c, k) < minCornerSeparation {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, c)
		}
	}
	return kept
}

func cellOf(p r2.Point, grid int) [2]int {
	return [2]int{int(p.X) / grid, int(p.Y) / grid}
}

func maskedOut(center r2.Point, masks []Mask) bool {
	for _, m := range masks {
		if center.X >= float64(m.Min.X) && center.X < float64(m.Max.X) &&
			center.Y >= float64(m.Min.Y) && center.Y < float64(m.Max.Y) {
			return true
		}
	}
	return false
}

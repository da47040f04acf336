package keypoints

import (
	"image"
	"math"

	"go.viam.com/opticalflow/rimage"
)

// orientationMaskRadii is the half-width of each row of the 31x31 circular
// disk used for intensity-centroid orientation, indexed by |row offset|.
var orientationMaskRadii = [16]int{15, 15, 15, 15, 14, 14, 14, 13, 13, 12, 11, 10, 9, 8, 6, 3}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// intensityCentroidOrientation computes the ORB-style intensity-centroid
// angle of the disk centered on kp (spec.md §4.4 step 3).
func intensityCentroidOrientation(img *rimage.Image16, kp image.Point) float64 {
	var m01, m10 float64
	for i := -15; i <= 15; i++ {
		half := orientationMaskRadii[absInt(i)]
		for j := -half; j <= half; j++ {
			x, y := kp.X+j, kp.Y+i
			if !img.In(x, y) {
				continue
			}
			v := float64(img.At(x, y))
			m10 += v * float64(j)
			m01 += v * float64(i)
		}
	}
	return math.Atan2(m01, m10)
}

// ComputeOrientations computes the intensity-centroid orientation of every
// keypoint in kps.
func ComputeOrientations(img *rimage.Image16, kps KeyPoints) []float64 {
	orientations := make([]float64, len(kps))
	for i, kp := range kps {
		orientations[i] = intensityCentroidOrientation(img, kp)
	}
	return orientations
}

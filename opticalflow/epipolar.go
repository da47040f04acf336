package opticalflow

import (
	"github.com/golang/geo/r2"

	"go.viam.com/opticalflow/calib"
)

// EpipolarFilter rejects cross-camera matches whose bearing vectors violate
// the rig's essential-matrix constraint beyond a threshold (spec.md §4.6).
// Essential matrices are computed once from the rig's extrinsics and cached,
// never re-estimated from correspondences (spec.md §6: "extrinsics are
// injected, not estimated").
type EpipolarFilter struct {
	essentials  map[int]*calib.EssentialMatrix
	maxResidual float64
}

// NewEpipolarFilter builds a filter caching E = [t]_x R for every camera
// paired against camera 0 in rig. A nil or single-camera rig yields a filter
// that accepts every pair (spec.md §4.6: "when ≥ 2 cameras are calibrated").
func NewEpipolarFilter(rig *calib.Rig, maxResidual float64) *EpipolarFilter {
	f := &EpipolarFilter{essentials: make(map[int]*calib.EssentialMatrix), maxResidual: maxResidual}
	if rig == nil || len(rig.Cameras) < 2 {
		return f
	}
	for j := 1; j < len(rig.Cameras); j++ {
		f.essentials[j] = calib.NewEssentialMatrix(rig.RelativePose(0, j))
	}
	return f
}

// Accept reports whether the pixel pair (px0 in camera 0, pxCam in camera
// cam) satisfies the epipolar constraint. Unprojection failure (out-of-domain
// pixel) is a rejection (spec.md §4.6 step 1). Pairs against a camera with no
// cached essential matrix are always accepted.
func (f *EpipolarFilter) Accept(rig *calib.Rig, px0, pxCam r2.Point, cam int) bool {
	e, ok := f.essentials[cam]
	if !ok {
		return true
	}
	f0, ok0 := rig.Cameras[0].Unproject(px0)
	f1, ok1 := rig.Cameras[cam].Unproject(pxCam)
	if !ok0 || !ok1 {
		return false
	}
	return e.Residual(f0, f1) <= f.maxResidual
}

package opticalflow

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/opticalflow/calib"
	"go.viam.com/opticalflow/rimage"
)

// twoCameraRig builds a 0.1m-baseline horizontal stereo rig of identical
// pinhole cameras, matching the S3/S4 scenario geometry (spec.md §8).
func twoCameraRig() *calib.Rig {
	cam0 := &calib.PinholeIntrinsics{Width: 640, Height: 480, Fx: 400, Fy: 400, Ppx: 320, Ppy: 240}
	cam1 := &calib.PinholeIntrinsics{Width: 640, Height: 480, Fx: 400, Fy: 400, Ppx: 320, Ppy: 240}
	pose1 := calib.Pose{R: [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}, T: r3.Vector{X: 0.1}}
	return calib.NewRig([]calib.Model{cam0, cam1}, []calib.Pose{calib.IdentityPose, pose1})
}

func TestStereoMatcherSeedsConsistentMatches(t *testing.T) {
	rig := twoCameraRig()
	const depth = 2.0

	img0 := syntheticImage(640, 480)
	offset, ok := rig.ViewOffset(r2.Point{X: 320, Y: 240}, depth, 0, 1)
	test.That(t, ok, test.ShouldBeTrue)
	img1 := translatedImage(img0, offset.X, offset.Y)

	pyr0 := rimage.NewPyramid(img0, 3)
	pyr1 := rimage.NewPyramid(img1, 3)

	cfg := DefaultConfig()
	cfg.MatchingGuessType = ReprojFixDepth
	cfg.MatchingDefaultDepth = depth
	cfg.EpipolarError = 0.01
	cfg.MaxRecoveredDist2 = 1.0

	det := NewDetector(cfg)
	detections, err := det.Detect(pyr0, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(detections) > 0, test.ShouldBeTrue)

	sm := NewStereoMatcher(cfg, rig)
	results := sm.MatchCamera(pyr0, pyr1, detections, 1, depth)
	test.That(t, len(results) > 0, test.ShouldBeTrue)
}

func TestStereoMatcherRejectsMismatchedPose(t *testing.T) {
	rig := twoCameraRig()
	filter := NewEpipolarFilter(rig, 1e-6)

	px0 := r2.Point{X: 320, Y: 240}
	// a pixel pair in camera 1 that does not correspond to px0's true
	// epipolar line (injecting the S4-style mismatch directly).
	pxCamMismatch := r2.Point{X: 100, Y: 400}
	test.That(t, filter.Accept(rig, px0, pxCamMismatch, 1), test.ShouldBeFalse)
}

func TestEpipolarFilterAcceptsWithoutCalibration(t *testing.T) {
	filter := NewEpipolarFilter(nil, 0.005)
	test.That(t, filter.Accept(nil, r2.Point{}, r2.Point{}, 1), test.ShouldBeTrue)
}

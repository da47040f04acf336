package opticalflow

import (
	"go.viam.com/opticalflow/calib"
	"go.viam.com/opticalflow/rimage"
)

// StereoMatcher seeds freshly detected camera-0 keypoints into cameras 1..N-1
// (spec.md §4.5), validating each match with the Epipolar Filter (spec.md
// §4.6) when the rig is calibrated with ≥ 2 cameras.
type StereoMatcher struct {
	cfg    Config
	rig    *calib.Rig
	filter *EpipolarFilter
}

// NewStereoMatcher builds a matcher for rig using cfg's matching-guess
// policy, iteration budget, and epipolar tolerance.
func NewStereoMatcher(cfg Config, rig *calib.Rig) *StereoMatcher {
	return &StereoMatcher{cfg: cfg, rig: rig, filter: NewEpipolarFilter(rig, cfg.EpipolarError)}
}

// MatchCamera runs track_bidirectional from camera 0 to camera cam for every
// detection, keeping only matches that are both forward-backward consistent
// and epipolar-consistent (spec.md §4.5: "only successful,
// forward-backward-consistent matches are emitted"; §4.6: "removes
// cross-camera matches whose bearing vectors violate the essential-matrix
// constraint").
func (sm *StereoMatcher) MatchCamera(pyr0, pyrCam *rimage.Pyramid, detections []Detected, cam int, depthGuess float64) []TrackResult {
	if sm.rig == nil || cam >= len(sm.rig.Cameras) || cam == 0 {
		return nil
	}

	if sm.cfg.MatchingGuessType == ReprojFixDepth {
		depthGuess = sm.cfg.MatchingDefaultDepth
	}

	jobs := make([]TrackJob, len(detections))
	for i, d := range detections {
		jobs[i] = TrackJob{ID: d.Record.ID, Warp: d.Record.Pose, Stack: d.Stack}
	}
	results := TrackPointsBidirectional(
		pyr0, pyrCam, jobs, 0, cam, sm.rig, depthGuess,
		sm.cfg.MatchingGuessType, sm.cfg.MaxIterations, sm.cfg.MaxRecoveredDist2,
	)

	out := make([]TrackResult, 0, len(results))
	for i, r := range results {
		if !r.Success {
			continue
		}
		if !sm.filter.Accept(sm.rig, detections[i].Record.Pose.Translation, r.Warp.Translation, cam) {
			continue
		}
		out = append(out, r)
	}
	return out
}

package opticalflow

import (
	"github.com/pkg/errors"
)

// MatchingGuessType selects how the stereo matcher initializes the warp
// translation guess for a cross-camera match (spec.md §4.3 "Matching-guess
// policy").
type MatchingGuessType int

const (
	// SamePixel initializes the guess with zero offset: Δ = 0.
	SamePixel MatchingGuessType = iota
	// ReprojFixDepth initializes the guess from a single configured depth.
	ReprojFixDepth
	// ReprojAvgDepth initializes the guess from a running average depth
	// supplied by the back-end on the depth-guess side channel.
	ReprojAvgDepth
)

// Config holds every static, per-tracker-instance configuration field from
// spec.md §6. Field names mirror the spec's enumerated keys with the
// `optical_flow_` prefix dropped, since the package name already provides
// that namespace (matching the teacher's config-struct convention of
// dropping a redundant prefix, e.g. `rimage.PinholeCameraIntrinsics`).
type Config struct {
	Levels                int `json:"levels"`
	MaxIterations         int `json:"max_iterations"`
	MaxRecoveredDist2     float64 `json:"max_recovered_dist2"`
	EpipolarError         float64 `json:"epipolar_error"`
	SkipFrames            int `json:"skip_frames"`
	DetectionGridSize     int `json:"detection_grid_size"`
	DetectionNumPointsCell int `json:"detection_num_points_cell"`
	DetectionMinThreshold int `json:"detection_min_threshold"`
	DetectionMaxThreshold int `json:"detection_max_threshold"`
	MatchingGuessType     MatchingGuessType `json:"matching_guess_type"`
	MatchingDefaultDepth  float64 `json:"matching_default_depth"`
	// PatchStoreCapacity and EvictAfterFrames are the additive extension
	// from SPEC_FULL.md §10 (open-question decision: bounded patch store).
	PatchStoreCapacity int `json:"patch_store_capacity"`
	EvictAfterFrames   int `json:"evict_after_frames"`
}

// Validate checks that Config describes a runnable tracker, in the style of
// the teacher's per-package config structs (e.g.
// calib.PinholeIntrinsics.Validate).
func (c *Config) Validate(path string) error {
	if c.Levels < 0 {
		return errors.Errorf("%s: levels must be >= 0", path)
	}
	if c.MaxIterations <= 0 {
		return errors.Errorf("%s: max_iterations must be > 0", path)
	}
	if c.SkipFrames < 1 {
		return errors.Errorf("%s: skip_frames must be >= 1", path)
	}
	if c.DetectionGridSize <= 0 {
		return errors.Errorf("%s: detection_grid_size must be > 0", path)
	}
	if c.DetectionNumPointsCell <= 0 {
		return errors.Errorf("%s: detection_num_points_cell must be > 0", path)
	}
	if c.DetectionMinThreshold <= 0 || c.DetectionMaxThreshold < c.DetectionMinThreshold {
		return errors.Errorf("%s: detection thresholds must satisfy 0 < min <= max", path)
	}
	return nil
}

// DefaultConfig returns the configuration used when none is supplied,
// matching common values for a VGA-scale rig.
func DefaultConfig() Config {
	return Config{
		Levels:                 3,
		MaxIterations:          5,
		MaxRecoveredDist2:      0.04,
		EpipolarError:          0.005,
		SkipFrames:             1,
		DetectionGridSize:      50,
		DetectionNumPointsCell: 1,
		DetectionMinThreshold:  10,
		DetectionMaxThreshold:  40,
		MatchingGuessType:      SamePixel,
		MatchingDefaultDepth:   2.0,
		PatchStoreCapacity:     defaultPatchStoreCapacity,
		EvictAfterFrames:       0,
	}
}

// KeypointRecord is one keypoint's observable state in one camera at one
// timestamp (spec.md §3: "Keypoint record").
type KeypointRecord struct {
	ID                 uint64
	Pose               Warp
	Descriptor         [4]uint64 // 256-bit BRIEF descriptor, computed once at detection
	DetectedByOptFlow  bool
}

// CameraKeypoints maps keypoint id to its record within a single camera.
type CameraKeypoints map[uint64]*KeypointRecord

// Frame is one timestamp's full output: per-camera keypoint maps plus
// provenance (spec.md §3: "Frame result").
type Frame struct {
	TimestampNS int64
	Cameras     []CameraKeypoints
	DepthGuess  float64
}

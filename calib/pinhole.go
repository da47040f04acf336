// Package calib provides the calibrated-camera contract the tracker is
// injected with: per-camera pinhole projection/unprojection and rig
// extrinsics, used by the stereo matcher's reprojection guess and the
// epipolar filter's essential-matrix residual.
package calib

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is returned when a camera model has no usable parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// Model is a calibrated camera's projection contract: project a 3D point in
// the camera frame to a pixel, and unproject a pixel to a unit bearing
// vector in the camera frame.
type Model interface {
	// Project maps a 3D point in the camera's own frame to a pixel. ok is
	// false when the point is behind the camera or otherwise cannot be
	// projected (spec: UnprojectionFailure/EpipolarReject use the same
	// out-of-domain signal for the inverse direction).
	Project(p r3.Vector) (px r2.Point, ok bool)
	// Unproject maps a pixel to a unit bearing vector in the camera's own
	// frame. ok is false if the pixel is outside the model's valid domain.
	Unproject(px r2.Point) (bearing r3.Vector, ok bool)
}

// PinholeIntrinsics holds the parameters of a simple pinhole projection with
// no lens distortion, matching the projection model the patch tracker's
// reprojection prior assumes.
type PinholeIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// Validate checks that the intrinsics describe a usable pinhole model, the
// same shape of check the teacher's PinholeCameraIntrinsics.CheckValid runs.
func (in *PinholeIntrinsics) Validate(path string) error {
	if in == nil {
		return errors.Wrap(ErrNoIntrinsics, path)
	}
	if in.Width <= 0 || in.Height <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "%s: invalid size (%d, %d)", path, in.Width, in.Height)
	}
	if in.Fx <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "%s: invalid focal length fx = %v", path, in.Fx)
	}
	if in.Fy <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "%s: invalid focal length fy = %v", path, in.Fy)
	}
	return nil
}

// Project implements Model for a distortion-free pinhole camera.
func (in *PinholeIntrinsics) Project(p r3.Vector) (r2.Point, bool) {
	if p.Z <= 0 {
		return r2.Point{}, false
	}
	u := (p.X/p.Z)*in.Fx + in.Ppx
	v := (p.Y/p.Z)*in.Fy + in.Ppy
	return r2.Point{X: u, Y: v}, true
}

// Unproject implements Model for a distortion-free pinhole camera, returning
// the unit bearing vector through pixel px.
func (in *PinholeIntrinsics) Unproject(px r2.Point) (r3.Vector, bool) {
	x := (px.X - in.Ppx) / in.Fx
	y := (px.Y - in.Ppy) / in.Fy
	v := r3.Vector{X: x, Y: y, Z: 1}
	norm := v.Norm()
	if norm == 0 {
		return r3.Vector{}, false
	}
	return v.Mul(1 / norm), true
}

// PixelToPoint back-projects a pixel with known depth to a 3D point in the
// camera frame, the inverse of Project restricted to z = depth.
func (in *PinholeIntrinsics) PixelToPoint(px r2.Point, depth float64) r3.Vector {
	x := (px.X - in.Ppx) / in.Fx * depth
	y := (px.Y - in.Ppy) / in.Fy * depth
	return r3.Vector{X: x, Y: y, Z: depth}
}

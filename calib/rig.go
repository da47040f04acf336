package calib

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// rot3 is a 3x3 rotation matrix stored row-major, kept minimal rather than
// pulling in a full matrix type for what is always an orthogonal 3x3.
type rot3 [3]r3.Vector

func (r rot3) apply(v r3.Vector) r3.Vector {
	return r3.Vector{X: r[0].Dot(v), Y: r[1].Dot(v), Z: r[2].Dot(v)}
}

// transpose returns R^T, equal to R^-1 for an orthogonal rotation matrix.
func (r rot3) transpose() rot3 {
	return rot3{
		{X: r[0].X, Y: r[1].X, Z: r[2].X},
		{X: r[0].Y, Y: r[1].Y, Z: r[2].Y},
		{X: r[0].Z, Y: r[1].Z, Z: r[2].Z},
	}
}

// mul returns R * S.
func (r rot3) mul(s rot3) rot3 {
	st := s.transpose()
	return rot3{
		{X: r[0].Dot(st[0]), Y: r[0].Dot(st[1]), Z: r[0].Dot(st[2])},
		{X: r[1].Dot(st[0]), Y: r[1].Dot(st[1]), Z: r[1].Dot(st[2])},
		{X: r[2].Dot(st[0]), Y: r[2].Dot(st[1]), Z: r[2].Dot(st[2])},
	}
}

var identityRot3 = rot3{{X: 1}, {Y: 1}, {Z: 1}}

// Pose is a rigid transform from a camera's own frame into the rig frame:
// p_rig = R*p_cam + T.
type Pose struct {
	R rot3
	T r3.Vector
}

// IdentityPose is the pose of the reference camera (camera 0) in the rig frame.
var IdentityPose = Pose{R: identityRot3}

// ToRig transforms a point from this camera's frame into the rig frame.
func (p Pose) ToRig(pt r3.Vector) r3.Vector {
	return p.R.apply(pt).Add(p.T)
}

// FromRig transforms a point from the rig frame into this camera's frame.
func (p Pose) FromRig(pt r3.Vector) r3.Vector {
	return p.R.transpose().apply(pt.Sub(p.T))
}

// inverse returns the pose that maps points from the rig frame into this
// camera's frame, i.e. the inverse rigid transform.
func (p Pose) inverse() Pose {
	rt := p.R.transpose()
	return Pose{R: rt, T: rt.apply(p.T).Mul(-1)}
}

// compose returns the pose equivalent to applying q first, then p, i.e.
// p(q(x)); compose here builds T_a_c from T_a_b (p) and T_b_c (q), i.e. p.compose(q) applied
// to a point in c's frame yields its coordinates in a's frame.
func (p Pose) compose(q Pose) Pose {
	return Pose{R: p.R.mul(q.R), T: p.R.apply(q.T).Add(p.T)}
}

// Rig couples a set of calibrated cameras, indexed by camera number (0 is the
// reference camera), with their pose in the shared rig frame.
type Rig struct {
	Cameras    []Model
	Extrinsics []Pose // Extrinsics[k] is camera k's pose in the rig frame; Extrinsics[0] == IdentityPose
}

// NewRig builds a Rig. Extrinsics[0] is forced to IdentityPose: camera 0
// defines the rig frame, matching the tracker's convention of treating
// camera 0 as the reference (spec.md §4.4, §4.6).
func NewRig(cameras []Model, extrinsics []Pose) *Rig {
	ext := append([]Pose(nil), extrinsics...)
	if len(ext) > 0 {
		ext[0] = IdentityPose
	}
	return &Rig{Cameras: cameras, Extrinsics: ext}
}

// pixelToPointModel is implemented by cameras that can back-project a pixel
// with a known depth to a 3D point, needed for ViewOffset's reprojection.
type pixelToPointModel interface {
	PixelToPoint(px r2.Point, depth float64) r3.Vector
}

// ViewOffset returns the first-order pixel displacement of a point observed
// at pixel p in camera src, assumed at the given depth, when instead viewed
// from camera dst. ok is false if the point projects outside camera dst's
// domain, or if camera src cannot back-project pixels. Used as the stereo
// matcher's reprojection-based initial guess.
func (rig *Rig) ViewOffset(p r2.Point, depth float64, src, dst int) (r2.Point, bool) {
	if src == dst {
		return r2.Point{}, true
	}
	srcModel, ok := rig.Cameras[src].(pixelToPointModel)
	if !ok {
		return r2.Point{}, false
	}
	ptSrcFrame := srcModel.PixelToPoint(p, depth)
	ptRigFrame := rig.Extrinsics[src].ToRig(ptSrcFrame)
	ptDstFrame := rig.Extrinsics[dst].FromRig(ptRigFrame)
	pxDst, ok := rig.Cameras[dst].Project(ptDstFrame)
	if !ok {
		return r2.Point{}, false
	}
	return r2.Point{X: pxDst.X - p.X, Y: pxDst.Y - p.Y}, true
}

// RelativePose returns T_src_dst, the pose that maps a point from camera
// dst's frame into camera src's frame — the convention the essential matrix
// is built from (spec's design notes: "E = [t]_x R with (R,t) = T_cam0_cam1").
func (rig *Rig) RelativePose(src, dst int) Pose {
	return rig.Extrinsics[src].inverse().compose(rig.Extrinsics[dst])
}

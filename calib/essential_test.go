package calib

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestEssentialMatrixResidualZeroForConsistentPair(t *testing.T) {
	cam0 := &PinholeIntrinsics{Width: 640, Height: 480, Fx: 400, Fy: 400, Ppx: 320, Ppy: 240}
	cam1 := &PinholeIntrinsics{Width: 640, Height: 480, Fx: 400, Fy: 400, Ppx: 320, Ppy: 240}

	// camera 1 sits 0.1m to the right of camera 0, same orientation.
	pose1 := Pose{R: identityRot3, T: r3.Vector{X: 0.1}}
	rig := NewRig([]Model{cam0, cam1}, []Pose{IdentityPose, pose1})

	// a 3D point seen by both cameras, in the rig (== camera 0) frame.
	ptRig := r3.Vector{X: 0.05, Y: -0.1, Z: 2.0}
	ptCam1 := rig.Extrinsics[1].FromRig(ptRig)

	f0, ok := cam0.Unproject(mustProject(t, cam0, ptRig))
	test.That(t, ok, test.ShouldBeTrue)
	f1, ok := cam1.Unproject(mustProject(t, cam1, ptCam1))
	test.That(t, ok, test.ShouldBeTrue)

	relPose := rig.RelativePose(0, 1)
	e := NewEssentialMatrix(relPose)
	rho := e.Residual(f0, f1)
	test.That(t, rho, test.ShouldBeLessThan, 1e-9)
}

func mustProject(t *testing.T, m Model, p r3.Vector) r2.Point {
	t.Helper()
	proj, ok := m.Project(p)
	test.That(t, ok, test.ShouldBeTrue)
	return proj
}

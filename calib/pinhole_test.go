package calib

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testIntrinsics() *PinholeIntrinsics {
	return &PinholeIntrinsics{Width: 640, Height: 480, Fx: 400, Fy: 400, Ppx: 320, Ppy: 240}
}

func TestPinholeValidate(t *testing.T) {
	in := testIntrinsics()
	test.That(t, in.Validate("cam0"), test.ShouldBeNil)

	bad := &PinholeIntrinsics{Width: 0, Height: 480, Fx: 400, Fy: 400}
	test.That(t, bad.Validate("cam0"), test.ShouldNotBeNil)
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	in := testIntrinsics()
	p3d := r3.Vector{X: 0.3, Y: -0.2, Z: 2.0}
	px, ok := in.Project(p3d)
	test.That(t, ok, test.ShouldBeTrue)

	bearing, ok := in.Unproject(px)
	test.That(t, ok, test.ShouldBeTrue)
	// bearing should point in the same direction as p3d, normalized
	normalized := p3d.Mul(1 / p3d.Norm())
	test.That(t, bearing.X, test.ShouldAlmostEqual, normalized.X, 1e-9)
	test.That(t, bearing.Y, test.ShouldAlmostEqual, normalized.Y, 1e-9)
	test.That(t, bearing.Z, test.ShouldAlmostEqual, normalized.Z, 1e-9)
}

func TestPixelToPointRoundTrip(t *testing.T) {
	in := testIntrinsics()
	px := r2.Point{X: 350, Y: 200}
	depth := 3.5
	pt := in.PixelToPoint(px, depth)
	test.That(t, pt.Z, test.ShouldEqual, depth)

	reproj, ok := in.Project(pt)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, reproj.X, test.ShouldAlmostEqual, px.X, 1e-9)
	test.That(t, reproj.Y, test.ShouldAlmostEqual, px.Y, 1e-9)
}

func TestProjectBehindCameraFails(t *testing.T) {
	in := testIntrinsics()
	_, ok := in.Project(r3.Vector{X: 0, Y: 0, Z: -1})
	test.That(t, ok, test.ShouldBeFalse)
}

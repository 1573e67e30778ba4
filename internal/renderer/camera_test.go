package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewPerspectiveCamera(t *testing.T) {
	cam := NewPerspectiveCamera(80, 16.0/9.0, 1, 100)

	if cam == nil {
		t.Fatal("NewPerspectiveCamera returned nil")
	}

	if cam.Fov != 80 || cam.Near != 1 || cam.Far != 100 {
		t.Errorf("unexpected frustum parameters: fov=%f near=%f far=%f", cam.Fov, cam.Near, cam.Far)
	}
}

func TestCameraGetViewMatrix(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 5}
	cam.Front = mgl32.Vec3{0, 0, -1}
	cam.Up = mgl32.Vec3{0, 1, 0}

	view := cam.GetViewMatrix()

	if view.At(3, 3) != 1.0 {
		t.Error("View matrix should be valid (w component = 1)")
	}
	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, view)
	if !origin.ApproxEqualThreshold(mgl32.Vec3{0, 0, -5}, 1e-5) {
		t.Errorf("origin should be 5 units in front of the camera, got %v", origin)
	}
}

func TestCameraProjection(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)

	proj := cam.Projection

	if proj.At(3, 3) != 0.0 {
		t.Error("Perspective projection should have w=0 at (3,3)")
	}
}

func TestCameraSetAspectRatioKeepsPose(t *testing.T) {
	cam := NewPerspectiveCamera(80, 1, 1, 100)
	cam.Position = mgl32.Vec3{5, 10, 10}
	cam.LookAt(mgl32.Vec3{0, 0, 0})
	before := cam.GetViewMatrix()

	cam.SetAspectRatio(2)

	if cam.GetViewMatrix() != before {
		t.Error("changing the aspect ratio must not move the camera")
	}
	if cam.Projection != mgl32.Perspective(mgl32.DegToRad(80), 2, 1, 100) {
		t.Error("projection was not rebuilt for the new aspect ratio")
	}
}

func TestCameraLookAt(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{5, 10, 10}

	cam.LookAt(mgl32.Vec3{0, 1, 0})

	want := mgl32.Vec3{-5, -9, -10}.Normalize()
	if !cam.Front.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("Front = %v, want %v", cam.Front, want)
	}
	if math.Abs(float64(cam.Front.Len())-1.0) > 0.01 {
		t.Errorf("Front vector should be normalized, length=%f", cam.Front.Len())
	}
	if cam.Up.Dot(cam.Front) > 1e-5 {
		t.Error("Up should be orthogonal to Front")
	}
}

func TestCameraLookAtStraightDown(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 10, 0}

	cam.LookAt(mgl32.Vec3{0, 0, 0})

	for i, v := range cam.Up {
		if math.IsNaN(float64(v)) {
			t.Fatalf("Up[%d] is NaN", i)
		}
	}
}

func TestCameraSetPoseRoundTrip(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)
	pose := mgl32.Translate3D(1, 1.6, 3).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(30)))

	cam.SetPose(pose)

	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{1, 1.6, 3}, 1e-5) {
		t.Errorf("Position = %v", cam.Position)
	}
	if !cam.Pose().ApproxEqualThreshold(pose, 1e-4) {
		t.Errorf("Pose() = %v, want %v", cam.Pose(), pose)
	}
}

func TestFrontFromAngles(t *testing.T) {
	front := FrontFromAngles(-90, 0)
	if !front.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("yaw -90 should look down -Z, got %v", front)
	}

	down := FrontFromAngles(-90, -90)
	if !down.ApproxEqualThreshold(mgl32.Vec3{0, -1, 0}, 1e-5) {
		t.Errorf("pitch -90 should look straight down, got %v", down)
	}
}

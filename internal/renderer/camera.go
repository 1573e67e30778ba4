// camera.go
package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	// HOT DATA - Accessed every frame for view/projection calculations
	Position   mgl32.Vec3 // Camera position in world space
	Front      mgl32.Vec3 // Forward direction vector
	Up         mgl32.Vec3 // Up direction vector
	Right      mgl32.Vec3 // Right direction vector
	Projection mgl32.Mat4 // Projection matrix

	// COLD DATA - Configuration, accessed less frequently
	WorldUp     mgl32.Vec3 // World up vector (usually (0,1,0))
	Fov         float32    // Vertical field of view in degrees
	Near        float32    // Near clipping plane
	Far         float32    // Far clipping plane
	AspectRatio float32    // width / height

	Name string
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *Camera {
	camera := Camera{
		Position:    mgl32.Vec3{0, 0, 0},
		Front:       mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		Right:       mgl32.Vec3{1, 0, 0},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Fov:         fov,
		Near:        near,
		Far:         far,
		AspectRatio: aspect,
	}
	camera.UpdateProjection()
	return &camera
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

// SetAspectRatio rebuilds the projection; the pose is untouched.
func (c *Camera) SetAspectRatio(aspectRatio float32) {
	c.AspectRatio = aspectRatio
	c.UpdateProjection()
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

// LookAt turns the camera toward target without moving it.
func (c *Camera) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() < 1e-6 {
		return
	}
	c.Front = dir.Normalize()
	c.updateCameraVectors()
}

// SetPose places the camera with a world transform (the inverse of the view
// matrix), as reported by an immersive viewer pose.
func (c *Camera) SetPose(pose mgl32.Mat4) {
	c.Position = pose.Col(3).Vec3()
	c.Front = pose.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3().Normalize()
	c.Up = pose.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3().Normalize()
	c.Right = c.Front.Cross(c.Up).Normalize()
}

// Pose returns the camera's world transform.
func (c *Camera) Pose() mgl32.Mat4 {
	return c.GetViewMatrix().Inv()
}

func (c *Camera) updateCameraVectors() {
	right := c.Front.Cross(c.WorldUp)
	if right.Len() < 1e-6 {
		// Looking straight up or down; keep the previous right vector.
		right = c.Right
		if right.Len() < 1e-6 {
			right = mgl32.Vec3{1, 0, 0}
		}
	}
	c.Right = right.Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}

// FrontFromAngles returns the forward vector for yaw/pitch in degrees, using
// the fly-camera convention (yaw -90 looks down -Z).
func FrontFromAngles(yaw, pitch float32) mgl32.Vec3 {
	yawRad := float64(mgl32.DegToRad(yaw))
	pitchRad := float64(mgl32.DegToRad(pitch))

	front := mgl32.Vec3{
		float32(math.Cos(yawRad) * math.Cos(pitchRad)),
		float32(math.Sin(pitchRad)),
		float32(math.Sin(yawRad) * math.Cos(pitchRad)),
	}
	return front.Normalize()
}

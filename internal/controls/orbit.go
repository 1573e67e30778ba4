// Package controls moves the desktop camera around the scene.
package controls

import (
	"math"

	"GopherAR/internal/config"
	"GopherAR/internal/renderer"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	springFrequency = 6.0
	springDamping   = 1.0 // critically damped

	// autoRotateSpeed is one full turn every 30 seconds.
	autoRotateSpeed = 2 * math.Pi / 30

	settleEpsilon = 1e-4
)

// coord is one spherical coordinate chasing its goal.
type coord struct {
	value, velocity, goal float64
}

func (c *coord) snap() {
	c.value, c.velocity = c.goal, 0
}

func (c *coord) settled() bool {
	return math.Abs(c.value-c.goal) < settleEpsilon && math.Abs(c.velocity) < settleEpsilon
}

// OrbitControls keeps the camera on a sphere around Target. Azimuth is measured
// around +Y starting at +Z, polar from +Y.
type OrbitControls struct {
	// Enabled is false while something else (an immersive session) owns the
	// camera pose.
	Enabled bool

	camera *renderer.Camera
	cfg    config.OrbitConfig
	target mgl32.Vec3

	azimuth, polar, distance coord

	spring   harmonica.Spring
	springDt float64
}

// NewOrbitControls derives the starting orbit from the camera's current
// position, clamps it into the configured ranges and moves the camera there.
func NewOrbitControls(cam *renderer.Camera, cfg config.OrbitConfig) *OrbitControls {
	o := &OrbitControls{
		Enabled: true,
		camera:  cam,
		cfg:     cfg,
		target:  cfg.Target.Mgl(),
	}

	offset := cam.Position.Sub(o.target)
	d := float64(offset.Len())
	polar := math.Pi / 2
	if d > 0 {
		polar = math.Acos(clamp(float64(offset.Y())/d, -1, 1))
	}
	o.azimuth.goal = math.Atan2(float64(offset.X()), float64(offset.Z()))
	o.polar.goal = o.clampPolar(polar)
	o.distance.goal = o.clampDistance(d)
	o.azimuth.snap()
	o.polar.snap()
	o.distance.snap()

	o.apply()
	return o
}

func (o *OrbitControls) Target() mgl32.Vec3 { return o.target }
func (o *OrbitControls) Azimuth() float64   { return o.azimuth.value }
func (o *OrbitControls) Polar() float64     { return o.polar.value }
func (o *OrbitControls) Distance() float64  { return o.distance.value }

// Rotate turns the orbit by a pointer drag of dx, dy pixels.
func (o *OrbitControls) Rotate(dx, dy float64) {
	if !o.Enabled {
		return
	}
	speed := float64(o.cfg.RotateSpeed)
	o.azimuth.goal -= dx * speed
	o.polar.goal = o.clampPolar(o.polar.goal - dy*speed)
	o.settleIfUndamped()
}

// Zoom moves the camera by scroll steps; positive steps move closer.
func (o *OrbitControls) Zoom(steps float64) {
	if !o.Enabled {
		return
	}
	factor := math.Pow(1-float64(o.cfg.ZoomSpeed), steps)
	o.distance.goal = o.clampDistance(o.distance.goal * factor)
	o.settleIfUndamped()
}

// Pan slides the target in the view plane. It does nothing unless panning is
// enabled in the configuration.
func (o *OrbitControls) Pan(dx, dy float64) {
	if !o.Enabled || !o.cfg.EnablePan {
		return
	}
	scale := float32(o.distance.value * float64(o.cfg.RotateSpeed))
	move := o.camera.Right.Mul(-float32(dx) * scale).Add(o.camera.Up.Mul(float32(dy) * scale))
	o.target = o.target.Add(move)
	o.apply()
}

// Update advances damping by dt seconds and repositions the camera. It
// reports whether the camera moved and does nothing while disabled.
func (o *OrbitControls) Update(dt float64) bool {
	if !o.Enabled {
		return false
	}
	// A damped step needs elapsed time; without it nothing moves.
	if o.cfg.EnableDamping && dt <= 0 {
		return false
	}
	if o.cfg.AutoRotate {
		o.azimuth.goal += autoRotateSpeed * dt
	}

	if o.cfg.EnableDamping {
		if dt != o.springDt {
			o.spring = harmonica.NewSpring(dt, springFrequency, springDamping)
			o.springDt = dt
		}
		for _, c := range []*coord{&o.azimuth, &o.polar, &o.distance} {
			if c.settled() {
				continue
			}
			c.value, c.velocity = o.spring.Update(c.value, c.velocity, c.goal)
		}
	} else {
		o.azimuth.snap()
		o.polar.snap()
		o.distance.snap()
	}

	// A critically damped spring does not overshoot in theory; float error
	// can still push it a hair past the goal.
	o.polar.value = o.clampPolar(o.polar.value)
	o.distance.value = o.clampDistance(o.distance.value)

	before := o.camera.Position
	o.apply()
	return !before.ApproxEqualThreshold(o.camera.Position, 1e-6)
}

func (o *OrbitControls) settleIfUndamped() {
	if o.cfg.EnableDamping {
		return
	}
	o.azimuth.snap()
	o.polar.snap()
	o.distance.snap()
}

func (o *OrbitControls) apply() {
	sinPolar := math.Sin(o.polar.value)
	d := o.distance.value
	offset := mgl32.Vec3{
		float32(d * sinPolar * math.Sin(o.azimuth.value)),
		float32(d * math.Cos(o.polar.value)),
		float32(d * sinPolar * math.Cos(o.azimuth.value)),
	}
	o.camera.Position = o.target.Add(offset)
	o.camera.LookAt(o.target)
}

func (o *OrbitControls) clampPolar(p float64) float64 {
	return clamp(p, float64(o.cfg.MinPolarAngle), float64(o.cfg.MaxPolarAngle))
}

func (o *OrbitControls) clampDistance(d float64) float64 {
	return clamp(d, float64(o.cfg.MinDistance), float64(o.cfg.MaxDistance))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

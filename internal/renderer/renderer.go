package renderer

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type LightType int

var FaceCullingEnabled bool = false
var Debug bool = false
var DepthTestEnabled bool = true

const (
	SPOT_LIGHT LightType = iota
	AMBIENT_LIGHT
)

// MaxSpotLights must match the array size in the default fragment shader.
const MaxSpotLights = 8

type Light struct {
	Type      LightType
	Color     mgl32.Vec3
	Intensity float32

	// Spot parameters, ignored for ambient lights.
	Distance   float32 // 0 means unlimited range
	Angle      float32 // cone half angle in radians
	Penumbra   float32 // 0..1 fraction of the cone that fades
	Decay      float32
	CastShadow bool
}

func CreateSpotLight(color mgl32.Vec3, intensity, angle, penumbra, decay float32) *Light {
	return &Light{
		Type:      SPOT_LIGHT,
		Color:     color,
		Intensity: intensity,
		Angle:     angle,
		Penumbra:  penumbra,
		Decay:     decay,
	}
}

func CreateAmbientLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{Type: AMBIENT_LIGHT, Color: color, Intensity: intensity}
}

// LightInstance is a light resolved to world space for one frame.
type LightInstance struct {
	Light     *Light
	Position  mgl32.Vec3
	Direction mgl32.Vec3
}

// DrawItem is one mesh with its world transform, flattened from the scene graph.
type DrawItem struct {
	Mesh          *Mesh
	World         mgl32.Mat4
	CastShadow    bool
	ReceiveShadow bool
}

type Render interface {
	Init(width, height int32, window *glfw.Window) error
	Render(camera *Camera, items []DrawItem, lights []LightInstance)
	SetSize(width, height int32)
	SetClearColor(r, g, b float32)
	Cleanup()
}

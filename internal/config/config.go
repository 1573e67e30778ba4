package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// GroundAlignment decides how a placed clone's vertical coordinate is derived
// from the reticle.
type GroundAlignment string

const (
	// AlignZero forces the clone's Y to 0.
	AlignZero GroundAlignment = "zero"
	// AlignBoundingBoxMin shifts the clone so the bottom of its scaled
	// bounding box sits on the reticle.
	AlignBoundingBoxMin GroundAlignment = "bbox-min"
)

func (g GroundAlignment) Valid() bool {
	return g == AlignZero || g == AlignBoundingBoxMin
}

// Vec3 is a YAML friendly vector ([x, y, z]).
type Vec3 [3]float32

func (v Vec3) Mgl() mgl32.Vec3 { return mgl32.Vec3(v) }

// Color is an RGB triple in 0..1.
type Color [3]float32

// Hex builds a Color from a 0xRRGGBB literal.
func Hex(c uint32) Color {
	return Color{
		float32((c>>16)&0xff) / 255,
		float32((c>>8)&0xff) / 255,
		float32(c&0xff) / 255,
	}
}

type WindowConfig struct {
	Width  int32  `yaml:"width"`
	Height int32  `yaml:"height"`
	Title  string `yaml:"title"`
}

type RendererConfig struct {
	ClearColor     Color   `yaml:"clear_color"`
	PixelRatio     float32 `yaml:"pixel_ratio"`
	ShadowsEnabled bool    `yaml:"shadows_enabled"`
}

type CameraConfig struct {
	FieldOfView float32 `yaml:"field_of_view"` // degrees
	NearPlane   float32 `yaml:"near_plane"`
	FarPlane    float32 `yaml:"far_plane"`
	Start       Vec3    `yaml:"start"`
}

type OrbitConfig struct {
	Target        Vec3    `yaml:"target"`
	MinDistance   float32 `yaml:"min_distance"`
	MaxDistance   float32 `yaml:"max_distance"`
	MinPolarAngle float32 `yaml:"min_polar_angle"` // radians from +Y
	MaxPolarAngle float32 `yaml:"max_polar_angle"`
	EnableDamping bool    `yaml:"enable_damping"`
	EnablePan     bool    `yaml:"enable_pan"`
	AutoRotate    bool    `yaml:"auto_rotate"`
	RotateSpeed   float32 `yaml:"rotate_speed"` // radians per pixel
	ZoomSpeed     float32 `yaml:"zoom_speed"`   // fraction of distance per scroll step
}

// LightRig is a ring of shadow casting spot lights around the origin, an
// optional overhead spot and an ambient fill.
type LightRig struct {
	Count            int     `yaml:"count"`
	Intensity        float32 `yaml:"intensity"`
	Radius           float32 `yaml:"radius"`
	Height           float32 `yaml:"height"`
	Angle            float32 `yaml:"angle"` // cone half angle, radians
	Penumbra         float32 `yaml:"penumbra"`
	Decay            float32 `yaml:"decay"`
	Distance         float32 `yaml:"distance"`
	Color            Color   `yaml:"color"`
	Overhead         bool    `yaml:"overhead"`
	OverheadHeight   float32 `yaml:"overhead_height"`
	AmbientIntensity float32 `yaml:"ambient_intensity"`
}

// MaxSpotLights is how many spot lights the renderer's shader can shade.
const MaxSpotLights = 8

// Spots counts the spot lights the rig creates: the ring plus the overhead.
func (r LightRig) Spots() int {
	n := r.Count
	if r.Overhead {
		n++
	}
	return n
}

// Positions returns the ring light positions, evenly spaced starting on +X.
func (r LightRig) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, r.Count)
	for i := 0; i < r.Count; i++ {
		a := 2 * math.Pi * float64(i) / float64(r.Count)
		out = append(out, mgl32.Vec3{
			r.Radius * float32(math.Cos(a)),
			r.Height,
			r.Radius * float32(math.Sin(a)),
		})
	}
	return out
}

type GroundConfig struct {
	Size     float32 `yaml:"size"`
	Segments int     `yaml:"segments"`
	Color    Color   `yaml:"color"`
}

type ReticleConfig struct {
	InnerRadius float32 `yaml:"inner_radius"`
	OuterRadius float32 `yaml:"outer_radius"`
	Segments    int     `yaml:"segments"`
	Color       Color   `yaml:"color"`
}

type ModelConfig struct {
	Path     string `yaml:"path"`
	Name     string `yaml:"name"`
	Position Vec3   `yaml:"position"`
	Color    Color  `yaml:"color"`
}

type FontConfig struct {
	// Path is a local file or http(s) URL to a TTF/OTF font. Empty means the
	// embedded Go Regular face.
	Path string `yaml:"path"`
}

type LabelsConfig struct {
	Lines      []string `yaml:"lines"`
	Size       float32  `yaml:"size"`
	LineHeight float32  `yaml:"line_height"`
	Origin     Vec3     `yaml:"origin"`
	Color      Color    `yaml:"color"`
}

type PlacementConfig struct {
	Scale           float32         `yaml:"scale"`
	GroundAlignment GroundAlignment `yaml:"ground_alignment"`
	MessageTitle    string          `yaml:"message_title"`
	Message         string          `yaml:"message"`
}

type UIConfig struct {
	InfoPanelID  string   `yaml:"info_panel_id"`
	ProgressID   string   `yaml:"progress_id"`
	InfoLines    []string `yaml:"info_lines"`
	InfoDistance float32  `yaml:"info_distance"`
	Dialogs      bool     `yaml:"dialogs"`
}

// Surface is an emulated real-world plane: an axis aligned horizontal
// rectangle centered on Center.
type Surface struct {
	Name   string  `yaml:"name"`
	Center Vec3    `yaml:"center"`
	Width  float32 `yaml:"width"`
	Depth  float32 `yaml:"depth"`
}

type EmulatorConfig struct {
	Surfaces    []Surface `yaml:"surfaces"`
	EyeHeight   float32   `yaml:"eye_height"`
	Start       Vec3      `yaml:"start"`
	StartPitch  float32   `yaml:"start_pitch"` // degrees
	WalkSpeed   float32   `yaml:"walk_speed"`
	Sensitivity float32   `yaml:"sensitivity"`
}

type AssetsConfig struct {
	CacheDir string `yaml:"cache_dir"`
	Workers  int    `yaml:"workers"`
}

// ViewerConfig holds every tunable of the viewer.
type ViewerConfig struct {
	Preset    string          `yaml:"preset"`
	Window    WindowConfig    `yaml:"window"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Camera    CameraConfig    `yaml:"camera"`
	Orbit     OrbitConfig     `yaml:"orbit"`
	Lights    LightRig        `yaml:"lights"`
	Ground    GroundConfig    `yaml:"ground"`
	Reticle   ReticleConfig   `yaml:"reticle"`
	Model     ModelConfig     `yaml:"model"`
	Font      FontConfig      `yaml:"font"`
	Labels    LabelsConfig    `yaml:"labels"`
	Placement PlacementConfig `yaml:"placement"`
	UI        UIConfig        `yaml:"ui"`
	Emulator  EmulatorConfig  `yaml:"emulator"`
	Assets    AssetsConfig    `yaml:"assets"`
}

var ErrUnknownPreset = errors.New("unknown preset")

// Default returns the tulsi preset.
func Default() ViewerConfig {
	return Tulsi()
}

// Tulsi reproduces the first demo: wide camera, five spot lights and clones
// dropped to y=0.
func Tulsi() ViewerConfig {
	return ViewerConfig{
		Preset: "tulsi",
		Window: WindowConfig{Width: 1280, Height: 720, Title: "GopherAR"},
		Renderer: RendererConfig{
			ClearColor:     Hex(0x4a995a),
			PixelRatio:     1,
			ShadowsEnabled: true,
		},
		Camera: CameraConfig{
			FieldOfView: 80,
			NearPlane:   1,
			FarPlane:    100,
			Start:       Vec3{5, 10, 10},
		},
		Orbit: OrbitConfig{
			Target:        Vec3{0, 1, 0},
			MinDistance:   4,
			MaxDistance:   20,
			MinPolarAngle: 0.5,
			MaxPolarAngle: 1.5,
			EnableDamping: true,
			RotateSpeed:   0.005,
			ZoomSpeed:     0.05,
		},
		Lights: LightRig{
			Count:            4,
			Intensity:        18,
			Radius:           15,
			Height:           10,
			Angle:            math.Pi / 6,
			Penumbra:         0.5,
			Decay:            1,
			Distance:         10000,
			Color:            Hex(0xffffff),
			Overhead:         true,
			OverheadHeight:   20,
			AmbientIntensity: 0.5,
		},
		Ground:  GroundConfig{Size: 20, Segments: 30, Color: Hex(0x46664e)},
		Reticle: ReticleConfig{InnerRadius: 0.15, OuterRadius: 0.2, Segments: 32, Color: Hex(0x00ff00)},
		Model: ModelConfig{
			Path:     "./bel1.glb",
			Name:     "plantModel",
			Position: Vec3{0, 0.001, -0.1},
			Color:    Hex(0x5f8f4e),
		},
		Labels: LabelsConfig{
			Lines:      []string{"This Plant is known as", "Tulsi.Also known as", "Azadirachta indica."},
			Size:       0.4,
			LineHeight: 0.5,
			Origin:     Vec3{2, 1, 2},
			Color:      Hex(0xdae64e),
		},
		Placement: PlacementConfig{
			Scale:           0.5,
			GroundAlignment: AlignZero,
			MessageTitle:    "Plant info",
			Message:         "This is a medicinal plant used for various purposes...",
		},
		UI: UIConfig{
			InfoPanelID:  "plant-info",
			ProgressID:   "progress-container",
			InfoLines:    []string{"Tap a surface to place the plant"},
			InfoDistance: 2,
			Dialogs:      true,
		},
		Emulator: EmulatorConfig{
			Surfaces:    []Surface{{Name: "floor", Center: Vec3{0, 0, 0}, Width: 20, Depth: 20}},
			EyeHeight:   1.6,
			Start:       Vec3{0, 0, 3},
			StartPitch:  -35,
			WalkSpeed:   2,
			Sensitivity: 0.1,
		},
		Assets: AssetsConfig{CacheDir: ".gopherar-cache", Workers: 2},
	}
}

// Neem is the second demo: tighter camera, three ring lights and clones that
// rest on their bounding box. Only those three differ in the demo; the other
// overrides here are tuning.
func Neem() ViewerConfig {
	c := Tulsi()
	c.Preset = "neem"
	c.Camera.FieldOfView = 75
	c.Camera.NearPlane = 0.1
	c.Camera.Start = Vec3{4, 6, 8}
	c.Orbit.MinDistance = 2
	c.Orbit.MaxDistance = 15
	c.Lights.Count = 3
	c.Lights.Intensity = 12
	c.Lights.Overhead = false
	c.Lights.AmbientIntensity = 0.6
	c.Model.Path = "./neem.glb"
	c.Labels.Lines = []string{"This Plant is known as", "Neem.", "Azadirachta indica."}
	c.Placement.Scale = 0.3
	c.Placement.GroundAlignment = AlignBoundingBoxMin
	return c
}

var presets = map[string]func() ViewerConfig{
	"tulsi": Tulsi,
	"neem":  Neem,
}

// PresetNames lists the known presets in order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func Preset(name string) (ViewerConfig, error) {
	if name == "" {
		return Default(), nil
	}
	fn, ok := presets[name]
	if !ok {
		return ViewerConfig{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return fn(), nil
}

// Load builds the effective configuration: preset, then the YAML file (if
// path is not empty), then environment overrides, then validation.
func Load(preset, path string) (ViewerConfig, error) {
	cfg, err := Preset(preset)
	if err != nil {
		return ViewerConfig{}, err
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return ViewerConfig{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return ViewerConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ViewerConfig{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto cfg. Fields absent from the
// document keep their current value.
func LoadFile(path string, cfg *ViewerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// viewerEnv holds the raw environment overrides.
type viewerEnv struct {
	ModelPath       string  `env:"GOPHERAR_MODEL_PATH"`
	FontPath        string  `env:"GOPHERAR_FONT_PATH"`
	GroundAlignment string  `env:"GOPHERAR_GROUND_ALIGNMENT"`
	PlacementScale  float32 `env:"GOPHERAR_PLACEMENT_SCALE"`
	CacheDir        string  `env:"GOPHERAR_CACHE_DIR"`
	Dialogs         *bool   `env:"GOPHERAR_DIALOGS"`
}

// ApplyEnv overlays GOPHERAR_* environment variables onto cfg. Unset
// variables leave the field untouched.
func ApplyEnv(cfg *ViewerConfig) error {
	var raw viewerEnv
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if raw.ModelPath != "" {
		cfg.Model.Path = raw.ModelPath
	}
	if raw.FontPath != "" {
		cfg.Font.Path = raw.FontPath
	}
	if raw.GroundAlignment != "" {
		cfg.Placement.GroundAlignment = GroundAlignment(raw.GroundAlignment)
	}
	if raw.PlacementScale != 0 {
		cfg.Placement.Scale = raw.PlacementScale
	}
	if raw.CacheDir != "" {
		cfg.Assets.CacheDir = raw.CacheDir
	}
	if raw.Dialogs != nil {
		cfg.UI.Dialogs = *raw.Dialogs
	}
	return nil
}

// Validate reports every inconsistent field at once.
func (c ViewerConfig) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Camera.FieldOfView <= 0 || c.Camera.FieldOfView >= 180 {
		errs = append(errs, fmt.Errorf("field_of_view must be in (0,180), got %v", c.Camera.FieldOfView))
	}
	if c.Camera.NearPlane <= 0 || c.Camera.FarPlane <= c.Camera.NearPlane {
		errs = append(errs, fmt.Errorf("clip planes must satisfy 0 < near < far, got %v/%v", c.Camera.NearPlane, c.Camera.FarPlane))
	}
	if c.Orbit.MinDistance <= 0 || c.Orbit.MaxDistance < c.Orbit.MinDistance {
		errs = append(errs, fmt.Errorf("orbit distance range invalid: [%v, %v]", c.Orbit.MinDistance, c.Orbit.MaxDistance))
	}
	if c.Orbit.MinPolarAngle < 0 || c.Orbit.MaxPolarAngle > math.Pi || c.Orbit.MaxPolarAngle < c.Orbit.MinPolarAngle {
		errs = append(errs, fmt.Errorf("orbit polar range invalid: [%v, %v]", c.Orbit.MinPolarAngle, c.Orbit.MaxPolarAngle))
	}
	if c.Lights.Count < 0 {
		errs = append(errs, fmt.Errorf("light count must not be negative, got %d", c.Lights.Count))
	}
	if c.Lights.Spots() > MaxSpotLights {
		errs = append(errs, fmt.Errorf("at most %d spot lights are supported, got %d", MaxSpotLights, c.Lights.Spots()))
	}
	if c.Placement.Scale <= 0 {
		errs = append(errs, fmt.Errorf("placement scale must be positive, got %v", c.Placement.Scale))
	}
	if !c.Placement.GroundAlignment.Valid() {
		errs = append(errs, fmt.Errorf("unknown ground alignment %q (want %q or %q)", c.Placement.GroundAlignment, AlignZero, AlignBoundingBoxMin))
	}
	if c.Model.Path == "" || c.Model.Name == "" {
		errs = append(errs, errors.New("model path and name are required"))
	}
	if c.Reticle.InnerRadius <= 0 || c.Reticle.OuterRadius <= c.Reticle.InnerRadius || c.Reticle.Segments < 3 {
		errs = append(errs, errors.New("reticle needs 0 < inner < outer radius and at least 3 segments"))
	}
	if c.Ground.Size <= 0 || c.Ground.Segments < 1 {
		errs = append(errs, errors.New("ground needs a positive size and at least one segment"))
	}
	return errors.Join(errs...)
}

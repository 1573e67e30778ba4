package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "tulsi", cfg.Preset)
	assert.Equal(t, float32(80), cfg.Camera.FieldOfView)
	assert.Equal(t, AlignZero, cfg.Placement.GroundAlignment)
	assert.Equal(t, float32(0.5), cfg.Placement.Scale)
	assert.Equal(t, "plantModel", cfg.Model.Name)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"neem", "tulsi"}, PresetNames())

	for _, name := range PresetNames() {
		cfg, err := Preset(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, cfg.Preset)
		assert.NoError(t, cfg.Validate(), name)
	}

	neem, err := Preset("neem")
	require.NoError(t, err)
	assert.Equal(t, AlignBoundingBoxMin, neem.Placement.GroundAlignment)
	assert.Equal(t, 3, neem.Lights.Count)

	_, err = Preset("fern")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestHex(t *testing.T) {
	assert.Equal(t, Color{1, 0, 0}, Hex(0xff0000))
	assert.Equal(t, Color{0, 1, 0}, Hex(0x00ff00))
	assert.Equal(t, Color{0, 0, 1}, Hex(0x0000ff))
}

func TestLightRigSpotsFitTheShader(t *testing.T) {
	rig := Default().Lights
	rig.Count, rig.Overhead = MaxSpotLights, false
	assert.Equal(t, MaxSpotLights, rig.Spots())

	cfg := Default()
	cfg.Lights = rig
	assert.NoError(t, cfg.Validate())

	cfg.Lights.Overhead = true
	assert.ErrorContains(t, cfg.Validate(), "at most 8 spot lights")
}

func TestLightRigPositions(t *testing.T) {
	rig := LightRig{Count: 4, Radius: 15, Height: 10}
	pos := rig.Positions()
	require.Len(t, pos, 4)

	want := []mgl32.Vec3{{15, 10, 0}, {0, 10, 15}, {-15, 10, 0}, {0, 10, -15}}
	for i := range want {
		assert.True(t, pos[i].ApproxEqualThreshold(want[i], 1e-4), "light %d: %v", i, pos[i])
	}

	assert.Empty(t, LightRig{}.Positions())
}

func TestLoadFileOverlaysPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viewer.yaml")
	doc := `
camera:
  field_of_view: 60
placement:
  ground_alignment: bbox-min
  scale: 0.25
orbit:
  target: [0, 2, 0]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load("tulsi", path)
	require.NoError(t, err)

	assert.Equal(t, float32(60), cfg.Camera.FieldOfView)
	assert.Equal(t, float32(1), cfg.Camera.NearPlane, "untouched fields keep the preset value")
	assert.Equal(t, AlignBoundingBoxMin, cfg.Placement.GroundAlignment)
	assert.Equal(t, float32(0.25), cfg.Placement.Scale)
	assert.Equal(t, Vec3{0, 2, 0}, cfg.Orbit.Target)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orbit:\n  min_distance: 30\n"), 0o644))

	_, err := Load("", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orbit distance range")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOPHERAR_MODEL_PATH", "https://example.com/plant.glb")
	t.Setenv("GOPHERAR_GROUND_ALIGNMENT", "bbox-min")
	t.Setenv("GOPHERAR_PLACEMENT_SCALE", "0.75")
	t.Setenv("GOPHERAR_DIALOGS", "false")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))

	assert.Equal(t, "https://example.com/plant.glb", cfg.Model.Path)
	assert.Equal(t, AlignBoundingBoxMin, cfg.Placement.GroundAlignment)
	assert.Equal(t, float32(0.75), cfg.Placement.Scale)
	assert.False(t, cfg.UI.Dialogs)
	assert.Equal(t, "", cfg.Font.Path, "unset variables leave fields alone")
}

func TestApplyEnvBadNumber(t *testing.T) {
	t.Setenv("GOPHERAR_PLACEMENT_SCALE", "half")
	cfg := Default()
	assert.Error(t, ApplyEnv(&cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ViewerConfig)
		want   string
	}{
		{"inverted polar", func(c *ViewerConfig) { c.Orbit.MinPolarAngle, c.Orbit.MaxPolarAngle = 1.5, 0.5 }, "polar range"},
		{"zero scale", func(c *ViewerConfig) { c.Placement.Scale = 0 }, "placement scale"},
		{"policy", func(c *ViewerConfig) { c.Placement.GroundAlignment = "float" }, "ground alignment"},
		{"clip planes", func(c *ViewerConfig) { c.Camera.FarPlane = 0.5 }, "clip planes"},
		{"reticle", func(c *ViewerConfig) { c.Reticle.OuterRadius = 0.1 }, "reticle"},
		{"model", func(c *ViewerConfig) { c.Model.Path = "" }, "model path"},
		{"too many spots", func(c *ViewerConfig) { c.Lights.Count, c.Lights.Overhead = 8, true }, "spot lights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"GopherAR/internal/config"
	"GopherAR/internal/logger"
	"GopherAR/internal/renderer"
	"GopherAR/internal/scene"
	"GopherAR/internal/xr"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const leafOBJ = `v -1 0 -1
v 1 0 -1
v 1 2 1
v -1 2 1
f 1 4 3 2
`

type fakeRenderer struct {
	frames        int
	items         int
	lights        int
	width, height int32
	clear         [3]float32
}

func (f *fakeRenderer) Init(int32, int32, *glfw.Window) error { return nil }
func (f *fakeRenderer) Render(_ *renderer.Camera, items []renderer.DrawItem, lights []renderer.LightInstance) {
	f.frames++
	f.items = len(items)
	f.lights = len(lights)
}
func (f *fakeRenderer) SetSize(w, h int32)            { f.width, f.height = w, h }
func (f *fakeRenderer) SetClearColor(r, g, b float32) { f.clear = [3]float32{r, g, b} }
func (f *fakeRenderer) Cleanup()                      {}

type recordingNotifier struct{ messages []string }

func (n *recordingNotifier) Notify(_, message string) { n.messages = append(n.messages, message) }

type harness struct {
	viewer   *Viewer
	render   *fakeRenderer
	emulator *xr.Emulator
	notifier *recordingNotifier
}

func newHarness(t *testing.T, mutate func(*config.ViewerConfig)) *harness {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "leaf.obj")
	require.NoError(t, os.WriteFile(model, []byte(leafOBJ), 0o644))

	cfg := config.Default()
	cfg.Model.Path = model
	cfg.Assets.CacheDir = dir
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{
		render:   &fakeRenderer{},
		emulator: xr.NewEmulator(cfg.Emulator),
		notifier: &recordingNotifier{},
	}
	v, err := New(Options{Config: cfg, Renderer: h.render, Platform: h.emulator, Notifier: h.notifier})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	h.viewer = v
	return h
}

// loaded waits for the background loads and applies them.
func (h *harness) loaded(t *testing.T) *scene.Node {
	t.Helper()
	h.viewer.Wait()
	h.viewer.Tick(1.0 / 60)
	model := h.viewer.Scene().GetObjectByName("plantModel")
	require.NotNil(t, model)
	return model
}

// enterAR starts a session and ticks until the reticle finds the floor.
func (h *harness) enterAR(t *testing.T) {
	t.Helper()
	require.NoError(t, h.viewer.ToggleAR(context.Background()))
	require.Eventually(t, func() bool {
		h.viewer.Tick(1.0 / 60)
		return h.viewer.Reticle().Visible
	}, time.Second, time.Millisecond)
}

func TestNewBuildsScene(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Scene()

	ground := sc.GetObjectByName("ground")
	require.NotNil(t, ground)
	assert.False(t, ground.CastShadow)
	assert.True(t, ground.ReceiveShadow)
	assert.True(t, ground.Mesh.Material.DoubleSided)

	for _, name := range []string{"spot-1", "spot-2", "spot-3", "spot-4"} {
		n := sc.GetObjectByName(name)
		require.NotNil(t, n, name)
		assert.True(t, n.Light.CastShadow)
		assert.Equal(t, float32(18), n.Light.Intensity)
	}
	overhead := sc.GetObjectByName("spot-overhead")
	require.NotNil(t, overhead)
	assert.False(t, overhead.Light.CastShadow)
	assert.Equal(t, mgl32.Vec3{0, 20, 1}, overhead.Position)

	assert.False(t, h.viewer.Reticle().Visible)
	assert.Equal(t, [3]float32(config.Hex(0x4a995a)), h.render.clear)
}

func TestShadowsDisabledClearsFlags(t *testing.T) {
	h := newHarness(t, func(c *config.ViewerConfig) { c.Renderer.ShadowsEnabled = false })
	model := h.loaded(t)
	sc := h.viewer.Scene()

	assert.False(t, sc.GetObjectByName("ground").ReceiveShadow)
	assert.False(t, sc.GetObjectByName("spot-1").Light.CastShadow)
	model.Traverse(func(n *scene.Node) {
		assert.False(t, n.CastShadow, n.Name)
		assert.False(t, n.ReceiveShadow, n.Name)
	})
}

func TestSpotLimitMatchesRenderer(t *testing.T) {
	assert.Equal(t, renderer.MaxSpotLights, config.MaxSpotLights)
}

func TestModelLoadsIntoScene(t *testing.T) {
	h := newHarness(t, nil)

	model := h.loaded(t)

	assert.Equal(t, mgl32.Vec3{0, 0.001, -0.1}, model.Position)
	model.Traverse(func(n *scene.Node) {
		if n.Mesh != nil {
			assert.True(t, n.CastShadow)
			assert.True(t, n.ReceiveShadow)
		}
	})
	assert.Equal(t, 1, h.render.frames, "exactly one draw per tick")
	assert.Equal(t, 6, h.render.lights, "four ring spots, one overhead, one ambient")
}

func TestModelLoadFailureLeavesSceneUntouched(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	defer logger.Set(zap.New(core))()
	h := newHarness(t, func(c *config.ViewerConfig) { c.Model.Path = "missing.glb" })
	before := h.viewer.Scene().Count()

	h.viewer.Wait()
	h.viewer.Tick(1.0 / 60)

	assert.Nil(t, h.viewer.Scene().GetObjectByName("plantModel"))
	// Only the font driven nodes arrived: two groups and their lines.
	cfg := config.Default()
	assert.Equal(t, before+2+len(cfg.Labels.Lines)+len(cfg.UI.InfoLines), h.viewer.Scene().Count())
	assert.Equal(t, 1, logs.FilterMessage("Asset load failed").Len())
}

func TestSessionTogglesControlsAndPanel(t *testing.T) {
	h := newHarness(t, nil)
	h.loaded(t)
	panel := h.viewer.Page().GetElementByID("plant-info")
	require.NotNil(t, panel)

	h.enterAR(t)

	assert.False(t, h.viewer.Controls().Enabled)
	assert.True(t, h.viewer.Scene().GetObjectByName("info-panel").Visible)
	eye := h.viewer.Camera().Position
	assert.InDelta(t, 1.6, eye.Y(), 1e-4, "camera follows the viewer pose")

	require.NoError(t, h.viewer.ToggleAR(context.Background()))
	h.viewer.Tick(1.0 / 60)

	assert.True(t, h.viewer.Controls().Enabled)
	assert.False(t, h.viewer.Reticle().Visible)
	assert.False(t, h.viewer.Scene().GetObjectByName("info-panel").Visible)
}

func TestSelectPlacesAtReticle(t *testing.T) {
	h := newHarness(t, nil)
	h.loaded(t)
	h.enterAR(t)
	marker := h.viewer.Reticle().WorldPosition()

	h.emulator.Select()
	h.viewer.Tick(1.0 / 60)
	h.emulator.Select()
	h.viewer.Tick(1.0 / 60)

	placed := h.viewer.Placement().Placed()
	require.Len(t, placed, 2)
	assert.InDelta(t, marker.X(), placed[0].Position.X(), 1e-4)
	assert.InDelta(t, marker.Z(), placed[0].Position.Z(), 1e-4)
	assert.Zero(t, placed[0].Position.Y())
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, placed[0].Scale)
	assert.Len(t, h.notifier.messages, 2)
}

func TestSelectWithBackloggedQueue(t *testing.T) {
	h := newHarness(t, nil)
	h.loaded(t)
	h.enterAR(t)
	for i := 0; i < 500; i++ {
		h.viewer.Queue().Post(func() {})
	}

	selected := make(chan struct{})
	go func() {
		h.emulator.Select()
		close(selected)
	}()
	select {
	case <-selected:
	case <-time.After(time.Second):
		t.Fatal("select blocked behind queued callbacks")
	}

	h.viewer.Tick(1.0 / 60)
	assert.Len(t, h.viewer.Placement().Placed(), 1)
}

func TestCloseDropsPendingCallbacks(t *testing.T) {
	h := newHarness(t, nil)
	h.viewer.Wait()
	ran := false
	for i := 0; i < 500; i++ {
		h.viewer.Queue().Post(func() { ran = true })
	}

	h.viewer.Close()

	assert.Zero(t, h.viewer.Queue().Len())
	h.viewer.Tick(1.0 / 60)
	assert.False(t, ran)
}

func TestSelectIgnoredBeforeModelLoads(t *testing.T) {
	h := newHarness(t, func(c *config.ViewerConfig) { c.Model.Path = "missing.glb" })
	h.viewer.Wait()
	h.enterAR(t)

	h.emulator.Select()
	h.viewer.Tick(1.0 / 60)

	assert.Empty(t, h.viewer.Placement().Placed())
	assert.Empty(t, h.notifier.messages)
}

func TestResizeKeepsPose(t *testing.T) {
	h := newHarness(t, func(c *config.ViewerConfig) { c.Renderer.PixelRatio = 2 })
	cam := h.viewer.Camera()
	pos, front := cam.Position, cam.Front

	h.viewer.Resize(800, 400)

	assert.Equal(t, float32(2), cam.AspectRatio)
	assert.Equal(t, int32(1600), h.render.width)
	assert.Equal(t, int32(800), h.render.height)
	assert.Equal(t, pos, cam.Position)
	assert.Equal(t, front, cam.Front)
	w, hgt := h.viewer.Size()
	assert.Equal(t, int32(800), w)
	assert.Equal(t, int32(400), hgt)

	h.viewer.Resize(0, 0)
	assert.Equal(t, float32(2), cam.AspectRatio, "minimized windows are ignored")
}

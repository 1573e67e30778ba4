// Package app assembles the plant viewer: scene, lights, model, orbit camera,
// AR session and placement, and drives them once per display tick.
package app

import (
	"context"
	"fmt"

	"GopherAR/internal/config"
	"GopherAR/internal/controls"
	"GopherAR/internal/loader"
	"GopherAR/internal/logger"
	"GopherAR/internal/mainthread"
	"GopherAR/internal/placement"
	"GopherAR/internal/renderer"
	"GopherAR/internal/scene"
	"GopherAR/internal/text"
	"GopherAR/internal/ui"
	"GopherAR/internal/xr"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/image/font/opentype"
)

const (
	infoPanelSize       = 0.08
	infoPanelLineHeight = 0.1
)

type Options struct {
	Config   config.ViewerConfig
	Renderer renderer.Render
	Platform xr.Platform
	// Notifier shows the message after a placement; nil logs it.
	Notifier placement.Notifier
	// Page receives the info panel; nil creates an empty one.
	Page *ui.Page
}

type Viewer struct {
	cfg    config.ViewerConfig
	render renderer.Render

	queue  *mainthread.Queue
	loader *loader.Loader
	page   *ui.Page

	scene     *scene.Scene
	camera    *renderer.Camera
	controls  *controls.OrbitControls
	session   *xr.Controller
	placement *placement.Controller

	reticle   *scene.Node
	infoPanel *scene.Node

	width, height int32
}

// New builds the scene and starts loading the model and font in the
// background. Results appear on later ticks.
func New(opts Options) (*Viewer, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Renderer == nil || opts.Platform == nil {
		return nil, fmt.Errorf("app: renderer and platform are required")
	}
	if opts.Notifier == nil {
		opts.Notifier = ui.LogNotifier{}
	}
	if opts.Page == nil {
		opts.Page = ui.NewPage()
	}

	queue := mainthread.NewQueue(mainthread.DefaultSize)
	v := &Viewer{
		cfg:    cfg,
		render: opts.Renderer,
		queue:  queue,
		page:   opts.Page,
		scene:  scene.New(),
		width:  cfg.Window.Width,
		height: cfg.Window.Height,
		loader: loader.New(queue, loader.Options{
			Workers:    cfg.Assets.Workers,
			CacheDir:   cfg.Assets.CacheDir,
			ModelColor: cfg.Model.Color,
		}),
	}

	v.camera = renderer.NewPerspectiveCamera(cfg.Camera.FieldOfView,
		float32(v.width)/float32(v.height), cfg.Camera.NearPlane, cfg.Camera.FarPlane)
	v.camera.Position = cfg.Camera.Start.Mgl()
	v.controls = controls.NewOrbitControls(v.camera, cfg.Orbit)

	bg := cfg.Renderer.ClearColor
	v.render.SetClearColor(bg[0], bg[1], bg[2])

	if err := v.buildGround(); err != nil {
		v.loader.Close()
		return nil, err
	}
	v.buildLights()
	if err := v.buildReticle(); err != nil {
		v.loader.Close()
		return nil, err
	}

	v.infoPanel = scene.NewNode("info-panel")
	v.infoPanel.Visible = false
	v.scene.Add(v.infoPanel)
	v.page.Register(cfg.UI.InfoPanelID, ui.NodeElement{Node: v.infoPanel})

	v.placement = placement.New(v.scene, v.reticle, cfg.Model.Name, cfg.Placement, opts.Notifier)
	v.session = xr.NewController(opts.Platform, queue)
	v.session.OnStart(v.sessionStarted)
	v.session.OnEnd(v.sessionEnded)
	v.session.OnSelect(func() { v.placement.Select() })

	v.loadFont()
	v.loadModel()

	logger.Log.Info("Viewer ready",
		zap.String("preset", cfg.Preset),
		zap.String("model", cfg.Model.Path),
		zap.String("ground_alignment", string(cfg.Placement.GroundAlignment)))
	return v, nil
}

func (v *Viewer) buildGround() error {
	g := v.cfg.Ground
	mesh, err := loader.LoadPlane(g.Size, g.Segments)
	if err != nil {
		return fmt.Errorf("ground: %w", err)
	}
	mat := renderer.NewMaterial("ground", g.Color)
	mat.DoubleSided = true
	mesh.Material = mat

	ground := scene.NewMeshNode("ground", mesh)
	ground.CastShadow = false
	ground.ReceiveShadow = v.cfg.Renderer.ShadowsEnabled
	v.scene.Add(ground)
	return nil
}

func (v *Viewer) buildLights() {
	rig := v.cfg.Lights
	color := mgl32.Vec3(rig.Color)

	spot := func(name string, pos mgl32.Vec3, castShadow bool) {
		l := renderer.CreateSpotLight(color, rig.Intensity, rig.Angle, rig.Penumbra, rig.Decay)
		l.Distance = rig.Distance
		l.CastShadow = castShadow
		n := scene.NewLightNode(name, l)
		n.Position = pos
		v.scene.Add(n)
	}

	for i, pos := range rig.Positions() {
		spot(fmt.Sprintf("spot-%d", i+1), pos, v.cfg.Renderer.ShadowsEnabled)
	}
	if rig.Overhead {
		spot("spot-overhead", mgl32.Vec3{0, rig.OverheadHeight, 1}, false)
	}
	v.scene.Add(scene.NewLightNode("ambient", renderer.CreateAmbientLight(color, rig.AmbientIntensity)))
}

func (v *Viewer) buildReticle() error {
	r := v.cfg.Reticle
	mesh, err := loader.LoadRing(r.InnerRadius, r.OuterRadius, r.Segments)
	if err != nil {
		return fmt.Errorf("reticle: %w", err)
	}
	mesh.Material = renderer.NewBasicMaterial("reticle", r.Color)

	v.reticle = scene.NewMeshNode("reticle", mesh)
	v.reticle.Visible = false
	v.scene.Add(v.reticle)
	return nil
}

func (v *Viewer) loadModel() {
	m := v.cfg.Model
	v.page.Show(v.cfg.UI.ProgressID)

	v.loader.LoadModel(m.Path,
		func(model *scene.Node) {
			model.Name = m.Name
			model.Position = m.Position.Mgl()
			shadows := v.cfg.Renderer.ShadowsEnabled
			model.Traverse(func(n *scene.Node) {
				if n.Mesh != nil {
					n.CastShadow = shadows
					n.ReceiveShadow = shadows
				}
			})
			v.scene.Add(model)
			v.page.Hide(v.cfg.UI.ProgressID)
		},
		func(f float64) {
			logger.Log.Debug("Loading model", zap.Float64("percent", f*100))
			v.page.SetProgress(v.cfg.UI.ProgressID, f)
		},
		func(error) {
			// Already logged by the loader; the progress indicator stays up.
		})
}

func (v *Viewer) loadFont() {
	v.loader.LoadFont(v.cfg.Font.Path, func(f *opentype.Font) {
		l := v.cfg.Labels
		labels, err := text.BuildLabels(f, l.Lines, text.Style{
			Size:       l.Size,
			LineHeight: l.LineHeight,
			Origin:     l.Origin.Mgl(),
			Color:      l.Color,
		})
		if err != nil {
			logger.Log.Error("Could not build labels", zap.Error(err))
			return
		}
		v.scene.Add(labels)

		panel, err := text.BuildLabels(f, v.cfg.UI.InfoLines, text.Style{
			Size:       infoPanelSize,
			LineHeight: infoPanelLineHeight,
			Color:      l.Color,
		})
		if err != nil {
			logger.Log.Error("Could not build info panel", zap.Error(err))
			return
		}
		v.infoPanel.Add(panel)
	}, nil)
}

func (v *Viewer) sessionStarted(*xr.SessionState) {
	v.controls.Enabled = false
	v.page.Show(v.cfg.UI.InfoPanelID)
}

func (v *Viewer) sessionEnded(*xr.SessionState) {
	v.controls.Enabled = true
	v.reticle.Visible = false
	v.page.Hide(v.cfg.UI.InfoPanelID)
}

// Tick runs one display callback: queued async results, the immersive frame
// (viewer pose and reticle), orbit damping, then a single draw.
func (v *Viewer) Tick(dt float64) {
	v.queue.Drain()

	if frame, st := v.session.Frame(); frame != nil {
		if pose, ok := frame.ViewerPose(st.LocalSpace); ok {
			v.camera.SetPose(pose)
		}
		v.placement.Step(frame, st)
	}
	v.controls.Update(dt)
	v.followCamera()

	items, lights := v.scene.DrawList()
	v.render.Render(v.camera, items, lights)
}

// followCamera keeps the info panel floating in front of the viewer.
func (v *Viewer) followCamera() {
	if !v.infoPanel.Visible {
		return
	}
	c := v.camera
	d := v.cfg.UI.InfoDistance
	v.infoPanel.Position = c.Position.Add(c.Front.Mul(d)).Sub(c.Right.Mul(d * 0.4)).Add(c.Up.Mul(d * 0.3))

	back := c.Front.Mul(-1)
	rot := mgl32.Mat4{
		c.Right.X(), c.Right.Y(), c.Right.Z(), 0,
		c.Up.X(), c.Up.Y(), c.Up.Z(), 0,
		back.X(), back.Y(), back.Z(), 0,
		0, 0, 0, 1,
	}
	v.infoPanel.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
}

// Resize matches the camera aspect and the drawable size to a new viewport
// in window coordinates. The camera pose is untouched.
func (v *Viewer) Resize(width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}
	v.width, v.height = width, height
	v.camera.SetAspectRatio(float32(width) / float32(height))

	ratio := v.cfg.Renderer.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	v.render.SetSize(int32(float32(width)*ratio), int32(float32(height)*ratio))
}

// ToggleAR enters or leaves the immersive session.
func (v *Viewer) ToggleAR(ctx context.Context) error {
	if err := v.session.Toggle(ctx); err != nil {
		logger.Log.Error("Could not toggle AR session", zap.Error(err))
		return err
	}
	return nil
}

// Wait blocks until every background load has queued its callbacks.
func (v *Viewer) Wait() { v.loader.Wait() }

// Close ends any session, stops the loader and drops callbacks no tick will
// run.
func (v *Viewer) Close() {
	if err := v.session.End(); err != nil {
		logger.Log.Warn("Ending session on close", zap.Error(err))
	}
	v.loader.Close()
	if n := v.queue.Discard(); n > 0 {
		logger.Log.Debug("Dropped pending callbacks", zap.Int("count", n))
	}
}

func (v *Viewer) Scene() *scene.Scene               { return v.scene }
func (v *Viewer) Camera() *renderer.Camera          { return v.camera }
func (v *Viewer) Controls() *controls.OrbitControls { return v.controls }
func (v *Viewer) Session() *xr.Controller           { return v.session }
func (v *Viewer) Placement() *placement.Controller  { return v.placement }
func (v *Viewer) Page() *ui.Page                    { return v.page }
func (v *Viewer) Reticle() *scene.Node              { return v.reticle }
func (v *Viewer) Queue() *mainthread.Queue          { return v.queue }
func (v *Viewer) Size() (width, height int32)       { return v.width, v.height }

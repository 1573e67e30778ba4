// Package engine hosts the viewer in a glfw window: it owns the OS thread,
// the GL context, input callbacks and the display loop.
package engine

import (
	"context"
	"fmt"
	"runtime"

	"GopherAR/internal/app"
	"GopherAR/internal/config"
	"GopherAR/internal/logger"
	"GopherAR/internal/placement"
	"GopherAR/internal/renderer"
	"GopherAR/internal/ui"
	"GopherAR/internal/xr"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

type Gopher struct {
	Width  int32
	Height int32

	cfg      config.ViewerConfig
	render   renderer.Render
	emulator *xr.Emulator
	notifier placement.Notifier

	window *glfw.Window
	viewer *app.Viewer
	input  *inputState
}

// NewGopher prepares a host for cfg. Nothing touches the OS until Run.
func NewGopher(cfg config.ViewerConfig, notifier placement.Notifier) *Gopher {
	return &Gopher{
		Width:    cfg.Window.Width,
		Height:   cfg.Window.Height,
		cfg:      cfg,
		render:   &renderer.OpenGLRenderer{},
		emulator: xr.NewEmulator(cfg.Emulator),
		notifier: notifier,
	}
}

// Run opens the window and blocks in the display loop until the window is
// closed or ctx is cancelled. It must be called from the main goroutine.
func (gopher *Gopher) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("could not initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 32)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(gopher.Width), int(gopher.Height), gopher.cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("could not create glfw window: %w", err)
	}
	gopher.window = window
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	// Drawing buffer in physical pixels, like devicePixelRatio on the web.
	fbWidth, fbHeight := window.GetFramebufferSize()
	gopher.cfg.Renderer.PixelRatio = float32(fbWidth) / float32(gopher.Width)
	if err := gopher.render.Init(int32(fbWidth), int32(fbHeight), window); err != nil {
		return err
	}
	defer gopher.render.Cleanup()

	bg := gopher.cfg.Renderer.ClearColor
	setTitleBarColor(window, bg[0], bg[1], bg[2])

	page := ui.NewPage()
	page.Register(gopher.cfg.UI.ProgressID, &titleProgress{window: window, title: gopher.cfg.Window.Title})

	viewer, err := app.New(app.Options{
		Config:   gopher.cfg,
		Renderer: gopher.render,
		Platform: gopher.emulator,
		Notifier: gopher.notifier,
		Page:     page,
	})
	if err != nil {
		return err
	}
	defer viewer.Close()
	gopher.viewer = viewer
	gopher.input = newInputState(ctx, viewer, gopher.emulator)

	window.SetCursorPosCallback(gopher.mouseCallback)
	window.SetMouseButtonCallback(gopher.mouseButtonCallback)
	window.SetScrollCallback(gopher.scrollCallback)
	window.SetKeyCallback(gopher.keyCallback)

	logger.Log.Info("GopherAR running",
		zap.Int32("width", gopher.Width), zap.Int32("height", gopher.Height),
		zap.Int("framebuffer_width", fbWidth), zap.Int("framebuffer_height", fbHeight))
	gopher.RenderLoop(ctx)
	return nil
}

func (gopher *Gopher) RenderLoop(ctx context.Context) {
	lastTime := glfw.GetTime()

	for !gopher.window.ShouldClose() {
		if ctx.Err() != nil {
			return
		}
		currentTime := glfw.GetTime()
		deltaTime := currentTime - lastTime
		lastTime = currentTime

		// Track window size changes by polling, one resize per frame at most.
		w, h := gopher.window.GetSize()
		if int32(w) != gopher.Width || int32(h) != gopher.Height {
			gopher.Width, gopher.Height = int32(w), int32(h)
			gopher.viewer.Resize(gopher.Width, gopher.Height)
		}

		gopher.input.walk(float32(deltaTime), func(k glfw.Key) bool {
			return gopher.window.GetKey(k) == glfw.Press
		})
		gopher.viewer.Tick(deltaTime)

		gopher.window.SwapBuffers()
		glfw.PollEvents()
	}
}

func (gopher *Gopher) mouseCallback(w *glfw.Window, xpos, ypos float64) {
	if w.GetAttrib(glfw.Focused) != glfw.True {
		gopher.input.release()
		return
	}
	gopher.input.cursor(xpos, ypos,
		w.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press,
		w.GetMouseButton(glfw.MouseButtonRight) == glfw.Press)
}

func (gopher *Gopher) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	gopher.input.button(button, action)
}

func (gopher *Gopher) scrollCallback(_ *glfw.Window, _, yoff float64) {
	gopher.input.scroll(yoff)
}

func (gopher *Gopher) keyCallback(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if gopher.input.key(key, action) {
		w.SetShouldClose(true)
	}
}

package engine

import (
	"context"

	"GopherAR/internal/app"
	"GopherAR/internal/xr"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// inputState maps window input onto the viewer. Outside AR the mouse orbits
// and zooms; inside AR the emulated device is steered instead: right drag
// looks, WASD walks, left click or space selects.
type inputState struct {
	ctx      context.Context
	viewer   *app.Viewer
	emulator *xr.Emulator

	lastX, lastY float64
	firstMouse   bool
}

func newInputState(ctx context.Context, viewer *app.Viewer, emulator *xr.Emulator) *inputState {
	return &inputState{ctx: ctx, viewer: viewer, emulator: emulator, firstMouse: true}
}

func (in *inputState) inAR() bool {
	return in.viewer.Session().Active()
}

func (in *inputState) cursor(x, y float64, left, right bool) {
	dragging := (left && !in.inAR()) || (right && in.inAR())
	if !dragging {
		in.firstMouse = true
		return
	}
	if in.firstMouse {
		in.lastX, in.lastY = x, y
		in.firstMouse = false
		return
	}
	dx, dy := x-in.lastX, y-in.lastY
	in.lastX, in.lastY = x, y

	if in.inAR() {
		in.emulator.Look(float32(dx), float32(dy))
		return
	}
	in.viewer.Controls().Rotate(dx, dy)
}

func (in *inputState) release() {
	in.firstMouse = true
}

func (in *inputState) button(b glfw.MouseButton, action glfw.Action) {
	if b == glfw.MouseButtonLeft && action == glfw.Press && in.inAR() {
		in.emulator.Select()
	}
}

func (in *inputState) scroll(steps float64) {
	in.viewer.Controls().Zoom(steps)
}

// key handles a key event and reports whether the window should close.
func (in *inputState) key(k glfw.Key, action glfw.Action) bool {
	if action != glfw.Press {
		return false
	}
	switch k {
	case glfw.KeyEnter:
		_ = in.viewer.ToggleAR(in.ctx)
	case glfw.KeySpace:
		if in.inAR() {
			in.emulator.Select()
		}
	case glfw.KeyEscape:
		if !in.inAR() {
			return true
		}
		// Leaving through the platform, as a system back gesture would.
		in.emulator.EndSession()
	}
	return false
}

func (in *inputState) walk(dt float32, pressed func(glfw.Key) bool) {
	if !in.inAR() {
		return
	}
	var forward, right float32
	if pressed(glfw.KeyW) {
		forward++
	}
	if pressed(glfw.KeyS) {
		forward--
	}
	if pressed(glfw.KeyD) {
		right++
	}
	if pressed(glfw.KeyA) {
		right--
	}
	if forward != 0 || right != 0 {
		in.emulator.Walk(forward, right, dt)
	}
}

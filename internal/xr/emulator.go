package xr

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"GopherAR/internal/config"
	"GopherAR/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// Emulator is a desktop stand-in for an AR device. The viewer is a fly camera
// steered with Look and Walk; the real world is a set of horizontal surfaces
// that hit tests are cast against.
type Emulator struct {
	mu sync.Mutex

	cfg       config.EmulatorConfig
	triangles []surfaceTriangle

	position   mgl32.Vec3
	yaw, pitch float32 // degrees

	session *emulatedSession
}

type surfaceTriangle struct {
	a, b, c mgl32.Vec3
	normal  mgl32.Vec3
}

func NewEmulator(cfg config.EmulatorConfig) *Emulator {
	e := &Emulator{cfg: cfg}
	for _, s := range cfg.Surfaces {
		e.AddSurface(s)
	}
	start := cfg.Start.Mgl()
	e.SetViewerPose(mgl32.Vec3{start.X(), start.Y() + cfg.EyeHeight, start.Z()}, -90, cfg.StartPitch)
	return e
}

// AddSurface adds an axis aligned horizontal rectangle.
func (e *Emulator) AddSurface(s config.Surface) {
	c := s.Center.Mgl()
	hw, hd := s.Width/2, s.Depth/2
	p0 := c.Add(mgl32.Vec3{-hw, 0, -hd})
	p1 := c.Add(mgl32.Vec3{hw, 0, -hd})
	p2 := c.Add(mgl32.Vec3{hw, 0, hd})
	p3 := c.Add(mgl32.Vec3{-hw, 0, hd})
	up := mgl32.Vec3{0, 1, 0}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.triangles = append(e.triangles,
		surfaceTriangle{p0, p3, p2, up},
		surfaceTriangle{p0, p2, p1, up},
	)
}

// SetViewerPose places the emulated device. Pitch is clamped to avoid gimbal
// flip.
func (e *Emulator) SetViewerPose(position mgl32.Vec3, yaw, pitch float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	e.yaw = yaw
	e.pitch = mgl32.Clamp(pitch, -89, 89)
}

// Look turns the device by a mouse delta in pixels.
func (e *Emulator) Look(dx, dy float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.yaw += dx * e.cfg.Sensitivity
	e.pitch = mgl32.Clamp(e.pitch-dy*e.cfg.Sensitivity, -89, 89)
}

// Walk moves the device on the horizontal plane. forward and right are in
// [-1,1]; dt is in seconds.
func (e *Emulator) Walk(forward, right, dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	front := renderer.FrontFromAngles(e.yaw, 0)
	side := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	step := e.cfg.WalkSpeed * dt
	e.position = e.position.Add(front.Mul(forward * step)).Add(side.Mul(right * step))
}

// Select fires the session's primary input, as a screen tap would.
func (e *Emulator) Select() {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()
	if s != nil {
		s.fireSelect()
	}
}

// EndSession ends the session from the platform side, as when the user
// leaves AR through the system UI.
func (e *Emulator) EndSession() {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()
	if s != nil {
		_ = s.End()
	}
}

func (e *Emulator) viewerPose() mgl32.Mat4 {
	front := renderer.FrontFromAngles(e.yaw, e.pitch)
	right := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	up := right.Cross(front).Normalize()
	back := front.Mul(-1)
	return mgl32.Mat4{
		right.X(), right.Y(), right.Z(), 0,
		up.X(), up.Y(), up.Z(), 0,
		back.X(), back.Y(), back.Z(), 0,
		e.position.X(), e.position.Y(), e.position.Z(), 1,
	}
}

func (e *Emulator) RequestSession(_ context.Context, opts SessionOptions) (Session, error) {
	for _, f := range opts.RequiredFeatures {
		if f != FeatureHitTest {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFeature, f)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return nil, ErrSessionActive
	}
	e.session = &emulatedSession{emulator: e, done: make(chan struct{})}
	return e.session, nil
}

// hitTest casts the viewer's forward ray against every surface.
func (e *Emulator) hitTest(viewer mgl32.Mat4) []HitTestResult {
	ray := renderer.Ray{
		Origin:    viewer.Col(3).Vec3(),
		Direction: viewer.Col(2).Vec3().Mul(-1).Normalize(),
	}

	type hit struct {
		dist   float32
		result emulatedHit
	}
	var hits []hit
	for _, tri := range e.triangles {
		dist, ok := ray.IntersectTriangle(tri.a, tri.b, tri.c)
		if !ok {
			continue
		}
		hits = append(hits, hit{dist, emulatedHit{pose: hitPose(ray.At(dist), tri.normal)}})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]HitTestResult, len(hits))
	for i, h := range hits {
		out[i] = h.result
	}
	return out
}

func hitPose(point, normal mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(point.X(), point.Y(), point.Z())
	up := mgl32.Vec3{0, 1, 0}
	if normal.Normalize().Dot(up) > 0.9999 {
		return t
	}
	return t.Mul4(mgl32.QuatBetweenVectors(up, normal.Normalize()).Mat4())
}

type emulatedSession struct {
	emulator *Emulator

	mu       sync.Mutex
	onSelect []func()
	done     chan struct{}
	once     sync.Once
}

type emulatedSpace struct {
	kind ReferenceSpaceType
}

func (s emulatedSpace) Type() ReferenceSpaceType { return s.kind }

type emulatedSource struct {
	space ReferenceSpace
}

func (s *emulatedSession) RequestReferenceSpace(kind ReferenceSpaceType) (ReferenceSpace, error) {
	if s.ended() {
		return nil, ErrSessionEnded
	}
	if kind != Local && kind != Viewer {
		return nil, fmt.Errorf("xr: unknown reference space %q", kind)
	}
	return emulatedSpace{kind: kind}, nil
}

func (s *emulatedSession) RequestHitTestSource(space ReferenceSpace) (HitTestSource, error) {
	if s.ended() {
		return nil, ErrSessionEnded
	}
	if space == nil || space.Type() != Viewer {
		return nil, fmt.Errorf("xr: hit-test source needs the viewer space")
	}
	return &emulatedSource{space: space}, nil
}

func (s *emulatedSession) NextFrame() Frame {
	if s.ended() {
		return nil
	}
	e := s.emulator
	e.mu.Lock()
	defer e.mu.Unlock()
	viewer := e.viewerPose()
	return &emulatedFrame{viewer: viewer, hits: e.hitTest(viewer)}
}

func (s *emulatedSession) OnSelect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelect = append(s.onSelect, fn)
}

func (s *emulatedSession) fireSelect() {
	if s.ended() {
		return
	}
	s.mu.Lock()
	handlers := slices.Clone(s.onSelect)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func (s *emulatedSession) End() error {
	s.once.Do(func() {
		e := s.emulator
		e.mu.Lock()
		if e.session == s {
			e.session = nil
		}
		e.mu.Unlock()
		close(s.done)
	})
	return nil
}

func (s *emulatedSession) Done() <-chan struct{} { return s.done }

func (s *emulatedSession) ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// emulatedFrame is a snapshot; the local space coincides with the world, so
// local poses are world poses.
type emulatedFrame struct {
	viewer mgl32.Mat4
	hits   []HitTestResult
}

func (f *emulatedFrame) ViewerPose(space ReferenceSpace) (mgl32.Mat4, bool) {
	if space == nil {
		return mgl32.Mat4{}, false
	}
	if space.Type() == Viewer {
		return mgl32.Ident4(), true
	}
	return f.viewer, true
}

func (f *emulatedFrame) HitTestResults(source HitTestSource) []HitTestResult {
	if _, ok := source.(*emulatedSource); !ok {
		return nil
	}
	return f.hits
}

type emulatedHit struct {
	pose mgl32.Mat4
}

func (h emulatedHit) Pose(space ReferenceSpace) (mgl32.Mat4, bool) {
	if space == nil || space.Type() != Local {
		return mgl32.Mat4{}, false
	}
	return h.pose, true
}

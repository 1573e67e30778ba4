package xr

import (
	"context"
	"testing"
	"time"

	"GopherAR/internal/config"
	"GopherAR/internal/logger"
	"GopherAR/internal/mainthread"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newEmulator() *Emulator {
	return NewEmulator(config.Default().Emulator)
}

func startSession(t *testing.T) (*Controller, *Emulator, *mainthread.Queue) {
	t.Helper()
	q := mainthread.NewQueue(16)
	em := newEmulator()
	c := NewController(em, q)
	require.NoError(t, c.Start(context.Background()))
	return c, em, q
}

// waitForQueue drains until cond holds; async platform callbacks land on the
// queue from their own goroutines.
func waitForQueue(t *testing.T, q *mainthread.Queue, cond func() bool) {
	t.Helper()
	assert.Eventually(t, func() bool {
		q.Drain()
		return cond()
	}, time.Second, time.Millisecond)
}

func TestEmulatorHitsFloorInFront(t *testing.T) {
	em := newEmulator()
	s, err := em.RequestSession(context.Background(), SessionOptions{RequiredFeatures: []string{FeatureHitTest}})
	require.NoError(t, err)

	local, _ := s.RequestReferenceSpace(Local)
	viewer, _ := s.RequestReferenceSpace(Viewer)
	src, err := s.RequestHitTestSource(viewer)
	require.NoError(t, err)

	results := s.NextFrame().HitTestResults(src)
	require.Len(t, results, 1)

	pose, ok := results[0].Pose(local)
	require.True(t, ok)
	p := pose.Col(3).Vec3()
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.Less(t, p.Z(), float32(3), "hit lies in front of the viewer")
	up := pose.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3()
	assert.True(t, up.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5))
}

func TestEmulatorNoHitLookingUp(t *testing.T) {
	em := newEmulator()
	em.SetViewerPose(mgl32.Vec3{0, 1.6, 0}, -90, 30)
	s, err := em.RequestSession(context.Background(), SessionOptions{})
	require.NoError(t, err)
	viewer, _ := s.RequestReferenceSpace(Viewer)
	src, _ := s.RequestHitTestSource(viewer)

	assert.Empty(t, s.NextFrame().HitTestResults(src))
}

func TestEmulatorSortsHitsNearestFirst(t *testing.T) {
	cfg := config.Default().Emulator
	cfg.Surfaces = append(cfg.Surfaces, config.Surface{Name: "table", Center: config.Vec3{0, 0.8, 0}, Width: 4, Depth: 4})
	em := NewEmulator(cfg)
	em.SetViewerPose(mgl32.Vec3{0, 1.6, 0.5}, -90, -89)
	s, _ := em.RequestSession(context.Background(), SessionOptions{})
	local, _ := s.RequestReferenceSpace(Local)
	viewer, _ := s.RequestReferenceSpace(Viewer)
	src, _ := s.RequestHitTestSource(viewer)

	results := s.NextFrame().HitTestResults(src)

	require.Len(t, results, 2)
	first, _ := results[0].Pose(local)
	second, _ := results[1].Pose(local)
	assert.InDelta(t, 0.8, first.Col(3).Y(), 1e-4)
	assert.InDelta(t, 0, second.Col(3).Y(), 1e-4)
}

func TestEmulatorRejectsUnknownFeature(t *testing.T) {
	_, err := newEmulator().RequestSession(context.Background(), SessionOptions{RequiredFeatures: []string{"dom-overlay"}})
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}

func TestEmulatorWalkAndLook(t *testing.T) {
	em := newEmulator()
	em.SetViewerPose(mgl32.Vec3{0, 1.6, 0}, -90, 0)

	em.Walk(1, 0, 1)
	pos := em.viewerPose().Col(3).Vec3()
	assert.True(t, pos.ApproxEqualThreshold(mgl32.Vec3{0, 1.6, -2}, 1e-5), "walked to %v", pos)

	em.Look(0, 10000)
	assert.Equal(t, float32(-89), em.pitch)
}

func TestControllerLifecycle(t *testing.T) {
	c, _, q := startSession(t)
	ended := 0
	c.OnEnd(func(*SessionState) { ended++ })

	assert.Equal(t, HitTestPending, c.State())
	assert.ErrorIs(t, c.Start(context.Background()), ErrSessionActive)

	frame, st := c.Frame()
	require.NotNil(t, frame)
	require.True(t, st.Requested())
	waitForQueue(t, q, func() bool { return st.HitTestSource != nil })
	assert.Equal(t, HitTestReady, c.State())

	require.NoError(t, c.End())
	assert.Equal(t, Inactive, c.State())
	assert.Nil(t, c.Current())
	assert.Equal(t, 1, ended)

	// The Done watcher posts a second finish; it must be a no-op.
	waitForQueue(t, q, func() bool { return q.Len() == 0 })
	assert.Equal(t, 1, ended)
}

func TestControllerRequestsHitTestSourceOncePerSession(t *testing.T) {
	q := mainthread.NewQueue(16)
	em := newEmulator()
	c := NewController(em, q)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	_, first := c.Frame()
	waitForQueue(t, q, func() bool { return first.HitTestSource != nil })
	src := first.HitTestSource
	c.Frame()
	c.Frame()
	c.requestHitTestSource(first)
	q.Drain()
	assert.Same(t, src, first.HitTestSource)

	require.NoError(t, c.Toggle(ctx))
	require.NoError(t, c.Toggle(ctx))

	_, second := c.Frame()
	require.NotSame(t, first, second)
	assert.True(t, second.Requested(), "a new session issues its own request")
	waitForQueue(t, q, func() bool { return second.HitTestSource != nil })
}

func TestControllerPlatformEnd(t *testing.T) {
	c, em, q := startSession(t)
	var endedState *SessionState
	c.OnEnd(func(st *SessionState) { endedState = st })
	st := c.Current()

	em.EndSession()
	waitForQueue(t, q, func() bool { return !c.Active() })

	assert.Same(t, st, endedState)
	frame, _ := c.Frame()
	assert.Nil(t, frame)
}

func TestControllerSelectRoutesThroughQueue(t *testing.T) {
	c, em, q := startSession(t)
	selects := 0
	c.OnSelect(func() { selects++ })

	em.Select()
	assert.Zero(t, selects, "select waits for the render thread")
	q.Drain()
	assert.Equal(t, 1, selects)

	require.NoError(t, c.End())
	em.Select()
	q.Drain()
	assert.Equal(t, 1, selects)
}

// gatedPlatform holds hit-test source requests until release is closed and
// keeps answering them after the session ended.
type gatedPlatform struct {
	*Emulator
	release chan struct{}
}

type gatedSession struct {
	Session
	release chan struct{}
}

func (p gatedPlatform) RequestSession(ctx context.Context, opts SessionOptions) (Session, error) {
	s, err := p.Emulator.RequestSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	return gatedSession{Session: s, release: p.release}, nil
}

func (s gatedSession) RequestReferenceSpace(kind ReferenceSpaceType) (ReferenceSpace, error) {
	return emulatedSpace{kind: kind}, nil
}

func (s gatedSession) RequestHitTestSource(space ReferenceSpace) (HitTestSource, error) {
	<-s.release
	return &emulatedSource{space: space}, nil
}

func TestLateHitTestSourceStaysOnDeadSession(t *testing.T) {
	q := mainthread.NewQueue(16)
	platform := gatedPlatform{Emulator: newEmulator(), release: make(chan struct{})}
	c := NewController(platform, q)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	st := c.Current()
	require.NoError(t, c.End())
	require.NoError(t, c.Start(ctx))
	fresh := c.Current()
	require.NotSame(t, st, fresh)

	close(platform.release)
	waitForQueue(t, q, func() bool { return st.HitTestSource != nil && fresh.HitTestSource != nil })

	assert.Equal(t, Inactive, st.State())
	assert.Equal(t, HitTestReady, fresh.State())
	assert.NotSame(t, st.HitTestSource, fresh.HitTestSource, "each session keeps its own source")
}

// endingPlatform holds hit-test source requests until release is closed and
// then asks the real session, which may have ended meanwhile.
type endingPlatform struct {
	*Emulator
	release chan struct{}
}

type endingSession struct {
	Session
	release chan struct{}
}

func (p endingPlatform) RequestSession(ctx context.Context, opts SessionOptions) (Session, error) {
	s, err := p.Emulator.RequestSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	return endingSession{Session: s, release: p.release}, nil
}

func (s endingSession) RequestHitTestSource(space ReferenceSpace) (HitTestSource, error) {
	<-s.release
	return s.Session.RequestHitTestSource(space)
}

func TestEndDuringHitTestRequestIsNotAnError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Set(zap.New(core))()

	q := mainthread.NewQueue(0)
	platform := endingPlatform{Emulator: newEmulator(), release: make(chan struct{})}
	c := NewController(platform, q)

	require.NoError(t, c.Start(context.Background()))
	st := c.Current()
	require.NoError(t, c.End())
	close(platform.release)

	// Depending on timing either request sees the ended session.
	unavailable := func() []observer.LoggedEntry {
		return logs.Filter(func(e observer.LoggedEntry) bool {
			return e.Message == "Viewer reference space unavailable" || e.Message == "Hit-test source unavailable"
		}).All()
	}
	assert.Eventually(t, func() bool { return len(unavailable()) == 1 }, time.Second, time.Millisecond)
	q.Drain()

	assert.Equal(t, zapcore.DebugLevel, unavailable()[0].Level)
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Nil(t, st.HitTestSource)
}

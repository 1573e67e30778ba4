package xr

import (
	"context"
	"errors"
	"fmt"

	"GopherAR/internal/logger"
	"GopherAR/internal/mainthread"

	"go.uber.org/zap"
)

type State int

const (
	Inactive State = iota
	HitTestPending
	HitTestReady
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case HitTestPending:
		return "hit-test-pending"
	case HitTestReady:
		return "hit-test-ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SessionState carries everything that lives exactly as long as one session.
// A fresh value is created on every Start, so nothing leaks from one session
// into the next.
type SessionState struct {
	Session       Session
	LocalSpace    ReferenceSpace
	ViewerSpace   ReferenceSpace
	HitTestSource HitTestSource

	requested bool
	ended     bool
}

func (s *SessionState) State() State {
	switch {
	case s == nil || s.ended:
		return Inactive
	case s.HitTestSource == nil:
		return HitTestPending
	default:
		return HitTestReady
	}
}

// Requested reports whether the hit-test source request was issued.
func (s *SessionState) Requested() bool {
	return s != nil && s.requested
}

// Controller drives the session lifecycle. All methods must be called on the
// thread that drains the queue.
type Controller struct {
	platform Platform
	queue    *mainthread.Queue
	current  *SessionState

	onStart  []func(*SessionState)
	onEnd    []func(*SessionState)
	onSelect []func()
}

func NewController(platform Platform, queue *mainthread.Queue) *Controller {
	return &Controller{platform: platform, queue: queue}
}

func (c *Controller) OnStart(fn func(*SessionState)) { c.onStart = append(c.onStart, fn) }
func (c *Controller) OnEnd(fn func(*SessionState))   { c.onEnd = append(c.onEnd, fn) }
func (c *Controller) OnSelect(fn func())             { c.onSelect = append(c.onSelect, fn) }

func (c *Controller) Active() bool { return c.current != nil }

// Current returns the live session state, or nil.
func (c *Controller) Current() *SessionState { return c.current }

func (c *Controller) State() State { return c.current.State() }

// Start requests an immersive AR session with hit-test support.
func (c *Controller) Start(ctx context.Context) error {
	if c.current != nil {
		return ErrSessionActive
	}

	sess, err := c.platform.RequestSession(ctx, SessionOptions{RequiredFeatures: []string{FeatureHitTest}})
	if err != nil {
		return fmt.Errorf("request session: %w", err)
	}
	local, err := sess.RequestReferenceSpace(Local)
	if err != nil {
		_ = sess.End()
		return fmt.Errorf("request local space: %w", err)
	}

	st := &SessionState{Session: sess, LocalSpace: local}
	c.current = st

	sess.OnSelect(func() {
		c.queue.Post(func() { c.selected(st) })
	})
	go func() {
		<-sess.Done()
		c.queue.Post(func() { c.finish(st) })
	}()
	c.requestHitTestSource(st)

	logger.Log.Info("AR session started")
	for _, fn := range c.onStart {
		fn(st)
	}
	return nil
}

// End stops the active session. It is a no-op when there is none.
func (c *Controller) End() error {
	st := c.current
	if st == nil {
		return nil
	}
	err := st.Session.End()
	c.finish(st)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// Toggle enters AR when inactive and leaves it otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.current != nil {
		return c.End()
	}
	return c.Start(ctx)
}

// Frame returns this tick's frame and the state it belongs to.
func (c *Controller) Frame() (Frame, *SessionState) {
	st := c.current
	if st == nil {
		return nil, nil
	}
	frame := st.Session.NextFrame()
	if frame == nil {
		return nil, nil
	}
	return frame, st
}

// requestHitTestSource resolves the viewer space and the hit-test source off
// thread and stores the result on st. It runs at most once per session. A
// result for a session that already ended lands on its dead state and is never
// read.
func (c *Controller) requestHitTestSource(st *SessionState) {
	if st.requested {
		return
	}
	st.requested = true
	go func() {
		viewer, err := st.Session.RequestReferenceSpace(Viewer)
		if err != nil {
			logRequestError("Viewer reference space unavailable", err)
			return
		}
		src, err := st.Session.RequestHitTestSource(viewer)
		if err != nil {
			logRequestError("Hit-test source unavailable", err)
			return
		}
		c.queue.Post(func() {
			st.ViewerSpace = viewer
			st.HitTestSource = src
			if !st.ended {
				logger.Log.Debug("Hit-test source ready")
			}
		})
	}()
}

// logRequestError keeps teardown quiet: a session ending under an in-flight
// request is expected.
func logRequestError(msg string, err error) {
	if errors.Is(err, ErrSessionEnded) {
		logger.Log.Debug(msg, zap.Error(err))
		return
	}
	logger.Log.Error(msg, zap.Error(err))
}

func (c *Controller) selected(st *SessionState) {
	if st != c.current {
		return
	}
	for _, fn := range c.onSelect {
		fn()
	}
}

func (c *Controller) finish(st *SessionState) {
	if st.ended {
		return
	}
	st.ended = true
	if c.current == st {
		c.current = nil
	}
	logger.Log.Info("AR session ended")
	for _, fn := range c.onEnd {
		fn(st)
	}
}

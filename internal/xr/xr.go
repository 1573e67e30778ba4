// Package xr models an immersive AR session: the platform that grants it, the
// per-frame viewer pose and the hit-test queries against real-world surfaces.
package xr

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrSessionActive      = errors.New("xr: a session is already active")
	ErrUnsupportedFeature = errors.New("xr: required feature not supported")
	ErrSessionEnded       = errors.New("xr: session has ended")
)

// FeatureHitTest must be granted for surface placement to work.
const FeatureHitTest = "hit-test"

type ReferenceSpaceType string

const (
	// Local is anchored where the session started; poses placed in the scene
	// are expressed in it.
	Local ReferenceSpaceType = "local"
	// Viewer follows the device; hit-test rays are cast from it.
	Viewer ReferenceSpaceType = "viewer"
)

type ReferenceSpace interface {
	Type() ReferenceSpaceType
}

// HitTestSource is an opaque handle for a standing surface query.
type HitTestSource interface{}

type HitTestResult interface {
	// Pose returns the hit transform in space: translation to the hit point,
	// +Y along the surface normal.
	Pose(space ReferenceSpace) (mgl32.Mat4, bool)
}

// Frame is one animation frame of an active session.
type Frame interface {
	// ViewerPose is the device transform in space.
	ViewerPose(space ReferenceSpace) (mgl32.Mat4, bool)
	// HitTestResults returns hits for source, nearest first.
	HitTestResults(source HitTestSource) []HitTestResult
}

type SessionOptions struct {
	RequiredFeatures []string
}

type Session interface {
	RequestReferenceSpace(kind ReferenceSpaceType) (ReferenceSpace, error)
	RequestHitTestSource(space ReferenceSpace) (HitTestSource, error)
	// NextFrame returns the frame for the current tick, or nil when the
	// platform has none.
	NextFrame() Frame
	// OnSelect registers the primary input handler. It may be called from any
	// goroutine.
	OnSelect(fn func())
	End() error
	// Done is closed when the session ends, whoever ended it.
	Done() <-chan struct{}
}

type Platform interface {
	RequestSession(ctx context.Context, opts SessionOptions) (Session, error)
}

// Package placement tracks the surface under the viewer with a reticle and
// drops copies of the loaded model where the user selects.
package placement

import (
	"GopherAR/internal/config"
	"GopherAR/internal/logger"
	"GopherAR/internal/scene"
	"GopherAR/internal/xr"

	"go.uber.org/zap"
)

// Notifier shows a message the user must acknowledge.
type Notifier interface {
	Notify(title, message string)
}

type Controller struct {
	scene    *scene.Scene
	reticle  *scene.Node
	template string
	cfg      config.PlacementConfig
	notifier Notifier

	placed []*scene.Node
}

// New returns a controller that clones the node named template. notifier may
// be nil.
func New(sc *scene.Scene, reticle *scene.Node, template string, cfg config.PlacementConfig, notifier Notifier) *Controller {
	return &Controller{
		scene:    sc,
		reticle:  reticle,
		template: template,
		cfg:      cfg,
		notifier: notifier,
	}
}

// Step moves the reticle onto the nearest surface hit of this frame, or hides
// it when there is none. It does nothing until the session's hit-test source
// is ready.
func (c *Controller) Step(frame xr.Frame, st *xr.SessionState) {
	if frame == nil || st == nil || st.HitTestSource == nil {
		return
	}

	results := frame.HitTestResults(st.HitTestSource)
	if len(results) == 0 {
		c.reticle.Visible = false
		return
	}
	pose, ok := results[0].Pose(st.LocalSpace)
	if !ok {
		c.reticle.Visible = false
		return
	}
	c.reticle.Visible = true
	c.reticle.SetMatrix(pose)
}

// Select places a clone of the template at the reticle. It returns nil when
// the reticle is hidden or the template has not loaded yet.
func (c *Controller) Select() *scene.Node {
	if !c.reticle.Visible {
		return nil
	}
	template := c.scene.GetObjectByName(c.template)
	if template == nil {
		logger.Log.Debug("Select ignored, model not loaded", zap.String("name", c.template))
		return nil
	}

	marker := c.reticle.WorldPosition()
	clone := template.Clone()
	clone.Position = marker
	clone.SetScalar(c.cfg.Scale)

	switch c.cfg.GroundAlignment {
	case config.AlignBoundingBoxMin:
		if b := clone.WorldBounds(); !b.IsEmpty() {
			clone.Position[1] += marker.Y() - b.Min.Y()
		}
	default:
		clone.Position[1] = 0
	}

	c.scene.Add(clone)
	c.placed = append(c.placed, clone)
	logger.Log.Info("Model placed",
		zap.Int("count", len(c.placed)),
		zap.Float32("x", clone.Position.X()),
		zap.Float32("y", clone.Position.Y()),
		zap.Float32("z", clone.Position.Z()))

	if c.notifier != nil {
		c.notifier.Notify(c.cfg.MessageTitle, c.cfg.Message)
	}
	return clone
}

// Placed returns the placed instances in order.
func (c *Controller) Placed() []*scene.Node {
	return c.placed
}

// Package ui holds the small set of 2D/overlay elements the viewer toggles:
// the AR info panel, the load progress indicator and blocking messages.
package ui

import (
	"GopherAR/internal/logger"
	"GopherAR/internal/scene"

	"go.uber.org/zap"
)

type Element interface {
	Show()
	Hide()
}

// ProgressElement is an Element that can display a load fraction.
type ProgressElement interface {
	Element
	SetProgress(fraction float64)
}

// Page is a registry of elements addressed by id. Lookups of unknown ids
// yield nil and every helper skips them.
type Page struct {
	elements map[string]Element
}

func NewPage() *Page {
	return &Page{elements: make(map[string]Element)}
}

func (p *Page) Register(id string, el Element) {
	p.elements[id] = el
}

// GetElementByID returns the element or nil.
func (p *Page) GetElementByID(id string) Element {
	return p.elements[id]
}

func (p *Page) Show(id string) bool {
	el := p.lookup(id)
	if el == nil {
		return false
	}
	el.Show()
	return true
}

func (p *Page) Hide(id string) bool {
	el := p.lookup(id)
	if el == nil {
		return false
	}
	el.Hide()
	return true
}

// SetProgress forwards fraction to id if it can display progress.
func (p *Page) SetProgress(id string, fraction float64) bool {
	el, ok := p.lookup(id).(ProgressElement)
	if !ok {
		return false
	}
	el.SetProgress(fraction)
	return true
}

func (p *Page) lookup(id string) Element {
	el := p.elements[id]
	if el == nil {
		logger.Log.Debug("UI element missing", zap.String("id", id))
	}
	return el
}

// NodeElement shows and hides a scene node.
type NodeElement struct {
	Node *scene.Node
}

func (e NodeElement) Show() { e.Node.Visible = true }
func (e NodeElement) Hide() { e.Node.Visible = false }

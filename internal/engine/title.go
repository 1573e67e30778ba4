package engine

import "fmt"

type titleSetter interface {
	SetTitle(string)
}

// titleProgress shows model load progress in the window title.
type titleProgress struct {
	window  titleSetter
	title   string
	visible bool
}

func (p *titleProgress) Show() {
	p.visible = true
	p.window.SetTitle(p.title + " - loading")
}

func (p *titleProgress) Hide() {
	p.visible = false
	p.window.SetTitle(p.title)
}

func (p *titleProgress) SetProgress(fraction float64) {
	if !p.visible {
		return
	}
	p.window.SetTitle(fmt.Sprintf("%s - loading %.0f%%", p.title, fraction*100))
}

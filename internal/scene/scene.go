package scene

import (
	"GopherAR/internal/logger"
	"GopherAR/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Scene is the root of the graph handed to the renderer.
type Scene struct {
	Root *Node
}

func New() *Scene {
	return &Scene{Root: NewNode("scene")}
}

func (s *Scene) Add(n *Node) {
	s.Root.Add(n)
}

func (s *Scene) Remove(n *Node) bool {
	return s.Root.Remove(n)
}

// GetObjectByName returns the first node with the given name, or nil.
func (s *Scene) GetObjectByName(name string) *Node {
	return s.Root.FindByName(name)
}

// DrawList flattens the visible part of the graph. A hidden node hides its
// whole subtree, lights included.
func (s *Scene) DrawList() ([]renderer.DrawItem, []renderer.LightInstance) {
	var items []renderer.DrawItem
	var lights []renderer.LightInstance

	s.Root.walk(mgl32.Ident4(), func(n *Node, world mgl32.Mat4) bool {
		if !n.Visible {
			return false
		}
		if degenerate(world) {
			logger.Log.Warn("Skipping node with invalid transform", zap.String("name", n.Name))
			return false
		}
		if n.Mesh != nil {
			items = append(items, renderer.DrawItem{
				Mesh:          n.Mesh,
				World:         world,
				CastShadow:    n.CastShadow,
				ReceiveShadow: n.ReceiveShadow,
			})
		}
		if n.Light != nil {
			pos := world.Col(3).Vec3()
			lights = append(lights, renderer.LightInstance{
				Light:     n.Light,
				Position:  pos,
				Direction: n.SpotDirection(pos),
			})
		}
		return true
	})
	return items, lights
}

// Count returns the number of nodes below the root.
func (s *Scene) Count() int {
	count := -1
	s.Root.Traverse(func(*Node) { count++ })
	return count
}

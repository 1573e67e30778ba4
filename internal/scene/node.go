package scene

import (
	"math"

	"GopherAR/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is a scene graph element with a local TRS transform. A node may carry
// a mesh, a light, both or neither (a group).
type Node struct {
	// HOT DATA - read every frame when flattening the graph
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Visible  bool
	Mesh     *renderer.Mesh
	Light    *renderer.Light

	// COLD DATA
	Name          string
	CastShadow    bool
	ReceiveShadow bool
	// LightTarget is the world point a spot light aims at.
	LightTarget mgl32.Vec3

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Visible:  true,
	}
}

func NewMeshNode(name string, mesh *renderer.Mesh) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	return n
}

func NewLightNode(name string, light *renderer.Light) *Node {
	n := NewNode(name)
	n.Light = light
	return n
}

// Add attaches child to n, detaching it from any previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child and reports whether it was a direct child of n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Traverse visits n and all descendants depth first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// FindByName returns the first node named name in depth-first order, or nil.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// SetScalar sets a uniform scale.
func (n *Node) SetScalar(s float32) {
	n.Scale = mgl32.Vec3{s, s, s}
}

func (n *Node) LocalMatrix() mgl32.Mat4 {
	rot := n.Rotation
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	// T * R * S
	return mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2]).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.parent == nil {
		return n.LocalMatrix()
	}
	return n.parent.WorldMatrix().Mul4(n.LocalMatrix())
}

func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// SetMatrix decomposes m into position, rotation and scale.
func (n *Node) SetMatrix(m mgl32.Mat4) {
	n.Position, n.Rotation, n.Scale = Decompose(m)
}

// Decompose splits an affine matrix without shear into TRS parts.
func Decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	position := m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return position, mgl32.QuatIdent(), mgl32.Vec3{sx, sy, sz}
	}

	var r mgl32.Mat4
	r.SetCol(0, m.Col(0).Mul(1/sx))
	r.SetCol(1, m.Col(1).Mul(1/sy))
	r.SetCol(2, m.Col(2).Mul(1/sz))
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	return position, mgl32.Mat4ToQuat(r).Normalize(), mgl32.Vec3{sx, sy, sz}
}

// Clone deep-copies the subtree. Meshes are shared; lights are copied. The
// clone has no parent.
func (n *Node) Clone() *Node {
	c := &Node{
		Position:      n.Position,
		Rotation:      n.Rotation,
		Scale:         n.Scale,
		Visible:       n.Visible,
		Mesh:          n.Mesh,
		Name:          n.Name,
		CastShadow:    n.CastShadow,
		ReceiveShadow: n.ReceiveShadow,
		LightTarget:   n.LightTarget,
	}
	if n.Light != nil {
		l := *n.Light
		c.Light = &l
	}
	for _, child := range n.children {
		c.Add(child.Clone())
	}
	return c
}

// WorldBounds returns the world-space box of every mesh in the subtree,
// including hidden ones.
func (n *Node) WorldBounds() renderer.Box {
	box := renderer.EmptyBox()
	n.walk(n.parentWorld(), func(node *Node, world mgl32.Mat4) bool {
		if node.Mesh != nil {
			box = box.Union(node.Mesh.Bounds().Transform(world))
		}
		return true
	})
	return box
}

func (n *Node) parentWorld() mgl32.Mat4 {
	if n.parent == nil {
		return mgl32.Ident4()
	}
	return n.parent.WorldMatrix()
}

// walk visits the subtree with accumulated world matrices. Returning false
// from fn skips the node's children.
func (n *Node) walk(parentWorld mgl32.Mat4, fn func(*Node, mgl32.Mat4) bool) {
	world := parentWorld.Mul4(n.LocalMatrix())
	if !fn(n, world) {
		return
	}
	for _, c := range n.children {
		c.walk(world, fn)
	}
}

// SpotDirection is the normalized aim of a light at world position from.
func (n *Node) SpotDirection(from mgl32.Vec3) mgl32.Vec3 {
	dir := n.LightTarget.Sub(from)
	if dir.Len() < 1e-6 {
		return mgl32.Vec3{0, -1, 0}
	}
	return dir.Normalize()
}

// degenerate guards against NaN matrices reaching the renderer.
func degenerate(m mgl32.Mat4) bool {
	for _, v := range m {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return true
		}
	}
	return false
}

package renderer

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// floatsPerVertex is position(3) + uv(2) + normal(3).
const floatsPerVertex = 8

type Material struct {
	// HOT DATA - Accessed every render call for shading calculations
	DiffuseColor  [3]float32 // Base color for lighting
	SpecularColor [3]float32 // Specular highlight color
	Shininess     float32    // Specular exponent
	Alpha         float32    // Transparency (0.0 = transparent, 1.0 = opaque)
	Unlit         bool       // Ignore lights and draw DiffuseColor (times texture) as is
	DoubleSided   bool
	TextureID     uint32 // OpenGL texture ID, 0 until Image is uploaded

	// COLD DATA - Rarely accessed
	Name  string
	Image image.Image // Uploaded lazily once a GL context exists
}

// NewMaterial returns a lit material with the engine's default shading values.
func NewMaterial(name string, color [3]float32) *Material {
	return &Material{
		Name:          name,
		DiffuseColor:  color,
		SpecularColor: [3]float32{0.2, 0.2, 0.2},
		Shininess:     32.0,
		Alpha:         1.0,
	}
}

// NewBasicMaterial returns an unlit material, used for overlays like the reticle.
func NewBasicMaterial(name string, color [3]float32) *Material {
	m := NewMaterial(name, color)
	m.Unlit = true
	m.DoubleSided = true
	return m
}

// Box is an axis-aligned bounding box. The zero value is empty.
type Box struct {
	Min, Max mgl32.Vec3
	valid    bool
}

func EmptyBox() Box { return Box{} }

func (b Box) IsEmpty() bool { return !b.valid }

func (b Box) ExpandByPoint(p mgl32.Vec3) Box {
	if !b.valid {
		return Box{Min: p, Max: p, valid: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = float32(math.Min(float64(b.Min[i]), float64(p[i])))
		b.Max[i] = float32(math.Max(float64(b.Max[i]), float64(p[i])))
	}
	return b
}

func (b Box) Union(o Box) Box {
	if !o.valid {
		return b
	}
	return b.ExpandByPoint(o.Min).ExpandByPoint(o.Max)
}

// Transform returns the box enclosing the eight transformed corners.
func (b Box) Transform(m mgl32.Mat4) Box {
	if !b.valid {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.ExpandByPoint(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

func (b Box) Center() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

func (b Box) Size() mgl32.Vec3 { return b.Max.Sub(b.Min) }

// Mesh is shared geometry plus its material. Meshes carry no transform; scene
// nodes place them, so many nodes may draw the same Mesh.
type Mesh struct {
	// HOT DATA
	VAO      uint32
	VBO      uint32
	EBO      uint32
	Material *Material

	// COLD DATA
	Name            string
	Vertices        []float32 // Vertex position data
	Normals         []float32
	TextureCoords   []float32
	Faces           []uint32 // Triangle indices
	InterleavedData []float32
	bounds          Box
}

// CreateMesh builds a mesh from per-vertex attributes. Normals and uvs may be
// nil; missing normals default to +Y and missing uvs to zero.
func CreateMesh(name string, vertices, normals []mgl32.Vec3, uvs []mgl32.Vec2, faces []uint32) *Mesh {
	interleavedData := make([]float32, 0, len(vertices)*floatsPerVertex)
	m := &Mesh{
		Name:          name,
		Vertices:      make([]float32, 0, len(vertices)*3),
		Normals:       make([]float32, 0, len(vertices)*3),
		TextureCoords: make([]float32, 0, len(vertices)*2),
		Faces:         faces,
	}

	for i, v := range vertices {
		uv := mgl32.Vec2{}
		if i < len(uvs) {
			uv = uvs[i]
		}
		n := mgl32.Vec3{0, 1, 0}
		if i < len(normals) {
			n = normals[i]
		}
		interleavedData = append(interleavedData, v.X(), v.Y(), v.Z(), uv.X(), uv.Y(), n.X(), n.Y(), n.Z())
		m.Vertices = append(m.Vertices, v.X(), v.Y(), v.Z())
		m.Normals = append(m.Normals, n.X(), n.Y(), n.Z())
		m.TextureCoords = append(m.TextureCoords, uv.X(), uv.Y())
		m.bounds = m.bounds.ExpandByPoint(v)
	}
	m.InterleavedData = interleavedData
	return m
}

// Bounds is the local-space bounding box of the vertices.
func (m *Mesh) Bounds() Box {
	return m.bounds
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// Uploaded reports whether GPU buffers exist for the mesh.
func (m *Mesh) Uploaded() bool {
	return m.VAO != 0
}

// Triangles calls fn for each triangle in local space until fn returns false.
func (m *Mesh) Triangles(fn func(a, b, c mgl32.Vec3) bool) {
	vertex := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
	}
	for i := 0; i+2 < len(m.Faces); i += 3 {
		if !fn(vertex(m.Faces[i]), vertex(m.Faces[i+1]), vertex(m.Faces[i+2])) {
			return
		}
	}
}

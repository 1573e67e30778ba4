package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"GopherAR/internal/logger"
	"GopherAR/internal/renderer"
	"GopherAR/internal/scene"

	"github.com/g3n/engine/core"
	"github.com/g3n/engine/geometry"
	"github.com/g3n/engine/loader/gltf"
	"github.com/g3n/engine/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// geometryHolder is satisfied by g3n graphics (meshes, lines, points).
type geometryHolder interface {
	GetGeometry() *geometry.Geometry
}

// decodeGLTF parses a .glb or .gltf file with g3n and converts its default
// scene into our node tree.
func decodeGLTF(path string, fallback [3]float32) (*scene.Node, error) {
	var g *gltf.GLTF
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		g, err = gltf.ParseBin(path)
	case ".gltf":
		g, err = gltf.ParseJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if len(g.Scenes) == 0 {
		return nil, ErrNoScene
	}
	sceneIdx := 0
	if g.Scene != nil {
		sceneIdx = *g.Scene
	}

	root, err := g.LoadScene(sceneIdx)
	if err != nil {
		return nil, fmt.Errorf("load scene %d: %w", sceneIdx, err)
	}

	material := renderer.NewMaterial("gltf", baseColor(g, fallback))
	meshes := make(map[*geometry.Geometry]*renderer.Mesh)
	node := convertNode(root, material, meshes)

	logger.Log.Debug("glTF decoded",
		zap.String("path", path),
		zap.Int("meshes", len(meshes)))
	return node, nil
}

// baseColor uses the first material's base color factor. Per-primitive
// materials are not kept; the model is shaded with a single color.
func baseColor(g *gltf.GLTF, fallback [3]float32) [3]float32 {
	for _, m := range g.Materials {
		if m.PbrMetallicRoughness != nil && m.PbrMetallicRoughness.BaseColorFactor != nil {
			f := m.PbrMetallicRoughness.BaseColorFactor
			return [3]float32{f[0], f[1], f[2]}
		}
	}
	return fallback
}

func convertNode(in core.INode, material *renderer.Material, meshes map[*geometry.Geometry]*renderer.Mesh) *scene.Node {
	n := in.GetNode()
	out := scene.NewNode(n.Name())

	p := n.Position()
	q := n.Quaternion()
	s := n.Scale()
	out.Position = mgl32.Vec3{p.X, p.Y, p.Z}
	out.Rotation = mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}}
	out.Scale = mgl32.Vec3{s.X, s.Y, s.Z}
	out.Visible = n.Visible()

	if gh, ok := in.(geometryHolder); ok {
		if geom := gh.GetGeometry(); geom != nil {
			mesh, seen := meshes[geom]
			if !seen {
				mesh = meshFromGeometry(n.Name(), geom)
				if mesh != nil {
					mesh.Material = material
				}
				meshes[geom] = mesh
			}
			out.Mesh = mesh
		}
	}

	for _, child := range n.Children() {
		out.Add(convertNode(child, material, meshes))
	}
	return out
}

func meshFromGeometry(name string, geom *geometry.Geometry) *renderer.Mesh {
	var tris []mgl32.Vec3
	geom.ReadFaces(func(a, b, c math32.Vector3) bool {
		tris = append(tris,
			mgl32.Vec3{a.X, a.Y, a.Z},
			mgl32.Vec3{b.X, b.Y, b.Z},
			mgl32.Vec3{c.X, c.Y, c.Z})
		return false
	})
	if len(tris) == 0 {
		return nil
	}
	return MeshFromTriangles(name, tris)
}

// MeshFromTriangles welds a triangle soup (three entries per triangle) into
// an indexed mesh with smooth normals and UVs projected on the XZ bounds.
func MeshFromTriangles(name string, tris []mgl32.Vec3) *renderer.Mesh {
	index := make(map[mgl32.Vec3]uint32, len(tris))
	var vertices []mgl32.Vec3
	faces := make([]uint32, 0, len(tris))
	box := renderer.EmptyBox()

	for _, v := range tris[:len(tris)-len(tris)%3] {
		idx, ok := index[v]
		if !ok {
			idx = uint32(len(vertices))
			index[v] = idx
			vertices = append(vertices, v)
			box = box.ExpandByPoint(v)
		}
		faces = append(faces, idx)
	}

	flat := make([]float32, 0, len(vertices)*3)
	for _, v := range vertices {
		flat = append(flat, v.X(), v.Y(), v.Z())
	}
	n := RecalculateNormals(flat, faces)
	normals := make([]mgl32.Vec3, len(vertices))
	for i := range normals {
		normals[i] = mgl32.Vec3{n[i*3], n[i*3+1], n[i*3+2]}
	}

	size := box.Size()
	uvs := make([]mgl32.Vec2, len(vertices))
	for i, v := range vertices {
		var u, w float32
		if size.X() > 0 {
			u = (v.X() - box.Min.X()) / size.X()
		}
		if size.Z() > 0 {
			w = (v.Z() - box.Min.Z()) / size.Z()
		}
		uvs[i] = mgl32.Vec2{u, w}
	}

	return renderer.CreateMesh(name, vertices, normals, uvs, faces)
}

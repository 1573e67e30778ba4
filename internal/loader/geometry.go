package loader

import (
	"errors"
	"math"

	"GopherAR/internal/logger"
	"GopherAR/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// LoadPlane builds a square grid of side size lying in the XZ plane, centered
// on the origin and facing +Y.
func LoadPlane(size float32, segments int) (*renderer.Mesh, error) {
	if segments < 1 {
		return nil, errors.New("segments must be at least 1")
	}
	gridSize := segments + 1

	vertices := make([]mgl32.Vec3, 0, gridSize*gridSize)
	uvs := make([]mgl32.Vec2, 0, gridSize*gridSize)
	indices := make([]uint32, 0, segments*segments*6)

	stepSize := size / float32(segments)
	start := -size * 0.5

	for x := 0; x < gridSize; x++ {
		for z := 0; z < gridSize; z++ {
			vertices = append(vertices, mgl32.Vec3{start + float32(x)*stepSize, 0, start + float32(z)*stepSize})
			uvs = append(uvs, mgl32.Vec2{float32(x) / float32(segments), float32(z) / float32(segments)})
		}
	}

	for x := 0; x < segments; x++ {
		for z := 0; z < segments; z++ {
			topLeft := uint32(x*gridSize + z)
			topRight := topLeft + 1
			bottomLeft := uint32((x+1)*gridSize + z)
			bottomRight := bottomLeft + 1

			// Counter-clockwise seen from +Y
			indices = append(indices, topLeft, topRight, bottomRight, topLeft, bottomRight, bottomLeft)
		}
	}

	normals := make([]mgl32.Vec3, len(vertices))
	for i := range normals {
		normals[i] = mgl32.Vec3{0, 1, 0}
	}

	mesh := renderer.CreateMesh("plane", vertices, normals, uvs, indices)
	logger.Log.Debug("Plane created",
		zap.Int("vertices", len(vertices)),
		zap.Int("triangles", len(indices)/3),
		zap.Float32("size", size))
	return mesh, nil
}

// LoadRing builds a flat annulus in the XZ plane facing +Y.
func LoadRing(innerRadius, outerRadius float32, segments int) (*renderer.Mesh, error) {
	if segments < 3 {
		return nil, errors.New("segments must be at least 3")
	}
	if innerRadius < 0 || outerRadius <= innerRadius {
		return nil, errors.New("ring needs 0 <= inner radius < outer radius")
	}

	vertices := make([]mgl32.Vec3, 0, (segments+1)*2)
	normals := make([]mgl32.Vec3, 0, (segments+1)*2)
	uvs := make([]mgl32.Vec2, 0, (segments+1)*2)
	indices := make([]uint32, 0, segments*6)

	for i := 0; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		c, s := float32(math.Cos(theta)), float32(math.Sin(theta))
		for _, r := range []float32{innerRadius, outerRadius} {
			vertices = append(vertices, mgl32.Vec3{r * c, 0, -r * s})
			normals = append(normals, mgl32.Vec3{0, 1, 0})
			uvs = append(uvs, mgl32.Vec2{(r*c/outerRadius + 1) / 2, (r*s/outerRadius + 1) / 2})
		}
	}

	for i := 0; i < segments; i++ {
		inner := uint32(i * 2)
		outer := inner + 1
		nextInner := inner + 2
		nextOuter := inner + 3
		indices = append(indices, inner, outer, nextOuter, inner, nextOuter, nextInner)
	}

	return renderer.CreateMesh("ring", vertices, normals, uvs, indices), nil
}

// LoadQuad builds a width x height rectangle in the XY plane facing +Z, with
// its bottom-left corner at the origin. Texture v runs top to bottom so
// images appear upright.
func LoadQuad(width, height float32) *renderer.Mesh {
	vertices := []mgl32.Vec3{{0, 0, 0}, {width, 0, 0}, {width, height, 0}, {0, height, 0}}
	normals := []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	uvs := []mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	return renderer.CreateMesh("quad", vertices, normals, uvs, []uint32{0, 1, 2, 0, 2, 3})
}

// RecalculateNormals returns smooth per-vertex normals from face winding.
func RecalculateNormals(vertices []float32, faces []uint32) []float32 {
	if len(vertices) == 0 || len(faces) == 0 {
		return nil
	}

	var normals = make([]float32, len(vertices))

	for i := 0; i+2 < len(faces); i += 3 {
		idx0 := int(faces[i]) * 3
		idx1 := int(faces[i+1]) * 3
		idx2 := int(faces[i+2]) * 3

		if idx0+2 >= len(vertices) || idx1+2 >= len(vertices) || idx2+2 >= len(vertices) {
			logger.Log.Warn("Face index out of bounds",
				zap.Int("idx0", idx0), zap.Int("idx1", idx1), zap.Int("idx2", idx2),
				zap.Int("vertices", len(vertices)))
			continue
		}

		v0 := mgl32.Vec3{vertices[idx0], vertices[idx0+1], vertices[idx0+2]}
		v1 := mgl32.Vec3{vertices[idx1], vertices[idx1+1], vertices[idx1+2]}
		v2 := mgl32.Vec3{vertices[idx2], vertices[idx2+1], vertices[idx2+2]}

		// Unnormalized so larger faces weigh more.
		normal := v1.Sub(v0).Cross(v2.Sub(v0))

		for j := 0; j < 3; j++ {
			normals[idx0+j] += normal[j]
			normals[idx1+j] += normal[j]
			normals[idx2+j] += normal[j]
		}
	}

	for i := 0; i+2 < len(normals); i += 3 {
		n := mgl32.Vec3{normals[i], normals[i+1], normals[i+2]}
		if n.Len() == 0 {
			n = mgl32.Vec3{0, 1, 0}
		} else {
			n = n.Normalize()
		}
		normals[i], normals[i+1], normals[i+2] = n[0], n[1], n[2]
	}

	return normals
}

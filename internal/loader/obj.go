package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"GopherAR/internal/logger"
	"GopherAR/internal/renderer"
	"GopherAR/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type FaceVertex struct {
	VertexIdx   int32
	TexCoordIdx int32
	NormalIdx   int32
}

// decodeOBJ reads a Wavefront OBJ file into a single-mesh node. A referenced
// MTL library supplies the first material's colors.
func decodeOBJ(filename string, fallback [3]float32) (*scene.Node, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	material := renderer.NewMaterial("default", fallback)
	mesh, err := parseOBJ(file, func(lib string) {
		mats := LoadMaterials(filepath.Join(filepath.Dir(filename), lib))
		for _, m := range mats {
			material = m
			break
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	mesh.Material = material

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	root := scene.NewNode(name)
	root.Add(scene.NewMeshNode(name, mesh))
	return root, nil
}

func parseOBJ(r io.Reader, onMtlLib func(string)) (*renderer.Mesh, error) {
	var positions []mgl32.Vec3
	var texCoords []mgl32.Vec2
	var normals []mgl32.Vec3
	var faces []FaceVertex

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "v":
			v, err := parseVertex(parts[1:])
			if err != nil {
				return nil, err
			}
			positions = append(positions, v)
		case "vn":
			n, err := parseVertex(parts[1:])
			if err != nil {
				return nil, err
			}
			normals = append(normals, n)
		case "vt":
			tc, err := parseTextureCoordinate(parts[1:])
			if err != nil {
				return nil, err
			}
			texCoords = append(texCoords, tc)
		case "f":
			fv, err := parseFace(parts[1:])
			if err != nil {
				return nil, err
			}
			faces = append(faces, fv...)
		case "mtllib":
			if len(parts) >= 2 && onMtlLib != nil {
				onMtlLib(parts[1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("no faces")
	}

	// Index unification: one output vertex per distinct v/vt/vn triplet.
	type vertexKey struct{ v, vt, vn int32 }
	vertexMap := make(map[vertexKey]uint32)
	var outPos, outNorm []mgl32.Vec3
	var outUV []mgl32.Vec2
	indices := make([]uint32, 0, len(faces))
	hasNormals := len(normals) > 0

	for _, fv := range faces {
		key := vertexKey{fv.VertexIdx, fv.TexCoordIdx, fv.NormalIdx}
		if idx, ok := vertexMap[key]; ok {
			indices = append(indices, idx)
			continue
		}
		if fv.VertexIdx < 0 || int(fv.VertexIdx) >= len(positions) {
			return nil, fmt.Errorf("vertex index %d out of range (%d vertices)", fv.VertexIdx+1, len(positions))
		}
		idx := uint32(len(outPos))
		vertexMap[key] = idx
		outPos = append(outPos, positions[fv.VertexIdx])

		uv := mgl32.Vec2{}
		if fv.TexCoordIdx >= 0 && int(fv.TexCoordIdx) < len(texCoords) {
			uv = texCoords[fv.TexCoordIdx]
		}
		outUV = append(outUV, uv)

		n := mgl32.Vec3{0, 1, 0}
		if fv.NormalIdx >= 0 && int(fv.NormalIdx) < len(normals) {
			n = normals[fv.NormalIdx]
		} else if fv.NormalIdx >= 0 {
			logger.Log.Warn("Normal index out of bounds",
				zap.Int32("normalIdx", fv.NormalIdx),
				zap.Int("normalsLen", len(normals)))
		}
		outNorm = append(outNorm, n)
		indices = append(indices, idx)
	}

	mesh := renderer.CreateMesh("obj", outPos, outNorm, outUV, indices)
	if !hasNormals {
		recalculated := RecalculateNormals(mesh.Vertices, mesh.Faces)
		outNorm = outNorm[:0]
		for i := 0; i+2 < len(recalculated); i += 3 {
			outNorm = append(outNorm, mgl32.Vec3{recalculated[i], recalculated[i+1], recalculated[i+2]})
		}
		mesh = renderer.CreateMesh("obj", outPos, outNorm, outUV, indices)
	}

	logger.Log.Debug("OBJ parsed",
		zap.Int("sourceVertices", len(positions)),
		zap.Int("unifiedVertices", len(outPos)),
		zap.Int("triangles", len(indices)/3))
	return mesh, nil
}

// LoadMaterials loads material properties from a .mtl file. A missing or
// unreadable file yields an empty map.
func LoadMaterials(filename string) map[string]*renderer.Material {
	file, err := os.Open(filename)
	if err != nil {
		logger.Log.Warn("Error opening material file", zap.String("path", filename), zap.Error(err))
		return map[string]*renderer.Material{}
	}
	defer file.Close()

	var currentMaterial *renderer.Material
	materials := make(map[string]*renderer.Material)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if fields[0] != "newmtl" && currentMaterial == nil {
			continue
		}
		switch fields[0] {
		case "newmtl":
			if len(fields) < 2 {
				logger.Log.Warn("Malformed material line", zap.String("line", line))
				continue
			}
			currentMaterial = renderer.NewMaterial(fields[1], [3]float32{1, 1, 1})
			materials[fields[1]] = currentMaterial
		case "Kd": // Diffuse color
			if len(fields) == 4 {
				currentMaterial.DiffuseColor = parseColor(fields[1:])
			}
		case "Ks": // Specular color
			if len(fields) == 4 {
				currentMaterial.SpecularColor = parseColor(fields[1:])
			}
		case "Ns": // Shininess
			if len(fields) == 2 {
				currentMaterial.Shininess = parseFloat(fields[1])
			}
		case "d": // Dissolve (alpha/opacity)
			if len(fields) == 2 {
				currentMaterial.Alpha = parseFloat(fields[1])
			}
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Log.Warn("Error reading material file", zap.String("path", filename), zap.Error(err))
	}
	return materials
}

// parseColor parses RGB color components from a list of strings to an array of float32.
func parseColor(fields []string) [3]float32 {
	var color [3]float32
	for i, field := range fields {
		if i > 2 {
			break
		}
		color[i] = parseFloat(field)
	}
	return color
}

func parseFloat(s string) float32 {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		logger.Log.Warn("Error parsing number", zap.String("value", s), zap.Error(err))
		return 0
	}
	return float32(f)
}

func parseVertex(parts []string) (mgl32.Vec3, error) {
	var vertex mgl32.Vec3
	if len(parts) < 3 {
		return vertex, fmt.Errorf("vertex needs 3 components, got %d", len(parts))
	}
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return vertex, fmt.Errorf("invalid vertex value %v: %w", parts[i], err)
		}
		vertex[i] = float32(val)
	}
	return vertex, nil
}

func parseFace(parts []string) ([]FaceVertex, error) {
	var face []FaceVertex

	for _, part := range parts {
		vals := strings.Split(part, "/")

		vertexIdx, err := strconv.ParseInt(vals[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vertex index %v: %w", vals[0], err)
		}

		var texCoordIdx int32 = -1
		if len(vals) > 1 && vals[1] != "" {
			texIdx, err := strconv.ParseInt(vals[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid texture coordinate index %v: %w", vals[1], err)
			}
			texCoordIdx = int32(texIdx - 1) // .obj indices start at 1, not 0
		}

		var normalIdx int32 = -1
		if len(vals) > 2 && vals[2] != "" {
			normIdx, err := strconv.ParseInt(vals[2], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid normal index %v: %w", vals[2], err)
			}
			normalIdx = int32(normIdx - 1)
		}

		face = append(face, FaceVertex{
			VertexIdx:   int32(vertexIdx - 1),
			TexCoordIdx: texCoordIdx,
			NormalIdx:   normalIdx,
		})
	}

	if len(face) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(face))
	}
	// Fan triangulation keeps the counter-clockwise winding of quads and polygons.
	var triangulated []FaceVertex
	for i := 1; i < len(face)-1; i++ {
		triangulated = append(triangulated, face[0], face[i], face[i+1])
	}
	return triangulated, nil
}

// for 2D textures
func parseTextureCoordinate(parts []string) (mgl32.Vec2, error) {
	var texCoord mgl32.Vec2
	if len(parts) < 2 {
		return texCoord, fmt.Errorf("texture coordinate needs 2 components, got %d", len(parts))
	}
	for i := 0; i < 2; i++ {
		val, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return texCoord, fmt.Errorf("invalid texture coordinate value %v: %w", parts[i], err)
		}
		texCoord[i] = float32(val)
	}
	return texCoord, nil
}

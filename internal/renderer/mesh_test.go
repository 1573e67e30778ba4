package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func unitQuad() *Mesh {
	return CreateMesh("quad",
		[]mgl32.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
		nil,
		[]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		[]uint32{0, 2, 1, 0, 3, 2})
}

func TestCreateMeshInterleaves(t *testing.T) {
	m := unitQuad()

	if len(m.InterleavedData) != 4*floatsPerVertex {
		t.Fatalf("interleaved length = %d", len(m.InterleavedData))
	}
	// second vertex: position, uv, default normal
	got := m.InterleavedData[floatsPerVertex : 2*floatsPerVertex]
	want := []float32{1, 0, -1, 1, 0, 0, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vertex 1 = %v, want %v", got, want)
		}
	}
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount = %d", m.VertexCount())
	}
	if m.Uploaded() {
		t.Error("a fresh mesh has no GPU buffers")
	}
}

func TestMeshBounds(t *testing.T) {
	b := unitQuad().Bounds()

	if b.IsEmpty() {
		t.Fatal("bounds should not be empty")
	}
	if b.Min != (mgl32.Vec3{-1, 0, -1}) || b.Max != (mgl32.Vec3{1, 0, 1}) {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
}

func TestBoxTransform(t *testing.T) {
	b := EmptyBox().ExpandByPoint(mgl32.Vec3{-1, 0, -1}).ExpandByPoint(mgl32.Vec3{1, 2, 1})

	moved := b.Transform(mgl32.Translate3D(0, 3, 0).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5)))

	if !moved.Min.ApproxEqual(mgl32.Vec3{-0.5, 3, -0.5}) || !moved.Max.ApproxEqual(mgl32.Vec3{0.5, 4, 0.5}) {
		t.Errorf("transformed box = %v..%v", moved.Min, moved.Max)
	}
	if !EmptyBox().Transform(mgl32.Ident4()).IsEmpty() {
		t.Error("an empty box stays empty")
	}
}

func TestBoxUnion(t *testing.T) {
	a := EmptyBox().ExpandByPoint(mgl32.Vec3{0, 0, 0})
	b := EmptyBox().ExpandByPoint(mgl32.Vec3{2, -1, 3})

	u := a.Union(b).Union(EmptyBox())

	if u.Min != (mgl32.Vec3{0, -1, 0}) || u.Max != (mgl32.Vec3{2, 0, 3}) {
		t.Errorf("union = %v..%v", u.Min, u.Max)
	}
	if u.Center() != (mgl32.Vec3{1, -0.5, 1.5}) {
		t.Errorf("center = %v", u.Center())
	}
}

func TestMeshTriangles(t *testing.T) {
	count := 0
	unitQuad().Triangles(func(a, b, c mgl32.Vec3) bool {
		count++
		return true
	})
	if count != 2 {
		t.Errorf("expected 2 triangles, got %d", count)
	}

	count = 0
	unitQuad().Triangles(func(a, b, c mgl32.Vec3) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("returning false should stop iteration, got %d", count)
	}
}

func TestBasicMaterialIsUnlit(t *testing.T) {
	m := NewBasicMaterial("reticle", [3]float32{0, 1, 0})
	if !m.Unlit || !m.DoubleSided || m.Alpha != 1 {
		t.Errorf("unexpected basic material %+v", m)
	}
	if NewMaterial("plant", [3]float32{1, 1, 1}).Unlit {
		t.Error("NewMaterial should be lit")
	}
}

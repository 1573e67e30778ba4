package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRayIntersectTriangle(t *testing.T) {
	a, b, c := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}

	tests := []struct {
		name string
		ray  Ray
		hit  bool
		dist float32
	}{
		{"straight down", Ray{mgl32.Vec3{0.2, 5, 0.2}, mgl32.Vec3{0, -1, 0}}, true, 5},
		{"from below", Ray{mgl32.Vec3{0.2, -2, 0.2}, mgl32.Vec3{0, 1, 0}}, true, 2},
		{"outside", Ray{mgl32.Vec3{2, 5, 2}, mgl32.Vec3{0, -1, 0}}, false, 0},
		{"pointing away", Ray{mgl32.Vec3{0.2, 5, 0.2}, mgl32.Vec3{0, 1, 0}}, false, 0},
		{"parallel", Ray{mgl32.Vec3{-1, 0, 0.2}, mgl32.Vec3{1, 0, 0}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, ok := tt.ray.IntersectTriangle(a, b, c)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if ok && dist != tt.dist {
				t.Errorf("distance = %f, want %f", dist, tt.dist)
			}
		})
	}
}

func TestRayAt(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{1, 2, 3}, Direction: mgl32.Vec3{0, -1, 0}}

	if got := ray.At(2); !got.ApproxEqual(mgl32.Vec3{1, 0, 3}) {
		t.Errorf("At(2) = %v", got)
	}
}

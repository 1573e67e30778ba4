package renderer

import "github.com/go-gl/mathgl/mgl32"

const rayEpsilon = 1e-7

// Ray is a half line; Direction need not be normalized but distances are
// measured in units of its length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectTriangle reports the distance to the triangle (v0, v1, v2) using
// Möller-Trumbore. Hits behind the origin and grazing rays miss; both
// windings are accepted.
func (r Ray) IntersectTriangle(v0, v1, v2 mgl32.Vec3) (float32, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := r.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if det > -rayEpsilon && det < rayEpsilon {
		return 0, false
	}

	inv := 1 / det
	s := r.Origin.Sub(v0)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := inv * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := inv * edge2.Dot(q)
	if t <= rayEpsilon {
		return 0, false
	}
	return t, true
}

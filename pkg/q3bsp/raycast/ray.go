// Package raycast holds ray intersection tests against boxes and triangles.
package raycast

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const mollerTrumboreEpsilon = float32(0.0000001)

// Result of a ray intersection test. T is the distance along the ray in
// units of the direction vector.
type Result struct {
	T     float32
	Hit   bool
	Point mgl32.Vec3
}

// RayAABB determines whether a ray hits an axis-aligned bounding box.
// A ray starting inside the box hits at its exit point.
func RayAABB(origin, direction, min, max mgl32.Vec3) (r Result) {
	// Any component of direction could be 0!
	// Address this by using a small number, close to
	// 0 in case any of directions components are 0
	dir := direction
	for i := range dir {
		if dir[i] == 0 {
			dir[i] = 0.00001
		}
	}

	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	for i := 0; i < 3; i++ {
		t1 := (min[i] - origin[i]) / dir[i]
		t2 := (max[i] - origin[i]) / dir[i]

		tmin = math32.Max(tmin, math32.Min(t1, t2))
		tmax = math32.Min(tmax, math32.Max(t1, t2))
	}

	// box is entirely behind the origin
	if tmax < 0 {
		return r
	}

	if tmin > tmax {
		return r
	}

	t := tmin
	if tmin < 0 {
		t = tmax
	}

	r.Hit = true
	r.T = t
	r.Point = origin.Add(direction.Mul(t))

	return r
}

// RayTriangle determines if a ray intersects a triangle using
// https://en.wikipedia.org/wiki/M%C3%B6ller%E2%80%93Trumbore_intersection_algorithm
// Both faces of the triangle count.
func RayTriangle(origin, direction mgl32.Vec3, tri [3]mgl32.Vec3) (r Result) {
	edge1 := tri[1].Sub(tri[0])
	edge2 := tri[2].Sub(tri[0])
	h := direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -mollerTrumboreEpsilon && a < mollerTrumboreEpsilon {
		return r // This ray is parallel to this triangle.
	}

	f := 1 / a
	s := origin.Sub(tri[0])
	u := f * s.Dot(h)

	if u < 0 || u > 1 {
		return r
	}

	q := s.Cross(edge1)
	v := f * direction.Dot(q)

	if v < 0 || u+v > 1 {
		return r
	}

	t := f * edge2.Dot(q)

	// line intersection behind the origin
	if t <= mollerTrumboreEpsilon {
		return r
	}

	r.Hit = true
	r.T = t
	r.Point = origin.Add(direction.Mul(t))

	return r
}

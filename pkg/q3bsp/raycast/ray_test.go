package raycast

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestRayAABB(t *testing.T) {
	t.Parallel()

	min := mgl32.Vec3{-1, -1, -1}
	max := mgl32.Vec3{1, 1, 1}

	tests := []struct {
		name      string
		origin    mgl32.Vec3
		direction mgl32.Vec3
		hit       bool
		t         float32
	}{
		{name: "straight on", origin: mgl32.Vec3{-5, 0, 0}, direction: mgl32.Vec3{1, 0, 0}, hit: true, t: 4},
		{name: "from inside", origin: mgl32.Vec3{0, 0, 0}, direction: mgl32.Vec3{0, 2, 0}, hit: true, t: 0.5},
		{name: "diagonal", origin: mgl32.Vec3{-5, -5, 0}, direction: mgl32.Vec3{1, 1, 0}, hit: true, t: 4},
		{name: "far away", origin: mgl32.Vec3{-1e6, 0, 0}, direction: mgl32.Vec3{1, 0, 0}, hit: true, t: 999999},
		{name: "behind", origin: mgl32.Vec3{5, 0, 0}, direction: mgl32.Vec3{1, 0, 0}},
		{name: "miss", origin: mgl32.Vec3{-5, 3, 0}, direction: mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := RayAABB(tt.origin, tt.direction, min, max)
			assert.Equal(t, tt.hit, r.Hit)

			if tt.hit {
				assert.InDelta(t, tt.t, r.T, 1e-4)
				assert.True(t, r.Point.ApproxEqualThreshold(tt.origin.Add(tt.direction.Mul(tt.t)), 1e-3))
			}
		})
	}
}

func TestRayTriangle(t *testing.T) {
	t.Parallel()

	tri := [3]mgl32.Vec3{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}}

	r := RayTriangle(mgl32.Vec3{1, 1, 5}, mgl32.Vec3{0, 0, -1}, tri)
	assert.True(t, r.Hit)
	assert.InDelta(t, 5, r.T, 1e-5)
	assert.True(t, r.Point.ApproxEqual(mgl32.Vec3{1, 1, 0}))

	// back face
	r = RayTriangle(mgl32.Vec3{1, 1, -5}, mgl32.Vec3{0, 0, 1}, tri)
	assert.True(t, r.Hit)

	// outside
	r = RayTriangle(mgl32.Vec3{9, 9, 5}, mgl32.Vec3{0, 0, -1}, tri)
	assert.False(t, r.Hit)

	// parallel
	r = RayTriangle(mgl32.Vec3{1, 1, 5}, mgl32.Vec3{1, 0, 0}, tri)
	assert.False(t, r.Hit)

	// pointing away
	r = RayTriangle(mgl32.Vec3{1, 1, 5}, mgl32.Vec3{0, 0, 1}, tri)
	assert.False(t, r.Hit)
}

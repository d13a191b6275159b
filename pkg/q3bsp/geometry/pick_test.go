package geometry_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp/geometry"
	"github.com/saiko-tech/q3bsp/pkg/q3bsp/q3bsptest"
)

func TestGeometry_Pick(t *testing.T) {
	t.Parallel()

	g, err := geometry.Compile(q3bsptest.Split(boxMins, boxMaxs, true), geometry.Options{})
	require.NoError(t, err)

	tests := []struct {
		name      string
		origin    mgl32.Vec3
		direction mgl32.Vec3
		hit       bool
		surface   int
		t         float32
	}{
		{name: "right triangle", origin: mgl32.Vec3{70, 10, 50}, direction: mgl32.Vec3{0, 0, -1}, hit: true, surface: q3bsptest.SurfaceRight, t: 50},
		{name: "left triangle from below", origin: mgl32.Vec3{-120, 10, -20}, direction: mgl32.Vec3{0, 0, 2}, hit: true, surface: q3bsptest.SurfaceLeft, t: 10},
		{name: "gap between", origin: mgl32.Vec3{0, 10, 50}, direction: mgl32.Vec3{0, 0, -1}},
		{name: "pointing away", origin: mgl32.Vec3{70, 10, 50}, direction: mgl32.Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hit, ok := g.Pick(tt.origin, tt.direction)
			require.Equal(t, tt.hit, ok)

			if !tt.hit {
				return
			}

			assert.Equal(t, tt.surface, hit.Surface)
			assert.InDelta(t, tt.t, hit.T, 1e-4)
			assert.InDelta(t, 0, hit.Point.Z(), 1e-4)
		})
	}
}

func TestGeometry_PickNearest(t *testing.T) {
	t.Parallel()

	m := q3bsptest.Split(boxMins, boxMaxs, true)
	withPatch(m)

	g, err := geometry.Compile(m, geometry.Options{})
	require.NoError(t, err)

	// the patch at z = 32 covers part of the right triangle
	hit, ok := g.Pick(mgl32.Vec3{70, 10, 100}, mgl32.Vec3{0, 0, -1})
	require.True(t, ok)
	assert.Equal(t, q3bsptest.SurfaceSolid, hit.Surface)
	assert.InDelta(t, 68, hit.T, 1e-3)

	// past the edge of the patch
	hit, ok = g.Pick(mgl32.Vec3{100, 10, 100}, mgl32.Vec3{0, 0, -1})
	require.True(t, ok)
	assert.Equal(t, q3bsptest.SurfaceRight, hit.Surface)
}

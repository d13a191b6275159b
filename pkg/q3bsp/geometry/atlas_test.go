package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

func solidLightmap(r, g, b byte) q3bsp.Lightmap {
	lm := q3bsp.Lightmap{RGBA: make([]byte, q3bsp.LightmapSize*q3bsp.LightmapSize*4)}

	for i := 0; i < len(lm.RGBA); i += 4 {
		lm.RGBA[i], lm.RGBA[i+1], lm.RGBA[i+2], lm.RGBA[i+3] = r, g, b, 0xff
	}

	return lm
}

func TestAtlasGrid(t *testing.T) {
	t.Parallel()

	tests := map[int]int{
		0:  1,
		1:  1,
		2:  2,
		4:  2,
		5:  4,
		16: 4,
		17: 8,
	}
	for n, want := range tests {
		assert.Equal(t, want, atlasGrid(n), "n=%d", n)
	}
}

func TestBuildAtlas_Empty(t *testing.T) {
	t.Parallel()

	a := BuildAtlas(nil)

	assert.Zero(t, a.Size)
	assert.Empty(t, a.Pixels)
	assert.Equal(t, identityRect, a.Rect(0))
	assert.Equal(t, mgl32.Vec2{0.25, 0.75}, a.Rect(3).Apply(mgl32.Vec2{0.25, 0.75}))
}

func TestBuildAtlas_Single(t *testing.T) {
	t.Parallel()

	a := BuildAtlas([]q3bsp.Lightmap{solidLightmap(1, 2, 3)})

	assert.Equal(t, 128, a.Size)
	assert.Len(t, a.Pixels, 128*128*4)
	assert.Equal(t, AtlasRect{UScale: 1, VScale: 1}, a.Rect(0))
	assert.Equal(t, []byte{1, 2, 3, 0xff}, a.Pixels[:4])
}

func TestBuildAtlas_Layout(t *testing.T) {
	t.Parallel()

	lms := []q3bsp.Lightmap{
		solidLightmap(10, 0, 0),
		solidLightmap(20, 0, 0),
		solidLightmap(30, 0, 0),
	}
	a := BuildAtlas(lms)

	require.Equal(t, 256, a.Size)
	assert.Equal(t, AtlasRect{U: 0, V: 0, UScale: 0.5, VScale: 0.5}, a.Rect(0))
	assert.Equal(t, AtlasRect{U: 0.5, V: 0, UScale: 0.5, VScale: 0.5}, a.Rect(1))
	assert.Equal(t, AtlasRect{U: 0, V: 0.5, UScale: 0.5, VScale: 0.5}, a.Rect(2))

	// out of range indices fall back to the first lightmap
	assert.Equal(t, a.Rect(0), a.Rect(-1))
	assert.Equal(t, a.Rect(0), a.Rect(3))

	img := a.Image()
	assert.Equal(t, uint8(10), img.RGBAAt(5, 5).R)
	assert.Equal(t, uint8(20), img.RGBAAt(130, 5).R)
	assert.Equal(t, uint8(30), img.RGBAAt(5, 130).R)
	// unused cell stays blank
	assert.Equal(t, uint8(0), img.RGBAAt(130, 130).A)

	uv := a.Rect(1).Apply(mgl32.Vec2{1, 1})
	assert.Equal(t, mgl32.Vec2{1, 0.5}, uv)
}

func TestBuildAtlas_MissingPixels(t *testing.T) {
	t.Parallel()

	a := BuildAtlas([]q3bsp.Lightmap{{}, solidLightmap(7, 7, 7)})

	require.Equal(t, 256, a.Size)
	assert.Equal(t, uint8(0), a.Image().RGBAAt(0, 0).R)
	assert.Equal(t, uint8(7), a.Image().RGBAAt(128, 0).R)
}

package geometry

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

// AtlasRect maps per-lightmap [0,1] coordinates into atlas space.
type AtlasRect struct {
	U, V           float32
	UScale, VScale float32
}

// Apply returns uv remapped into the atlas.
func (r AtlasRect) Apply(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{uv[0]*r.UScale + r.U, uv[1]*r.VScale + r.V}
}

var identityRect = AtlasRect{UScale: 1, VScale: 1}

// Atlas packs every lightmap of a map into one square RGBA texture.
type Atlas struct {
	Size   int // side length in texels, 0 without lightmaps
	Pixels []byte
	Rects  []AtlasRect
}

// atlasGrid returns the smallest power of two that is at least ceil(sqrt(n)).
func atlasGrid(n int) int {
	need := int(math32.Ceil(math32.Sqrt(float32(n))))

	grid := 1
	for grid < need {
		grid *= 2
	}

	return grid
}

// BuildAtlas places the lightmaps row-major at 128 texel stride.
func BuildAtlas(lightmaps []q3bsp.Lightmap) *Atlas {
	if len(lightmaps) == 0 {
		return &Atlas{}
	}

	size := atlasGrid(len(lightmaps)) * q3bsp.LightmapSize
	a := &Atlas{
		Size:   size,
		Pixels: make([]byte, size*size*4),
		Rects:  make([]AtlasRect, len(lightmaps)),
	}

	x, y := 0, 0
	scale := float32(q3bsp.LightmapSize) / float32(size)

	for i, lm := range lightmaps {
		a.Rects[i] = AtlasRect{
			U:      float32(x) / float32(size),
			V:      float32(y) / float32(size),
			UScale: scale,
			VScale: scale,
		}

		for row := 0; row < q3bsp.LightmapSize && len(lm.RGBA) == q3bsp.LightmapSize*q3bsp.LightmapSize*4; row++ {
			src := lm.RGBA[row*q3bsp.LightmapSize*4 : (row+1)*q3bsp.LightmapSize*4]
			dst := ((y+row)*size + x) * 4
			copy(a.Pixels[dst:dst+len(src)], src)
		}

		x += q3bsp.LightmapSize
		if x >= size {
			x = 0
			y += q3bsp.LightmapSize
		}
	}

	return a
}

// Rect returns the remap rect of lightmap i, falling back to lightmap 0.
func (a *Atlas) Rect(i int32) AtlasRect {
	if i >= 0 && int(i) < len(a.Rects) {
		return a.Rects[i]
	}

	if len(a.Rects) > 0 {
		return a.Rects[0]
	}

	return identityRect
}

// Image wraps the atlas pixels without copying.
func (a *Atlas) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    a.Pixels,
		Stride: a.Size * 4,
		Rect:   image.Rect(0, 0, a.Size, a.Size),
	}
}

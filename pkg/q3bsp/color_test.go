package q3bsp

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDecodeColor(t *testing.T) {
	t.Parallel()

	c := DecodeColor(0x80ff4000)

	assert.InDelta(t, 0, c[0], 1e-6)
	assert.InDelta(t, float32(0x40)/0xff, c[1], 1e-6)
	assert.InDelta(t, 1, c[2], 1e-6)
	assert.Equal(t, float32(1), c[3], "alpha is fixed")
}

func TestPackColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0xff000000), PackColor(mgl32.Vec4{0, 0, 0, 1}))
	assert.Equal(t, uint32(0x000000ff), PackColor(mgl32.Vec4{1, 0, 0, 0}))
	assert.Equal(t, uint32(0x0000ff00), PackColor(mgl32.Vec4{0, 1, 0, 0}))
	assert.Equal(t, uint32(0x00ff0000), PackColor(mgl32.Vec4{0, 0, 1, 0}))
	assert.Equal(t, uint32(0xffffffff), PackColor(mgl32.Vec4{2, 2, 2, 2}), "channels clamp")

	packed := uint32(0xff102030)
	assert.Equal(t, packed, PackColor(DecodeColor(packed)))
}

func TestAdjustExposure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     mgl32.Vec3
		factor float32
		limit  float32
		want   mgl32.Vec3
	}{
		{
			name:   "below limit",
			in:     mgl32.Vec3{10, 20, 30},
			factor: 4,
			limit:  255,
			want:   mgl32.Vec3{40, 80, 120},
		},
		{
			name:   "clipped channel rescales all",
			in:     mgl32.Vec3{100, 50, 25},
			factor: 4,
			limit:  255,
			want:   mgl32.Vec3{255, 127.5, 63.75},
		},
		{
			name:   "normalized",
			in:     mgl32.Vec3{0.5, 0.25, 0},
			factor: 4,
			limit:  1,
			want:   mgl32.Vec3{1, 0.5, 0},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := AdjustExposure(tt.in, tt.factor, tt.limit)
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-4)
			}
		})
	}
}

func TestAdjustExposure_PreservesHue(t *testing.T) {
	t.Parallel()

	for r := 1; r < 256; r += 17 {
		for g := 1; g < 256; g += 23 {
			for b := 1; b < 256; b += 29 {
				in := mgl32.Vec3{float32(r), float32(g), float32(b)}
				scaled := in.Mul(LightmapExposure)
				out := AdjustExposure(in, LightmapExposure, 0xff)

				assert.LessOrEqual(t, out[0], float32(0xff)+1e-3)
				assert.LessOrEqual(t, out[1], float32(0xff)+1e-3)
				assert.LessOrEqual(t, out[2], float32(0xff)+1e-3)

				assert.InEpsilon(t, scaled[0]/scaled[1], out[0]/out[1], 1e-4)
				assert.InEpsilon(t, scaled[1]/scaled[2], out[1]/out[2], 1e-4)
			}
		}
	}
}

func TestAdjustLightmap(t *testing.T) {
	t.Parallel()

	raw := make([]byte, LightmapSize*LightmapSize*3)
	raw[0], raw[1], raw[2] = 100, 40, 0

	rgba := adjustLightmap(raw)

	assert.Len(t, rgba, LightmapSize*LightmapSize*4)
	assert.Equal(t, []byte{255, 102, 0, 255}, rgba[:4])
	assert.Equal(t, []byte{0, 0, 0, 255}, rgba[4:8])
}

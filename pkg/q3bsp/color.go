package q3bsp

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// LightmapExposure scales lightmap texels on decode.
	LightmapExposure = float32(4)
	// VertexExposure scales vertex colors on decode.
	VertexExposure = float32(4)
)

// DecodeColor unpacks a little-endian RGBA8 value into normalized channels.
// Alpha is always 1.
func DecodeColor(packed uint32) mgl32.Vec4 {
	return mgl32.Vec4{
		float32(packed&0xff) / 0xff,
		float32((packed>>8)&0xff) / 0xff,
		float32((packed>>16)&0xff) / 0xff,
		1,
	}
}

// PackColor packs normalized channels into a little-endian RGBA8 value,
// one byte lane per channel.
func PackColor(c mgl32.Vec4) uint32 {
	return uint32(channelByte(c[0])) |
		uint32(channelByte(c[1]))<<8 |
		uint32(channelByte(c[2]))<<16 |
		uint32(channelByte(c[3]))<<24
}

func channelByte(v float32) uint8 {
	return uint8(mgl32.Clamp(math32.Floor(v*0xff+0.5), 0, 0xff))
}

// AdjustExposure multiplies every channel by factor and, if any channel ends
// up above limit, rescales all of them uniformly so the largest equals limit.
func AdjustExposure(rgb mgl32.Vec3, factor, limit float32) mgl32.Vec3 {
	rgb = rgb.Mul(factor)

	scale := float32(1)
	for _, v := range rgb {
		if v > limit && limit/v < scale {
			scale = limit / v
		}
	}

	return rgb.Mul(scale)
}

func adjustVertexColor(packed uint32) mgl32.Vec4 {
	c := DecodeColor(packed)

	return AdjustExposure(c.Vec3(), VertexExposure, 1).Vec4(1)
}

func adjustLightmap(raw []byte) []byte {
	out := make([]byte, LightmapSize*LightmapSize*4)

	for i, j := 0, 0; i+2 < len(raw); i, j = i+3, j+4 {
		rgb := AdjustExposure(mgl32.Vec3{float32(raw[i]), float32(raw[i+1]), float32(raw[i+2])},
			LightmapExposure, 0xff)

		out[j] = uint8(math32.Floor(rgb[0]+0.5))
		out[j+1] = uint8(math32.Floor(rgb[1]+0.5))
		out[j+2] = uint8(math32.Floor(rgb[2]+0.5))
		out[j+3] = 0xff
	}

	return out
}

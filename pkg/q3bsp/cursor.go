package q3bsp

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// cursor reads little-endian fields from an immutable buffer.
// The first read past the end sets err; later reads return zero values.
type cursor struct {
	buf []byte
	off int
	err error
}

func newCursor(buf []byte, offset int) *cursor {
	return &cursor{buf: buf, off: offset}
}

func (c *cursor) seek(offset int) {
	c.off = offset
}

func (c *cursor) tell() int {
	return c.off
}

func (c *cursor) next(n int) []byte {
	if c.err != nil {
		return nil
	}

	if n < 0 || c.off < 0 || c.off+n > len(c.buf) {
		c.err = OutOfRangeError{
			Lump:   "cursor",
			Offset: uint64(max(c.off, 0)),
			Length: uint64(max(n, 0)),
			Size:   len(c.buf),
		}

		return nil
	}

	b := c.buf[c.off : c.off+n]
	c.off += n

	return b
}

func (c *cursor) u8() uint8 {
	b := c.next(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (c *cursor) u32() uint32 {
	b := c.next(4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}

func (c *cursor) f32() float32 {
	return math.Float32frombits(c.u32())
}

func (c *cursor) vec2() mgl32.Vec2 {
	return mgl32.Vec2{c.f32(), c.f32()}
}

func (c *cursor) vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.f32(), c.f32(), c.f32()}
}

func (c *cursor) ivec3() (v [3]int32) {
	for i := range v {
		v[i] = c.i32()
	}

	return v
}

// str reads a fixed-length field up to its first NUL.
func (c *cursor) str(n int) string {
	b := c.next(n)
	if b == nil {
		return ""
	}

	s, _, _ := strings.Cut(string(b), "\x00")

	return s
}

// bytes returns a copy of the next n bytes.
func (c *cursor) bytes(n int) []byte {
	b := c.next(n)
	if b == nil {
		return nil
	}

	out := make([]byte, n)
	copy(out, b)

	return out
}

package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

// patchNormal is given to every generated patch vertex; normals of curved
// surfaces are not derived.
var patchNormal = mgl32.Vec3{0, 0, 1}

// quadratic Bezier evaluation of every interpolated vertex attribute
func curve(c0, c1, c2 q3bsp.Vertex, t float32) q3bsp.Vertex {
	b := 1 - t
	w0, w1, w2 := b*b, 2*b*t, t*t

	return q3bsp.Vertex{
		Position:      c0.Position.Mul(w0).Add(c1.Position.Mul(w1)).Add(c2.Position.Mul(w2)),
		TexCoord:      c0.TexCoord.Mul(w0).Add(c1.TexCoord.Mul(w1)).Add(c2.TexCoord.Mul(w2)),
		LightmapCoord: c0.LightmapCoord.Mul(w0).Add(c1.LightmapCoord.Mul(w1)).Add(c2.LightmapCoord.Mul(w2)),
		Color:         c0.Color.Mul(w0).Add(c1.Color.Mul(w1)).Add(c2.Color.Mul(w2)),
	}
}

// tesselate subdivides a width x height control grid into triangles.
// The grid is split into 3x3 groups that share their border rows and columns;
// each group yields (level+1)^2 vertices and level*level*6 indices. Returned
// indices are relative to the first returned vertex.
func tesselate(grid []q3bsp.Vertex, width, height, level int) ([]q3bsp.Vertex, []uint32) {
	l1 := level + 1
	groupsX := max((width-1)/2, 0)
	groupsY := max((height-1)/2, 0)

	verts := make([]q3bsp.Vertex, 0, groupsX*groupsY*l1*l1)
	indices := make([]uint32, 0, groupsX*groupsY*level*level*6)

	for py := 0; py+2 < height; py += 2 {
		for px := 0; px+2 < width; px += 2 {
			var c [9]q3bsp.Vertex
			for row := 0; row < 3; row++ {
				copy(c[row*3:row*3+3], grid[(py+row)*width+px:])
			}

			base := uint32(len(verts))

			for i := 0; i < l1; i++ {
				a := float32(i) / float32(level)

				r0 := curve(c[0], c[1], c[2], a)
				r1 := curve(c[3], c[4], c[5], a)
				r2 := curve(c[6], c[7], c[8], a)

				for j := 0; j < l1; j++ {
					v := curve(r0, r1, r2, float32(j)/float32(level))
					v.Normal = patchNormal
					v.Color[3] = 1
					verts = append(verts, v)
				}
			}

			stride := uint32(l1)
			for row := uint32(0); row < uint32(level); row++ {
				for col := uint32(0); col < uint32(level); col++ {
					indices = append(indices,
						base+(row+1)*stride+col,
						base+row*stride+col,
						base+row*stride+col+1,

						base+(row+1)*stride+col,
						base+row*stride+col+1,
						base+(row+1)*stride+col+1,
					)
				}
			}
		}
	}

	return verts, indices
}

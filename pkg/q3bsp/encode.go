package q3bsp

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type encoder struct {
	buf []byte
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) i32(vs ...int32) {
	for _, v := range vs {
		e.u32(uint32(v))
	}
}

func (e *encoder) f32(vs ...float32) {
	for _, v := range vs {
		e.u32(math.Float32bits(v))
	}
}

func (e *encoder) vec(vs ...mgl32.Vec3) {
	for _, v := range vs {
		e.f32(v[:]...)
	}
}

func (e *encoder) str(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	e.buf = append(e.buf, b...)
}

// MarshalBinary encodes the map in the IBSP version 46 layout that Parse reads.
// Lightmaps and vertex colors are written from their raw fields.
func (m *Map) MarshalBinary() ([]byte, error) {
	e := &encoder{buf: make([]byte, headerSize)}
	copy(e.buf, magic)
	binary.LittleEndian.PutUint32(e.buf[4:], version)

	var lumps [numLumps]lump

	for i := 0; i < numLumps; i++ {
		start := len(e.buf)

		if err := m.encodeLump(e, i); err != nil {
			return nil, errors.Wrapf(err, "failed to encode %s lump", lumpNames[i])
		}

		lumps[i] = lump{offset: uint32(start), length: uint32(len(e.buf) - start)}

		// keep every lump 4-byte aligned
		for len(e.buf)%4 != 0 {
			e.buf = append(e.buf, 0)
		}
	}

	for i, l := range lumps {
		binary.LittleEndian.PutUint32(e.buf[8+i*8:], l.offset)
		binary.LittleEndian.PutUint32(e.buf[12+i*8:], l.length)
	}

	return e.buf, nil
}

func (m *Map) encodeLump(e *encoder, i int) error {
	switch i {
	case LumpEntities:
		e.buf = append(e.buf, m.EntityText...)
	case LumpSurfaces:
		for _, s := range m.Surfaces {
			if len(s.Name) > 64 {
				return errors.Errorf("surface name %q longer than 64 bytes", s.Name)
			}

			e.str(s.Name, 64)
			e.i32(s.Flags, s.Contents)
		}
	case LumpPlanes:
		for _, p := range m.Planes {
			e.vec(p.Normal)
			e.f32(p.Distance)
		}
	case LumpNodes:
		for _, n := range m.Nodes {
			e.i32(n.Plane, n.Children[0], n.Children[1])
			e.i32(n.Mins[:]...)
			e.i32(n.Maxs[:]...)
		}
	case LumpLeaves:
		for _, l := range m.Leaves {
			e.i32(l.Cluster, l.Area)
			e.i32(l.Mins[:]...)
			e.i32(l.Maxs[:]...)
			e.i32(l.FirstLeafFace, l.NumLeafFaces, l.FirstLeafBrush, l.NumLeafBrushes)
		}
	case LumpLeafFaces:
		e.i32(m.LeafFaces...)
	case LumpLeafBrushes:
		e.i32(m.LeafBrushes...)
	case LumpBrushes:
		for _, b := range m.Brushes {
			e.i32(b.FirstSide, b.NumSides, b.Surface)
		}
	case LumpBrushSides:
		for _, s := range m.BrushSides {
			e.i32(s.Plane, s.Surface)
		}
	case LumpVertices:
		for _, v := range m.Vertices {
			e.vec(v.Position)
			e.f32(v.TexCoord[:]...)
			e.f32(v.LightmapCoord[:]...)
			e.vec(v.Normal)
			e.u32(v.RawColor)
		}
	case LumpMeshVerts:
		e.i32(m.MeshVerts...)
	case LumpFaces:
		for _, f := range m.Faces {
			e.i32(f.Surface, f.Effect, int32(f.Type), f.FirstVertex, f.NumVertices,
				f.FirstMeshVert, f.NumMeshVerts, f.Lightmap)
			e.i32(f.LightmapStart[:]...)
			e.i32(f.LightmapSize[:]...)
			e.vec(f.LightmapOrigin, f.LightmapVecs[0], f.LightmapVecs[1], f.Normal)
			e.i32(f.PatchSize[:]...)
		}
	case LumpLightmaps:
		for _, l := range m.Lightmaps {
			if len(l.Raw) != recordSizes[LumpLightmaps] {
				return errors.Errorf("lightmap holds %d bytes, want %d", len(l.Raw), recordSizes[LumpLightmaps])
			}

			e.buf = append(e.buf, l.Raw...)
		}
	case LumpVisData:
		v := m.VisData
		if v.NumClusters == 0 && v.RowSize == 0 && len(v.Bits) == 0 {
			return nil
		}

		if int(v.NumClusters)*int(v.RowSize) != len(v.Bits) {
			return errors.Errorf("vis bits hold %d bytes, want %dx%d", len(v.Bits), v.NumClusters, v.RowSize)
		}

		e.i32(v.NumClusters, v.RowSize)
		e.buf = append(e.buf, v.Bits...)
	}

	return nil
}

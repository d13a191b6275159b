// Package q3bsp decodes Quake 3 IBSP (version 46) map files.
package q3bsp

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	magic   = "IBSP"
	version = 46

	numLumps   = 17
	headerSize = 8 + numLumps*8

	planeNormalTolerance = 0.01
)

// Lump slots in the header directory. Slots 7, 12 and 15 are not used.
const (
	LumpEntities    = 0
	LumpSurfaces    = 1
	LumpPlanes      = 2
	LumpNodes       = 3
	LumpLeaves      = 4
	LumpLeafFaces   = 5
	LumpLeafBrushes = 6
	LumpBrushes     = 8
	LumpBrushSides  = 9
	LumpVertices    = 10
	LumpMeshVerts   = 11
	LumpFaces       = 13
	LumpLightmaps   = 14
	LumpVisData     = 16
)

var lumpNames = [numLumps]string{
	"entities", "surfaces", "planes", "nodes", "leaves", "leaf faces", "leaf brushes",
	"models", "brushes", "brush sides", "vertices", "mesh vertices", "effects",
	"faces", "lightmaps", "light volumes", "vis data",
}

// record sizes in bytes; 0 for lumps without fixed records
var recordSizes = [numLumps]int{
	LumpSurfaces:    72,
	LumpPlanes:      16,
	LumpNodes:       36,
	LumpLeaves:      48,
	LumpLeafFaces:   4,
	LumpLeafBrushes: 4,
	LumpBrushes:     12,
	LumpBrushSides:  8,
	LumpVertices:    44,
	LumpMeshVerts:   4,
	LumpFaces:       104,
	LumpLightmaps:   LightmapSize * LightmapSize * 3,
}

type lump struct {
	offset uint32
	length uint32
}

type header struct {
	lumps [numLumps]lump
}

func readHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, FormatError{Reason: "file too short for header"}
	}

	c := newCursor(buf, 0)

	tag := c.str(4)
	if tag != magic {
		return nil, FormatError{Reason: "bad magic " + tag}
	}

	if v := c.u32(); v != version {
		return nil, FormatError{Reason: fmt.Sprintf("unsupported version %d", v)}
	}

	h := new(header)
	for i := range h.lumps {
		h.lumps[i] = lump{offset: c.u32(), length: c.u32()}
	}

	for i, l := range h.lumps {
		if uint64(l.offset)+uint64(l.length) > uint64(len(buf)) {
			return nil, OutOfRangeError{
				Lump:   lumpNames[i],
				Offset: uint64(l.offset),
				Length: uint64(l.length),
				Size:   len(buf),
			}
		}

		if size := recordSizes[i]; size > 0 && int(l.length)%size != 0 {
			return nil, FormatError{
				Reason: fmt.Sprintf("%s lump length %d is not a multiple of %d", lumpNames[i], l.length, size),
			}
		}
	}

	return h, c.err
}

// records seeks to the start of lump i and returns its record count.
func (h *header) records(c *cursor, i int) int {
	l := h.lumps[i]
	c.seek(int(l.offset))

	return int(l.length) / recordSizes[i]
}

// Parse decodes a complete IBSP file. The buffer is not retained.
// Parse has no side effects and may run on any goroutine.
func Parse(buf []byte) (*Map, error) {
	h, err := readHeader(buf)
	if err != nil {
		return nil, err
	}

	c := newCursor(buf, 0)
	m := new(Map)

	l := h.lumps[LumpEntities]
	c.seek(int(l.offset))
	m.EntityText = string(c.bytes(int(l.length)))
	m.Entities = parseEntities(m.EntityText)

	m.Surfaces = make([]Surface, h.records(c, LumpSurfaces))
	for i := range m.Surfaces {
		m.Surfaces[i] = Surface{
			Name:     c.str(64),
			Flags:    c.i32(),
			Contents: c.i32(),
		}
	}

	m.Planes = make([]Plane, h.records(c, LumpPlanes))
	for i := range m.Planes {
		m.Planes[i] = Plane{Normal: c.vec3(), Distance: c.f32()}
	}

	m.Nodes = make([]Node, h.records(c, LumpNodes))
	for i := range m.Nodes {
		m.Nodes[i] = Node{
			Plane:    c.i32(),
			Children: [2]int32{c.i32(), c.i32()},
			Mins:     c.ivec3(),
			Maxs:     c.ivec3(),
		}
	}

	m.Leaves = make([]Leaf, h.records(c, LumpLeaves))
	for i := range m.Leaves {
		m.Leaves[i] = Leaf{
			Cluster:        c.i32(),
			Area:           c.i32(),
			Mins:           c.ivec3(),
			Maxs:           c.ivec3(),
			FirstLeafFace:  c.i32(),
			NumLeafFaces:   c.i32(),
			FirstLeafBrush: c.i32(),
			NumLeafBrushes: c.i32(),
		}
	}

	m.LeafFaces = readInts(c, h.records(c, LumpLeafFaces))
	m.LeafBrushes = readInts(c, h.records(c, LumpLeafBrushes))

	m.Brushes = make([]Brush, h.records(c, LumpBrushes))
	for i := range m.Brushes {
		m.Brushes[i] = Brush{FirstSide: c.i32(), NumSides: c.i32(), Surface: c.i32()}
	}

	m.BrushSides = make([]BrushSide, h.records(c, LumpBrushSides))
	for i := range m.BrushSides {
		m.BrushSides[i] = BrushSide{Plane: c.i32(), Surface: c.i32()}
	}

	m.Vertices = make([]Vertex, h.records(c, LumpVertices))
	for i := range m.Vertices {
		v := Vertex{
			Position:      c.vec3(),
			TexCoord:      c.vec2(),
			LightmapCoord: c.vec2(),
			Normal:        c.vec3(),
			RawColor:      c.u32(),
		}
		v.Color = adjustVertexColor(v.RawColor)
		m.Vertices[i] = v
	}

	m.MeshVerts = readInts(c, h.records(c, LumpMeshVerts))

	m.Faces = make([]Face, h.records(c, LumpFaces))
	for i := range m.Faces {
		m.Faces[i] = Face{
			Surface:        c.i32(),
			Effect:         c.i32(),
			Type:           FaceType(c.i32()),
			FirstVertex:    c.i32(),
			NumVertices:    c.i32(),
			FirstMeshVert:  c.i32(),
			NumMeshVerts:   c.i32(),
			Lightmap:       c.i32(),
			LightmapStart:  [2]int32{c.i32(), c.i32()},
			LightmapSize:   [2]int32{c.i32(), c.i32()},
			LightmapOrigin: c.vec3(),
			LightmapVecs:   [2]mgl32.Vec3{c.vec3(), c.vec3()},
			Normal:         c.vec3(),
			PatchSize:      [2]int32{c.i32(), c.i32()},
		}
	}

	m.Lightmaps = make([]Lightmap, h.records(c, LumpLightmaps))
	for i := range m.Lightmaps {
		raw := c.bytes(recordSizes[LumpLightmaps])
		m.Lightmaps[i] = Lightmap{Raw: raw, RGBA: adjustLightmap(raw)}
	}

	if m.VisData, err = readVisData(c, h.lumps[LumpVisData]); err != nil {
		return nil, err
	}

	if c.err != nil {
		return nil, errors.Wrap(c.err, "failed to decode lumps")
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return m, nil
}

func readInts(c *cursor, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = c.i32()
	}

	return out
}

func readVisData(c *cursor, l lump) (VisData, error) {
	if l.length == 0 {
		return VisData{}, nil
	}

	if l.length < 8 {
		return VisData{}, FormatError{Reason: "vis data lump shorter than its header"}
	}

	c.seek(int(l.offset))

	vis := VisData{NumClusters: c.i32(), RowSize: c.i32()}
	if vis.NumClusters < 0 || vis.RowSize < 0 {
		return VisData{}, FormatError{
			Reason: fmt.Sprintf("negative vis dimensions %dx%d", vis.NumClusters, vis.RowSize),
		}
	}

	// every row needs a bit per cluster
	if int64(vis.RowSize)*8 < int64(vis.NumClusters) {
		return VisData{}, FormatError{
			Reason: fmt.Sprintf("vis row size %d too small for %d clusters", vis.RowSize, vis.NumClusters),
		}
	}

	n := uint64(vis.NumClusters) * uint64(vis.RowSize)
	if n > uint64(l.length-8) {
		return VisData{}, OutOfRangeError{
			Lump:   lumpNames[LumpVisData],
			Offset: uint64(l.offset) + 8,
			Length: n,
			Size:   int(l.offset + l.length),
		}
	}

	vis.Bits = c.bytes(int(n))

	return vis, nil
}

func (m *Map) validate() error {
	check := func(record string, index int, field string, value int64, limit int) error {
		if value < 0 || value >= int64(limit) {
			return IntegrityError{Record: record, Index: index, Field: field, Value: value, Limit: limit}
		}

		return nil
	}

	// span checks that [first, first+count) lies within [0, limit)
	span := func(record string, index int, field string, first, count int32, limit int) error {
		if count < 0 {
			return IntegrityError{Record: record, Index: index, Field: field + " count", Value: int64(count), Limit: limit}
		}

		if count == 0 {
			return nil
		}

		if err := check(record, index, field, int64(first), limit); err != nil {
			return err
		}

		return check(record, index, field+" end", int64(first)+int64(count)-1, limit)
	}

	for i, p := range m.Planes {
		if math32.Abs(p.Normal.Len()-1) > planeNormalTolerance {
			return errors.Wrapf(FormatError{Reason: "plane normal is not unit length"}, "plane %d", i)
		}
	}

	for i, n := range m.Nodes {
		if err := check("node", i, "plane", int64(n.Plane), len(m.Planes)); err != nil {
			return err
		}

		for _, child := range n.Children {
			var err error
			switch {
			case child >= 0 && int(child) <= i:
				// children are stored after their parent
				err = IntegrityError{Record: "node", Index: i, Field: "child node", Value: int64(child), Limit: len(m.Nodes)}
			case child >= 0:
				err = check("node", i, "child node", int64(child), len(m.Nodes))
			default:
				err = check("node", i, "child leaf", -int64(child)-1, len(m.Leaves))
			}

			if err != nil {
				return err
			}
		}
	}

	for i, l := range m.Leaves {
		if err := span("leaf", i, "leaf face", l.FirstLeafFace, l.NumLeafFaces, len(m.LeafFaces)); err != nil {
			return err
		}

		if err := span("leaf", i, "leaf brush", l.FirstLeafBrush, l.NumLeafBrushes, len(m.LeafBrushes)); err != nil {
			return err
		}
	}

	for i, f := range m.LeafFaces {
		if err := check("leaf face", i, "face", int64(f), len(m.Faces)); err != nil {
			return err
		}
	}

	for i, b := range m.LeafBrushes {
		if err := check("leaf brush", i, "brush", int64(b), len(m.Brushes)); err != nil {
			return err
		}
	}

	for i, b := range m.Brushes {
		if err := check("brush", i, "surface", int64(b.Surface), len(m.Surfaces)); err != nil {
			return err
		}

		if err := span("brush", i, "side", b.FirstSide, b.NumSides, len(m.BrushSides)); err != nil {
			return err
		}
	}

	for i, s := range m.BrushSides {
		if err := check("brush side", i, "plane", int64(s.Plane), len(m.Planes)); err != nil {
			return err
		}
	}

	return nil
}

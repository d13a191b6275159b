// Package q3bsptest builds small synthetic maps for tests.
package q3bsptest

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

const entityText = `{
"classname" "worldspawn"
"message" "synthetic test map"
}
{
"classname" "info_player_deathmatch"
"origin" "-64 0 24"
"angle" "90"
"targetname" "spawn1"
}
`

// Surfaces used by every synthetic map: 0 is solid, 1 and 2 are visual only.
const (
	SurfaceSolid = iota
	SurfaceLeft
	SurfaceRight
)

// BoxPlanes returns the six outward-facing planes of an axis-aligned box,
// ordered -x, +x, -y, +y, -z, +z.
func BoxPlanes(mins, maxs mgl32.Vec3) []q3bsp.Plane {
	planes := make([]q3bsp.Plane, 0, 6)

	for axis := 0; axis < 3; axis++ {
		var n mgl32.Vec3

		n[axis] = -1
		planes = append(planes, q3bsp.Plane{Normal: n, Distance: -mins[axis]})

		n[axis] = 1
		planes = append(planes, q3bsp.Plane{Normal: n, Distance: maxs[axis]})
	}

	return planes
}

func surfaces() []q3bsp.Surface {
	return []q3bsp.Surface{
		SurfaceSolid: {Name: "textures/common/box", Contents: q3bsp.ContentsSolid},
		SurfaceLeft:  {Name: "textures/base/left"},
		SurfaceRight: {Name: "textures/base/right"},
	}
}

func triangle(v0, v1, v2 mgl32.Vec3) []q3bsp.Vertex {
	white := q3bsp.DecodeColor(0xffffffff)

	return []q3bsp.Vertex{
		{Position: v0, TexCoord: mgl32.Vec2{0, 0}, LightmapCoord: mgl32.Vec2{0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Color: white, RawColor: 0xffffffff},
		{Position: v1, TexCoord: mgl32.Vec2{1, 0}, LightmapCoord: mgl32.Vec2{1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Color: white, RawColor: 0xffffffff},
		{Position: v2, TexCoord: mgl32.Vec2{0, 1}, LightmapCoord: mgl32.Vec2{0, 1}, Normal: mgl32.Vec3{0, 0, 1}, Color: white, RawColor: 0xffffffff},
	}
}

// Box returns a map holding a single solid box brush between mins and maxs.
// It has no nodes, so leaf 0 is the whole world and references the brush.
func Box(mins, maxs mgl32.Vec3) *q3bsp.Map {
	m := &q3bsp.Map{
		EntityText: entityText,
		Surfaces:   surfaces(),
		Planes:     BoxPlanes(mins, maxs),
		Leaves: []q3bsp.Leaf{
			{Cluster: -1, NumLeafBrushes: 1},
		},
		LeafBrushes: []int32{0},
		Brushes:     []q3bsp.Brush{{FirstSide: 0, NumSides: 6, Surface: SurfaceSolid}},
	}

	for i := range m.Planes {
		m.BrushSides = append(m.BrushSides, q3bsp.BrushSide{Plane: int32(i), Surface: SurfaceSolid})
	}

	return m
}

// Split returns Box split by a root node on the plane x = 0.
// Leaf 0 (cluster 0) is the x >= 0 side and leaf 1 (cluster 1) the x < 0
// side. Both leaves reference the brush. Leaf 0 holds a triangle face on
// SurfaceRight and leaf 1 one on SurfaceLeft. The clusters see each other
// only if mutual is set.
func Split(mins, maxs mgl32.Vec3, mutual bool) *q3bsp.Map {
	m := Box(mins, maxs)

	m.Planes = append(m.Planes, q3bsp.Plane{Normal: mgl32.Vec3{1, 0, 0}})
	m.Nodes = []q3bsp.Node{{
		Plane:    int32(len(m.Planes) - 1),
		Children: [2]int32{-1, -2},
		Mins:     [3]int32{-1024, -1024, -1024},
		Maxs:     [3]int32{1024, 1024, 1024},
	}}

	m.Leaves = []q3bsp.Leaf{
		{Cluster: 0, Area: 0, Maxs: [3]int32{1024, 1024, 1024}, FirstLeafFace: 0, NumLeafFaces: 1, FirstLeafBrush: 0, NumLeafBrushes: 1},
		{Cluster: 1, Area: 0, Mins: [3]int32{-1024, -1024, -1024}, FirstLeafFace: 1, NumLeafFaces: 1, FirstLeafBrush: 0, NumLeafBrushes: 1},
	}
	m.LeafFaces = []int32{0, 1}

	m.Vertices = append(triangle(mgl32.Vec3{64, 0, 0}, mgl32.Vec3{128, 0, 0}, mgl32.Vec3{64, 64, 0}),
		triangle(mgl32.Vec3{-128, 0, 0}, mgl32.Vec3{-64, 0, 0}, mgl32.Vec3{-128, 64, 0})...)
	m.MeshVerts = []int32{0, 1, 2}
	m.Faces = []q3bsp.Face{
		{Surface: SurfaceRight, Type: q3bsp.FacePolygon, FirstVertex: 0, NumVertices: 3, NumMeshVerts: 3, Lightmap: -1, Normal: mgl32.Vec3{0, 0, 1}},
		{Surface: SurfaceLeft, Type: q3bsp.FacePolygon, FirstVertex: 3, NumVertices: 3, NumMeshVerts: 3, Lightmap: -1, Normal: mgl32.Vec3{0, 0, 1}},
	}

	var other byte
	if mutual {
		other = 1
	}

	m.VisData = q3bsp.VisData{
		NumClusters: 2,
		RowSize:     1,
		Bits:        []byte{0b01 | other<<1, 0b10 | other},
	}

	return m
}

// Marshal encodes m and panics on failure.
func Marshal(m *q3bsp.Map) []byte {
	b, err := m.MarshalBinary()
	if err != nil {
		panic(err)
	}

	return b
}

// Reparse round-trips m through its binary encoding so that derived fields
// such as Entities are populated the way Parse populates them.
func Reparse(m *q3bsp.Map) *q3bsp.Map {
	out, err := q3bsp.Parse(Marshal(m))
	if err != nil {
		panic(err)
	}

	return out
}

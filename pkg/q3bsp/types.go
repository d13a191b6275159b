package q3bsp

import "github.com/go-gl/mathgl/mgl32"

const (
	// ContentsSolid is the surface contents bit that makes a brush block movement.
	ContentsSolid = 1

	// LightmapSize is the side length in texels of every lightmap block.
	LightmapSize = 128
)

// Surface is a decoded shader record.
type Surface struct {
	Name     string
	Flags    int32
	Contents int32
}

// Solid reports whether brushes using this surface block movement.
func (s Surface) Solid() bool {
	return s.Contents&ContentsSolid != 0
}

// Plane is a unit normal and its signed distance from the origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Dist returns the signed distance of v to the plane.
func (p Plane) Dist(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) - p.Distance
}

// Node is an internal BSP tree node.
// A negative child c refers to leaf -(c+1).
type Node struct {
	Plane    int32
	Children [2]int32
	Mins     [3]int32
	Maxs     [3]int32
}

// Leaf is a terminal BSP tree node.
type Leaf struct {
	Cluster        int32 // -1 = no cluster
	Area           int32
	Mins           [3]int32
	Maxs           [3]int32
	FirstLeafFace  int32
	NumLeafFaces   int32
	FirstLeafBrush int32
	NumLeafBrushes int32
}

// Brush is a convex solid made of brush sides.
type Brush struct {
	FirstSide int32
	NumSides  int32
	Surface   int32
}

// BrushSide bounds a brush by one plane.
type BrushSide struct {
	Plane   int32
	Surface int32
}

// Vertex is a draw vertex.
// Color is the exposure-adjusted form of RawColor.
type Vertex struct {
	Position      mgl32.Vec3
	TexCoord      mgl32.Vec2
	LightmapCoord mgl32.Vec2
	Normal        mgl32.Vec3
	Color         mgl32.Vec4
	RawColor      uint32
}

// FaceType distinguishes how a face is turned into triangles.
type FaceType int32

const (
	FacePolygon   FaceType = 1
	FacePatch     FaceType = 2
	FaceMesh      FaceType = 3
	FaceBillboard FaceType = 4
)

func (t FaceType) String() string {
	switch t {
	case FacePolygon:
		return "polygon"
	case FacePatch:
		return "patch"
	case FaceMesh:
		return "mesh"
	case FaceBillboard:
		return "billboard"
	}

	return "unknown"
}

// Face is a renderable surface fragment.
type Face struct {
	Surface        int32
	Effect         int32
	Type           FaceType
	FirstVertex    int32
	NumVertices    int32
	FirstMeshVert  int32
	NumMeshVerts   int32
	Lightmap       int32
	LightmapStart  [2]int32
	LightmapSize   [2]int32
	LightmapOrigin mgl32.Vec3
	LightmapVecs   [2]mgl32.Vec3
	Normal         mgl32.Vec3
	PatchSize      [2]int32 // control grid width, height; patches only
}

// Lightmap is one 128x128 block of light texels.
type Lightmap struct {
	// Raw holds the RGB texels as stored in the file.
	Raw []byte
	// RGBA holds the exposure-adjusted texels with opaque alpha.
	RGBA []byte
}

// VisData is the cluster-to-cluster potentially visible set.
type VisData struct {
	NumClusters int32
	RowSize     int32
	Bits        []byte
}

// Map owns every decoded lump of one BSP file.
// It is never modified after Parse returns.
type Map struct {
	EntityText  string
	Entities    *Entities
	Surfaces    []Surface
	Planes      []Plane
	Nodes       []Node
	Leaves      []Leaf
	LeafFaces   []int32
	LeafBrushes []int32
	Brushes     []Brush
	BrushSides  []BrushSide
	Vertices    []Vertex
	MeshVerts   []int32
	Faces       []Face
	Lightmaps   []Lightmap
	VisData     VisData
}

// Root returns the index where tree descent starts.
// Maps without nodes consist of leaf 0 only.
func (m *Map) Root() int32 {
	if len(m.Nodes) == 0 {
		return -1
	}

	return 0
}

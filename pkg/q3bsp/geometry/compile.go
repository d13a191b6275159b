// Package geometry turns decoded map faces into draw-ready vertex and index
// buffers batched by surface.
package geometry

import (
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

// DefaultTesselationLevel is used when Options.TesselationLevel is 0.
const DefaultTesselationLevel = 5

// Options controls Compile.
type Options struct {
	// TesselationLevel is the number of subdivisions per patch group edge.
	TesselationLevel int
	// Strict makes Compile fail on the first face with a bad reference
	// instead of skipping it.
	Strict bool
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DrawRange is the slice of the index buffer drawn with one surface.
type DrawRange struct {
	Surface     int
	IndexOffset int
	IndexCount  int

	// bounds of the referenced vertices
	Mins, Maxs mgl32.Vec3
}

// Geometry is the compiled, immutable draw data of a map.
type Geometry struct {
	Positions      []float32 // 3 per vertex
	TexCoords      []float32 // 2 per vertex
	LightmapCoords []float32 // 2 per vertex, atlas space
	Normals        []float32 // 3 per vertex
	Colors         []uint32  // packed RGBA8

	Indices []uint32
	Ranges  []DrawRange
	Atlas   *Atlas

	// Skipped counts faces dropped for bad references.
	Skipped int
}

// VertexCount returns the number of vertices in the attribute arrays.
func (g *Geometry) VertexCount() int {
	return len(g.Colors)
}

// Position returns the position of vertex i.
func (g *Geometry) Position(i uint32) mgl32.Vec3 {
	return mgl32.Vec3{g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2]}
}

type compiler struct {
	m      *q3bsp.Map
	level  int
	atlas  *Atlas
	verts  []q3bsp.Vertex
	lmUV   []mgl32.Vec2
	bySurf [][]uint32
}

// Compile builds the draw geometry of m. Billboards are not compiled.
// Faces referencing missing surfaces, vertices or mesh vertices are skipped
// and logged, or reported as q3bsp.IntegrityError with Options.Strict.
func Compile(m *q3bsp.Map, opts Options) (*Geometry, error) {
	level := opts.TesselationLevel
	if level == 0 {
		level = DefaultTesselationLevel
	}

	if level < 1 {
		return nil, errors.Errorf("tesselation level must be positive, got %d", level)
	}

	log := opts.logger()

	c := &compiler{
		m:      m,
		level:  level,
		atlas:  BuildAtlas(m.Lightmaps),
		verts:  append([]q3bsp.Vertex(nil), m.Vertices...),
		lmUV:   make([]mgl32.Vec2, len(m.Vertices)),
		bySurf: make([][]uint32, len(m.Surfaces)),
	}

	g := &Geometry{Atlas: c.atlas}

	for i, face := range m.Faces {
		if face.Type == q3bsp.FaceBillboard {
			continue
		}

		indices, err := c.face(i, face)
		if err != nil {
			if opts.Strict {
				return nil, errors.Wrap(err, "failed to compile face")
			}

			log.Warn("skipping face", "face", i, "type", face.Type.String(), "err", err)
			g.Skipped++

			continue
		}

		c.bySurf[face.Surface] = append(c.bySurf[face.Surface], indices...)
	}

	c.flatten(g)

	log.Debug("compiled geometry",
		"vertices", g.VertexCount(),
		"indices", len(g.Indices),
		"ranges", len(g.Ranges),
		"skipped", g.Skipped,
		"atlas", g.Atlas.Size)

	return g, nil
}

func faceError(i int, field string, value int64, limit int) error {
	return q3bsp.IntegrityError{Record: "face", Index: i, Field: field, Value: value, Limit: limit}
}

func (c *compiler) face(i int, f q3bsp.Face) ([]uint32, error) {
	if f.Surface < 0 || int(f.Surface) >= len(c.m.Surfaces) {
		return nil, faceError(i, "surface", int64(f.Surface), len(c.m.Surfaces))
	}

	nVerts := len(c.m.Vertices)
	if f.FirstVertex < 0 || f.NumVertices < 0 || int(f.FirstVertex)+int(f.NumVertices) > nVerts {
		return nil, faceError(i, "vertex", int64(f.FirstVertex)+int64(f.NumVertices), nVerts+1)
	}

	rect := c.atlas.Rect(f.Lightmap)

	switch f.Type {
	case q3bsp.FacePolygon, q3bsp.FaceMesh:
		return c.polygon(i, f, rect)
	case q3bsp.FacePatch:
		return c.patch(i, f, rect)
	}

	return nil, errors.Errorf("face %d: unknown type %d", i, f.Type)
}

func (c *compiler) polygon(i int, f q3bsp.Face, rect AtlasRect) ([]uint32, error) {
	nMesh := len(c.m.MeshVerts)
	if f.FirstMeshVert < 0 || f.NumMeshVerts < 0 || int(f.FirstMeshVert)+int(f.NumMeshVerts) > nMesh {
		return nil, faceError(i, "mesh vertex", int64(f.FirstMeshVert)+int64(f.NumMeshVerts), nMesh+1)
	}

	indices := make([]uint32, f.NumMeshVerts)

	for k, mv := range c.m.MeshVerts[f.FirstMeshVert : f.FirstMeshVert+f.NumMeshVerts] {
		vi := int64(f.FirstVertex) + int64(mv)
		if vi < 0 || vi >= int64(len(c.m.Vertices)) {
			return nil, faceError(i, "mesh vertex target", vi, len(c.m.Vertices))
		}

		indices[k] = uint32(vi)
	}

	for _, vi := range indices {
		c.lmUV[vi] = rect.Apply(c.verts[vi].LightmapCoord)
	}

	return indices, nil
}

func (c *compiler) patch(i int, f q3bsp.Face, rect AtlasRect) ([]uint32, error) {
	width, height := int(f.PatchSize[0]), int(f.PatchSize[1])
	if width < 0 || height < 0 || width*height > int(f.NumVertices) {
		return nil, faceError(i, "patch control point", int64(width)*int64(height), int(f.NumVertices)+1)
	}

	grid := c.m.Vertices[f.FirstVertex : f.FirstVertex+f.NumVertices]
	generated, rel := tesselate(grid, width, height, c.level)

	base := uint32(len(c.verts))
	for _, v := range generated {
		c.verts = append(c.verts, v)
		c.lmUV = append(c.lmUV, rect.Apply(v.LightmapCoord))
	}

	for k := range rel {
		rel[k] += base
	}

	return rel, nil
}

// flatten writes the attribute arrays and the surface-ordered index buffer.
func (c *compiler) flatten(g *Geometry) {
	n := len(c.verts)

	g.Positions = make([]float32, 0, n*3)
	g.TexCoords = make([]float32, 0, n*2)
	g.LightmapCoords = make([]float32, 0, n*2)
	g.Normals = make([]float32, 0, n*3)
	g.Colors = make([]uint32, 0, n)

	for i, v := range c.verts {
		g.Positions = append(g.Positions, v.Position[:]...)
		g.TexCoords = append(g.TexCoords, v.TexCoord[:]...)
		g.LightmapCoords = append(g.LightmapCoords, c.lmUV[i][:]...)
		g.Normals = append(g.Normals, v.Normal[:]...)
		g.Colors = append(g.Colors, q3bsp.PackColor(v.Color))
	}

	for s, indices := range c.bySurf {
		if len(indices) == 0 {
			continue
		}

		r := DrawRange{
			Surface:     s,
			IndexOffset: len(g.Indices),
			IndexCount:  len(indices),
			Mins:        c.verts[indices[0]].Position,
			Maxs:        c.verts[indices[0]].Position,
		}

		for _, vi := range indices {
			p := c.verts[vi].Position
			for axis := range p {
				r.Mins[axis] = min(r.Mins[axis], p[axis])
				r.Maxs[axis] = max(r.Maxs[axis], p[axis])
			}
		}

		g.Indices = append(g.Indices, indices...)
		g.Ranges = append(g.Ranges, r)
	}
}

// Package vis answers leaf containment and potentially-visible-set queries
// over a map's BSP tree.
package vis

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

// SurfaceSet is an immutable set of surface indices.
type SurfaceSet struct {
	members []bool
	n       int
}

func newSurfaceSet(numSurfaces int) SurfaceSet {
	return SurfaceSet{members: make([]bool, numSurfaces)}
}

func (s *SurfaceSet) add(surface int) {
	if s.members[surface] {
		return
	}

	s.members[surface] = true
	s.n++
}

// Contains reports whether surface is in the set.
func (s SurfaceSet) Contains(surface int) bool {
	return surface >= 0 && surface < len(s.members) && s.members[surface]
}

// Len returns the number of surfaces in the set.
func (s SurfaceSet) Len() int {
	return s.n
}

// Surfaces returns the members in ascending order.
func (s SurfaceSet) Surfaces() []int {
	out := make([]int, 0, s.n)

	for surface, ok := range s.members {
		if ok {
			out = append(out, surface)
		}
	}

	return out
}

// Index is the visibility index of a map. Queries are safe for concurrent
// use; visible surface sets are cached per view leaf.
type Index struct {
	m *q3bsp.Map

	// distinct surfaces referenced by the faces of each leaf
	leafSurfaces [][]int

	cacheLock deadlock.RWMutex
	cache     map[int32]SurfaceSet
}

// Build indexes m. m must not be modified afterwards.
func Build(m *q3bsp.Map) *Index {
	idx := &Index{
		m:            m,
		leafSurfaces: make([][]int, len(m.Leaves)),
		cache:        make(map[int32]SurfaceSet),
	}

	seen := make([]int, len(m.Surfaces))
	for i := range seen {
		seen[i] = -1
	}

	for i, leaf := range m.Leaves {
		for j := leaf.FirstLeafFace; j < leaf.FirstLeafFace+leaf.NumLeafFaces; j++ {
			if j < 0 || int(j) >= len(m.LeafFaces) {
				break
			}

			face := m.LeafFaces[j]
			if face < 0 || int(face) >= len(m.Faces) {
				continue
			}

			surface := int(m.Faces[face].Surface)
			if surface < 0 || surface >= len(m.Surfaces) || seen[surface] == i {
				continue
			}

			seen[surface] = i
			idx.leafSurfaces[i] = append(idx.leafSurfaces[i], surface)
		}
	}

	return idx
}

// Map returns the indexed map.
func (idx *Index) Map() *q3bsp.Map {
	return idx.m
}

// LocateLeaf returns the leaf containing position. Points on a node plane
// belong to its front child.
func (idx *Index) LocateLeaf(position mgl32.Vec3) int32 {
	index := idx.m.Root()

	for index >= 0 {
		node := idx.m.Nodes[index]

		if idx.m.Planes[node.Plane].Dist(position) >= 0 {
			index = node.Children[0]
		} else {
			index = node.Children[1]
		}
	}

	return -(index + 1)
}

// Cluster returns the cluster of leaf, or -1 if the leaf does not exist.
func (idx *Index) Cluster(leaf int32) int32 {
	if leaf < 0 || int(leaf) >= len(idx.m.Leaves) {
		return -1
	}

	return idx.m.Leaves[leaf].Cluster
}

// MutuallyVisible reports whether clusters a and b can see each other.
// Negative clusters see everything. Maps without visibility data, and
// clusters outside of it, are treated as fully visible.
func (idx *Index) MutuallyVisible(a, b int32) bool {
	if a == b || a < 0 || b < 0 {
		return true
	}

	vd := &idx.m.VisData
	if a >= vd.NumClusters || b >= vd.NumClusters {
		return true
	}

	i := int(a)*int(vd.RowSize) + int(b>>3)
	if i >= len(vd.Bits) {
		return true
	}

	return vd.Bits[i]&(1<<(b&7)) != 0
}

// VisibleSurfaces returns the surfaces referenced by faces of every leaf
// visible from viewLeaf. A leaf that does not exist sees nothing.
func (idx *Index) VisibleSurfaces(viewLeaf int32) SurfaceSet {
	if viewLeaf < 0 || int(viewLeaf) >= len(idx.m.Leaves) {
		return newSurfaceSet(0)
	}

	idx.cacheLock.RLock()
	set, ok := idx.cache[viewLeaf]
	idx.cacheLock.RUnlock()

	if ok {
		return set
	}

	set = idx.visibleSurfaces(viewLeaf)

	idx.cacheLock.Lock()
	if cached, ok := idx.cache[viewLeaf]; ok {
		set = cached
	} else {
		idx.cache[viewLeaf] = set
	}
	idx.cacheLock.Unlock()

	return set
}

func (idx *Index) visibleSurfaces(viewLeaf int32) SurfaceSet {
	set := newSurfaceSet(len(idx.m.Surfaces))
	cluster := idx.m.Leaves[viewLeaf].Cluster

	for i, leaf := range idx.m.Leaves {
		if !idx.MutuallyVisible(cluster, leaf.Cluster) {
			continue
		}

		for _, surface := range idx.leafSurfaces[i] {
			set.add(surface)
		}
	}

	return set
}

// Viewer tracks the leaf of a single moving observer and recomputes its
// visible surfaces only when that leaf changes. It is not safe for
// concurrent use; give every caller its own.
type Viewer struct {
	idx   *Index
	leaf  int32
	set   SurfaceSet
	valid bool
}

// NewViewer returns a viewer without a position.
func NewViewer(idx *Index) *Viewer {
	return &Viewer{idx: idx, leaf: -1}
}

// Update moves the viewer to position and returns the visible surfaces.
// changed reports whether the viewer entered a different leaf.
func (v *Viewer) Update(position mgl32.Vec3) (set SurfaceSet, changed bool) {
	leaf := v.idx.LocateLeaf(position)
	if v.valid && leaf == v.leaf {
		return v.set, false
	}

	v.leaf = leaf
	v.set = v.idx.VisibleSurfaces(leaf)
	v.valid = true

	return v.set, true
}

// Leaf returns the current leaf, or -1 before the first Update.
func (v *Viewer) Leaf() int32 {
	return v.leaf
}

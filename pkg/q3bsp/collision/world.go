// Package collision implements swept-sphere traces against the solid brushes
// of a map's BSP tree.
package collision

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
)

// Epsilon biases every entry and exit fraction away from plane surfaces.
const Epsilon = float32(0.03125)

// World answers trace queries over a parsed map. It never mutates the map
// and is safe for concurrent use.
type World struct {
	m     *q3bsp.Map
	solid []bool // per brush
}

// Build prepares m for tracing. m must not be modified afterwards.
func Build(m *q3bsp.Map) *World {
	w := &World{
		m:     m,
		solid: make([]bool, len(m.Brushes)),
	}

	for i, b := range m.Brushes {
		if b.NumSides <= 0 || b.Surface < 0 || int(b.Surface) >= len(m.Surfaces) {
			continue
		}

		w.solid[i] = m.Surfaces[b.Surface].Solid()
	}

	return w
}

// Map returns the map the world was built from.
func (w *World) Map() *q3bsp.Map {
	return w.m
}

// Trace captures the result of a trace.
type Trace struct {
	// End is the corrected end point.
	End      mgl32.Vec3
	Fraction float32

	// Hit reports whether Plane and Brush hold the blocking brush side.
	Hit   bool
	Plane q3bsp.Plane
	Brush int32

	StartSolid bool
	AllSolid   bool
}

type tracer struct {
	w          *World
	start, end mgl32.Vec3
	radius     float32
	out        *Trace
}

// Trace sweeps a sphere of the given radius from start to end and stops it at
// the first solid brush. With slide set, the end point is pushed back out of
// the blocking plane instead of being clamped to the point of contact.
// A sphere starting and ending inside one brush does not move.
func (w *World) Trace(start, end mgl32.Vec3, radius float32, slide bool) *Trace {
	out := &Trace{
		End:      end,
		Fraction: 1,
		Brush:    -1,
	}

	t := tracer{w: w, start: start, end: end, radius: radius, out: out}
	t.node(w.m.Root(), 0, 1, start, end)

	if out.Fraction >= 1 {
		return out
	}

	if slide && out.Hit {
		n := out.Plane.Normal
		dist := end.Dot(n) - (out.Plane.Distance + radius + Epsilon)

		if dist < 0 {
			out.End = end.Sub(n.Mul(dist))
		}

		return out
	}

	out.End = start.Add(end.Sub(start).Mul(out.Fraction))

	return out
}

// IsVisible returns true if destination is visible from origin, as computed by
// a zero radius trace.
func (w *World) IsVisible(origin, destination mgl32.Vec3) bool {
	return w.Trace(origin, destination, 0, false).Fraction >= 1
}

// node clips the part of the segment between startFraction and endFraction,
// running from p1 to p2, against the subtree at nodeIndex.
func (t *tracer) node(nodeIndex int32, startFraction, endFraction float32, p1, p2 mgl32.Vec3) {
	if t.out.Fraction <= startFraction {
		return
	}

	m := t.w.m

	if nodeIndex < 0 {
		leafIndex := -(nodeIndex + 1)
		if int(leafIndex) >= len(m.Leaves) {
			return
		}

		t.leaf(m.Leaves[leafIndex])

		return
	}

	node := m.Nodes[nodeIndex]
	plane := m.Planes[node.Plane]

	startDistance := plane.Dist(p1)
	endDistance := plane.Dist(p2)

	if startDistance >= t.radius && endDistance >= t.radius {
		t.node(node.Children[0], startFraction, endFraction, p1, p2)

		return
	}

	if startDistance < -t.radius && endDistance < -t.radius {
		t.node(node.Children[1], startFraction, endFraction, p1, p2)

		return
	}

	var (
		side                          int
		fractionFirst, fractionSecond float32
	)

	switch {
	case startDistance < endDistance:
		// back
		side = 1
		inversedDistance := 1 / (startDistance - endDistance)

		fractionFirst = (startDistance - t.radius + Epsilon) * inversedDistance
		fractionSecond = (startDistance + t.radius + Epsilon) * inversedDistance
	case endDistance < startDistance:
		// front
		side = 0
		inversedDistance := 1 / (startDistance - endDistance)

		fractionFirst = (startDistance + t.radius + Epsilon) * inversedDistance
		fractionSecond = (startDistance - t.radius - Epsilon) * inversedDistance
	default:
		// front
		side = 0
		fractionFirst = 1
		fractionSecond = 0
	}

	fractionFirst = mgl32.Clamp(fractionFirst, 0, 1)
	fractionSecond = mgl32.Clamp(fractionSecond, 0, 1)

	fractionMiddle := startFraction + (endFraction-startFraction)*fractionFirst
	middle := p1.Add(p2.Sub(p1).Mul(fractionFirst))

	t.node(node.Children[side], startFraction, fractionMiddle, p1, middle)

	fractionMiddle = startFraction + (endFraction-startFraction)*fractionSecond
	middle = p1.Add(p2.Sub(p1).Mul(fractionSecond))

	t.node(node.Children[side^1], fractionMiddle, endFraction, middle, p2)
}

func (t *tracer) leaf(leaf q3bsp.Leaf) {
	m := t.w.m

	for i := int32(0); i < leaf.NumLeafBrushes; i++ {
		brushIndex := m.LeafBrushes[leaf.FirstLeafBrush+i]
		if !t.w.solid[brushIndex] {
			continue
		}

		t.brush(brushIndex)

		if t.out.AllSolid {
			return
		}
	}
}

// brush clips the whole segment against the planes of one brush, each pushed
// out by the trace radius.
func (t *tracer) brush(brushIndex int32) {
	m := t.w.m
	brush := m.Brushes[brushIndex]

	var (
		fractionToEnter = float32(-1)
		fractionToLeave = float32(1)
		startsOut       bool
		endsOut         bool
		hitPlane        q3bsp.Plane
	)

	for _, side := range m.BrushSides[brush.FirstSide : brush.FirstSide+brush.NumSides] {
		plane := m.Planes[side.Plane]

		startDistance := t.start.Dot(plane.Normal) - (plane.Distance + t.radius)
		endDistance := t.end.Dot(plane.Normal) - (plane.Distance + t.radius)

		if startDistance > 0 {
			startsOut = true
		}

		if endDistance > 0 {
			endsOut = true
		}

		// completely in front of one face
		if startDistance > 0 && endDistance > 0 {
			return
		}

		if startDistance <= 0 && endDistance <= 0 {
			continue
		}

		if startDistance > endDistance {
			// entering
			fraction := (startDistance - Epsilon) / (startDistance - endDistance)
			if fraction > fractionToEnter {
				fractionToEnter = fraction
				hitPlane = plane
			}
		} else {
			// leaving
			fraction := (startDistance + Epsilon) / (startDistance - endDistance)
			if fraction < fractionToLeave {
				fractionToLeave = fraction
			}
		}
	}

	if !startsOut {
		t.out.StartSolid = true

		if !endsOut {
			t.out.AllSolid = true
			t.out.Fraction = 0
			t.out.Hit = false
			t.out.Brush = brushIndex
		}

		return
	}

	if fractionToEnter < fractionToLeave && fractionToEnter > -1 && fractionToEnter < t.out.Fraction {
		t.out.Fraction = max(fractionToEnter, 0)
		t.out.Hit = true
		t.out.Plane = hitPlane
		t.out.Brush = brushIndex
	}
}

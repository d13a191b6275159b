package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp/raycast"
)

// Hit is the nearest triangle intersected by a pick ray.
type Hit struct {
	Surface  int
	Triangle int // index of the triangle's first entry in Indices
	T        float32
	Point    mgl32.Vec3
}

// Pick casts a ray against the compiled triangles and returns the nearest
// hit. Draw ranges whose bounds the ray misses are not tested.
func (g *Geometry) Pick(origin, direction mgl32.Vec3) (Hit, bool) {
	var (
		best  Hit
		found bool
	)

	for _, r := range g.Ranges {
		box := raycast.RayAABB(origin, direction, r.Mins, r.Maxs)
		if !box.Hit || (found && box.T > best.T && !insideBounds(origin, r)) {
			continue
		}

		for i := r.IndexOffset; i+2 < r.IndexOffset+r.IndexCount; i += 3 {
			tri := [3]mgl32.Vec3{
				g.Position(g.Indices[i]),
				g.Position(g.Indices[i+1]),
				g.Position(g.Indices[i+2]),
			}

			res := raycast.RayTriangle(origin, direction, tri)
			if !res.Hit || (found && res.T >= best.T) {
				continue
			}

			best = Hit{Surface: r.Surface, Triangle: i, T: res.T, Point: res.Point}
			found = true
		}
	}

	return best, found
}

func insideBounds(p mgl32.Vec3, r DrawRange) bool {
	for i := range p {
		if p[i] < r.Mins[i] || p[i] > r.Maxs[i] {
			return false
		}
	}

	return true
}

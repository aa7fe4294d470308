package parenttile

import (
	"math/rand"
	"sort"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/recon"
	"github.com/landform/terracore/internal/spatial"
)

// Child bundles one finer-level tile's built content as the Parent Tile
// Builder needs it: its mesh, and (for color transfer) the observation
// each vertex's confidence ultimately derives from.
type Child struct {
	Mesh *meshmodel.Mesh
	// Confidence parallels Mesh.Positions; higher means a color sampled
	// near this vertex is more trustworthy. Typically the inverse
	// distance from the vertex to the observation that textured it.
	Confidence []float64
	// Colors parallels Mesh.Positions: the vertex's sampled texture
	// color, if the child's texture has already been baked down to
	// per-vertex colors for transfer.
	Colors []spatial.Vec3 // RGB in [0,1]
}

// GatherChildren returns the children whose mesh bounds intersect
// bounds.Expanded(searchExpansion).
func GatherChildren(children []*Child, bounds spatial.AABB, searchExpansion float64) []*Child {
	expanded := bounds.Expanded(searchExpansion)
	var out []*Child
	for _, c := range children {
		if expanded.Intersects(c.Mesh.Bounds()) {
			out = append(out, c)
		}
	}
	return out
}

// SamplePoints draws area-weighted samples across every gathered child's
// triangles, yielding approximately count total points. rng is seeded by
// the caller so sampling is reproducible in tests.
func SamplePoints(children []*Child, count int, rng *rand.Rand) []recon.Point {
	type tri struct {
		child              *Child
		fi                 int
		area, cumulative   float64
	}

	var tris []tri
	total := 0.0
	for _, c := range children {
		for fi := range c.Mesh.Faces {
			p0, p1, p2 := c.Mesh.Triangle(fi)
			a := spatial.TriangleArea(p0, p1, p2)
			if a <= 0 {
				continue
			}
			total += a
			tris = append(tris, tri{child: c, fi: fi, area: a, cumulative: total})
		}
	}
	if total <= 0 || count <= 0 {
		return nil
	}

	points := make([]recon.Point, 0, count)
	for i := 0; i < count; i++ {
		target := rng.Float64() * total
		j := sort.Search(len(tris), func(k int) bool { return tris[k].cumulative >= target })
		if j >= len(tris) {
			j = len(tris) - 1
		}
		t := tris[j]
		points = append(points, samplePointOnFace(t.child.Mesh, t.fi, rng))
	}
	return points
}

// samplePointOnFace draws one uniformly-distributed point on face fi using
// barycentric coordinates, interpolating normal (if present) from its
// vertices.
func samplePointOnFace(mesh *meshmodel.Mesh, fi int, rng *rand.Rand) recon.Point {
	f := mesh.Faces[fi]
	p0, p1, p2 := mesh.Positions[f[0]], mesh.Positions[f[1]], mesh.Positions[f[2]]

	r1, r2 := rng.Float64(), rng.Float64()
	if r1+r2 > 1 {
		r1, r2 = 1-r1, 1-r2
	}
	u, v, w := r1, r2, 1-r1-r2

	pt := recon.Point{
		Position: p0.Mul(u).Add(p1.Mul(v)).Add(p2.Mul(w)),
	}
	if mesh.Normals != nil {
		n0, n1, n2 := mesh.Normals[f[0]], mesh.Normals[f[1]], mesh.Normals[f[2]]
		n := n0.Mul(u).Add(n1.Mul(v)).Add(n2.Mul(w))
		if l := n.Len(); l > 1e-12 {
			pt.Normal = n.Mul(1 / l)
		}
	}
	return pt
}

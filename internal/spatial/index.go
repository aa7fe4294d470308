package spatial

import "sort"

// Triangle is a single indexed triangle as seen by the spatial index: three
// world-space positions plus an opaque identifier the caller can use to map
// a hit back to its source triangle.
type Triangle struct {
	P0, P1, P2 Vec3
	ID         int
}

func (t Triangle) bounds() AABB {
	return EmptyAABB().Expand(t.P0).Expand(t.P1).Expand(t.P2)
}

func (t Triangle) centroid() Vec3 {
	return t.P0.Add(t.P1).Add(t.P2).Mul(1.0 / 3.0)
}

// TriangleIndex is a median-split bounding volume hierarchy over a fixed set
// of triangles, built once and read-only during use (spec §5: "read-only
// during texturing"). Used both to locate the surface point under a UV
// texel and to cast occlusion rays (spec §4.C steps 1 and 4).
type TriangleIndex struct {
	tris  []Triangle
	nodes []bvhNode
}

type bvhNode struct {
	bounds      AABB
	left, right int // node indices; -1 for leaves
	start, n    int // triangle range [start, start+n) in tris, valid when leaf
}

const bvhLeafSize = 4

// BuildTriangleIndex constructs a BVH over the given triangles. Returns an
// error if tris is empty — an empty spatial index makes ray casting
// impossible, which spec §4.C marks as fatal for the owning tile.
func BuildTriangleIndex(tris []Triangle) (*TriangleIndex, error) {
	if len(tris) == 0 {
		return nil, errEmptyIndex
	}
	idx := &TriangleIndex{tris: append([]Triangle(nil), tris...)}
	idx.nodes = make([]bvhNode, 0, 2*len(tris))
	idx.build(0, len(idx.tris))
	return idx, nil
}

var errEmptyIndex = emptyIndexError{}

type emptyIndexError struct{}

func (emptyIndexError) Error() string { return "spatial: cannot build index over zero triangles" }

// build recursively partitions tris[start:start+n] and returns the index of
// the node it created.
func (idx *TriangleIndex) build(start, n int) int {
	bounds := EmptyAABB()
	for i := start; i < start+n; i++ {
		bounds = bounds.Union(idx.tris[i].bounds())
	}

	nodeIdx := len(idx.nodes)
	idx.nodes = append(idx.nodes, bvhNode{bounds: bounds, left: -1, right: -1})

	if n <= bvhLeafSize {
		idx.nodes[nodeIdx].start = start
		idx.nodes[nodeIdx].n = n
		return nodeIdx
	}

	axis := bounds.LongestAxis()
	slice := idx.tris[start : start+n]
	sort.Slice(slice, func(i, j int) bool {
		return slice[i].centroid()[axis] < slice[j].centroid()[axis]
	})

	mid := n / 2
	left := idx.build(start, mid)
	right := idx.build(start+mid, n-mid)
	idx.nodes[nodeIdx].left = left
	idx.nodes[nodeIdx].right = right
	return nodeIdx
}

// Nearest casts r against the index and returns the distance to the closest
// intersected triangle. ok is false if nothing is hit.
func (idx *TriangleIndex) Nearest(r Ray) (t float64, triID int, ok bool) {
	best := float64(0)
	bestID := -1
	found := false
	idx.walk(0, r, func(tt float64, tri Triangle) {
		if !found || tt < best {
			best, bestID, found = tt, tri.ID, true
		}
	})
	return best, bestID, found
}

func (idx *TriangleIndex) walk(nodeIdx int, r Ray, visit func(t float64, tri Triangle)) {
	if nodeIdx < 0 {
		return
	}
	node := &idx.nodes[nodeIdx]
	if !rayHitsAABB(r, node.bounds) {
		return
	}
	if node.left == -1 {
		for i := node.start; i < node.start+node.n; i++ {
			tri := idx.tris[i]
			if t, ok := r.IntersectTriangle(tri.P0, tri.P1, tri.P2); ok {
				visit(t, tri)
			}
		}
		return
	}
	idx.walk(node.left, r, visit)
	idx.walk(node.right, r, visit)
}

// rayHitsAABB is a standard slab test; treats the ray as unbounded in t>=0.
func rayHitsAABB(r Ray, b AABB) bool {
	tmin, tmax := 0.0, maxFloat
	for i := 0; i < 3; i++ {
		if r.Dir[i] == 0 {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return false
			}
			continue
		}
		inv := 1 / r.Dir[i]
		t0 := (b.Min[i] - r.Origin[i]) * inv
		t1 := (b.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}

const maxFloat = 1.7976931348623157e+308

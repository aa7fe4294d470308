// Package collapse implements quadric error metric edge collapse
// simplification over an arena-addressed mesh graph: vertices and faces are
// referenced by handle rather than pointer, so a collapse retires a slot in
// place instead of chasing and rewriting a web of pointers.
package collapse

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

var (
	// ErrInvalidMesh is returned when the input mesh fails validation.
	ErrInvalidMesh = errors.New("collapse: invalid input mesh")
	// ErrInvalidTarget is returned for a non-positive target face count.
	ErrInvalidTarget = errors.New("collapse: target face count must be positive")
)

// Decimate simplifies mesh toward targetFaceCount triangles using
// Garland-Heckbert quadric error metrics, subject to opts. It may stop
// before reaching targetFaceCount if every remaining edge is blocked by a
// guard (PreserveTopology, AvoidFlips, AvoidSmallTriangles, pinned-pinned
// edges, or the perimeter guard that keeps two perimeter vertices from
// merging along an interior edge) or exceeds AccuracyThreshold; it never
// stops short for any other reason. The input mesh is not modified.
func Decimate(mesh *meshmodel.Mesh, targetFaceCount int, opts Options) (*meshmodel.Mesh, error) {
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}
	if targetFaceCount <= 0 {
		return nil, ErrInvalidTarget
	}

	g, origToNew := buildGraph(mesh)
	for orig := range opts.PinnedVertices {
		if orig < 0 || orig >= len(origToNew) {
			continue
		}
		g.verts[origToNew[orig]].pinned = true
	}

	accumulateQuadrics(g, opts)

	h := &edgeHeap{}
	heap.Init(h)
	for v0 := range g.verts {
		if !g.verts[v0].active {
			continue
		}
		for v1 := range g.verts[v0].nbrs {
			if v1 < v0 {
				continue // undirected edge, push once per unordered pair
			}
			pushEdge(g, h, v0, v1)
		}
	}

	for h.Len() > 0 && g.activeFaces > targetFaceCount {
		item := heap.Pop(h).(*edgeItem)
		if item.stale(g) {
			continue
		}
		if opts.AccuracyThreshold > 0 && item.cost > opts.AccuracyThreshold {
			break // heap is a min-heap: no remaining entry can cost less
		}
		if g.verts[item.v0].pinned && g.verts[item.v1].pinned {
			continue
		}
		if g.blocksPerimeterCollapse(item.v0, item.v1) {
			continue
		}
		if opts.PreserveTopology && !g.linkConditionHolds(item.v0, item.v1) {
			continue
		}
		if violatesFaceGuards(g, item, opts) {
			continue
		}
		collapseEdge(g, item)
		for n := range g.verts[item.v0].nbrs {
			pushEdge(g, h, item.v0, n)
		}
	}

	return rebuildMesh(g), nil
}

// accumulateQuadrics computes each active vertex's initial quadric: the sum
// of its incident faces' plane quadrics, plus a perimeter-penalty quadric
// along any boundary edge it touches (spec §4.A: "boundary edges receive an
// additional penalty discouraging erosion of open borders").
func accumulateQuadrics(g *graph, opts Options) {
	for _, f := range g.faces {
		if !f.active {
			continue
		}
		p0, p1, p2 := g.verts[f.v[0]].pos, g.verts[f.v[1]].pos, g.verts[f.v[2]].pos
		q := spatial.TriangleQuadric(p0, p1, p2, opts.WeightByArea)
		for _, v := range f.v {
			g.verts[v].quadric = g.verts[v].quadric.Add(q)
		}
	}

	if opts.PerimeterPenalty == 0 {
		return
	}
	edgeFaceCount := make(map[[2]int]int)
	edgeFace := make(map[[2]int]int)
	key := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	for fh, f := range g.faces {
		if !f.active {
			continue
		}
		edges := [3][2]int{{f.v[0], f.v[1]}, {f.v[1], f.v[2]}, {f.v[2], f.v[0]}}
		for _, e := range edges {
			k := key(e[0], e[1])
			edgeFaceCount[k]++
			edgeFace[k] = fh
		}
	}
	for k, count := range edgeFaceCount {
		if count != 1 {
			continue
		}
		a, b := k[0], k[1]
		f := g.faces[edgeFace[k]]
		p0, p1, p2 := g.verts[f.v[0]].pos, g.verts[f.v[1]].pos, g.verts[f.v[2]].pos
		faceNormal := spatial.TriangleNormal(p0, p1, p2)
		pa, pb := g.verts[a].pos, g.verts[b].pos
		edgeDir := pb.Sub(pa)
		l := edgeDir.Len()
		if l < 1e-20 {
			continue
		}
		edgeDir = edgeDir.Mul(1 / l)
		n := edgeDir.Cross(faceNormal)
		if n.Len() < 1e-20 {
			continue
		}
		n = n.Normalize()
		d := -n.Dot(pa)
		pq := spatial.PlaneQuadric(n, d).Scale(opts.PerimeterPenalty * l)
		g.verts[a].quadric = g.verts[a].quadric.Add(pq)
		g.verts[b].quadric = g.verts[b].quadric.Add(pq)
	}
}

// computeEdge evaluates the cost and target position of collapsing (v0,v1)
// as the graph currently stands, per spec §4.A step 3: minimize the summed
// quadric over the optimal point, falling back to the cheapest of
// {src, dst, midpoint} when the quadric is singular.
func computeEdge(g *graph, v0, v1 int) (cost float64, target spatial.Vec3, ok bool) {
	a, b := &g.verts[v0], &g.verts[v1]
	if a.pinned && b.pinned {
		return 0, spatial.Vec3{}, false
	}
	q := a.quadric.Add(b.quadric)

	if a.pinned {
		return q.Eval(a.pos), a.pos, true
	}
	if b.pinned {
		return q.Eval(b.pos), b.pos, true
	}

	// spec §4.A step 3: if exactly one endpoint lies on the perimeter, the
	// merged vertex snaps to it instead of an interior-optimal point, so a
	// collapse can never pull the open border inward.
	if a.onPerimeter != b.onPerimeter {
		if a.onPerimeter {
			return q.Eval(a.pos), a.pos, true
		}
		return q.Eval(b.pos), b.pos, true
	}

	if v, okOpt := q.OptimalPoint(); okOpt {
		return q.Eval(v), v, true
	}

	mid := a.pos.Add(b.pos).Mul(0.5)
	candidates := []spatial.Vec3{a.pos, b.pos, mid}
	best := candidates[0]
	bestCost := q.Eval(best)
	for _, c := range candidates[1:] {
		if cc := q.Eval(c); cc < bestCost {
			bestCost, best = cc, c
		}
	}
	return bestCost, best, true
}

func pushEdge(g *graph, h *edgeHeap, v0, v1 int) {
	if v0 == v1 || !g.verts[v0].active || !g.verts[v1].active {
		return
	}
	cost, target, ok := computeEdge(g, v0, v1)
	if !ok {
		return
	}
	heap.Push(h, &edgeItem{
		v0: v0, v1: v1,
		v0ver: g.verts[v0].version, v1ver: g.verts[v1].version,
		cost: cost, target: target,
	})
}

// violatesFaceGuards checks AvoidFlips and AvoidSmallTriangles against every
// face that survives collapsing item.v1 into item.v0 at item.target.
func violatesFaceGuards(g *graph, item *edgeItem, opts Options) bool {
	if !opts.AvoidFlips && !opts.AvoidSmallTriangles {
		return false
	}
	flipCos := opts.flipThresholdOrDefault()

	check := func(v int) bool {
		for fh := range g.verts[v].faces {
			f := g.faces[fh]
			if containsBoth(f, item.v0, item.v1) {
				continue // degenerate after collapse, not a surviving face
			}
			oldP0, oldP1, oldP2 := g.verts[f.v[0]].pos, g.verts[f.v[1]].pos, g.verts[f.v[2]].pos
			newP0, newP1, newP2 := g.faceTriangle(f, v, item.target)

			if opts.AvoidFlips {
				oldN := spatial.TriangleNormal(oldP0, oldP1, oldP2)
				newN := spatial.TriangleNormal(newP0, newP1, newP2)
				if oldN.Dot(newN) < flipCos {
					return true
				}
			}
			if opts.AvoidSmallTriangles {
				if spatial.SmallestAngle(newP0, newP1, newP2) < opts.AngleThreshold {
					return true
				}
			}
		}
		return false
	}
	return check(item.v0) || check(item.v1)
}

func containsBoth(f faceNode, a, b int) bool {
	has := func(v int) bool { return f.v[0] == v || f.v[1] == v || f.v[2] == v }
	return has(a) && has(b)
}

// collapseEdge merges item.v1 into item.v0: v0 takes the collapsed target
// position and the summed quadric, every face shared by v0 and v1 is
// retired as degenerate, every other face touching v1 is rewritten to
// reference v0, and v1 itself is retired.
func collapseEdge(g *graph, item *edgeItem) {
	v0, v1 := item.v0, item.v1
	a, b := &g.verts[v0], &g.verts[v1]

	newQuadric := a.quadric.Add(b.quadric)
	a.pos = item.target
	a.quadric = newQuadric
	a.pinned = a.pinned || b.pinned
	a.onPerimeter = a.onPerimeter || b.onPerimeter

	for n := range b.nbrs {
		if g.perimeterEdges[edgeKey(v1, n)] {
			delete(g.perimeterEdges, edgeKey(v1, n))
			if n != v0 {
				g.perimeterEdges[edgeKey(v0, n)] = true
			}
		}
	}
	delete(g.perimeterEdges, edgeKey(v0, v1))

	for fh := range b.faces {
		f := &g.faces[fh]
		if !f.active {
			continue
		}
		if containsBoth(*f, v0, v1) {
			f.active = false
			g.activeFaces--
			for _, v := range f.v {
				delete(g.verts[v].faces, fh)
			}
			continue
		}
		for i, v := range f.v {
			if v == v1 {
				f.v[i] = v0
			}
		}
		a.faces[fh] = true
	}

	for n := range b.nbrs {
		if n == v0 {
			continue
		}
		delete(g.verts[n].nbrs, v1)
		g.verts[n].nbrs[v0] = true
		a.nbrs[n] = true
	}
	delete(a.nbrs, v1)

	b.active = false
	b.faces = nil
	b.nbrs = nil
	a.version++
}

// rebuildMesh collects the surviving vertices and faces into a fresh mesh,
// remapping handles to a dense index range. Each surviving face is counted
// exactly once even if, as a rare result of repeated edge remapping, two
// retired-but-not-yet-collapsed handles briefly described the same triangle
// twice: the final face set is de-duplicated by vertex-index triple before
// being written out, rather than relying on an incremental decrement that
// can't distinguish "this face disappeared" from "this face now has a
// twin".
func rebuildMesh(g *graph) *meshmodel.Mesh {
	remap := make([]int, len(g.verts))
	out := meshmodel.New(len(g.verts), g.activeFaces)
	for v, node := range g.verts {
		if !node.active {
			remap[v] = -1
			continue
		}
		remap[v] = len(out.Positions)
		out.Positions = append(out.Positions, node.pos)
	}

	seen := make(map[[3]int]bool, g.activeFaces)
	for _, f := range g.faces {
		if !f.active {
			continue
		}
		nv := [3]int{remap[f.v[0]], remap[f.v[1]], remap[f.v[2]]}
		if nv[0] == nv[1] || nv[1] == nv[2] || nv[0] == nv[2] {
			continue
		}
		sorted := nv
		if sorted[0] > sorted[1] {
			sorted[0], sorted[1] = sorted[1], sorted[0]
		}
		if sorted[1] > sorted[2] {
			sorted[1], sorted[2] = sorted[2], sorted[1]
		}
		if sorted[0] > sorted[1] {
			sorted[0], sorted[1] = sorted[1], sorted[0]
		}
		if seen[sorted] {
			continue
		}
		seen[sorted] = true
		out.Faces = append(out.Faces, meshmodel.Face{nv[0], nv[1], nv[2]})
	}

	out.ComputeNormals()
	return out
}

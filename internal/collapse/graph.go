package collapse

import (
	"math"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// vertexNode is one arena slot. Handles into graph.verts never move once
// allocated; a collapsed vertex is retired by clearing active rather than
// removing it from the slice, so every handle held by a stale heap entry
// stays a valid (if dead) index instead of a dangling pointer.
type vertexNode struct {
	pos         spatial.Vec3
	quadric     spatial.Quadric
	active      bool
	pinned      bool
	onPerimeter bool
	version     int
	faces       map[int]bool
	nbrs        map[int]bool
}

// faceNode is one arena slot for a triangle, addressed by the same kind of
// handle as vertexNode.
type faceNode struct {
	v      [3]int
	active bool
}

// graph is the arena-addressed collapsable mesh: vertices and faces
// referenced by handle (slice index) instead of pointer, so a collapse only
// ever mutates slice elements in place.
type graph struct {
	verts []vertexNode
	faces []faceNode

	activeFaces int

	// perimeterEdges marks every edge (keyed by sorted vertex handles) that
	// bounds exactly one face, i.e. lies on the mesh's open border.
	perimeterEdges map[[2]int]bool
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (g *graph) isPerimeterEdge(a, b int) bool {
	return g.perimeterEdges[edgeKey(a, b)]
}

// blocksPerimeterCollapse reports whether (a,b) joins two perimeter
// vertices along an edge that is not itself on the perimeter: collapsing it
// would zip the open border shut rather than simplify it (spec §4.A step
// 4).
func (g *graph) blocksPerimeterCollapse(a, b int) bool {
	return g.verts[a].onPerimeter && g.verts[b].onPerimeter && !g.isPerimeterEdge(a, b)
}

// buildGraph deep-copies mesh into a fresh arena, merging coincident
// vertices on the way in (spec §4.A step 1: "deep-copy the mesh; discard
// attributes except position; deduplicate vertices"). origToNew maps each
// input vertex index to its arena handle, for resolving PinnedVertices.
func buildGraph(mesh *meshmodel.Mesh) (g *graph, origToNew []int) {
	type key [3]int64
	const quant = 1e6

	round := func(v spatial.Vec3) key {
		return key{
			int64(math.Round(v.X() * quant)),
			int64(math.Round(v.Y() * quant)),
			int64(math.Round(v.Z() * quant)),
		}
	}

	seen := make(map[key]int, len(mesh.Positions))
	origToNew = make([]int, len(mesh.Positions))
	g = &graph{}

	for i, p := range mesh.Positions {
		k := round(p)
		if h, ok := seen[k]; ok {
			origToNew[i] = h
			continue
		}
		h := len(g.verts)
		g.verts = append(g.verts, vertexNode{
			pos:    p,
			active: true,
			faces:  make(map[int]bool),
			nbrs:   make(map[int]bool),
		})
		seen[k] = h
		origToNew[i] = h
	}

	for _, f := range mesh.Faces {
		v0, v1, v2 := origToNew[f[0]], origToNew[f[1]], origToNew[f[2]]
		if v0 == v1 || v1 == v2 || v0 == v2 {
			continue // degenerate once duplicate vertices are merged
		}
		fh := len(g.faces)
		g.faces = append(g.faces, faceNode{v: [3]int{v0, v1, v2}, active: true})
		g.activeFaces++
		for _, v := range [3]int{v0, v1, v2} {
			g.verts[v].faces[fh] = true
		}
		g.addNeighbors(v0, v1)
		g.addNeighbors(v1, v2)
		g.addNeighbors(v0, v2)
	}
	g.markPerimeter()
	return g, origToNew
}

// markPerimeter finds every edge bounding exactly one face (spec §3: "a
// boolean marks whether the edge lies on a perimeter") and sets the
// on-perimeter flag on both of its endpoints.
func (g *graph) markPerimeter() {
	edgeFaceCount := make(map[[2]int]int)
	for _, f := range g.faces {
		if !f.active {
			continue
		}
		edgeFaceCount[edgeKey(f.v[0], f.v[1])]++
		edgeFaceCount[edgeKey(f.v[1], f.v[2])]++
		edgeFaceCount[edgeKey(f.v[2], f.v[0])]++
	}
	g.perimeterEdges = make(map[[2]int]bool, len(edgeFaceCount))
	for k, count := range edgeFaceCount {
		if count != 1 {
			continue
		}
		g.perimeterEdges[k] = true
		g.verts[k[0]].onPerimeter = true
		g.verts[k[1]].onPerimeter = true
	}
}

func (g *graph) addNeighbors(a, b int) {
	g.verts[a].nbrs[b] = true
	g.verts[b].nbrs[a] = true
}

// faceTriangle returns the current positions of a face's three vertices,
// substituting sub for any vertex equal to target (used to evaluate a
// face's shape as it would be after a proposed collapse, without mutating
// the arena).
func (g *graph) faceTriangle(f faceNode, target int, sub spatial.Vec3) (p0, p1, p2 spatial.Vec3) {
	pos := func(v int) spatial.Vec3 {
		if v == target {
			return sub
		}
		return g.verts[v].pos
	}
	return pos(f.v[0]), pos(f.v[1]), pos(f.v[2])
}

// sharedFaces returns the handles of faces incident to both a and b.
func (g *graph) sharedFaces(a, b int) []int {
	var out []int
	for fh := range g.verts[a].faces {
		if g.verts[b].faces[fh] {
			out = append(out, fh)
		}
	}
	return out
}

// linkConditionHolds reports whether collapsing edge (a,b) preserves the
// mesh's local topology: the only vertices adjacent to both a and b must be
// the vertices opposite the edge in its (at most two) incident faces.
// Violating this merges unrelated parts of the surface together.
func (g *graph) linkConditionHolds(a, b int) bool {
	shared := g.sharedFaces(a, b)
	if len(shared) == 0 || len(shared) > 2 {
		return false
	}
	opposite := make(map[int]bool, len(shared))
	for _, fh := range shared {
		f := g.faces[fh]
		for _, v := range f.v {
			if v != a && v != b {
				opposite[v] = true
			}
		}
	}
	for n := range g.verts[a].nbrs {
		if n == b || !g.verts[n].active {
			continue
		}
		if g.verts[b].nbrs[n] && !opposite[n] {
			return false
		}
	}
	if tetrahedronInterior(g, opposite) {
		return false
	}
	return true
}

// tetrahedronInterior reports whether the (at most two) vertices opposite
// edge (a,b) across its shared faces are themselves adjacent. Since neither
// of the edge's own two faces contains that opposite-opposite edge, any such
// adjacency comes from two other faces closing the surface around it: the
// degenerate case of a closed tetrahedron, where collapsing (a,b) passes the
// plain link condition but collapses the solid's interior instead of
// simplifying an open surface.
func tetrahedronInterior(g *graph, opposite map[int]bool) bool {
	if len(opposite) != 2 {
		return false
	}
	var x, y int
	first := true
	for v := range opposite {
		if first {
			x = v
			first = false
		} else {
			y = v
		}
	}
	return g.verts[x].nbrs[y]
}

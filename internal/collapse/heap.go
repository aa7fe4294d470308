package collapse

import "github.com/landform/terracore/internal/spatial"

// edgeItem is one candidate collapse, as it looked when pushed. v0ver/v1ver
// snapshot the endpoints' version counters; if either has since changed the
// entry is stale and is discarded lazily when popped, the same pattern
// katalvlaran-lvlath's Prim implementation uses for its edge heap (a
// "visited" check in place of removing stale entries from the middle of the
// heap).
type edgeItem struct {
	v0, v1       int
	v0ver, v1ver int
	cost         float64
	target       spatial.Vec3
}

// edgeHeap implements container/heap.Interface ordered by ascending cost.
type edgeHeap []*edgeItem

func (h edgeHeap) Len() int            { return len(h) }
func (h edgeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h edgeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x interface{}) { *h = append(*h, x.(*edgeItem)) }
func (h *edgeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// stale reports whether either endpoint has moved on since this entry was
// pushed, or been retired entirely.
func (it *edgeItem) stale(g *graph) bool {
	if !g.verts[it.v0].active || !g.verts[it.v1].active {
		return true
	}
	return g.verts[it.v0].version != it.v0ver || g.verts[it.v1].version != it.v1ver
}

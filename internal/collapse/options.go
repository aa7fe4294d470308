package collapse

// Options configures a single Decimate run. The zero value turns every
// option off: no perimeter penalty, unweighted quadrics, no topology, flip
// or small-triangle guard, no pinned vertices and no accuracy threshold.
type Options struct {
	// PerimeterPenalty scales an extra quadric added along boundary edges
	// (edges touched by exactly one face) so the simplifier resists eating
	// into open borders.
	PerimeterPenalty float64

	// PreserveTopology rejects a collapse that would violate the link
	// condition: merging two vertices whose shared neighborhood is not
	// exactly the edge's two opposite vertices would change the mesh's
	// genus or create a non-manifold vertex.
	PreserveTopology bool

	// WeightByArea scales each face's quadric contribution by its area
	// before accumulating it onto the face's three vertices.
	WeightByArea bool

	// AvoidFlips rejects a collapse if it would flip the normal of any
	// face surviving the collapse past FlipThreshold (the cosine of the
	// angle between the face's old and new normal).
	AvoidFlips    bool
	FlipThreshold float64

	// AvoidSmallTriangles rejects a collapse that would leave a surviving
	// face with an interior angle below AngleThreshold radians.
	AvoidSmallTriangles bool
	AngleThreshold      float64

	// PinnedVertices holds original vertex indices (pre-deduplication)
	// whose position must never move. A pinned vertex can still absorb a
	// neighbor; it only refuses to relocate to the quadric-optimal point.
	PinnedVertices map[int]bool

	// AccuracyThreshold stops the whole run, not just one collapse, the
	// moment the cheapest remaining edge would cost more than this. Zero
	// disables the check (run until Decimate's targetFaceCount is reached or no
	// collapsible edge remains).
	AccuracyThreshold float64
}

func (o Options) flipThresholdOrDefault() float64 {
	if o.FlipThreshold == 0 {
		return 0.0 // dot(oldNormal,newNormal) < 0 means a full flip
	}
	return o.FlipThreshold
}

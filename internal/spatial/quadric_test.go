package spatial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlaneQuadricEvalZeroOnPlane(t *testing.T) {
	n := Vec3{0, 0, 1}
	q := PlaneQuadric(n, 0) // plane z=0
	require.InDelta(t, 0, q.Eval(Vec3{5, -3, 0}), 1e-9)
	require.InDelta(t, 4, q.Eval(Vec3{0, 0, 2}), 1e-9)
}

func TestTriangleQuadricDegenerate(t *testing.T) {
	q := TriangleQuadric(Vec3{0, 0, 0}, Vec3{0, 0, 0}, Vec3{1, 0, 0}, false)
	require.Equal(t, Quadric{}, q)
}

func TestOptimalPointMinimizesSumOfPlaneQuadrics(t *testing.T) {
	// Three mutually orthogonal planes through the origin: x=0, y=0, z=0.
	q := PlaneQuadric(Vec3{1, 0, 0}, 0).
		Add(PlaneQuadric(Vec3{0, 1, 0}, 0)).
		Add(PlaneQuadric(Vec3{0, 0, 1}, 0))
	v, ok := q.OptimalPoint()
	require.True(t, ok)
	require.InDelta(t, 0, v.X(), 1e-9)
	require.InDelta(t, 0, v.Y(), 1e-9)
	require.InDelta(t, 0, v.Z(), 1e-9)
}

func TestOptimalPointSingularFallsBack(t *testing.T) {
	// A single plane quadric is rank-1: the 3x3 system is singular.
	q := PlaneQuadric(Vec3{1, 0, 0}, -1)
	_, ok := q.OptimalPoint()
	require.False(t, ok)
}

func TestAABBLongestAxisTieBreaksX(t *testing.T) {
	b := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{5, 5, 1}}
	require.Equal(t, 0, b.LongestAxis())
}

func TestRayIntersectTriangle(t *testing.T) {
	r := Ray{Origin: Vec3{0, 0, -5}, Dir: Vec3{0, 0, 1}}
	p0 := Vec3{-1, -1, 0}
	p1 := Vec3{1, -1, 0}
	p2 := Vec3{0, 1, 0}
	dist, ok := r.IntersectTriangle(p0, p1, p2)
	require.True(t, ok)
	require.InDelta(t, 5, dist, 1e-9)
}

func TestBuildTriangleIndexEmptyErrors(t *testing.T) {
	_, err := BuildTriangleIndex(nil)
	require.Error(t, err)
}

func TestTriangleIndexNearest(t *testing.T) {
	tris := []Triangle{
		{P0: Vec3{-1, -1, 0}, P1: Vec3{1, -1, 0}, P2: Vec3{0, 1, 0}, ID: 7},
	}
	idx, err := BuildTriangleIndex(tris)
	require.NoError(t, err)

	r := Ray{Origin: Vec3{0, 0, -5}, Dir: Vec3{0, 0, 1}}
	dist, id, ok := idx.Nearest(r)
	require.True(t, ok)
	require.Equal(t, 7, id)
	require.InDelta(t, 5, dist, 1e-9)

	miss := Ray{Origin: Vec3{10, 10, -5}, Dir: Vec3{0, 0, 1}}
	_, _, ok = idx.Nearest(miss)
	require.False(t, ok)
}

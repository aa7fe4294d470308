package parenttile

import (
	"math/rand"
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func unitTriangleMesh() *meshmodel.Mesh {
	m := meshmodel.New(3, 1)
	m.Positions = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Faces = []meshmodel.Face{{0, 1, 2}}
	m.ComputeNormals()
	return m
}

func TestGatherChildrenFiltersByExpandedBounds(t *testing.T) {
	near := &Child{Mesh: unitTriangleMesh()}
	farMesh := unitTriangleMesh()
	for i := range farMesh.Positions {
		farMesh.Positions[i] = farMesh.Positions[i].Add(spatial.Vec3{1000, 1000, 1000})
	}
	far := &Child{Mesh: farMesh}

	got := GatherChildren([]*Child{near, far}, spatial.AABB{Min: spatial.Vec3{-1, -1, -1}, Max: spatial.Vec3{1, 1, 1}}, 0.5)
	require.Len(t, got, 1)
	require.Same(t, near, got[0])
}

func TestSamplePointsStaysOnTriangle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := &Child{Mesh: unitTriangleMesh()}
	pts := SamplePoints([]*Child{c}, 50, rng)
	require.Len(t, pts, 50)
	for _, p := range pts {
		require.GreaterOrEqual(t, p.Position.X(), -1e-9)
		require.GreaterOrEqual(t, p.Position.Y(), -1e-9)
		require.InDelta(t, 0, p.Position.Z(), 1e-9)
		require.LessOrEqual(t, p.Position.X()+p.Position.Y(), 1+1e-9)
	}
}

func TestSamplePointsEmptyWhenNoArea(t *testing.T) {
	degenerate := meshmodel.New(3, 1)
	degenerate.Positions = []spatial.Vec3{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	degenerate.Faces = []meshmodel.Face{{0, 1, 2}}
	rng := rand.New(rand.NewSource(1))
	pts := SamplePoints([]*Child{{Mesh: degenerate}}, 10, rng)
	require.Empty(t, pts)
}

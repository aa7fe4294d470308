package parenttile

import (
	"math/rand"
	"testing"

	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestGeometricErrorIsZeroForIdenticalMeshes(t *testing.T) {
	m := unitTriangleMesh()
	child := &Child{Mesh: m}
	rng := rand.New(rand.NewSource(1))
	err := GeometricError(m, []*Child{child}, 32, rng)
	require.InDelta(t, 0, err, 1e-6)
}

func TestGeometricErrorPositiveForOffsetMesh(t *testing.T) {
	parent := unitTriangleMesh()
	childMesh := unitTriangleMesh()
	for i := range childMesh.Positions {
		childMesh.Positions[i] = childMesh.Positions[i].Add(spatial.Vec3{0, 0, 1})
	}
	rng := rand.New(rand.NewSource(1))
	err := GeometricError(parent, []*Child{{Mesh: childMesh}}, 32, rng)
	require.InDelta(t, 1, err, 1e-6)
}

func TestTextureErrorScalesWithTexelBudget(t *testing.T) {
	m := unitTriangleMesh()
	small := TextureError(m, 1024, 1024, 1)
	large := TextureError(m, 16, 16, 1)
	require.Greater(t, large, small)
}

func TestTextureErrorZeroWithoutTextureDimensions(t *testing.T) {
	m := unitTriangleMesh()
	require.Equal(t, 0.0, TextureError(m, 0, 0, 1))
}

func TestAggregateErrorTakesMaxOfOwnAndChildren(t *testing.T) {
	got := AggregateError(1.0, 2.0, []float64{0.5, 3.0})
	require.Equal(t, 5.0, got)
}

func TestAggregateErrorWithNoChildren(t *testing.T) {
	got := AggregateError(1.0, 2.0, nil)
	require.Equal(t, 2.0, got)
}

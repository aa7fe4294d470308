package recon

import (
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

// twoTriangleIslands builds a mesh with one large triangle near the
// origin and one tiny, disconnected triangle far away.
func twoTriangleIslands() *meshmodel.Mesh {
	m := meshmodel.New(6, 2)
	m.Positions = []spatial.Vec3{
		{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, // big island
		{100, 100, 100}, {100.01, 100, 100}, {100, 100.01, 100}, // tiny island
	}
	m.Faces = []meshmodel.Face{{0, 1, 2}, {3, 4, 5}}
	return m
}

func TestRemoveSmallIslandsDropsTinyComponent(t *testing.T) {
	m := twoTriangleIslands()
	out := RemoveSmallIslands(m, 0.01)
	require.Equal(t, 1, out.FaceCount())
	require.NoError(t, out.Validate())
}

func TestRemoveSmallIslandsKeepsAllWhenRatioIsZero(t *testing.T) {
	m := twoTriangleIslands()
	out := RemoveSmallIslands(m, 0)
	require.Equal(t, 2, out.FaceCount())
}

func TestClipToEnvelopeDropsOutOfBoundsFaces(t *testing.T) {
	m := meshmodel.New(6, 2)
	m.Positions = []spatial.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{50, 50, 50}, {51, 50, 50}, {50, 51, 50},
	}
	m.Faces = []meshmodel.Face{{0, 1, 2}, {3, 4, 5}}

	envelope := spatial.AABB{Min: spatial.Vec3{-5, -5, -5}, Max: spatial.Vec3{5, 5, 5}}
	out := ClipToEnvelope(m, envelope)
	require.Equal(t, 1, out.FaceCount())
}

package parenttile

import (
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestTransferVertexColorsPicksNearestChild(t *testing.T) {
	parent := meshmodel.New(1, 0)
	parent.Positions = []spatial.Vec3{{0.1, 0.1, 0}}

	near := unitTriangleMesh()
	nearChild := &Child{
		Mesh:       near,
		Colors:     []spatial.Vec3{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}},
		Confidence: []float64{1, 1, 1},
	}

	farMesh := unitTriangleMesh()
	for i := range farMesh.Positions {
		farMesh.Positions[i] = farMesh.Positions[i].Add(spatial.Vec3{100, 100, 100})
	}
	farChild := &Child{
		Mesh:       farMesh,
		Colors:     []spatial.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		Confidence: []float64{1, 1, 1},
	}

	colors := TransferVertexColors(parent, []*Child{nearChild, farChild})
	require.Len(t, colors, 1)
	require.Equal(t, spatial.Vec3{1, 0, 0}, colors[0])
}

func TestTransferVertexColorsPrefersConfidenceOnTie(t *testing.T) {
	parent := meshmodel.New(1, 0)
	parent.Positions = []spatial.Vec3{{0, 0, 5}}

	below := unitTriangleMesh()
	belowChild := &Child{
		Mesh:       below,
		Colors:     []spatial.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		Confidence: []float64{0.1, 0.1, 0.1},
	}

	above := unitTriangleMesh()
	for i := range above.Positions {
		above.Positions[i] = above.Positions[i].Add(spatial.Vec3{0, 0, 10})
	}
	aboveChild := &Child{
		Mesh:       above,
		Colors:     []spatial.Vec3{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
		Confidence: []float64{9, 9, 9},
	}

	colors := TransferVertexColors(parent, []*Child{belowChild, aboveChild})
	require.Len(t, colors, 1)
	require.Equal(t, spatial.Vec3{0, 0, 0}, colors[0])
}

package parenttile

import (
	"context"
	"math/rand"
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestBuildParentRejectsNoIntersectingChildren(t *testing.T) {
	child := &Child{Mesh: unitTriangleMesh()}
	far := spatial.AABB{Min: spatial.Vec3{1000, 1000, 1000}, Max: spatial.Vec3{1001, 1001, 1001}}
	rng := rand.New(rand.NewSource(1))

	_, err := BuildParent(context.Background(), far, []*Child{child}, nil, Config{
		TargetFaceCount: 10, SampleDensityPerFace: 1,
	}, rng)
	require.Error(t, err)
}

func TestBuildParentFailsWhenReconstructorMissing(t *testing.T) {
	child := &Child{Mesh: unitTriangleMesh()}
	bounds := child.Mesh.Bounds()
	rng := rand.New(rand.NewSource(1))

	_, err := BuildParent(context.Background(), bounds, []*Child{child}, nil, Config{
		TargetFaceCount:      1,
		SampleDensityPerFace: 10,
		ReconExe:             "terracore-recon-tool-that-does-not-exist",
		WorkDir:              t.TempDir(),
	}, rng)
	require.Error(t, err)
}

func TestPinBoundingBoxCornersMarksNearestVertices(t *testing.T) {
	mesh := meshmodel.New(8, 0)
	for dx := 0.0; dx <= 1; dx++ {
		for dy := 0.0; dy <= 1; dy++ {
			for dz := 0.0; dz <= 1; dz++ {
				mesh.Positions = append(mesh.Positions, spatial.Vec3{dx, dy, dz})
			}
		}
	}
	bounds := spatial.AABB{Min: spatial.Vec3{0, 0, 0}, Max: spatial.Vec3{1, 1, 1}}
	pinned := pinBoundingBoxCorners(mesh, bounds)
	require.Len(t, pinned, 8)
}

func TestNearestVertexFindsClosest(t *testing.T) {
	mesh := unitTriangleMesh()
	idx, ok := nearestVertex(mesh, spatial.Vec3{0.9, 0.1, 0})
	require.True(t, ok)
	require.Equal(t, 1, idx)
}

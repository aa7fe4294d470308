package recon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestWritePointCloudWritesPositionsAndNormals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.pts")

	points := []Point{
		{Position: spatial.Vec3{1, 2, 3}, Normal: spatial.Vec3{0, 0, 1}},
		{Position: spatial.Vec3{4, 5, 6}},
	}
	require.NoError(t, WritePointCloud(path, points))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "1 2 3 0 0 1", lines[0])
	require.Equal(t, "4 5 6", lines[1])
}

func TestPointsFromMeshCarriesAttributes(t *testing.T) {
	m := meshmodel.New(1, 0)
	m.Positions = []spatial.Vec3{{1, 1, 1}}
	m.Normals = []spatial.Vec3{{0, 1, 0}}

	pts := PointsFromMesh(m)
	require.Len(t, pts, 1)
	require.Equal(t, spatial.Vec3{0, 1, 0}, pts[0].Normal)
	require.False(t, pts[0].HasColor)
}

func TestReadMeshOBJRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.obj")
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(path, []byte(obj), 0o644))

	mesh, err := ReadMeshOBJ(path)
	require.NoError(t, err)
	require.Equal(t, 3, len(mesh.Positions))
	require.Equal(t, 1, mesh.FaceCount())
	require.Equal(t, meshmodel.Face{0, 1, 2}, mesh.Faces[0])
}

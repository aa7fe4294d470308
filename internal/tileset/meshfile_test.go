package tileset

import (
	"image/color"
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func triangleMesh() *meshmodel.Mesh {
	m := meshmodel.New(3, 1)
	m.Positions = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Faces = []meshmodel.Face{{0, 1, 2}}
	return m
}

func TestEncodeDecodeMeshPositionsOnly(t *testing.T) {
	m := triangleMesh()
	decoded, err := DecodeMesh(EncodeMesh(m))
	require.NoError(t, err)
	require.Equal(t, m.Positions, decoded.Positions)
	require.Equal(t, m.Faces, decoded.Faces)
	require.Nil(t, decoded.Normals)
	require.Nil(t, decoded.UVs)
	require.Nil(t, decoded.Colors)
}

func TestEncodeDecodeMeshWithAllAttributes(t *testing.T) {
	m := triangleMesh()
	m.Normals = []spatial.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	m.UVs = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Colors = []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}

	decoded, err := DecodeMesh(EncodeMesh(m))
	require.NoError(t, err)
	require.Equal(t, m.Positions, decoded.Positions)
	require.Equal(t, m.Normals, decoded.Normals)
	require.InDeltaSlice(t, []float64{0, 0}, []float64{decoded.UVs[0].X(), decoded.UVs[0].Y()}, 1e-6)
	require.Equal(t, m.Colors, decoded.Colors)
}

func TestDecodeMeshRejectsBadMagic(t *testing.T) {
	_, err := DecodeMesh([]byte("not a mesh file at all"))
	require.Error(t, err)
}

func TestDecodeMeshRejectsTruncatedData(t *testing.T) {
	data := EncodeMesh(triangleMesh())
	_, err := DecodeMesh(data[:len(data)-4])
	require.Error(t, err)
}

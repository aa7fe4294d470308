package parenttile

import (
	"testing"

	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestBuildTextureProducesRequestedDimensions(t *testing.T) {
	m := unitTriangleMesh()
	colors := []spatial.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	img := BuildTexture(m, colors, 32, 16)
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 16, img.Bounds().Dy())
}

func TestBuildTextureFillsSomeNonZeroPixels(t *testing.T) {
	m := unitTriangleMesh()
	m.UVs = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	colors := []spatial.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	img := BuildTexture(m, colors, 16, 16)

	nonZero := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				nonZero++
			}
		}
	}
	require.Greater(t, nonZero, 0)
}

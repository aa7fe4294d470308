package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestBakeVertexColorsSamplesTextureAtUV(t *testing.T) {
	m := meshmodel.New(3, 1)
	m.Positions = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.UVs = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Faces = []meshmodel.Face{{0, 1, 2}}

	tex := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			tex.Set(x, y, color.RGBA{100, 150, 200, 255})
		}
	}

	colors, confidence := BakeVertexColors(m, tex, nil)
	require.Len(t, colors, 3)
	require.InDelta(t, 100.0/255, colors[0].X(), 1e-6)
	require.InDelta(t, 150.0/255, colors[0].Y(), 1e-6)
	require.InDelta(t, 200.0/255, colors[0].Z(), 1e-6)
	require.Equal(t, []float64{1, 1, 1}, confidence)
}

func TestBakeVertexColorsZeroConfidenceForUnassignedTexel(t *testing.T) {
	m := meshmodel.New(3, 1)
	m.Positions = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.UVs = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Faces = []meshmodel.Face{{0, 1, 2}}

	tex := image.NewRGBA(image.Rect(0, 0, 4, 4))
	idx := encode.NewIndexImage(4, 4)
	idx.Set(0, 3, 5, 1, 1) // only the texel under vertex 2's UV is assigned

	colors, confidence := BakeVertexColors(m, tex, idx)
	require.Len(t, colors, 3)
	require.Equal(t, 0.0, confidence[0])
	require.Equal(t, 1.0, confidence[2])
}

package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

// quadMesh returns a single unit-square quad (two triangles) in the XY
// plane at z=0, with a trivial full-square UV atlas.
func quadMesh() *meshmodel.Mesh {
	m := meshmodel.New(4, 2)
	m.Positions = []spatial.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
	m.UVs = []spatial.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
	m.Faces = []meshmodel.Face{{0, 1, 2}, {0, 2, 3}}
	m.ComputeNormals()
	return m
}

func solidColorObservation(idx uint32, origin spatial.Vec3, c color.RGBA) (*observation.Observation, observation.Loader) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	obs := &observation.Observation{
		Index: idx,
		Camera: observation.Camera{
			Width: 64, Height: 64,
			Fx: 64, Fy: 64,
			Cx: 32, Cy: 32,
		},
		// Looking straight down the +Z axis at the quad from above.
		Pose: spatial.Mat4{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			-origin.X(), -origin.Y(), -origin.Z(), 1,
		},
		Origin: origin,
	}
	loader := func(want uint32) (image.Image, int64, error) {
		return img, int64(64 * 64 * 4), nil
	}
	return obs, loader
}

func TestLeafRejectsMeshWithoutUVs(t *testing.T) {
	m := meshmodel.New(3, 1)
	m.Positions = []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Faces = []meshmodel.Face{{0, 1, 2}}
	_, _, err := Leaf(m, nil, nil, nil, DefaultConfig())
	require.ErrorIs(t, err, ErrNoUVs)
}

func TestLeafPaintsFromSingleObservation(t *testing.T) {
	m := quadMesh()
	obs, loader := solidColorObservation(1, spatial.Vec3{0.5, 0.5, -5}, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	cache := observation.NewCache(1<<20, loader)

	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.MaxGrazingAngle = 0.01

	rgba, idxImg, err := Leaf(m, []*observation.Observation{obs}, cache, nil, cfg)
	require.NoError(t, err)

	c := rgba.RGBAAt(8, 8)
	require.EqualValues(t, 200, c.R)

	obsIdx, _, _ := idxImg.At(8, 8)
	require.EqualValues(t, 1, obsIdx)
}

func TestLeafLeavesUntexturedTexelsTransparent(t *testing.T) {
	m := quadMesh()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	rgba, _, err := Leaf(m, nil, observation.NewCache(1, nil), nil, cfg)
	require.NoError(t, err)
	c := rgba.RGBAAt(4, 4)
	require.EqualValues(t, 0, c.A)
}

func TestBilinearSampleInterpolatesBetweenPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 0, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 200, G: 0, B: 0, A: 255})

	// Halfway between the two pixel centers should blend to their midpoint.
	c := bilinearSample(img, 1.0, 0.5)
	require.InDelta(t, 100, c.R, 2)

	// Sampling exactly at a pixel's own center returns that pixel untouched.
	c = bilinearSample(img, 0.5, 0.5)
	require.EqualValues(t, 0, c.R)
	c = bilinearSample(img, 1.5, 0.5)
	require.EqualValues(t, 200, c.R)
}

func TestBilinearSampleClampsAtImageEdges(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: 50, G: 50, B: 50, A: 255})
		}
	}
	c := bilinearSample(img, -5, -5)
	require.EqualValues(t, 50, c.R)
	c = bilinearSample(img, 500, 500)
	require.EqualValues(t, 50, c.R)
}

func TestNaiveAtlasGivesEveryFaceItsOwnUVChart(t *testing.T) {
	m := quadMesh()
	m.UVs = nil
	out := NaiveAtlas(m)
	require.Equal(t, 2, out.FaceCount())
	require.Len(t, out.UVs, 6)
	require.NotEqual(t, out.Faces[0], out.Faces[1])
}

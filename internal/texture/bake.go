package texture

import (
	"image"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// BakeVertexColors samples tex at each of mesh's vertex UV coordinates,
// producing the per-vertex RGB (in [0,1]) and confidence arrays the Parent
// Tile Builder's color transfer step consumes from a finer tile
// (parenttile.Child.Colors/Confidence). idx, when non-nil, is consulted to
// give a vertex confidence 0 if its nearest texel was never assigned an
// observation (spec §3 Texel Provenance Record: an obsIndex of 0 means
// unassigned); with idx nil every vertex gets confidence 1.
func BakeVertexColors(mesh *meshmodel.Mesh, tex *image.RGBA, idx *encode.IndexImage) ([]spatial.Vec3, []float64) {
	colors := make([]spatial.Vec3, len(mesh.Positions))
	confidence := make([]float64, len(mesh.Positions))
	w, h := tex.Bounds().Dx(), tex.Bounds().Dy()

	for i, uv := range mesh.UVs {
		x := clampInt(int(uv.X()*float64(w)), 0, w-1)
		y := clampInt(int(uv.Y()*float64(h)), 0, h-1)

		c := tex.RGBAAt(x, y)
		colors[i] = spatial.Vec3{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}

		if idx == nil {
			confidence[i] = 1
			continue
		}
		obsIndex, _, _ := idx.At(x, y)
		if obsIndex != 0 {
			confidence[i] = 1
		}
	}
	return colors, confidence
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

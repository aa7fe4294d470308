package parenttile

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// BuildTexture rasterizes mesh's UV triangles (falling back to
// identityFaceUVs' planar XY projection if mesh has none) flat-shaded from
// vertexColors, at half of the requested resolution, then upsamples to
// the full width/height with a bilinear filter.
func BuildTexture(mesh *meshmodel.Mesh, vertexColors []spatial.Vec3, width, height int) *image.RGBA {
	renderW, renderH := max(width/2, 1), max(height/2, 1)
	low := image.NewRGBA(image.Rect(0, 0, renderW, renderH))

	uvs := mesh.UVs
	if uvs == nil {
		uvs = identityFaceUVs(mesh)
	}

	for _, f := range mesh.Faces {
		c := averageColor(vertexColors, f)
		rasterizeFlatTriangle(low, uvs[f[0]], uvs[f[1]], uvs[f[2]], c)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(out, out.Bounds(), low, low.Bounds(), draw.Over, nil)
	return out
}

// identityFaceUVs gives each vertex a UV from its X and Y position,
// normalized to [0,1] over the mesh's bounds (0.5 on an axis with zero
// extent), used only when mesh carries no UVs of its own (a bare
// reconstructed mesh straight out of recon.ReadMeshOBJ).
func identityFaceUVs(mesh *meshmodel.Mesh) []spatial.Vec3 {
	uvs := make([]spatial.Vec3, len(mesh.Positions))
	b := mesh.Bounds()
	ext := b.Extent()
	for i, p := range mesh.Positions {
		u, v := 0.5, 0.5
		if ext[0] > 0 {
			u = (p.X() - b.Min.X()) / ext[0]
		}
		if ext[1] > 0 {
			v = (p.Y() - b.Min.Y()) / ext[1]
		}
		uvs[i] = spatial.Vec3{u, v, 0}
	}
	return uvs
}

func averageColor(vertexColors []spatial.Vec3, f meshmodel.Face) color.RGBA {
	if vertexColors == nil {
		return color.RGBA{}
	}
	var sum spatial.Vec3
	for _, vi := range f {
		sum = sum.Add(vertexColors[vi])
	}
	sum = sum.Mul(1.0 / 3.0)
	clamp := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(sum.X()), G: clamp(sum.Y()), B: clamp(sum.Z()), A: 255}
}

func rasterizeFlatTriangle(img *image.RGBA, uv0, uv1, uv2 spatial.Vec3, c color.RGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	toPixel := func(uv spatial.Vec3) (float64, float64) {
		return uv.X() * float64(w), (1 - uv.Y()) * float64(h)
	}
	x0, y0 := toPixel(uv0)
	x1, y1 := toPixel(uv1)
	x2, y2 := toPixel(uv2)

	minX, maxX := clampRange(min3(x0, x1, x2), max3(x0, x1, x2), w)
	minY, maxY := clampRange(min3(y0, y1, y2), max3(y0, y1, y2), h)

	area := edge(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			w0 := edge(x1, y1, x2, y2, px, py) / area
			w1 := edge(x2, y2, x0, y0, px, py) / area
			w2 := edge(x0, y0, x1, y1, px, py) / area
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func clampRange(lo, hi float64, dim int) (int, int) {
	l := int(lo)
	h := int(hi) + 1
	if l < 0 {
		l = 0
	}
	if h > dim {
		h = dim
	}
	return l, h
}

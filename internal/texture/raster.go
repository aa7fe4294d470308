package texture

import (
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// texel is one rasterized sample of a face's UV triangle: the face it came
// from and the barycentric weights locating it in 3D.
type texel struct {
	face int
	bary spatial.Vec3
}

// rasterizeUV scans every face's UV triangle into a width x height grid,
// recording which face (and where in it, barycentrically) maps to each
// pixel center. A pixel outside every UV triangle gets face = -1.
func rasterizeUV(mesh *meshmodel.Mesh, width, height int) []texel {
	grid := make([]texel, width*height)
	for i := range grid {
		grid[i].face = -1
	}
	if mesh.UVs == nil {
		return grid
	}

	for fi, f := range mesh.Faces {
		uv0, uv1, uv2 := mesh.UVs[f[0]], mesh.UVs[f[1]], mesh.UVs[f[2]]
		rasterizeTriangle(grid, width, height, fi, uv0, uv1, uv2)
	}
	return grid
}

// rasterizeTriangle fills every pixel whose center falls inside the UV
// triangle (uv0,uv1,uv2), in pixel-space ([0,width)x[0,height) with UV
// (0,0) at the top-left), with its barycentric coordinates.
func rasterizeTriangle(grid []texel, width, height, face int, uv0, uv1, uv2 spatial.Vec3) {
	toPixel := func(uv spatial.Vec3) (float64, float64) {
		return uv.X() * float64(width), uv.Y() * float64(height)
	}
	x0, y0 := toPixel(uv0)
	x1, y1 := toPixel(uv1)
	x2, y2 := toPixel(uv2)

	minX, maxX := clampRange(minOf3(x0, x1, x2), maxOf3(x0, x1, x2), width)
	minY, maxY := clampRange(minOf3(y0, y1, y2), maxOf3(y0, y1, y2), height)

	denom := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if denom > -1e-12 && denom < 1e-12 {
		return // degenerate UV triangle
	}

	for py := minY; py < maxY; py++ {
		fy := float64(py) + 0.5
		for px := minX; px < maxX; px++ {
			fx := float64(px) + 0.5
			w0 := ((y1-y2)*(fx-x2) + (x2-x1)*(fy-y2)) / denom
			w1 := ((y2-y0)*(fx-x2) + (x0-x2)*(fy-y2)) / denom
			w2 := 1 - w0 - w1
			const eps = -1e-7
			if w0 < eps || w1 < eps || w2 < eps {
				continue
			}
			grid[py*width+px] = texel{face: face, bary: spatial.Vec3{w0, w1, w2}}
		}
	}
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func clampRange(lo, hi float64, limit int) (int, int) {
	l := int(lo)
	h := int(hi) + 1
	if l < 0 {
		l = 0
	}
	if h > limit {
		h = limit
	}
	if l > h {
		l = h
	}
	return l, h
}

// Package texture implements the backproject texturer: for every texel of
// a leaf tile's UV atlas, it locates the corresponding 3D surface point,
// ranks the observations that can see it, and writes both a color image
// and a provenance index image recording which observation (and which of
// its source pixels) contributed each texel.
package texture

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/spatial"
)

// ErrNoUVs is returned when the mesh carries no texture coordinates to
// rasterize.
var ErrNoUVs = errors.New("texture: mesh has no UV coordinates")

// Leaf textures one leaf tile's mesh against the given observations,
// producing a color image and a matching provenance index image. occluder
// should be a triangle index built over the same mesh (or a superset tile
// that contains it) so occlusion rays see more than just the triangle
// being textured.
func Leaf(mesh *meshmodel.Mesh, observations []*observation.Observation, cache *observation.Cache, occluder *spatial.TriangleIndex, cfg Config) (*image.RGBA, *encode.IndexImage, error) {
	if mesh.UVs == nil {
		return nil, nil, ErrNoUVs
	}

	grid := rasterizeUV(mesh, cfg.Width, cfg.Height)
	rgba := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	idx := encode.NewIndexImage(cfg.Width, cfg.Height)

	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	rowsPerWorker := (cfg.Height + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := w * rowsPerWorker
		y1 := y0 + rowsPerWorker
		if y1 > cfg.Height {
			y1 = cfg.Height
		}
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			textureRowBand(mesh, observations, cache, occluder, cfg, grid, rgba, idx, y0, y1)
		}(y0, y1)
	}
	wg.Wait()

	return rgba, idx, nil
}

// textureRowBand sequentially textures rows [y0,y1) of one worker's
// stripe. Hysteresis only looks at texels already written within this
// same band: a texel on the first row of a band never sees the band
// above it, since that band may be running concurrently in another
// goroutine. This trades a thin seam of possible re-dithering at band
// boundaries for not needing a cross-goroutine barrier per row.
func textureRowBand(mesh *meshmodel.Mesh, observations []*observation.Observation, cache *observation.Cache, occluder *spatial.TriangleIndex, cfg Config, grid []texel, rgba *image.RGBA, idx *encode.IndexImage, y0, y1 int) {
	// chosen[(y-y0)*width+x] holds the winning candidate for row y of this
	// band, once written. Local to the band so each worker's allocation is
	// proportional to its own row range, not the whole image.
	chosen := make([]candidate, cfg.Width*(y1-y0))

	for y := y0; y < y1; y++ {
		for x := 0; x < cfg.Width; x++ {
			t := grid[y*cfg.Width+x]
			if t.face < 0 {
				continue
			}
			point, normal := surfacePoint(mesh, t)

			cands := evaluateCandidates(point, normal, observations, occluder, t.face, cfg)
			pick, ok := best(cands)
			if !ok {
				continue
			}

			pick = applyHysteresis(chosen, cfg, x, y, y0, pick, cands)
			chosen[(y-y0)*cfg.Width+x] = pick

			c, err := sampleColor(cache, pick.obsIndex, pick.srcU, pick.srcV)
			if err != nil {
				continue
			}
			rgba.Set(x, y, c)
			idx.Set(x, y, uint16(pick.obsIndex), uint16(pick.srcRow), uint16(pick.srcCol))
		}
	}
}

// applyHysteresis prefers a nearby already-chosen observation over pick
// when a candidate for it exists and scores within HysteresisTolerance of
// pick, avoiding texel-to-texel dithering between near-equal candidates.
func applyHysteresis(chosen []candidate, cfg Config, x, y, bandY0 int, pick candidate, cands []candidate) candidate {
	if cfg.HysteresisRadius <= 0 {
		return pick
	}
	for dy := -cfg.HysteresisRadius; dy <= cfg.HysteresisRadius; dy++ {
		ny := y + dy
		if ny < bandY0 || ny > y {
			continue // only already-written rows within this band
		}
		for dx := -cfg.HysteresisRadius; dx <= cfg.HysteresisRadius; dx++ {
			nx := x + dx
			if nx < 0 || nx >= cfg.Width || (dx == 0 && dy == 0) {
				continue
			}
			if ny == y && nx >= x {
				continue // not yet written this row
			}
			prior := chosen[(ny-bandY0)*cfg.Width+nx]
			if prior.obsIndex == 0 {
				continue
			}
			for _, c := range cands {
				if c.obsIndex == prior.obsIndex && c.score >= pick.score*(1-cfg.HysteresisTolerance) {
					return c
				}
			}
		}
	}
	return pick
}

// surfacePoint barycentrically interpolates position and normal for a
// rasterized texel.
func surfacePoint(mesh *meshmodel.Mesh, t texel) (point, normal spatial.Vec3) {
	f := mesh.Faces[t.face]
	p0, p1, p2 := mesh.Positions[f[0]], mesh.Positions[f[1]], mesh.Positions[f[2]]
	point = p0.Mul(t.bary.X()).Add(p1.Mul(t.bary.Y())).Add(p2.Mul(t.bary.Z()))

	if mesh.Normals != nil {
		n0, n1, n2 := mesh.Normals[f[0]], mesh.Normals[f[1]], mesh.Normals[f[2]]
		n := n0.Mul(t.bary.X()).Add(n1.Mul(t.bary.Y())).Add(n2.Mul(t.bary.Z()))
		if l := n.Len(); l > 1e-12 {
			return point, n.Mul(1 / l)
		}
	}
	return point, spatial.TriangleNormal(p0, p1, p2)
}

// sampleColor acquires obsIndex's image from cache and bilinearly samples
// it at the projected pixel coordinate (u,v) (spec §4.C step 6: "sample the
// chosen observation's image at the projected pixel (bilinear)").
func sampleColor(cache *observation.Cache, obsIndex uint32, u, v float64) (color.RGBA, error) {
	img, release, err := cache.Acquire(obsIndex)
	if err != nil {
		return color.RGBA{}, err
	}
	defer release()

	return bilinearSample(img, u, v), nil
}

// bilinearSample interpolates img's four pixels surrounding the continuous
// coordinate (u,v), clamping each corner to the image bounds so a point near
// an edge still blends cleanly instead of reading outside the image.
func bilinearSample(img image.Image, u, v float64) color.RGBA {
	b := img.Bounds()

	// The pixel centered at integer coordinate (c,r) covers (c,r) to
	// (c+1,r+1), so the sample's top-left corner is the pixel at floor(u-0.5).
	fx := u - 0.5
	fy := v - 0.5
	c0 := int(math.Floor(fx))
	r0 := int(math.Floor(fy))
	tx := fx - float64(c0)
	ty := fy - float64(r0)

	clampCol := func(c int) int {
		if c < b.Min.X {
			return b.Min.X
		}
		if c >= b.Max.X {
			return b.Max.X - 1
		}
		return c
	}
	clampRow := func(r int) int {
		if r < b.Min.Y {
			return b.Min.Y
		}
		if r >= b.Max.Y {
			return b.Max.Y - 1
		}
		return r
	}

	at := func(c, r int) (rr, gg, bb, aa float64) {
		pr, pg, pb, pa := img.At(clampCol(c), clampRow(r)).RGBA()
		return float64(pr), float64(pg), float64(pb), float64(pa)
	}

	r00, g00, b00, a00 := at(c0, r0)
	r10, g10, b10, a10 := at(c0+1, r0)
	r01, g01, b01, a01 := at(c0, r0+1)
	r11, g11, b11, a11 := at(c0+1, r0+1)

	lerp := func(lo, hi, t float64) float64 { return lo + (hi-lo)*t }
	blend := func(v00, v10, v01, v11 float64) float64 {
		top := lerp(v00, v10, tx)
		bottom := lerp(v01, v11, tx)
		return lerp(top, bottom, ty)
	}

	r := blend(r00, r10, r01, r11)
	g := blend(g00, g10, g01, g11)
	bl := blend(b00, b10, b01, b11)
	a := blend(a00, a10, a01, a11)

	return color.RGBA{R: uint8(uint32(r) >> 8), G: uint8(uint32(g) >> 8), B: uint8(uint32(bl) >> 8), A: uint8(uint32(a) >> 8)}
}

package texture

import (
	"math"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// NaiveAtlas builds a new mesh identical in shape to mesh but with its own
// UV chart per face, packed into a grid of cells with one triangle per
// cell. Every vertex is duplicated per face corner since two faces
// sharing a mesh vertex need independent UVs once each has its own chart.
//
// This is the fallback atlasing strategy for meshes with no UVs of their
// own (freshly decimated or reconstructed tiles carry positions only):
// wasteful of texel budget compared to a real chart-packer, but always
// succeeds and gives every triangle its own slice of texture space.
func NaiveAtlas(mesh *meshmodel.Mesh) *meshmodel.Mesh {
	n := mesh.FaceCount()
	out := meshmodel.New(3*n, n)
	if n == 0 {
		return out
	}

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	cellW := 1.0 / float64(cols)
	cellH := cellW

	for fi, f := range mesh.Faces {
		col := fi % cols
		row := fi / cols
		u0 := float64(col) * cellW
		v0 := float64(row) * cellH

		uv0 := spatial.Vec3{u0, v0, 0}
		uv1 := spatial.Vec3{u0 + cellW, v0, 0}
		uv2 := spatial.Vec3{u0, v0 + cellH, 0}

		base := len(out.Positions)
		for _, vi := range f {
			out.Positions = append(out.Positions, mesh.Positions[vi])
			if mesh.Normals != nil {
				out.Normals = append(out.Normals, mesh.Normals[vi])
			}
			if mesh.Colors != nil {
				out.Colors = append(out.Colors, mesh.Colors[vi])
			}
		}
		out.UVs = append(out.UVs, uv0, uv1, uv2)
		out.Faces = append(out.Faces, meshmodel.Face{base, base + 1, base + 2})
	}
	return out
}

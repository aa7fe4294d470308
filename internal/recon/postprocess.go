package recon

import (
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// ClipToEnvelope drops every face with any vertex outside envelope,
// leaving only fully-interior triangles. The reconstructor tends to
// extrapolate a closed surface well beyond the input point cloud's
// support; the core clips that extrapolation back to a known bound before
// publishing.
func ClipToEnvelope(mesh *meshmodel.Mesh, envelope spatial.AABB) *meshmodel.Mesh {
	out := meshmodel.New(len(mesh.Positions), len(mesh.Faces))
	out.Positions = append(out.Positions, mesh.Positions...)
	if mesh.Normals != nil {
		out.Normals = append(out.Normals, mesh.Normals...)
	}
	if mesh.Colors != nil {
		out.Colors = append(out.Colors, mesh.Colors...)
	}

	for _, f := range mesh.Faces {
		p0, p1, p2 := mesh.Positions[f[0]], mesh.Positions[f[1]], mesh.Positions[f[2]]
		if envelope.ContainsPoint(p0) && envelope.ContainsPoint(p1) && envelope.ContainsPoint(p2) {
			out.Faces = append(out.Faces, f)
		}
	}
	return compactUnreferenced(out)
}

// RemoveSmallIslands drops connected components whose bounding-box
// diagonal is smaller than minDiameterRatio of the whole mesh's diagonal.
// The reconstructor sometimes produces small disconnected blobs from
// noisy or sparse input regions; these are below any useful level of
// detail and are discarded rather than tiled.
func RemoveSmallIslands(mesh *meshmodel.Mesh, minDiameterRatio float64) *meshmodel.Mesh {
	if len(mesh.Faces) == 0 {
		return mesh
	}
	comps := connectedComponents(mesh)
	wholeDiag := mesh.Bounds().Extent().Len()
	if wholeDiag == 0 {
		return mesh
	}

	out := meshmodel.New(len(mesh.Positions), len(mesh.Faces))
	out.Positions = append(out.Positions, mesh.Positions...)
	if mesh.Normals != nil {
		out.Normals = append(out.Normals, mesh.Normals...)
	}
	if mesh.Colors != nil {
		out.Colors = append(out.Colors, mesh.Colors...)
	}

	for _, comp := range comps {
		b := spatial.EmptyAABB()
		for _, fi := range comp {
			p0, p1, p2 := mesh.Triangle(fi)
			b = b.Expand(p0).Expand(p1).Expand(p2)
		}
		if b.Extent().Len()/wholeDiag < minDiameterRatio {
			continue
		}
		for _, fi := range comp {
			out.Faces = append(out.Faces, mesh.Faces[fi])
		}
	}
	return compactUnreferenced(out)
}

// connectedComponents groups face indices into components connected by
// shared vertices (undirected, via union-find over vertices).
func connectedComponents(mesh *meshmodel.Mesh) [][]int {
	parent := make([]int, len(mesh.Positions))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, f := range mesh.Faces {
		union(f[0], f[1])
		union(f[1], f[2])
	}

	byRoot := make(map[int][]int)
	for fi, f := range mesh.Faces {
		root := find(f[0])
		byRoot[root] = append(byRoot[root], fi)
	}

	comps := make([][]int, 0, len(byRoot))
	for _, faces := range byRoot {
		comps = append(comps, faces)
	}
	return comps
}

// compactUnreferenced remaps mesh to a dense vertex set containing only
// vertices referenced by a face.
func compactUnreferenced(mesh *meshmodel.Mesh) *meshmodel.Mesh {
	remap := make([]int, len(mesh.Positions))
	for i := range remap {
		remap[i] = -1
	}
	out := meshmodel.New(len(mesh.Positions), len(mesh.Faces))

	for _, f := range mesh.Faces {
		nf := meshmodel.Face{}
		for i, vi := range f {
			if remap[vi] == -1 {
				remap[vi] = len(out.Positions)
				out.Positions = append(out.Positions, mesh.Positions[vi])
				if mesh.Normals != nil {
					out.Normals = append(out.Normals, mesh.Normals[vi])
				}
				if mesh.Colors != nil {
					out.Colors = append(out.Colors, mesh.Colors[vi])
				}
			}
			nf[i] = remap[vi]
		}
		out.Faces = append(out.Faces, nf)
	}
	return out
}

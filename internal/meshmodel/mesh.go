// Package meshmodel defines the indexed triangle mesh shared by every
// component of the core: the Edge Collapser mutates a copy of it, the Tile
// Tree Builder partitions it, and the Backproject Texturer reads it.
package meshmodel

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/landform/terracore/internal/spatial"
)

// Face is an ordered triple of vertex indices. Winding order (p0,p1,p2
// counter-clockwise as seen from outside) defines the outward normal.
type Face [3]int

// Mesh is an indexed triangle mesh with optional per-vertex attributes.
// Normal, UV, and Color are parallel to Positions when non-nil; a nil slice
// means the attribute is absent for the whole mesh (spec §3).
type Mesh struct {
	Positions []spatial.Vec3
	Normals   []spatial.Vec3   // optional
	UVs       []spatial.Vec3   // optional; Z unused, kept as Vec3 for uniform storage
	Colors    []color.RGBA     // optional
	Faces     []Face

	// Confidence is an optional per-vertex confidence value carried from
	// alignment, consumed by the Parent Tile Builder's color-transfer step.
	Confidence []float64
}

// New constructs an empty mesh with room for the given counts.
func New(nVerts, nFaces int) *Mesh {
	return &Mesh{
		Positions: make([]spatial.Vec3, 0, nVerts),
		Faces:     make([]Face, 0, nFaces),
	}
}

var (
	// ErrNoVertices is returned by Validate for a mesh with zero vertices.
	ErrNoVertices = errors.New("meshmodel: mesh has zero vertices")
	// ErrNonFiniteVertex is returned by Validate when a position contains
	// NaN or Inf.
	ErrNonFiniteVertex = errors.New("meshmodel: mesh contains a non-finite vertex position")
	// ErrFaceIndexOutOfRange is returned by Validate when a face references
	// a vertex index outside [0, len(Positions)).
	ErrFaceIndexOutOfRange = errors.New("meshmodel: face references out-of-range vertex index")
)

// Validate checks the invariants spec §3 and §4.A require before
// decimation or tiling: a nonempty, finite, in-range mesh. This is the
// "malformed input" check spec §4.A names as an explicit error rather than
// a silent fallback.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return ErrNoVertices
	}
	for i, p := range m.Positions {
		for axis := 0; axis < 3; axis++ {
			if math.IsNaN(p[axis]) || math.IsInf(p[axis], 0) {
				return fmt.Errorf("%w: vertex %d", ErrNonFiniteVertex, i)
			}
		}
	}
	n := len(m.Positions)
	for fi, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: face %d references vertex %d (have %d vertices)", ErrFaceIndexOutOfRange, fi, idx, n)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of all vertex positions.
func (m *Mesh) Bounds() spatial.AABB {
	b := spatial.EmptyAABB()
	for _, p := range m.Positions {
		b = b.Expand(p)
	}
	return b
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// Triangle returns the three vertex positions of face i.
func (m *Mesh) Triangle(i int) (p0, p1, p2 spatial.Vec3) {
	f := m.Faces[i]
	return m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
}

// ComputeNormals regenerates per-vertex normals by averaging adjacent face
// normals weighted by face area. Used after decimation, which spec §4.A
// says must "preserve or regenerate vertex normals."
func (m *Mesh) ComputeNormals() {
	acc := make([]spatial.Vec3, len(m.Positions))
	for _, f := range m.Faces {
		p0, p1, p2 := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0)) // magnitude encodes 2x area, doubling as the area weight
		acc[f[0]] = acc[f[0]].Add(n)
		acc[f[1]] = acc[f[1]].Add(n)
		acc[f[2]] = acc[f[2]].Add(n)
	}
	normals := make([]spatial.Vec3, len(acc))
	for i, n := range acc {
		if l := n.Len(); l > 1e-20 {
			normals[i] = n.Mul(1 / l)
		}
	}
	m.Normals = normals
}

// DeduplicateVertices merges vertices at (near-)identical positions,
// remapping face indices accordingly. Used by the Edge Collapser as step 1
// of spec §4.A ("deep-copy the mesh; discard attributes except position;
// deduplicate vertices").
func (m *Mesh) DeduplicateVertices() *Mesh {
	type key [3]int64
	const quant = 1e6 // merge positions within ~1e-6 units

	round := func(v spatial.Vec3) key {
		return key{
			int64(math.Round(v.X() * quant)),
			int64(math.Round(v.Y() * quant)),
			int64(math.Round(v.Z() * quant)),
		}
	}

	remap := make([]int, len(m.Positions))
	seen := make(map[key]int, len(m.Positions))
	out := New(len(m.Positions), len(m.Faces))

	for i, p := range m.Positions {
		k := round(p)
		if existing, ok := seen[k]; ok {
			remap[i] = existing
			continue
		}
		newIdx := len(out.Positions)
		out.Positions = append(out.Positions, p)
		seen[k] = newIdx
		remap[i] = newIdx
	}

	for _, f := range m.Faces {
		nf := Face{remap[f[0]], remap[f[1]], remap[f[2]]}
		if nf[0] == nf[1] || nf[1] == nf[2] || nf[0] == nf[2] {
			continue // degenerate after merge
		}
		out.Faces = append(out.Faces, nf)
	}
	return out
}

// Clone performs a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Positions: append([]spatial.Vec3(nil), m.Positions...),
		Faces:     append([]Face(nil), m.Faces...),
	}
	if m.Normals != nil {
		out.Normals = append([]spatial.Vec3(nil), m.Normals...)
	}
	if m.UVs != nil {
		out.UVs = append([]spatial.Vec3(nil), m.UVs...)
	}
	if m.Colors != nil {
		out.Colors = append([]color.RGBA(nil), m.Colors...)
	}
	if m.Confidence != nil {
		out.Confidence = append([]float64(nil), m.Confidence...)
	}
	return out
}

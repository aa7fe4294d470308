// Package tiletree partitions a mesh into a hierarchical tree of spatial
// tiles: a recursive quad/octree split down to a per-leaf face budget,
// followed by the Parent Tile Builder (package parenttile) filling in
// every interior node's decimated content bottom-up.
package tiletree

import (
	"errors"
	"fmt"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/spatial"
)

// Scheme selects how a tile's bounds are subdivided into children.
type Scheme int

const (
	// SchemeOctree splits all three axes at the bounds' center, producing
	// up to 8 children.
	SchemeOctree Scheme = iota
	// SchemeQuadtree splits only the two horizontal axes, leaving Z
	// unsplit, producing up to 4 children — the right fit for
	// height-field-like terrain where depth never needs subdividing.
	SchemeQuadtree
	// SchemeFlat splits one axis (the longest) at a time, producing a
	// binary tree — the right fit for elongated or irregular surfaces
	// where a fixed quad/octree grid wastes empty cells.
	SchemeFlat
)

// ParseScheme converts a config string to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "octree":
		return SchemeOctree, nil
	case "quadtree":
		return SchemeQuadtree, nil
	case "flat":
		return SchemeFlat, nil
	default:
		return 0, fmt.Errorf("tiletree: unknown tiling scheme %q (supported: octree, quadtree, flat)", s)
	}
}

// Config governs the recursive split.
type Config struct {
	Scheme Scheme
	// MaxFacesPerTile stops splitting once a candidate tile's face count
	// is at or below this.
	MaxFacesPerTile int
	// MinTileExtent stops splitting once every axis of a candidate tile's
	// bounds (the axes the scheme subdivides) is at or below this.
	MinTileExtent float64
	// MaxTexelsPerMeter stops splitting once no observation can resolve
	// texture detail finer than this over the tile — subdividing further
	// would buy geometric detail the source imagery can't texture.
	MaxTexelsPerMeter float64
	// SurfaceExtent, if non-zero, overrides the computed mesh bounds as
	// the root tile's extent (for meshes known to continue beyond the
	// sampled region).
	SurfaceExtent float64
}

// ContentKind records whether a tile was filled with a polygonal mesh or
// fell back to a coarse point-cloud representation (spec §6 supplement:
// very low face counts degrade better as points than as slivers).
type ContentKind int

const (
	ContentUnset ContentKind = iota
	ContentPolygonal
	ContentPointCloud
)

// TileID indexes into a Tree's Tiles slice. The root is always index 0.
type TileID int

// Tile is one node of the hierarchy. Leaves carry FaceIndices into the
// tree's source mesh; interior nodes carry Children and have their own
// content filled in later by the Parent Tile Builder.
type Tile struct {
	Bounds   spatial.AABB
	Depth    int
	Parent   TileID
	Children []TileID
	IsLeaf   bool

	// FaceIndices are indices into Tree.Mesh.Faces assigned to this leaf.
	// A face straddling a split boundary is duplicated into every child
	// tile whose bounds its triangle AABB overlaps (spec §4.B: "a triangle
	// crossing a tile boundary is assigned to every tile it overlaps").
	FaceIndices []int

	// Filled in after construction, by parenttile/texture:
	ContentKind    ContentKind
	GeometricError float64
	TextureError   float64
	AggregateError float64
}

// Tree is the full hierarchy plus the source mesh it partitions.
type Tree struct {
	Mesh  *meshmodel.Mesh
	Tiles []Tile
	Root  TileID
}

// ErrEmptyMesh is returned when asked to build a tree over a mesh with no
// faces.
var ErrEmptyMesh = errors.New("tiletree: mesh has no faces to partition")

// Submesh extracts the tile id's assigned faces out of the tree's source
// mesh into a standalone, compactly-indexed mesh: only the vertices those
// faces actually reference are kept, renumbered from 0. Positions, and
// whichever of Normals/UVs/Colors/Confidence the source mesh carries, come
// along; a straddling face duplicated into several tiles (spec §4.B) gets
// an independent vertex copy in each tile's submesh.
func (t *Tree) Submesh(id TileID) *meshmodel.Mesh {
	tile := t.Tiles[id]
	remap := make(map[int]int, len(tile.FaceIndices)*3)
	out := meshmodel.New(len(tile.FaceIndices)*3, len(tile.FaceIndices))

	localIndex := func(srcIdx int) int {
		if li, ok := remap[srcIdx]; ok {
			return li
		}
		li := len(out.Positions)
		remap[srcIdx] = li
		out.Positions = append(out.Positions, t.Mesh.Positions[srcIdx])
		if t.Mesh.Normals != nil {
			out.Normals = append(out.Normals, t.Mesh.Normals[srcIdx])
		}
		if t.Mesh.UVs != nil {
			out.UVs = append(out.UVs, t.Mesh.UVs[srcIdx])
		}
		if t.Mesh.Colors != nil {
			out.Colors = append(out.Colors, t.Mesh.Colors[srcIdx])
		}
		if t.Mesh.Confidence != nil {
			out.Confidence = append(out.Confidence, t.Mesh.Confidence[srcIdx])
		}
		return li
	}

	for _, fi := range tile.FaceIndices {
		f := t.Mesh.Faces[fi]
		out.Faces = append(out.Faces, meshmodel.Face{
			localIndex(f[0]), localIndex(f[1]), localIndex(f[2]),
		})
	}
	return out
}

// BuildTileTree recursively partitions mesh into a hierarchy of tiles per
// cfg. observations informs the texel-density stop condition; pass nil to
// disable it (split purely on face count and extent).
func BuildTileTree(mesh *meshmodel.Mesh, observations []*observation.Observation, cfg Config) (*Tree, error) {
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("tiletree: %w", err)
	}
	if mesh.FaceCount() == 0 {
		return nil, ErrEmptyMesh
	}

	root := mesh.Bounds()
	if cfg.SurfaceExtent > 0 {
		center := root.Center()
		half := cfg.SurfaceExtent / 2
		d := spatial.Vec3{half, half, half}
		root = spatial.AABB{Min: center.Sub(d), Max: center.Add(d)}
	}

	allFaces := make([]int, mesh.FaceCount())
	for i := range allFaces {
		allFaces[i] = i
	}

	b := &builder{mesh: mesh, observations: observations, cfg: cfg}
	rootID := b.split(root, allFaces, 0, -1)
	return &Tree{Mesh: mesh, Tiles: b.tiles, Root: rootID}, nil
}

type builder struct {
	mesh         *meshmodel.Mesh
	observations []*observation.Observation
	cfg          Config
	tiles        []Tile
}

func (b *builder) alloc(t Tile) TileID {
	id := TileID(len(b.tiles))
	b.tiles = append(b.tiles, t)
	return id
}

func (b *builder) split(bounds spatial.AABB, faceIdxs []int, depth int, parent TileID) TileID {
	if b.shouldStop(bounds, faceIdxs) {
		return b.alloc(Tile{
			Bounds:      bounds,
			Depth:       depth,
			Parent:      parent,
			IsLeaf:      true,
			FaceIndices: faceIdxs,
		})
	}

	id := b.alloc(Tile{Bounds: bounds, Depth: depth, Parent: parent, IsLeaf: false})
	childBounds := splitBounds(bounds, b.cfg.Scheme)

	children := make([]TileID, 0, len(childBounds))
	for _, cb := range childBounds {
		childFaces := b.facesOverlapping(cb, faceIdxs)
		if len(childFaces) == 0 {
			continue
		}
		if len(childFaces) == len(faceIdxs) {
			// Every face of this tile still overlaps the child, so splitting
			// it further cannot separate them; keep the child as a leaf.
			children = append(children, b.alloc(Tile{Bounds: cb, Depth: depth + 1, Parent: id, IsLeaf: true, FaceIndices: childFaces}))
			continue
		}
		children = append(children, b.split(cb, childFaces, depth+1, id))
	}

	if len(children) == 0 {
		// No child bounds captured any face (can happen for a
		// degenerate/near-planar tile); fall back to a leaf so the tile
		// isn't dropped from the tree.
		b.tiles[id].IsLeaf = true
		b.tiles[id].FaceIndices = faceIdxs
		return id
	}
	b.tiles[id].Children = children
	return id
}

func (b *builder) shouldStop(bounds spatial.AABB, faceIdxs []int) bool {
	if len(faceIdxs) <= b.cfg.MaxFacesPerTile {
		return true
	}
	if b.cfg.MinTileExtent > 0 && belowMinExtent(bounds, b.cfg.Scheme, b.cfg.MinTileExtent) {
		return true
	}
	if b.cfg.MaxTexelsPerMeter > 0 && len(b.observations) > 0 {
		if bestResolution(bounds, b.observations) <= b.cfg.MaxTexelsPerMeter {
			return true
		}
	}
	return false
}

func belowMinExtent(b spatial.AABB, scheme Scheme, min float64) bool {
	e := b.Extent()
	switch scheme {
	case SchemeQuadtree:
		return e[0] <= min && e[1] <= min
	case SchemeFlat:
		return e[b.LongestAxis()] <= min
	default: // octree
		return e[0] <= min && e[1] <= min && e[2] <= min
	}
}

// bestResolution estimates the finest texel-per-meter density any
// observation can deliver over bounds, approximated as the camera's
// horizontal focal length divided by its distance to the tile's center —
// a pinhole camera resolves roughly fx/d texels per meter of a surface d
// away.
func bestResolution(bounds spatial.AABB, observations []*observation.Observation) float64 {
	center := bounds.Center()
	best := 0.0
	for _, o := range observations {
		d := spatial.Dist(o.Origin, center)
		if d < 1e-6 {
			continue
		}
		res := o.Camera.Fx / d
		if res > best {
			best = res
		}
	}
	return best
}

// splitBounds returns the child boxes a tile divides into under scheme.
func splitBounds(b spatial.AABB, scheme Scheme) []spatial.AABB {
	c := b.Center()
	switch scheme {
	case SchemeQuadtree:
		return []spatial.AABB{
			{Min: spatial.Vec3{b.Min[0], b.Min[1], b.Min[2]}, Max: spatial.Vec3{c[0], c[1], b.Max[2]}},
			{Min: spatial.Vec3{c[0], b.Min[1], b.Min[2]}, Max: spatial.Vec3{b.Max[0], c[1], b.Max[2]}},
			{Min: spatial.Vec3{b.Min[0], c[1], b.Min[2]}, Max: spatial.Vec3{c[0], b.Max[1], b.Max[2]}},
			{Min: spatial.Vec3{c[0], c[1], b.Min[2]}, Max: spatial.Vec3{b.Max[0], b.Max[1], b.Max[2]}},
		}
	case SchemeFlat:
		axis := b.LongestAxis()
		lo, hi := b, b
		lo.Max[axis] = c[axis]
		hi.Min[axis] = c[axis]
		return []spatial.AABB{lo, hi}
	default: // octree
		out := make([]spatial.AABB, 0, 8)
		for _, dx := range [2]int{0, 1} {
			for _, dy := range [2]int{0, 1} {
				for _, dz := range [2]int{0, 1} {
					child := spatial.AABB{}
					child.Min = pick(b.Min, c, dx, dy, dz)
					child.Max = pick(c, b.Max, dx, dy, dz)
					out = append(out, child)
				}
			}
		}
		return out
	}
}

func pick(lo, hi spatial.Vec3, dx, dy, dz int) spatial.Vec3 {
	sel := func(l, h float64, d int) float64 {
		if d == 0 {
			return l
		}
		return h
	}
	return spatial.Vec3{sel(lo[0], hi[0], dx), sel(lo[1], hi[1], dy), sel(lo[2], hi[2], dz)}
}

// facesOverlapping returns the subset of faceIdxs whose triangle AABB
// overlaps childBounds, implementing the cross-boundary duplication rule:
// a straddling face is assigned to every overlapping child, not clipped.
func (b *builder) facesOverlapping(childBounds spatial.AABB, faceIdxs []int) []int {
	var out []int
	for _, fi := range faceIdxs {
		p0, p1, p2 := b.mesh.Triangle(fi)
		triBounds := spatial.EmptyAABB().Expand(p0).Expand(p1).Expand(p2)
		if triBounds.Intersects(childBounds) {
			out = append(out, fi)
		}
	}
	return out
}

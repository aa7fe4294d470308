package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/parenttile"
	"github.com/landform/terracore/internal/scheduler"
	"github.com/landform/terracore/internal/spatial"
	"github.com/landform/terracore/internal/texture"
	"github.com/landform/terracore/internal/tileset"
	"github.com/landform/terracore/internal/tiletree"
)

// tileBuilder wires one tree's tiles into a scheduler task graph: leaf
// tiles texture directly against the source observations with no
// dependencies, and parent tiles depend on every one of their children's
// tasks, resampling from whatever those children publish upward as a
// parenttile.Child.
type tileBuilder struct {
	tree         *tiletree.Tree
	writer       *tileset.Writer
	outDir       string
	texCfg       texture.Config
	parentCfg    parenttile.Config
	occluder     *spatial.TriangleIndex
	cache        *observation.Cache
	observations []*observation.Observation
	logger       *log.Logger

	mu       sync.Mutex
	children map[tiletree.TileID]*parenttile.Child
}

func newTileBuilder(tree *tiletree.Tree, writer *tileset.Writer, outDir string, texCfg texture.Config, parentCfg parenttile.Config, occluder *spatial.TriangleIndex, cache *observation.Cache, observations []*observation.Observation, logger *log.Logger) *tileBuilder {
	return &tileBuilder{
		tree: tree, writer: writer, outDir: outDir,
		texCfg: texCfg, parentCfg: parentCfg,
		occluder: occluder, cache: cache, observations: observations,
		logger:   logger,
		children: make(map[tiletree.TileID]*parenttile.Child, len(tree.Tiles)),
	}
}

func taskID(id tiletree.TileID) string {
	return strconv.Itoa(int(id))
}

// tasks builds one scheduler.Task per tile, leaf tasks with no
// dependencies and parent tasks depending on every one of their
// children's tasks.
func (b *tileBuilder) tasks() []scheduler.Task {
	tasks := make([]scheduler.Task, 0, len(b.tree.Tiles))
	for i, tile := range b.tree.Tiles {
		id := tiletree.TileID(i)
		t := scheduler.Task{ID: taskID(id)}
		if tile.IsLeaf {
			t.Run = func(ctx context.Context) error { return b.buildLeaf(ctx, id) }
		} else {
			for _, c := range tile.Children {
				t.Deps = append(t.Deps, taskID(c))
			}
			t.Run = func(ctx context.Context) error { return b.buildParent(ctx, id) }
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func (b *tileBuilder) setChild(id tiletree.TileID, c *parenttile.Child) {
	b.mu.Lock()
	b.children[id] = c
	b.mu.Unlock()
}

func (b *tileBuilder) gatherChildren(childIDs []tiletree.TileID) []*parenttile.Child {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*parenttile.Child, 0, len(childIDs))
	for _, c := range childIDs {
		if child, ok := b.children[c]; ok {
			out = append(out, child)
		}
	}
	return out
}

// buildLeaf textures one leaf tile against the source observations. A
// leaf's published mesh and texture are the only durable form of its
// result, so resuming a finished leaf decodes them back into a
// parenttile.Child rather than re-texturing.
func (b *tileBuilder) buildLeaf(ctx context.Context, id tiletree.TileID) error {
	stableID := tileset.StableID(b.tree, id)

	if b.writer.TileDone(stableID) {
		if entry, ok := b.writer.LoadEntry(stableID); ok {
			child, err := b.loadLeafChild(entry)
			if err == nil {
				b.setChild(id, child)
				b.recordTileError(id, tiletree.ContentPolygonal, entry.GeometricError, entry.TextureError, entry.AggregateError)
				return nil
			}
			b.logger.Warnf("tile %x: re-texturing, could not reuse completion marker: %v", stableID, err)
		}
	}

	submesh := b.tree.Submesh(id)
	if submesh.Normals == nil {
		submesh.ComputeNormals()
	}
	atlased := texture.NaiveAtlas(submesh)

	rgba, idx, err := texture.Leaf(atlased, b.observations, b.cache, b.occluder, b.texCfg)
	if err != nil {
		return fmt.Errorf("tile %x: texturing: %w", stableID, err)
	}
	colors, confidence := texture.BakeVertexColors(atlased, rgba, idx)

	if _, err := b.writer.WriteTile(b.tree, id, tileset.TileContent{
		Mesh:    atlased,
		Texture: rgba,
		Index:   idx,
	}); err != nil {
		return fmt.Errorf("tile %x: writing: %w", stableID, err)
	}

	b.setChild(id, &parenttile.Child{Mesh: atlased, Colors: colors, Confidence: confidence})
	b.recordTileError(id, tiletree.ContentPolygonal, 0, 0, 0)
	return nil
}

// buildParent always reconstructs, regardless of any existing completion
// marker: a parent's authoritative vertex colors exist only in memory for
// the run that computed them, since the mesh it publishes carries no UVs
// to re-derive them from, and rebuilding an interior node is cheap next
// to leaf backproject texturing.
func (b *tileBuilder) buildParent(ctx context.Context, id tiletree.TileID) error {
	stableID := tileset.StableID(b.tree, id)
	tile := b.tree.Tiles[id]

	gathered := b.gatherChildren(tile.Children)
	if len(gathered) == 0 {
		return fmt.Errorf("tile %x: no children published a result", stableID)
	}

	childErrors := make([]float64, 0, len(tile.Children))
	for _, c := range tile.Children {
		childErrors = append(childErrors, b.tree.Tiles[c].AggregateError)
	}

	rng := rand.New(rand.NewSource(int64(stableID)))
	result, err := parenttile.BuildParent(ctx, tile.Bounds, gathered, childErrors, b.parentCfg, rng)
	if err != nil {
		return fmt.Errorf("tile %x: building: %w", stableID, err)
	}

	content := tileset.TileContent{
		GeometricError: result.GeometricError,
		TextureError:   result.TextureError,
		AggregateError: result.AggregateError,
	}
	switch result.ContentKind {
	case tiletree.ContentPolygonal:
		content.Mesh = result.Mesh
		content.Texture = result.Texture
	default:
		content.Mesh = result.Mesh
		content.Points = result.Points
	}
	if _, err := b.writer.WriteTile(b.tree, id, content); err != nil {
		return fmt.Errorf("tile %x: writing: %w", stableID, err)
	}

	b.setChild(id, &parenttile.Child{Mesh: result.Mesh, Colors: result.VertexColors})
	b.recordTileError(id, result.ContentKind, result.GeometricError, result.TextureError, result.AggregateError)
	return nil
}

// recordTileError writes a tile's published error metrics back into the
// tree so an ancestor two or more levels up can read its immediate
// children's AggregateError when it builds.
func (b *tileBuilder) recordTileError(id tiletree.TileID, kind tiletree.ContentKind, geoErr, texErr, aggErr float64) {
	t := &b.tree.Tiles[id]
	t.ContentKind = kind
	t.GeometricError = geoErr
	t.TextureError = texErr
	t.AggregateError = aggErr
}

// loadLeafChild decodes a previously-published leaf tile's mesh and
// texture back off disk and re-bakes its per-vertex colors, for a resumed
// run whose parent tasks still need a parenttile.Child to resample from.
func (b *tileBuilder) loadLeafChild(entry tileset.ManifestTile) (*parenttile.Child, error) {
	meshData, err := os.ReadFile(filepath.Join(b.outDir, entry.MeshURI))
	if err != nil {
		return nil, fmt.Errorf("reading mesh: %w", err)
	}
	mesh, err := tileset.DecodeMesh(meshData)
	if err != nil {
		return nil, fmt.Errorf("decoding mesh: %w", err)
	}
	if mesh.UVs == nil {
		return nil, fmt.Errorf("published leaf mesh has no UVs")
	}

	texData, err := os.ReadFile(filepath.Join(b.outDir, entry.TextureURI))
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	texImg, err := encode.DecodeImage(texData, textureFormatFromExt(entry.TextureURI))
	if err != nil {
		return nil, fmt.Errorf("decoding texture: %w", err)
	}
	rgba := toRGBA(texImg)

	var idx *encode.IndexImage
	if entry.IndexURI != "" {
		idxData, err := os.ReadFile(filepath.Join(b.outDir, entry.IndexURI))
		if err != nil {
			return nil, fmt.Errorf("reading index image: %w", err)
		}
		idx, err = encode.DecodeIndexImage(idxData)
		if err != nil {
			return nil, fmt.Errorf("decoding index image: %w", err)
		}
	}

	colors, confidence := texture.BakeVertexColors(mesh, rgba, idx)
	return &parenttile.Child{Mesh: mesh, Colors: colors, Confidence: confidence}, nil
}

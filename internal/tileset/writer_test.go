package tileset

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/recon"
	"github.com/landform/terracore/internal/spatial"
	"github.com/landform/terracore/internal/tiletree"
	"github.com/stretchr/testify/require"
)

func testTree(t *testing.T) *tiletree.Tree {
	t.Helper()
	m := gridMesh(5)
	tree, err := tiletree.BuildTileTree(m, nil, tiletree.Config{Scheme: tiletree.SchemeQuadtree, MaxFacesPerTile: 4})
	require.NoError(t, err)
	return tree
}

func solidTexture() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	return img
}

func writeAllTiles(t *testing.T, w *Writer, tree *tiletree.Tree) {
	t.Helper()
	for id := range tree.Tiles {
		_, err := w.WriteTile(tree, tiletree.TileID(id), TileContent{
			Mesh:           triangleMesh(),
			Texture:        solidTexture(),
			AggregateError: float64(id),
		})
		require.NoError(t, err)
	}
}

func TestWriteTileThenFinalizeProducesManifests(t *testing.T) {
	dir := t.TempDir()
	enc, err := encode.NewEncoder("png", 0)
	require.NoError(t, err)
	w, err := NewWriter(dir, enc)
	require.NoError(t, err)

	tree := testTree(t)
	writeAllTiles(t, w, tree)

	obs := []*observation.Observation{{
		Index: 1,
		Path:  "frame0001.png",
		Camera: observation.Camera{Width: 1024, Height: 768, Fx: 900, Fy: 900, Cx: 512, Cy: 384},
	}}
	require.NoError(t, w.Finalize(tree, obs))

	rootData, err := os.ReadFile(filepath.Join(dir, "root.json"))
	require.NoError(t, err)
	var root RootManifest
	require.NoError(t, json.Unmarshal(rootData, &root))
	require.Len(t, root.Tiles, len(tree.Tiles))
	require.Equal(t, StableID(tree, tree.Root), root.RootID)

	terrainData, err := os.ReadFile(filepath.Join(dir, "terrain.json"))
	require.NoError(t, err)
	var terrain TerrainManifest
	require.NoError(t, json.Unmarshal(terrainData, &terrain))
	require.Len(t, terrain.Observations, 1)
	require.Equal(t, "frame0001.png", terrain.Observations[0].URI)
}

func TestWriteTileMarksTileDone(t *testing.T) {
	dir := t.TempDir()
	enc, err := encode.NewEncoder("png", 0)
	require.NoError(t, err)
	w, err := NewWriter(dir, enc)
	require.NoError(t, err)

	tree := testTree(t)
	require.False(t, w.TileDone(StableID(tree, tree.Root)))
	_, err = w.WriteTile(tree, tree.Root, TileContent{Mesh: triangleMesh()})
	require.NoError(t, err)
	require.True(t, w.TileDone(StableID(tree, tree.Root)))
}

func TestLoadEntryRestoresAfterResume(t *testing.T) {
	dir := t.TempDir()
	enc, err := encode.NewEncoder("png", 0)
	require.NoError(t, err)

	tree := testTree(t)
	w1, err := NewWriter(dir, enc)
	require.NoError(t, err)
	written, err := w1.WriteTile(tree, tree.Root, TileContent{Mesh: triangleMesh(), AggregateError: 1.5})
	require.NoError(t, err)

	w2, err := NewWriter(dir, enc)
	require.NoError(t, err)
	restored, ok := w2.LoadEntry(StableID(tree, tree.Root))
	require.True(t, ok)
	require.Equal(t, written, restored)
}

func TestWriteTilePublishesPointCloudContent(t *testing.T) {
	dir := t.TempDir()
	enc, err := encode.NewEncoder("png", 0)
	require.NoError(t, err)
	w, err := NewWriter(dir, enc)
	require.NoError(t, err)

	tree := testTree(t)
	entry, err := w.WriteTile(tree, tree.Root, TileContent{
		Points: []recon.Point{{Position: spatial.Vec3{1, 2, 3}}},
	})
	require.NoError(t, err)
	require.Equal(t, contentKindPointCloud, entry.ContentKind)
	require.NotEmpty(t, entry.PointsURI)

	data, err := os.ReadFile(filepath.Join(dir, entry.PointsURI))
	require.NoError(t, err)
	require.Contains(t, string(data), "1 2 3")
}

func TestWriteTileRejectsEmptyContent(t *testing.T) {
	dir := t.TempDir()
	enc, err := encode.NewEncoder("png", 0)
	require.NoError(t, err)
	w, err := NewWriter(dir, enc)
	require.NoError(t, err)

	tree := testTree(t)
	_, err = w.WriteTile(tree, tree.Root, TileContent{})
	require.Error(t, err)
}

package tileset

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/recon"
	"github.com/landform/terracore/internal/tiletree"
)

// TileContent is everything one built tile (leaf or parent) publishes.
// Exactly one of Mesh or Points is set, matching tiletree.ContentKind.
type TileContent struct {
	Mesh           *meshmodel.Mesh
	Texture        *image.RGBA
	Index          *encode.IndexImage
	Points         []recon.Point
	GeometricError float64
	TextureError   float64
	AggregateError float64
}

// Writer publishes a tiletree.Tree as a directory of per-tile asset files
// plus the JSON manifests referencing them. It is safe to call WriteTile
// for the same tile twice; resuming an aborted build skips any tile whose
// completion marker is already on disk rather than re-deriving it.
type Writer struct {
	dir            string
	textureEncoder encode.Encoder
	tilesetID      string
	entries        map[uint64]ManifestTile
}

// NewWriter creates (or reuses) dir as the output directory for a tileset
// build. textureEncoder governs how leaf and parent color textures are
// compressed; index images always use encode.IndexImageEncoder regardless,
// since their 16-bit channels need lossless round-tripping.
func NewWriter(dir string, textureEncoder encode.Encoder) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tileset: creating output directory: %w", err)
	}
	return &Writer{
		dir:            dir,
		textureEncoder: textureEncoder,
		tilesetID:      uuid.NewString(),
		entries:        make(map[uint64]ManifestTile),
	}, nil
}

// TileDone reports whether stableID's completion marker already exists,
// letting the caller skip recomputing (texturing, reconstructing) a tile
// a prior, interrupted run already finished.
func (w *Writer) TileDone(stableID uint64) bool {
	_, err := os.Stat(w.markerPath(stableID))
	return err == nil
}

// LoadEntry reads back a previously-written tile's manifest entry from its
// completion marker, so a resumed build can repopulate Finalize's tile
// list for tiles it skips recomputing without touching the asset files
// again.
func (w *Writer) LoadEntry(stableID uint64) (ManifestTile, bool) {
	data, err := os.ReadFile(w.markerPath(stableID))
	if err != nil {
		return ManifestTile{}, false
	}
	var entry ManifestTile
	if err := json.Unmarshal(data, &entry); err != nil {
		return ManifestTile{}, false
	}
	w.entries[stableID] = entry
	return entry, true
}

// WriteTile encodes content's mesh/texture/index/points assets to disk,
// records the resulting ManifestTile, and writes the completion marker
// last, so a crash mid-write never leaves a marker for a partially-written
// tile.
func (w *Writer) WriteTile(tree *tiletree.Tree, id tiletree.TileID, content TileContent) (ManifestTile, error) {
	tile := tree.Tiles[id]
	stableID := StableID(tree, id)
	base := fmt.Sprintf("%016x", stableID)

	entry := ManifestTile{
		ID:             stableID,
		Depth:          tile.Depth,
		GeometricError: content.GeometricError,
		TextureError:   content.TextureError,
		AggregateError: content.AggregateError,
		Transform:      identityTransform,
	}
	entry.Bounds = [2][3]float64{
		{tile.Bounds.Min.X(), tile.Bounds.Min.Y(), tile.Bounds.Min.Z()},
		{tile.Bounds.Max.X(), tile.Bounds.Max.Y(), tile.Bounds.Max.Z()},
	}
	if tile.Parent >= 0 {
		entry.ParentID = StableID(tree, tile.Parent)
	}
	for _, c := range tile.Children {
		entry.Children = append(entry.Children, StableID(tree, c))
	}

	switch {
	case content.Mesh != nil:
		entry.ContentKind = contentKindPolygonal
		meshName := base + ".mesh"
		if err := w.writeFile(meshName, EncodeMesh(content.Mesh)); err != nil {
			return ManifestTile{}, err
		}
		entry.MeshURI = meshName

		if content.Texture != nil {
			texName := base + w.textureEncoder.FileExtension()
			data, err := w.textureEncoder.Encode(content.Texture)
			if err != nil {
				return ManifestTile{}, fmt.Errorf("tileset: encoding texture for tile %x: %w", stableID, err)
			}
			if err := w.writeFile(texName, data); err != nil {
				return ManifestTile{}, err
			}
			entry.TextureURI = texName
		}
		if content.Index != nil {
			idxName := base + ".idx.png"
			idxEnc := &encode.IndexImageEncoder{}
			data, err := idxEnc.Encode(content.Index.Pix)
			if err != nil {
				return ManifestTile{}, fmt.Errorf("tileset: encoding index image for tile %x: %w", stableID, err)
			}
			if err := w.writeFile(idxName, data); err != nil {
				return ManifestTile{}, err
			}
			entry.IndexURI = idxName
		}
	case content.Points != nil:
		entry.ContentKind = contentKindPointCloud
		ptsName := base + ".pts"
		if err := w.writeFile(ptsName, EncodePointCloud(content.Points)); err != nil {
			return ManifestTile{}, err
		}
		entry.PointsURI = ptsName
	default:
		return ManifestTile{}, fmt.Errorf("tileset: tile %x has neither a mesh nor a point sample", stableID)
	}

	w.entries[stableID] = entry
	markerData, err := json.Marshal(entry)
	if err != nil {
		return ManifestTile{}, fmt.Errorf("tileset: encoding completion marker for tile %x: %w", stableID, err)
	}
	if err := os.WriteFile(w.markerPath(stableID), markerData, 0o644); err != nil {
		return ManifestTile{}, fmt.Errorf("tileset: writing completion marker for tile %x: %w", stableID, err)
	}
	return entry, nil
}

// Finalize writes the root manifest (tree of every recorded tile) and the
// terrain manifest (tileset reference plus contributing observations) to
// dir/root.json and dir/terrain.json.
func (w *Writer) Finalize(tree *tiletree.Tree, observations []*observation.Observation) error {
	root := RootManifest{
		Version: "1",
		RootID:  StableID(tree, tree.Root),
	}
	for id := range tree.Tiles {
		stableID := StableID(tree, tiletree.TileID(id))
		entry, ok := w.entries[stableID]
		if !ok {
			entry, ok = w.LoadEntry(stableID)
		}
		if !ok {
			return fmt.Errorf("tileset: tile %x was never written", stableID)
		}
		root.Tiles = append(root.Tiles, entry)
	}
	if err := w.writeJSON("root.json", root); err != nil {
		return err
	}

	terrain := TerrainManifest{
		Version:    "1",
		TilesetID:  w.tilesetID,
		TilesetURI: "root.json",
	}
	for _, o := range observations {
		terrain.Observations = append(terrain.Observations, ObservationEntry{
			ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte(o.Path)).String(),
			Index: o.Index,
			URI:   o.Path,
			Camera: &CameraParams{
				Width: o.Camera.Width, Height: o.Camera.Height,
				Fx: o.Camera.Fx, Fy: o.Camera.Fy,
				Cx: o.Camera.Cx, Cy: o.Camera.Cy,
			},
		})
	}
	return w.writeJSON("terrain.json", terrain)
}

func (w *Writer) writeFile(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(w.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("tileset: writing %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("tileset: encoding %s: %w", name, err)
	}
	return w.writeFile(name, data)
}

func (w *Writer) markerPath(stableID uint64) string {
	return filepath.Join(w.dir, fmt.Sprintf("%016x.done", stableID))
}

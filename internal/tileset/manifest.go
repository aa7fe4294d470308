package tileset

// ManifestTile is one node of the published tile tree: the JSON
// counterpart of a tiletree.Tile, addressed by its stable id rather than
// its slice position, and pointing at the sibling asset files a tile
// viewer fetches lazily.
type ManifestTile struct {
	ID             uint64    `json:"id"`
	ParentID       uint64    `json:"parentId,omitempty"`
	Depth          int       `json:"depth"`
	Bounds         [2][3]float64 `json:"bounds"`
	ContentKind    string    `json:"contentKind"`
	GeometricError float64   `json:"geometricError"`
	TextureError   float64   `json:"textureError,omitempty"`
	AggregateError float64   `json:"aggregateError"`
	MeshURI        string    `json:"mesh,omitempty"`
	TextureURI     string    `json:"texture,omitempty"`
	IndexURI       string    `json:"index,omitempty"`
	PointsURI      string    `json:"points,omitempty"`
	// Transform is this tile's placement relative to its parent, row-major
	// 4x4. Every tile in this module shares one world space, so it is
	// always the identity; the field exists so a manifest consumer never
	// needs a special case for the root versus an interior node.
	Transform [16]float64 `json:"transform"`
	Children  []uint64    `json:"children,omitempty"`
}

const (
	contentKindPolygonal  = "polygonal"
	contentKindPointCloud = "pointcloud"
)

var identityTransform = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// RootManifest is the full published tile hierarchy.
type RootManifest struct {
	Version string         `json:"version"`
	RootID  uint64         `json:"rootId"`
	Tiles   []ManifestTile `json:"tiles"`
}

// CameraParams is the published, JSON-friendly projection of
// observation.Camera.
type CameraParams struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
}

// ObservationEntry records one contributing source image in the terrain
// manifest: a stable id any texel's IndexImage provenance entry can be
// joined against, its asset URI, and whatever camera/metadata a consumer
// needs to re-derive how it was used.
type ObservationEntry struct {
	ID       string            `json:"id"`
	Index    uint32            `json:"index"`
	URI      string            `json:"uri"`
	Camera   *CameraParams     `json:"camera,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TerrainManifest ties a published tileset to the observations that
// textured it.
type TerrainManifest struct {
	Version      string             `json:"version"`
	TilesetID    string             `json:"tilesetId"`
	TilesetURI   string             `json:"tileset"`
	Observations []ObservationEntry `json:"observations"`
}

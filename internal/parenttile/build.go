package parenttile

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/landform/terracore/internal/collapse"
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/recon"
	"github.com/landform/terracore/internal/spatial"
	"github.com/landform/terracore/internal/tiletree"
)

// Result is everything a built parent tile publishes. Mesh always carries
// the reconstructed (clipped, island-cleaned, possibly re-decimated)
// geometry, even when ContentKind is ContentPointCloud — a still-coarser
// ancestor one level up needs a surface to sample from regardless of what
// this tile itself publishes to disk; Points is populated only alongside
// ContentPointCloud, as the coarser asset actually written.
type Result struct {
	Mesh           *meshmodel.Mesh
	Texture        *image.RGBA
	Points         []recon.Point // populated only when ContentKind is ContentPointCloud
	VertexColors   []spatial.Vec3
	ContentKind    tiletree.ContentKind
	GeometricError float64
	TextureError   float64
	AggregateError float64
}

// BuildParent implements spec §4.D's per-parent algorithm: gather,
// sample, reconstruct, clip, decimate, transfer color, and score error.
func BuildParent(ctx context.Context, bounds spatial.AABB, allChildren []*Child, childErrors []float64, cfg Config, rng *rand.Rand) (*Result, error) {
	gathered := GatherChildren(allChildren, bounds, cfg.SearchExpansion)
	if len(gathered) == 0 {
		return nil, fmt.Errorf("parenttile: no children intersect search bounds")
	}

	targetSamples := int(float64(cfg.TargetFaceCount) * cfg.SampleDensityPerFace)
	points := SamplePoints(gathered, targetSamples, rng)
	if len(points) == 0 {
		return nil, fmt.Errorf("parenttile: sampling produced no points")
	}

	raw, err := reconstruct(ctx, points, cfg)
	if err != nil {
		return nil, err
	}

	clipped := recon.ClipToEnvelope(raw, bounds)
	cleaned := recon.RemoveSmallIslands(clipped, cfg.MinIslandDiameterRatio)

	if cleaned.FaceCount() < cfg.MinPolygonalFaces {
		return pointCloudResult(cleaned, gathered, points, childErrors)
	}

	mesh := cleaned
	if mesh.FaceCount() > cfg.TargetFaceCount {
		opts := collapse.Options{
			PreserveTopology:    true,
			WeightByArea:        true,
			AvoidFlips:          true,
			AvoidSmallTriangles: true,
			PinnedVertices:      pinBoundingBoxCorners(mesh, bounds),
		}
		mesh, err = collapse.Decimate(mesh, cfg.TargetFaceCount, opts)
		if err != nil {
			return nil, fmt.Errorf("parenttile: decimating reconstructed mesh: %w", err)
		}
	}
	mesh.ComputeNormals()

	colors := TransferVertexColors(mesh, gathered)
	geoErr := GeometricError(mesh, gathered, 256, rng)
	texErr := TextureError(mesh, cfg.TextureWidth, cfg.TextureHeight, cfg.TexelGroupSize)
	texture := BuildTexture(mesh, colors, cfg.TextureWidth, cfg.TextureHeight)

	return &Result{
		Mesh:           mesh,
		Texture:        texture,
		VertexColors:   colors,
		ContentKind:    tiletree.ContentPolygonal,
		GeometricError: geoErr,
		TextureError:   texErr,
		AggregateError: AggregateError(geoErr, texErr, childErrors),
	}, nil
}

// pointCloudResult publishes the sampled points directly rather than a
// mesh, per the MinPolygonalFaces fallback: a handful of slivers reads
// worse than an honest point cloud at this level of detail.
func pointCloudResult(cleaned *meshmodel.Mesh, gathered []*Child, points []recon.Point, childErrors []float64) (*Result, error) {
	geoErr := 0.0
	for _, p := range points {
		if d := nearestDistanceToChildren(p.Position, gathered); d > geoErr {
			geoErr = d
		}
	}
	return &Result{
		Mesh:           cleaned,
		Points:         points,
		ContentKind:    tiletree.ContentPointCloud,
		GeometricError: geoErr,
		AggregateError: AggregateError(geoErr, 0, childErrors),
	}, nil
}

// reconstruct writes points to a temp input file, invokes the configured
// reconstructor, and reads back the resulting mesh.
func reconstruct(ctx context.Context, points []recon.Point, cfg Config) (*meshmodel.Mesh, error) {
	dir := cfg.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	inFile := filepath.Join(dir, "parenttile-in.pts")
	outFile := filepath.Join(dir, "parenttile-out.obj")
	defer os.Remove(inFile)
	defer os.Remove(outFile)

	if err := recon.RunPoisson(ctx, cfg.ReconExe, cfg.ArgSchema, inFile, outFile, points, recon.PoissonOptions{
		Colors:  true,
		Normals: true,
	}, cfg.Timeout); err != nil {
		return nil, err
	}
	return recon.ReadMeshOBJ(outFile)
}

// pinBoundingBoxCorners marks the mesh vertices nearest to each of
// bounds's eight corners as pinned, so re-decimating the reconstructed
// mesh never moves the boundary the mesh shares with sibling tiles (spec
// §4.D step 4: "pin sampled corners on the bounding box to maintain
// tile-to-tile seams").
func pinBoundingBoxCorners(mesh *meshmodel.Mesh, bounds spatial.AABB) map[int]bool {
	pinned := make(map[int]bool, 8)
	for dx := 0; dx < 2; dx++ {
		for dy := 0; dy < 2; dy++ {
			for dz := 0; dz < 2; dz++ {
				corner := spatial.Vec3{
					pick1(bounds.Min[0], bounds.Max[0], dx),
					pick1(bounds.Min[1], bounds.Max[1], dy),
					pick1(bounds.Min[2], bounds.Max[2], dz),
				}
				if vi, ok := nearestVertex(mesh, corner); ok {
					pinned[vi] = true
				}
			}
		}
	}
	return pinned
}

func pick1(lo, hi float64, d int) float64 {
	if d == 0 {
		return lo
	}
	return hi
}

func nearestVertex(mesh *meshmodel.Mesh, p spatial.Vec3) (int, bool) {
	if len(mesh.Positions) == 0 {
		return 0, false
	}
	best := 0
	bestD := spatial.Dist(p, mesh.Positions[0])
	for i, v := range mesh.Positions[1:] {
		if d := spatial.Dist(p, v); d < bestD {
			best, bestD = i+1, d
		}
	}
	return best, true
}

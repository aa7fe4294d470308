// Package parenttile builds one interior node of the tile hierarchy from
// its already-built children: it resamples their surfaces, reconstructs
// and decimates a coarser mesh, transfers texture color down from the
// children, and computes the published geometric and texture error.
package parenttile

import (
	"time"

	"github.com/landform/terracore/internal/config"
)

// Config governs one parent tile build.
type Config struct {
	// TargetFaceCount bounds the parent mesh's face count after
	// reconstruction and, if needed, decimation.
	TargetFaceCount int
	// SearchExpansion grows the parent's clip bounds outward before
	// gathering child geometry, so the reconstructor sees context beyond
	// the clip boundary and doesn't fabricate an edge artifact there.
	SearchExpansion float64
	// SampleDensityPerFace is the number of sample points generated per
	// target face, feeding the reconstructor's input point cloud.
	SampleDensityPerFace float64
	// MinIslandDiameterRatio is forwarded to recon.RemoveSmallIslands.
	MinIslandDiameterRatio float64
	// TexelGroupSize is the number of parent texels a single sample is
	// assumed to represent, for the texture error estimate.
	TexelGroupSize float64
	// TextureWidth/TextureHeight size the parent's output texture.
	TextureWidth, TextureHeight int
	// MinPolygonalFaces is the floor below which the parent is published
	// as a point cloud instead of a mesh.
	MinPolygonalFaces int
	// ReconExe/ArgSchema/Timeout configure the Poisson reconstructor
	// invocation; typically copied from a loaded *config.Config. TrimmerExe
	// is carried alongside them, but BuildParent runs no trimmer.
	ReconExe   string
	TrimmerExe string
	ArgSchema  config.ArgSchema
	WorkDir    string
	Timeout    time.Duration
}

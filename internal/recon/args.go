package recon

import (
	"fmt"

	"github.com/landform/terracore/internal/config"
)

// PoissonOptions controls the optional flags passed to the Poisson
// reconstructor. Zero values are omitted from the argument vector except
// where noted.
type PoissonOptions struct {
	BType          int // 1, 2, or 3; 0 means omit
	SamplesPerNode int
	Degree         int
	WidthMeters    float64 // mutually exclusive with Depth; 0 means omit
	Depth          int
	Confidence     float64
	Density        bool
	EnvelopeFile   string
	Threads        int
	TempDir        string
	Colors         bool
	Normals        bool
}

// BuildPoissonArgs builds the Poisson reconstructor's argument vector for
// the given in/out files and options, honoring schema's legacy-vs-current
// flag layout.
func BuildPoissonArgs(schema config.ArgSchema, inFile, outFile string, opts PoissonOptions) []string {
	if schema == config.ArgSchemaLegacy {
		return buildPoissonArgsLegacy(inFile, outFile, opts)
	}
	return buildPoissonArgsCurrent(inFile, outFile, opts)
}

func buildPoissonArgsCurrent(inFile, outFile string, opts PoissonOptions) []string {
	args := []string{"--in", inFile, "--out", outFile}
	if opts.BType != 0 {
		args = append(args, "--bType", fmt.Sprintf("%d", opts.BType))
	}
	if opts.SamplesPerNode != 0 {
		args = append(args, "--samplesPerNode", fmt.Sprintf("%d", opts.SamplesPerNode))
	}
	if opts.Degree != 0 {
		args = append(args, "--degree", fmt.Sprintf("%d", opts.Degree))
	}
	switch {
	case opts.WidthMeters != 0:
		args = append(args, "--width", fmt.Sprintf("%g", opts.WidthMeters))
	case opts.Depth != 0:
		args = append(args, "--depth", fmt.Sprintf("%d", opts.Depth))
	}
	if opts.Confidence != 0 {
		args = append(args, "--confidence", fmt.Sprintf("%g", opts.Confidence))
	}
	if opts.Density {
		args = append(args, "--density")
	}
	if opts.EnvelopeFile != "" {
		args = append(args, "--envelope", opts.EnvelopeFile)
	}
	if opts.Threads != 0 {
		args = append(args, "--threads", fmt.Sprintf("%d", opts.Threads))
	}
	if opts.TempDir != "" {
		args = append(args, "--tempDir", opts.TempDir)
	}
	if opts.Colors {
		args = append(args, "--colors")
	}
	if opts.Normals {
		args = append(args, "--normals", "2")
	}
	return args
}

// buildPoissonArgsLegacy matches older Poisson builds predating the
// double-dash flag layout: single-dash flags, no --envelope/--tempDir
// support (the legacy binary never shipped those).
func buildPoissonArgsLegacy(inFile, outFile string, opts PoissonOptions) []string {
	args := []string{"-in", inFile, "-out", outFile}
	if opts.BType != 0 {
		args = append(args, "-bType", fmt.Sprintf("%d", opts.BType))
	}
	if opts.SamplesPerNode != 0 {
		args = append(args, "-samplesPerNode", fmt.Sprintf("%d", opts.SamplesPerNode))
	}
	if opts.Degree != 0 {
		args = append(args, "-degree", fmt.Sprintf("%d", opts.Degree))
	}
	switch {
	case opts.WidthMeters != 0:
		args = append(args, "-width", fmt.Sprintf("%g", opts.WidthMeters))
	case opts.Depth != 0:
		args = append(args, "-depth", fmt.Sprintf("%d", opts.Depth))
	}
	if opts.Confidence != 0 {
		args = append(args, "-confidence", fmt.Sprintf("%g", opts.Confidence))
	}
	if opts.Density {
		args = append(args, "-density")
	}
	if opts.Threads != 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", opts.Threads))
	}
	if opts.Colors {
		args = append(args, "-colors")
	}
	if opts.Normals {
		args = append(args, "-normals", "2")
	}
	return args
}

// BuildFSSRArgs builds the floating-scale surface reconstructor's argument
// vector: positional in/out files, no flag schema variance between legacy
// and current.
func BuildFSSRArgs(inFile, outFile string) []string {
	return []string{inFile, outFile}
}

// BuildFSSRTrimArgs builds the companion trimmer's cleanup invocation,
// dropping components with fewer than minVerts vertices.
func BuildFSSRTrimArgs(minVerts int, outFile, cleanFile string) []string {
	return []string{"-c", fmt.Sprintf("%d", minVerts), outFile, cleanFile}
}

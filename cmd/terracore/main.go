// Command terracore decimates, tiles, and backproject-textures a
// reconstructed mesh, publishing a directory of per-tile assets plus the
// JSON manifests a tile viewer reads lazily.
//
// This is a minimal demonstration binary: it wires the core pipeline
// end to end for a single mesh and observation manifest. A full ingest
// front end (credential loading, archive discovery, alignment) is out of
// scope and remains an external collaborator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/charmbracelet/log"

	"github.com/landform/terracore/internal/config"
	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/parenttile"
	"github.com/landform/terracore/internal/recon"
	"github.com/landform/terracore/internal/scheduler"
	"github.com/landform/terracore/internal/spatial"
	"github.com/landform/terracore/internal/texture"
	"github.com/landform/terracore/internal/tileset"
	"github.com/landform/terracore/internal/tiletree"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		observationsPath string
		outputDir        string
		configPath       string
		scheme           string
		maxFacesPerTile  int
		minTileExtent    float64
		targetFaceCount  int
		searchExpansion  float64
		sampleDensity    float64
		islandRatio      float64
		texelGroupSize   float64
		workDir          string
		reconTimeout     time.Duration
		textureFormat    string
		textureQuality   int
		textureSize      int
		concurrency      int
		verbose          bool
		showVersion      bool
		cpuProfile       string
		memProfile       string
	)

	flag.StringVar(&observationsPath, "observations", "", "Path to a JSON observation manifest (camera images + poses)")
	flag.StringVar(&outputDir, "out", "", "Output directory for the published tileset (required)")
	flag.StringVar(&configPath, "config", "", "Optional TOML config file overriding tool paths and budgets")
	flag.StringVar(&scheme, "scheme", "quadtree", "Tiling scheme: octree, quadtree, flat")
	flag.IntVar(&maxFacesPerTile, "max-faces-per-tile", 20000, "Face budget stopping the recursive tile split")
	flag.Float64Var(&minTileExtent, "min-tile-extent", 0, "Minimum tile extent (world units) stopping the split; 0 disables")
	flag.IntVar(&targetFaceCount, "parent-target-faces", 5000, "Target face count for a reconstructed parent tile")
	flag.Float64Var(&searchExpansion, "parent-search-expansion", 1.0, "World-unit margin grown around a parent's clip bounds before gathering children")
	flag.Float64Var(&sampleDensity, "parent-sample-density", 6.0, "Sample points generated per target face when resampling children")
	flag.Float64Var(&islandRatio, "min-island-diameter-ratio", 0.05, "Small connected components below this fraction of the tile diameter are discarded")
	flag.Float64Var(&texelGroupSize, "texel-group-size", 4.0, "Parent texels a single sample is assumed to represent, for the texture error estimate")
	flag.StringVar(&workDir, "work-dir", "", "Scratch directory for reconstructor input/output files (default: OS temp dir)")
	flag.DurationVar(&reconTimeout, "recon-timeout", 5*time.Minute, "Wall-clock timeout for one reconstructor invocation")
	flag.StringVar(&textureFormat, "texture-format", "jpeg", "Output texture encoding: jpeg, png, webp")
	flag.IntVar(&textureQuality, "texture-quality", 90, "JPEG/WebP texture quality 1-100")
	flag.IntVar(&textureSize, "texture-size", 1024, "Leaf/parent texture width and height in texels")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel tile-build workers")
	flag.BoolVar(&verbose, "verbose", false, "Debug-level logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terracore [flags] <input-mesh.obj>\n\n")
		fmt.Fprintf(os.Stderr, "Decimate, tile, and backproject-texture a reconstructed mesh.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("terracore %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logLevel := log.InfoLevel
	if verbose {
		logLevel = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           logLevel,
	})

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			logger.Fatalf("creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatalf("starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}
	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				logger.Fatalf("creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Fatalf("writing memory profile: %v", err)
			}
		}()
	}

	args := flag.Args()
	if len(args) != 1 || outputDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	meshPath := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	tilingScheme, err := tiletree.ParseScheme(scheme)
	if err != nil {
		logger.Fatalf("tiling scheme: %v", err)
	}

	textureEncoder, err := encode.NewEncoder(textureFormat, textureQuality)
	if err != nil {
		logger.Fatalf("texture encoder: %v", err)
	}

	fmt.Printf("terracore %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-20s %s\n", "Scheme:", scheme)
	fmt.Printf("  %-20s %d\n", "Max faces/tile:", maxFacesPerTile)
	fmt.Printf("  %-20s %d\n", "Parent target faces:", targetFaceCount)
	fmt.Printf("  %-20s %s (quality %d, %dpx)\n", "Texture:", textureFormat, textureQuality, textureSize)
	fmt.Printf("  %-20s %d\n", "Concurrency:", concurrency)
	fmt.Printf("  %-20s %s\n", "Mesh:", meshPath)
	fmt.Printf("  %-20s %s\n", "Output:", outputDir)

	start := time.Now()

	mesh, err := recon.ReadMeshOBJ(meshPath)
	if err != nil {
		logger.Fatalf("reading input mesh: %v", err)
	}
	if err := mesh.Validate(); err != nil {
		logger.Fatalf("validating input mesh: %v", err)
	}
	if mesh.Normals == nil {
		mesh.ComputeNormals()
	}
	logger.Infof("loaded mesh: %d vertices, %d faces", len(mesh.Positions), mesh.FaceCount())

	var observations []*observation.Observation
	if observationsPath != "" {
		observations, err = observation.LoadManifest(observationsPath)
		if err != nil {
			logger.Fatalf("loading observations: %v", err)
		}
		logger.Infof("loaded %d observation(s)", len(observations))
	}

	cache := observation.NewCache(cfg.ObservationCacheBudgetBytes, observation.NewLoader(observations))

	occluder, err := buildOccluder(mesh)
	if err != nil {
		logger.Fatalf("building occlusion index: %v", err)
	}

	tree, err := tiletree.BuildTileTree(mesh, observations, tiletree.Config{
		Scheme:          tilingScheme,
		MaxFacesPerTile: maxFacesPerTile,
		MinTileExtent:   minTileExtent,
	})
	if err != nil {
		logger.Fatalf("building tile tree: %v", err)
	}
	logger.Infof("tile tree built: %d tiles", len(tree.Tiles))

	writer, err := tileset.NewWriter(outputDir, textureEncoder)
	if err != nil {
		logger.Fatalf("creating tileset writer: %v", err)
	}

	texCfg := texture.DefaultConfig()
	texCfg.Width, texCfg.Height = textureSize, textureSize
	texCfg.HysteresisRadius = cfg.HysteresisRadius
	texCfg.HysteresisTolerance = cfg.HysteresisTolerance
	texCfg.Concurrency = 1

	parentCfg := parenttile.Config{
		TargetFaceCount:        targetFaceCount,
		SearchExpansion:        searchExpansion,
		SampleDensityPerFace:   sampleDensity,
		MinIslandDiameterRatio: islandRatio,
		TexelGroupSize:         texelGroupSize,
		TextureWidth:           textureSize,
		TextureHeight:          textureSize,
		MinPolygonalFaces:      cfg.MinPolygonalFaces,
		ReconExe:               cfg.PoissonExe,
		TrimmerExe:             cfg.PoissonTrimmerExe,
		ArgSchema:              cfg.ReconArgSchema,
		WorkDir:                workDir,
		Timeout:                reconTimeout,
	}

	b := newTileBuilder(tree, writer, outputDir, texCfg, parentCfg, occluder, cache, observations, logger)

	report, err := scheduler.Run(context.Background(), b.tasks(), concurrency)
	if err != nil {
		logger.Fatalf("scheduling tile build: %v", err)
	}
	if failed := report.Failed(); len(failed) > 0 {
		logger.Errorf("%d tile(s) failed to build:", len(failed))
		for _, id := range failed {
			logger.Errorf("  %s: %v", id, report.Results[id].Err)
		}
		os.Exit(1)
	}

	if err := writer.Finalize(tree, observations); err != nil {
		logger.Fatalf("finalizing manifests: %v", err)
	}

	logger.Infof("done: %d tiles in %s → %s", len(tree.Tiles), time.Since(start).Round(time.Millisecond), outputDir)
}

// buildOccluder builds a BVH over mesh's own triangles, shared by every
// leaf tile's texturing pass so occlusion rays see more than the single
// tile being textured (texture.Leaf's occluder parameter).
func buildOccluder(mesh interface {
	FaceCount() int
	Triangle(i int) (p0, p1, p2 spatial.Vec3)
}) (*spatial.TriangleIndex, error) {
	tris := make([]spatial.Triangle, mesh.FaceCount())
	for i := range tris {
		p0, p1, p2 := mesh.Triangle(i)
		tris[i] = spatial.Triangle{P0: p0, P1: p1, P2: p2, ID: i}
	}
	return spatial.BuildTriangleIndex(tris)
}

// Package config holds the process-wide settings that every other package
// reads but none of them mutate: external tool paths, worker parallelism,
// and the observation cache's memory budget.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// ArgSchema selects which command-line argument layout Recon uses when
// invoking the external surface reconstruction tool.
type ArgSchema string

const (
	// ArgSchemaCurrent is the tool's present-day flag layout.
	ArgSchemaCurrent ArgSchema = "current"
	// ArgSchemaLegacy matches older Poisson/FSSR builds whose flags predate
	// the current layout (spec §9 "legacy_arg_schema").
	ArgSchemaLegacy ArgSchema = "legacy"
)

// Config is the immutable, process-wide configuration. Load it once via
// Load or MustLoad; nothing in this module accepts a *Config and mutates
// it.
type Config struct {
	// PoissonExe is the path to the surface reconstruction executable.
	PoissonExe string
	// PoissonTrimmerExe is the path to the companion trimmer executable
	// that clips low-confidence regions from the Poisson output, empty if
	// the build doesn't ship one.
	PoissonTrimmerExe string
	// ReconArgSchema selects the legacy or current CLI flag layout.
	ReconArgSchema ArgSchema

	// Concurrency is the configured worker-pool size; defaults to
	// runtime.NumCPU(). cmd/terracore does not read it: it sizes
	// scheduler.Run's pool from its own -concurrency flag.
	Concurrency int

	// ObservationCacheBudgetBytes bounds the observation image cache's
	// resident set before it evicts unreferenced entries.
	ObservationCacheBudgetBytes int64

	// HysteresisRadius is the neighborhood radius (in texels) the
	// Backproject Texturer searches to prefer a previously-chosen
	// observation over a marginally better candidate.
	HysteresisRadius int
	// HysteresisTolerance is the fractional cost margin within which a
	// candidate is considered "not meaningfully better" than the
	// neighborhood's prevailing choice.
	HysteresisTolerance float64

	// MinPolygonalFaces is the face-count floor below which a parent tile
	// is written as a coarse point cloud instead of a polygonal mesh.
	MinPolygonalFaces int
}

// fileOverride is the optional TOML layer read from a config file; any
// field left unset keeps the env/default value.
type fileOverride struct {
	PoissonExe                  string  `toml:"poisson_exe"`
	PoissonTrimmerExe           string  `toml:"poisson_trimmer_exe"`
	ReconArgSchema              string  `toml:"recon_arg_schema"`
	Concurrency                 int     `toml:"concurrency"`
	ObservationCacheBudgetBytes int64   `toml:"observation_cache_budget_bytes"`
	HysteresisRadius            int     `toml:"hysteresis_radius"`
	HysteresisTolerance         float64 `toml:"hysteresis_tolerance"`
	MinPolygonalFaces           int     `toml:"min_polygonal_faces"`
}

var (
	once    sync.Once
	current *Config
	loadErr error
)

// Default returns the configuration defaults applied before env vars and
// an optional config file are layered on top.
func Default() Config {
	return Config{
		PoissonExe:                  "PoissonRecon",
		PoissonTrimmerExe:           "",
		ReconArgSchema:              ArgSchemaCurrent,
		Concurrency:                 runtime.NumCPU(),
		ObservationCacheBudgetBytes: 2 << 30, // 2 GiB
		HysteresisRadius:            2,
		HysteresisTolerance:         0.05,
		MinPolygonalFaces:           4,
	}
}

// Load reads configuration once per process: defaults, then environment
// variables, then an optional TOML file at configPath (ignored if empty).
// Later calls return the first call's *Config and error regardless of
// configPath; Load's layering only happens on the first call.
func Load(configPath string) (*Config, error) {
	once.Do(func() {
		cfg := Default()
		applyEnv(&cfg)
		if configPath != "" {
			var ov fileOverride
			if _, err := toml.DecodeFile(configPath, &ov); err != nil {
				loadErr = fmt.Errorf("config: reading %s: %w", configPath, err)
				return
			}
			applyFileOverride(&cfg, ov)
		}
		current = &cfg
	})
	return current, loadErr
}

// MustLoad is Load but panics on error, for entry points that cannot
// proceed without a valid configuration.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LANDFORM_POISSON_EXE"); v != "" {
		cfg.PoissonExe = v
	}
	if v := os.Getenv("LANDFORM_POISSON_TRIMMER_EXE"); v != "" {
		cfg.PoissonTrimmerExe = v
	}
	if v := os.Getenv("LANDFORM_POISSON_EXE_LEGACY"); v != "" {
		cfg.PoissonExe = v
		cfg.ReconArgSchema = ArgSchemaLegacy
	}
	if v := os.Getenv("LANDFORM_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
}

func applyFileOverride(cfg *Config, ov fileOverride) {
	if ov.PoissonExe != "" {
		cfg.PoissonExe = ov.PoissonExe
	}
	if ov.PoissonTrimmerExe != "" {
		cfg.PoissonTrimmerExe = ov.PoissonTrimmerExe
	}
	switch ov.ReconArgSchema {
	case string(ArgSchemaLegacy):
		cfg.ReconArgSchema = ArgSchemaLegacy
	case string(ArgSchemaCurrent):
		cfg.ReconArgSchema = ArgSchemaCurrent
	}
	if ov.Concurrency > 0 {
		cfg.Concurrency = ov.Concurrency
	}
	if ov.ObservationCacheBudgetBytes > 0 {
		cfg.ObservationCacheBudgetBytes = ov.ObservationCacheBudgetBytes
	}
	if ov.HysteresisRadius > 0 {
		cfg.HysteresisRadius = ov.HysteresisRadius
	}
	if ov.HysteresisTolerance > 0 {
		cfg.HysteresisTolerance = ov.HysteresisTolerance
	}
	if ov.MinPolygonalFaces > 0 {
		cfg.MinPolygonalFaces = ov.MinPolygonalFaces
	}
}

// resetForTest clears the sync.Once guard. Only called from this
// package's own tests.
func resetForTest() {
	once = sync.Once{}
	current = nil
	loadErr = nil
}

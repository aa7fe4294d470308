package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	resetForTest()
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "PoissonRecon", cfg.PoissonExe)
	require.Equal(t, ArgSchemaCurrent, cfg.ReconArgSchema)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	resetForTest()
	t.Setenv("LANDFORM_POISSON_EXE", "/usr/local/bin/PoissonRecon")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin/PoissonRecon", cfg.PoissonExe)
}

func TestLoadLegacyEnvSwitchesSchema(t *testing.T) {
	resetForTest()
	t.Setenv("LANDFORM_POISSON_EXE_LEGACY", "/opt/poisson-old")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ArgSchemaLegacy, cfg.ReconArgSchema)
	require.Equal(t, "/opt/poisson-old", cfg.PoissonExe)
}

func TestLoadOnlyAppliesOnFirstCall(t *testing.T) {
	resetForTest()
	t.Setenv("LANDFORM_POISSON_EXE", "/first")
	cfg1, _ := Load("")
	os.Setenv("LANDFORM_POISSON_EXE", "/second")
	cfg2, _ := Load("")
	require.Same(t, cfg1, cfg2)
	require.Equal(t, "/first", cfg2.PoissonExe)
}

func TestLoadFileOverride(t *testing.T) {
	resetForTest()
	dir := t.TempDir()
	path := dir + "/terracore.toml"
	require.NoError(t, os.WriteFile(path, []byte(`
poisson_exe = "/from/file/PoissonRecon"
min_polygonal_faces = 16
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/from/file/PoissonRecon", cfg.PoissonExe)
	require.Equal(t, 16, cfg.MinPolygonalFaces)
}

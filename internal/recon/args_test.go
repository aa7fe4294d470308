package recon

import (
	"testing"

	"github.com/landform/terracore/internal/config"
	"github.com/stretchr/testify/require"
)

func TestBuildPoissonArgsCurrentSchema(t *testing.T) {
	args := BuildPoissonArgs(config.ArgSchemaCurrent, "in.pts", "out.ply", PoissonOptions{
		BType: 2, Depth: 10, Colors: true, Normals: true,
	})
	require.Equal(t, []string{
		"--in", "in.pts", "--out", "out.ply",
		"--bType", "2",
		"--depth", "10",
		"--colors",
		"--normals", "2",
	}, args)
}

func TestBuildPoissonArgsLegacySchema(t *testing.T) {
	args := BuildPoissonArgs(config.ArgSchemaLegacy, "in.pts", "out.ply", PoissonOptions{
		Depth: 8,
	})
	require.Equal(t, []string{"-in", "in.pts", "-out", "out.ply", "-depth", "8"}, args)
}

func TestBuildPoissonArgsWidthTakesPrecedenceOverDepth(t *testing.T) {
	args := BuildPoissonArgs(config.ArgSchemaCurrent, "in.pts", "out.ply", PoissonOptions{
		WidthMeters: 0.5, Depth: 10,
	})
	require.Contains(t, args, "--width")
	require.NotContains(t, args, "--depth")
}

func TestBuildFSSRArgs(t *testing.T) {
	require.Equal(t, []string{"a.pts", "b.ply"}, BuildFSSRArgs("a.pts", "b.ply"))
}

func TestBuildFSSRTrimArgs(t *testing.T) {
	require.Equal(t, []string{"-c", "50", "b.ply", "c.ply"}, BuildFSSRTrimArgs(50, "b.ply", "c.ply"))
}

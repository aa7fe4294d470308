package recon

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/landform/terracore/internal/config"
	"github.com/stretchr/testify/require"
)

func TestRunReportsMissingExecutable(t *testing.T) {
	err := run(context.Background(), "terracore-recon-tool-that-does-not-exist", nil, 0)
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
}

func TestRunTimesOut(t *testing.T) {
	// "sleep" is present on every POSIX system this runs on; a 10ms
	// timeout against a 5s sleep reliably exercises the deadline path.
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available on PATH")
	}
	err := run(context.Background(), "sleep", []string{"5"}, 10*time.Millisecond)
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	require.True(t, toolErr.TimedOut)
}

func TestCheckOutputRejectsMissingFile(t *testing.T) {
	err := checkOutput("tool", nil, 0, filepath.Join(t.TempDir(), "missing.ply"))
	require.Error(t, err)
}

func TestCheckOutputRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.ply")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	err := checkOutput("tool", nil, 0, path)
	require.Error(t, err)
}

func TestCheckOutputAcceptsNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ply")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	require.NoError(t, checkOutput("tool", nil, 0, path))
}

func TestRunPoissonRejectsMissingExecutable(t *testing.T) {
	dir := t.TempDir()
	err := RunPoisson(context.Background(), "terracore-recon-tool-that-does-not-exist", config.ArgSchemaCurrent,
		filepath.Join(dir, "in.pts"), filepath.Join(dir, "out.ply"), nil, PoissonOptions{}, 0)
	require.Error(t, err)
}

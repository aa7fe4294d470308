// Package recon invokes the external Poisson and floating-scale surface
// reconstruction executables as subprocesses, writing their point-cloud
// input and reading back the reconstructed mesh.
package recon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/landform/terracore/internal/config"
)

// run executes tool with args, enforcing timeout (zero means no timeout)
// and returning a *ToolError on any failure.
func run(ctx context.Context, tool string, args []string, timeout time.Duration) error {
	if _, err := exec.LookPath(tool); err != nil {
		return &ToolError{Tool: tool, Args: args, Cause: fmt.Errorf("%s not found on PATH: %w", tool, err)}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Seconds()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ToolError{
			Tool: tool, Args: args, Elapsed: elapsed, TimedOut: true,
			StderrTail: tailString(stderr.String(), stderrTailBytes),
		}
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ToolError{
			Tool: tool, Args: args, ExitCode: exitCode, Elapsed: elapsed,
			Cause:      err,
			StderrTail: tailString(stderr.String(), stderrTailBytes),
		}
	}
	return nil
}

// checkOutput rejects a missing or empty output file as a task failure,
// per the "non-zero exit code, missing output file, or empty output is a
// task failure" rule.
func checkOutput(tool string, args []string, elapsed float64, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ToolError{Tool: tool, Args: args, Elapsed: elapsed, Cause: fmt.Errorf("output file missing: %w", err)}
	}
	if info.Size() == 0 {
		return &ToolError{Tool: tool, Args: args, Elapsed: elapsed, Cause: errors.New("output file is empty")}
	}
	return nil
}

// RunPoisson writes points to inFile and invokes the Poisson
// reconstructor, which writes its mesh to outFile. The caller is
// responsible for removing both the input and output files.
func RunPoisson(ctx context.Context, exePath string, schema config.ArgSchema, inFile, outFile string, points []Point, opts PoissonOptions, timeout time.Duration) error {
	if err := WritePointCloud(inFile, points); err != nil {
		return err
	}
	args := BuildPoissonArgs(schema, inFile, outFile, opts)

	start := time.Now()
	if err := run(ctx, exePath, args, timeout); err != nil {
		return err
	}
	return checkOutput(exePath, args, time.Since(start).Seconds(), outFile)
}

// RunFSSR writes points to inFile, invokes the floating-scale surface
// reconstructor (which writes outFile), then, if trimmerExe is non-empty,
// its trimmer, which writes the cleaned mesh to cleanFile.
func RunFSSR(ctx context.Context, exePath, trimmerExe string, inFile, outFile, cleanFile string, points []Point, minVerts int, timeout time.Duration) error {
	if err := WritePointCloud(inFile, points); err != nil {
		return err
	}

	start := time.Now()
	args := BuildFSSRArgs(inFile, outFile)
	if err := run(ctx, exePath, args, timeout); err != nil {
		return err
	}
	if err := checkOutput(exePath, args, time.Since(start).Seconds(), outFile); err != nil {
		return err
	}

	if trimmerExe == "" {
		return nil
	}

	trimStart := time.Now()
	trimArgs := BuildFSSRTrimArgs(minVerts, outFile, cleanFile)
	if err := run(ctx, trimmerExe, trimArgs, timeout); err != nil {
		return err
	}
	return checkOutput(trimmerExe, trimArgs, time.Since(trimStart).Seconds(), cleanFile)
}

//go:build e2e

// cli_harness_test.go builds the sortvis binary and runs it against an
// isolated workspace.
package integration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CLIHarness manages a sortvis binary for E2E testing.
type CLIHarness struct {
	// BinaryPath is the path to the built binary.
	BinaryPath string

	// WorkDir is the directory commands run in and the --dir they use.
	WorkDir string

	t *testing.T
}

// CLIResult contains the output from a CLI command execution.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success returns true if the command completed with exit code 0.
func (r *CLIResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NewCLIHarness builds the binary into a temporary directory and creates
// an empty workspace next to it.
func NewCLIHarness(t *testing.T) *CLIHarness {
	t.Helper()

	root := findProjectRoot(t)
	tmpDir := t.TempDir()
	binaryPath := filepath.Join(tmpDir, "sortvis")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sortvis")
	cmd.Dir = root
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build sortvis binary: %s", output)

	workDir := filepath.Join(tmpDir, "workspace")
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	return &CLIHarness{BinaryPath: binaryPath, WorkDir: workDir, t: t}
}

// Run executes a command with a 30 second timeout.
func (h *CLIHarness) Run(args ...string) *CLIResult {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return h.RunWithContext(ctx, args...)
}

// RunWithContext executes a command in the workspace.
func (h *CLIHarness) RunWithContext(ctx context.Context, args ...string) *CLIResult {
	h.t.Helper()

	cmd := exec.CommandContext(ctx, h.BinaryPath, append([]string{"--dir", h.WorkDir}, args...)...)
	cmd.Dir = h.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &CLIResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result
}

// findProjectRoot walks up from the working directory to the go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found")
		dir = parent
	}
}

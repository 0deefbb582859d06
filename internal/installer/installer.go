// Package installer holds the idempotent tool installers. Each installer
// checks for an existing, sufficient installation and performs nothing when
// satisfied; otherwise it runs the OS-family-specific install sequence.
// Failures are returned, not retried: the orchestrator aborts the run.
package installer

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/manifest"
	"github.com/convoy-hq/convoy-prereqs/internal/pkgmgr"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// Deps carries the per-run facts every installer needs. Resolved once by the
// orchestrator and threaded through explicitly.
type Deps struct {
	Family   platform.Family
	OS       platform.OSRelease
	Arch     string // GOARCH of this build: amd64, arm64
	Backend  pkgmgr.Backend
	Manifest manifest.Manifest
	User     platform.User
}

// runCommand executes a command returning combined output; overridable so
// tests can record invocations.
var runCommand = func(name string, args ...string) ([]byte, error) {
	logger.Debug("running: %s %s\n", name, strings.Join(args, " "))
	return exec.Command(name, args...).CombinedOutput()
}

// lookPath is exec.LookPath behind a seam for detection tests.
var lookPath = exec.LookPath

// commandExists reports whether an executable is on the search path.
func commandExists(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// run executes a command and folds a failure's output into the error.
func run(name string, args ...string) error {
	out, err := runCommand(name, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w\noutput: %s", name, strings.Join(args, " "), err, out)
	}
	return nil
}

// runShell runs a pipeline through bash. Vendor setup scripts are distributed
// as curl-to-bash one-liners.
func runShell(script string) error {
	return run("bash", "-c", script)
}

// commandOutput returns trimmed stdout of a command.
func commandOutput(name string, args ...string) (string, error) {
	out, err := runCommand(name, args...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w\noutput: %s", name, strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out)), nil
}

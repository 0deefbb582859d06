package main

import (
	"github.com/convoy-hq/convoy-prereqs/cmd"
)

// main is the program entry point. It delegates to cmd.Execute(), which owns
// command line parsing and the installation workflow.
//
// convoy-prereqs bootstraps a bare Linux host so it can run the convoy CLI in
// server mode:
//   - Detects the OS family (RedHat-like vs Debian-like) and dispatches to the
//     matching native package manager.
//   - Installs the prerequisite toolchain: Node.js, Docker, the Infisical
//     secrets CLI, the mongosh database shell, and the convoy CLI itself.
//   - Resolves a registry token (environment or interactive prompt) and
//     verifies it against the GitHub user and org-package endpoints before any
//     authenticated install is attempted.
//   - With --update, skips the prerequisites and only installs or updates the
//     convoy CLI from the private npm registry.
//
// Each installer is idempotent: an already-present, version-sufficient tool is
// skipped. Any installer failure aborts the run with a non-zero exit.
func main() {
	cmd.Execute()
}

// Package testutil provides helpers for exec-heavy tests: executable shell
// stubs placed on a temporary PATH stand in for real package managers and
// tools.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteStub writes an executable shell stub that exits successfully.
func WriteStub(t *testing.T, dir, name string) {
	t.Helper()
	WriteStubWithOutput(t, dir, name, "", 0)
}

// WriteStubWithOutput writes an executable shell stub that prints output and
// exits with the given code.
func WriteStubWithOutput(t *testing.T, dir, name, output string, exitCode int) {
	t.Helper()
	path := filepath.Join(dir, name)
	content := fmt.Sprintf("#!/bin/sh\nprintf '%%s' %q\nexit %d\n", output, exitCode)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

// PrependPath prepends dir to PATH for the duration of the test.
func PrependPath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

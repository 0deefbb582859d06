package pkgmgr

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// Backend wraps a native package manager behind a uniform install operation.
// Tool installers depend only on this capability, never on the family tag.
type Backend interface {
	// Name returns the underlying package manager binary name.
	Name() string
	// Refresh updates the package index where the manager needs it.
	Refresh() error
	// Install installs the named packages, propagating the native tool's
	// exit status. No retries, no pinning beyond the given names.
	Install(pkgs ...string) error
}

// runCommand executes a package manager invocation with extra environment
// entries appended. Overridable so tests can record argv without side effects.
var runCommand = func(extraEnv []string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	logger.Debug("running: %s %s\n", name, strings.Join(args, " "))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w\noutput: %s", name, strings.Join(args, " "), err, out)
	}
	return nil
}

// ForFamily returns the backend for the resolved OS family. An unsupported
// family is an error, never a silent no-op.
func ForFamily(family platform.Family) (Backend, error) {
	switch family {
	case platform.FamilyFedora:
		return yumBackend{}, nil
	case platform.FamilyDebian:
		return aptBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported OS family %q: need a RedHat-like or Debian-like host", family)
	}
}

type yumBackend struct{}

func (yumBackend) Name() string { return "yum" }

// Refresh is a no-op: yum resolves metadata per transaction.
func (yumBackend) Refresh() error { return nil }

func (yumBackend) Install(pkgs ...string) error {
	args := append([]string{"-y", "install"}, pkgs...)
	return runCommand(nil, "yum", args...)
}

type aptBackend struct{}

func (aptBackend) Name() string { return "apt-get" }

func (aptBackend) Refresh() error {
	return runCommand(aptEnv(), "apt-get", "update")
}

func (aptBackend) Install(pkgs ...string) error {
	args := append([]string{"install", "-y"}, pkgs...)
	return runCommand(aptEnv(), "apt-get", args...)
}

func aptEnv() []string {
	return []string{"DEBIAN_FRONTEND=noninteractive"}
}

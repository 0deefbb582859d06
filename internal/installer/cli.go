package installer

import (
	"fmt"
	"strings"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/registry"
)

// installCLIFunc performs the authenticated registry install; a var so tests
// can intercept it.
var installCLIFunc = registry.InstallCLI

// EnsureCLI installs the proprietary CLI on the full-install path. An
// existing binary is left alone regardless of version; version moves go
// through the update path.
func EnsureCLI(d Deps, token, version string) error {
	bin := d.Manifest.Product.Binary
	if commandExists(bin) {
		logger.Info("%s already installed. Skipping (run with --update to change versions).\n", bin)
		return nil
	}
	return installCLIFunc(registry.InstallOptions{
		Product: d.Manifest.Product,
		Token:   token,
		Version: version,
		User:    d.User,
	})
}

// UpdateCLI is the update-only path: it installs or updates the proprietary
// CLI at the requested version and prints the before/after comparison. When
// an explicit version is requested and already installed, no install is
// attempted.
func UpdateCLI(d Deps, token, version string) error {
	bin := d.Manifest.Product.Binary
	spec := registry.NormalizeVersion(version)
	// cliVersion strips a leading "v" from the binary's output; the requested
	// version gets the same treatment so "v1.2.3" matches an installed 1.2.3.
	want := strings.TrimPrefix(spec, "v")

	before := cliVersion(bin)
	if spec != "latest" && before == want {
		logger.Info("%s version %s is current.\n", bin, before)
		return nil
	}

	if err := installCLIFunc(registry.InstallOptions{
		Product: d.Manifest.Product,
		Token:   token,
		Version: version,
		User:    d.User,
	}); err != nil {
		return err
	}

	after := cliVersion(bin)
	switch {
	case after == "":
		return fmt.Errorf("%s is not on the search path after install", bin)
	case before == after:
		logger.Info("%s version %s is current.\n", bin, after)
	case before == "":
		logger.Info("%s %s installed.\n", bin, after)
	default:
		logger.Info("%s updated from %s to %s.\n", bin, before, after)
	}
	return nil
}

// cliVersion reads the installed CLI version, or "" when the binary is
// absent or does not answer.
func cliVersion(bin string) string {
	if !commandExists(bin) {
		return ""
	}
	out, err := commandOutput(bin, "--version")
	if err != nil {
		logger.Debug("%s --version failed: %v\n", bin, err)
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(out), "v")
}

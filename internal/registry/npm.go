package registry

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/manifest"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// credFilePrefix names the single-use npmrc files staged in the temp dir.
// The interrupt sweep matches on it.
const credFilePrefix = ".convoy-npmrc-"

// InstallOptions parametrizes one authenticated global install of the
// proprietary CLI.
type InstallOptions struct {
	Product manifest.Product
	Token   string
	// Version is the target selector: empty or "latest" means the registry's
	// latest dist-tag, anything else is used verbatim.
	Version string
	// User is who npm runs as. Running the global install as root would leave
	// root-owned files the operator cannot use.
	User platform.User
}

// runAsUser executes a command as the given non-privileged user. Kept as a
// package var so tests can record the invocation; the default re-execs
// through sudo since the process itself runs as root.
var runAsUser = func(u platform.User, name string, args ...string) ([]byte, error) {
	full := append([]string{"-u", u.Name, "-H", name}, args...)
	logger.Debug("running: sudo -u %s %s %s\n", u.Name, name, strings.Join(args, " "))
	return exec.Command("sudo", full...).CombinedOutput()
}

// NormalizeVersion maps the empty string and any casing of "latest" to the
// npm dist-tag "latest"; every other value passes through verbatim.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "latest") {
		return "latest"
	}
	return v
}

// InstallCLI installs the proprietary CLI globally through the private
// registry. The credential lives in a 0600 temp npmrc scoping only the
// product's namespace (the default public registry stays untouched for
// everything else) and is removed unconditionally before returning.
func InstallCLI(opts InstallOptions) error {
	spec := NormalizeVersion(opts.Version)

	credPath, err := writeTempCredFile(opts)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := os.Remove(credPath); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warn("could not remove temporary credential file %s: %v\n", credPath, rerr)
		}
	}()

	pkgSpec := opts.Product.NpmPackage + "@" + spec
	logger.Info("Installing %s as %s...\n", pkgSpec, opts.User.Name)
	out, err := runAsUser(opts.User, "npm",
		"install", "-g", pkgSpec,
		"--userconfig", credPath,
		"--no-fund", "--no-audit",
	)
	if err != nil {
		return fmt.Errorf("npm install of %s failed: %w\noutput: %s", pkgSpec, err, out)
	}
	return nil
}

// writeTempCredFile stages the scoped registry credential: the product scope
// is pinned to the private registry and the auth token is bound to that
// registry host only. The file is owned by the invoking user and unreadable
// to anyone else.
func writeTempCredFile(opts InstallOptions) (string, error) {
	f, err := os.CreateTemp(os.TempDir(), credFilePrefix)
	if err != nil {
		return "", fmt.Errorf("create temporary credential file: %w", err)
	}
	path := f.Name()

	content := fmt.Sprintf("%s:registry=%s/\n//%s/:_authToken=%s\n",
		opts.Product.PackageScope(), strings.TrimSuffix(opts.Product.NpmRegistry, "/"),
		opts.Product.RegistryHost(), opts.Token)

	_, werr := f.WriteString(content)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write temporary credential file: %w", errors.Join(werr, cerr))
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("restrict temporary credential file: %w", err)
	}
	if err := os.Chown(path, opts.User.UID, opts.User.GID); err != nil {
		// npm runs as the invoking user and must be able to read the file.
		_ = os.Remove(path)
		return "", fmt.Errorf("chown temporary credential file: %w", err)
	}
	return path, nil
}

// CleanupStaleCredFiles removes leftover temporary credential files in dir
// that are younger than maxAge. It runs on interrupt so an aborted install
// does not orphan a secret on disk; older matches are left alone since they
// cannot be ours. Returns the number of files removed.
func CleanupStaleCredFiles(dir string, maxAge time.Duration) int {
	matches, err := filepath.Glob(filepath.Join(dir, credFilePrefix+"*"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || time.Since(info.ModTime()) > maxAge {
			continue
		}
		if err := os.Remove(match); err == nil {
			logger.Debug("removed stale credential file %s\n", match)
			removed++
		}
	}
	return removed
}

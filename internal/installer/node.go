package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// EnsureNode installs Node.js when absent or below the minimum major version.
// A sufficient pre-existing install is left untouched; an outdated one is
// upgraded in place through the same install sequence.
func EnsureNode(d Deps) error {
	minMajor := d.Manifest.Runtime.MinMajor
	if commandExists("node") {
		major, err := nodeMajor()
		if err != nil {
			logger.Warn("node is present but its version could not be read (%v); reinstalling\n", err)
		} else if major >= minMajor {
			logger.Info("node v%d already installed (>= v%d required). Skipping.\n", major, minMajor)
			return nil
		} else {
			logger.Warn("node v%d is below the required v%d; upgrading\n", major, minMajor)
		}
	}

	// Amazon Linux on arm64 has no usable NodeSource stream; install through
	// nvm as the invoking user and expose the binaries system-wide.
	if d.Family == platform.FamilyFedora && d.OS.ID == "amzn" && d.Arch == "arm64" {
		return installNodeViaNvm(d)
	}

	stream := d.Manifest.Runtime.SetupStream
	logger.Info("Installing Node.js %s.x via NodeSource...\n", stream)
	switch d.Family {
	case platform.FamilyFedora:
		if err := runShell(fmt.Sprintf("curl -fsSL https://rpm.nodesource.com/setup_%s.x | bash -", stream)); err != nil {
			return fmt.Errorf("configure NodeSource rpm repository: %w", err)
		}
	case platform.FamilyDebian:
		if err := runShell(fmt.Sprintf("curl -fsSL https://deb.nodesource.com/setup_%s.x | bash -", stream)); err != nil {
			return fmt.Errorf("configure NodeSource apt repository: %w", err)
		}
	default:
		return fmt.Errorf("no Node.js install sequence for family %q", d.Family)
	}
	if err := d.Backend.Install("nodejs"); err != nil {
		return fmt.Errorf("install nodejs: %w", err)
	}
	logger.Info("Node.js installed.\n")
	return nil
}

// nodeMajor parses the major version out of `node --version` ("v18.19.0").
func nodeMajor() (int, error) {
	out, err := commandOutput("node", "--version")
	if err != nil {
		return 0, err
	}
	version := strings.TrimPrefix(strings.TrimSpace(out), "v")
	majorText, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(majorText)
	if err != nil {
		return 0, fmt.Errorf("unexpected node version output %q", out)
	}
	return major, nil
}

// installNodeViaNvm installs the runtime with nvm under the invoking user's
// home and symlinks node, npm and npx into the system bin directory so the
// tools work without per-user environment sourcing.
func installNodeViaNvm(d Deps) error {
	stream := d.Manifest.Runtime.SetupStream
	nvmVersion := d.Manifest.Runtime.NvmVersion
	logger.Info("Installing Node.js %s.x via nvm for %s (arm64 special case)...\n", stream, d.User.Name)

	script := fmt.Sprintf(
		`curl -o- https://raw.githubusercontent.com/nvm-sh/nvm/%s/install.sh | bash && . "$HOME/.nvm/nvm.sh" && nvm install %s`,
		nvmVersion, stream)
	if err := run("sudo", "-u", d.User.Name, "-H", "bash", "-lc", script); err != nil {
		return fmt.Errorf("install node via nvm: %w", err)
	}

	binDir, err := nvmBinDir(d.User, stream)
	if err != nil {
		return err
	}
	for _, tool := range []string{"node", "npm", "npx"} {
		target := filepath.Join(binDir, tool)
		link := filepath.Join(installBinDir, tool)
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replace %s: %w", link, err)
		}
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("symlink %s -> %s: %w", link, target, err)
		}
		logger.Debug("linked %s -> %s\n", link, target)
	}
	logger.Info("Node.js installed via nvm and linked into %s.\n", installBinDir)
	return nil
}

// nvmBinDir locates the bin directory of the freshly installed runtime under
// the user's nvm tree.
func nvmBinDir(user platform.User, stream string) (string, error) {
	pattern := filepath.Join(user.Home, ".nvm", "versions", "node", "v"+stream+".*", "bin")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("nvm install left no runtime under %s", pattern)
	}
	// Glob returns sorted paths; the last match is the newest patch release.
	return matches[len(matches)-1], nil
}

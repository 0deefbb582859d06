package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// Overridable in tests: writing under /etc needs root.
var aptKeyringPath = "/etc/apt/keyrings/docker.gpg"
var aptSourcePath = "/etc/apt/sources.list.d/docker.list"

// EnsureDocker installs the Docker engine when absent. The Fedora family
// enables the vendor yum repository (or uses the distro's own docker package
// on Amazon Linux); the Debian family installs the vendor signing key and APT
// source first. The service is enabled afterwards on a best-effort basis.
func EnsureDocker(d Deps) error {
	if commandExists("docker") {
		logger.Info("docker already installed. Skipping.\n")
		return nil
	}

	container := d.Manifest.Container
	switch d.Family {
	case platform.FamilyFedora:
		if d.OS.ID == "amzn" {
			// Amazon Linux ships its own docker package; the docker-ce repo
			// does not resolve there.
			if err := d.Backend.Install("docker"); err != nil {
				return fmt.Errorf("install docker: %w", err)
			}
			break
		}
		if err := d.Backend.Install("yum-utils"); err != nil {
			return fmt.Errorf("install yum-utils: %w", err)
		}
		if err := run("yum-config-manager", "--add-repo", container.YumRepoURL); err != nil {
			return fmt.Errorf("enable docker-ce repository: %w", err)
		}
		if err := d.Backend.Install(container.Packages...); err != nil {
			return fmt.Errorf("install docker engine: %w", err)
		}
	case platform.FamilyDebian:
		if d.OS.VersionCodename == "" {
			return fmt.Errorf("cannot determine Debian codename: os-release has no VERSION_CODENAME")
		}
		if err := run("install", "-m", "0755", "-d", filepath.Dir(aptKeyringPath)); err != nil {
			return fmt.Errorf("create apt keyring directory: %w", err)
		}
		if err := runShell(fmt.Sprintf("curl -fsSL %s | gpg --dearmor --yes -o %s", container.AptKeyURL, aptKeyringPath)); err != nil {
			return fmt.Errorf("install docker signing key: %w", err)
		}
		source := fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s stable\n",
			d.Arch, aptKeyringPath, container.AptRepoBase, d.OS.VersionCodename)
		if err := os.WriteFile(aptSourcePath, []byte(source), 0o644); err != nil {
			return fmt.Errorf("write docker apt source: %w", err)
		}
		if err := d.Backend.Refresh(); err != nil {
			return fmt.Errorf("refresh package index: %w", err)
		}
		if err := d.Backend.Install(container.Packages...); err != nil {
			return fmt.Errorf("install docker engine: %w", err)
		}
	default:
		return fmt.Errorf("no docker install sequence for family %q", d.Family)
	}

	// Hosts without a running systemd (containers, chroots) still get a
	// usable docker binary; only warn when the service cannot be enabled.
	if err := run("systemctl", "enable", "--now", "docker"); err != nil {
		logger.Warn("docker installed but the service could not be enabled: %v\n", err)
	}
	logger.Info("docker installed.\n")
	return nil
}

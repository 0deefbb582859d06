package installer

import (
	"fmt"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// EnsureInfisical installs the Infisical secrets CLI when absent. The vendor
// distributes repository setup as a shell script per package format; the
// actual install then goes through the native package manager.
func EnsureInfisical(d Deps) error {
	pkg := d.Manifest.Secrets.Package
	if commandExists(pkg) {
		logger.Info("%s already installed. Skipping.\n", pkg)
		return nil
	}

	var setupURL string
	switch d.Family {
	case platform.FamilyFedora:
		setupURL = d.Manifest.Secrets.RpmSetupURL
	case platform.FamilyDebian:
		setupURL = d.Manifest.Secrets.DebSetupURL
	default:
		return fmt.Errorf("no %s install sequence for family %q", pkg, d.Family)
	}

	logger.Info("Configuring %s repository...\n", pkg)
	if err := runShell(fmt.Sprintf("curl -1sLf '%s' | bash", setupURL)); err != nil {
		return fmt.Errorf("run %s repository setup script: %w", pkg, err)
	}
	if err := d.Backend.Install(pkg); err != nil {
		return fmt.Errorf("install %s: %w", pkg, err)
	}
	logger.Info("%s installed.\n", pkg)
	return nil
}

package installer

import (
	"fmt"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// Bootstrap installs the common base utilities for the host's family before
// any tool installer runs.
func Bootstrap(d Deps) error {
	pkgs := d.Manifest.BasePackages[string(d.Family)]
	if len(pkgs) == 0 {
		return fmt.Errorf("no base package list for family %q", d.Family)
	}
	logger.Info("Installing base packages via %s...\n", d.Backend.Name())
	if err := d.Backend.Refresh(); err != nil {
		return fmt.Errorf("refresh package index: %w", err)
	}
	if err := d.Backend.Install(pkgs...); err != nil {
		return fmt.Errorf("install base packages: %w", err)
	}
	logger.Info("Base packages installed.\n")
	return nil
}

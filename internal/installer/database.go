package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// EnsureMongosh installs the mongosh database shell when absent. The vendor
// ships it as a plain release tarball, so this is a download-extract-copy
// sequence rather than a package manager call.
func EnsureMongosh(d Deps) error {
	if commandExists("mongosh") {
		logger.Info("mongosh already installed. Skipping.\n")
		return nil
	}

	archive := fmt.Sprintf("mongosh-%s-linux-%s.tgz", d.Manifest.Database.Version, mongoArch(d.Arch))
	url := fmt.Sprintf("%s/%s", d.Manifest.Database.BaseURL, archive)
	staging := filepath.Join(os.TempDir(), archive)

	logger.Info("Downloading mongosh %s...\n", d.Manifest.Database.Version)
	if err := downloadFile(url, staging); err != nil {
		return fmt.Errorf("download mongosh: %w", err)
	}
	defer func() {
		if rerr := os.Remove(staging); rerr != nil && !os.IsNotExist(rerr) {
			logger.Debug("remove %s: %v\n", staging, rerr)
		}
	}()

	installed, err := InstallFromArchive(staging, "mongosh")
	if err != nil {
		return fmt.Errorf("install mongosh: %w", err)
	}
	logger.Info("mongosh installed to %s.\n", installed)
	return nil
}

// mongoArch maps GOARCH to the vendor's artifact naming.
func mongoArch(goarch string) string {
	if goarch == "amd64" {
		return "x64"
	}
	return goarch
}

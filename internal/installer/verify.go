package installer

import (
	"fmt"
	"strings"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// toolCheck is one row of the final verification summary.
type toolCheck struct {
	name string
	bin  string
	args []string
}

// VerifyAll prints the verification block: each tool's version command and
// its outcome. It returns an error when any tool is missing or refuses to
// report a version.
func VerifyAll(d Deps) error {
	checks := []toolCheck{
		{name: "Node.js", bin: "node", args: []string{"--version"}},
		{name: "Docker", bin: "docker", args: []string{"--version"}},
		{name: "Infisical", bin: d.Manifest.Secrets.Package, args: []string{"--version"}},
		{name: "mongosh", bin: "mongosh", args: []string{"--version"}},
		{name: d.Manifest.Product.Binary, bin: d.Manifest.Product.Binary, args: []string{"--version"}},
	}

	logger.Info("Verifying installed tools:\n")
	var failed []string
	for _, check := range checks {
		if !commandExists(check.bin) {
			logger.Error("  %-12s missing from the search path\n", check.name)
			failed = append(failed, check.name)
			continue
		}
		out, err := commandOutput(check.bin, check.args...)
		if err != nil {
			logger.Error("  %-12s present but not responding: %v\n", check.name, err)
			failed = append(failed, check.name)
			continue
		}
		// Some tools print multi-line version banners; the first line is enough.
		version, _, _ := strings.Cut(out, "\n")
		logger.Info("  %-12s %s\n", check.name, version)
	}
	if len(failed) > 0 {
		return fmt.Errorf("verification failed for: %s", strings.Join(failed, ", "))
	}
	logger.Info("All tools verified.\n")
	return nil
}

package installer

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// httpClient is the client used for artifact downloads; a var so tests can
// point it at a local server.
var httpClient = http.DefaultClient

// downloadFile fetches the content at url into destPath.
func downloadFile(url, destPath string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("close response body: %v\n", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			logger.Debug("close %s: %v\n", destPath, cerr)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	logger.Debug("downloaded %s to %s\n", url, destPath)
	return nil
}

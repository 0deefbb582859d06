package installer

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

func TestEnsureMongoshSkipsWhenPresent(t *testing.T) {
	deps, _ := testDeps(t, platform.FamilyDebian)
	stubLookPath(t, "mongosh")
	calls := stubCommands(t, nil)

	require.NoError(t, EnsureMongosh(deps))
	assert.Empty(t, *calls)
}

func TestEnsureMongoshDownloadsAndInstalls(t *testing.T) {
	deps, _ := testDeps(t, platform.FamilyDebian)
	stubLookPath(t) // mongosh absent
	binDir := redirectBinDir(t)

	version := deps.Manifest.Database.Version
	top := fmt.Sprintf("mongosh-%s-linux-x64", version)
	archivePath := filepath.Join(t.TempDir(), top+".tgz")
	writeTgz(t, archivePath, map[string]bool{top + "/bin/mongosh": true})
	payload, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	deps.Manifest.Database.BaseURL = srv.URL

	require.NoError(t, EnsureMongosh(deps))

	assert.Equal(t, "/"+top+".tgz", requested)
	_, err = os.Stat(filepath.Join(binDir, "mongosh"))
	assert.NoError(t, err)
}

func TestEnsureMongoshDownloadFailure(t *testing.T) {
	deps, _ := testDeps(t, platform.FamilyDebian)
	stubLookPath(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	deps.Manifest.Database.BaseURL = srv.URL

	err := EnsureMongosh(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download mongosh")
}

func TestMongoArch(t *testing.T) {
	assert.Equal(t, "x64", mongoArch("amd64"))
	assert.Equal(t, "arm64", mongoArch("arm64"))
}

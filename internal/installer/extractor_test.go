package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTgz builds a small gzipped tarball with the given entries; executable
// entries get the 0755 mode bit.
func writeTgz(t *testing.T, path string, entries map[string]bool) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for name, executable := range entries {
		mode := int64(0o644)
		if executable {
			mode = 0o755
		}
		content := []byte("#!/bin/sh\nexit 0\n")
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: mode, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err = tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())
}

func redirectBinDir(t *testing.T) string {
	t.Helper()
	orig := installBinDir
	t.Cleanup(func() { installBinDir = orig })
	installBinDir = t.TempDir()
	return installBinDir
}

func TestInstallFromArchiveTgz(t *testing.T) {
	binDir := redirectBinDir(t)
	archive := filepath.Join(t.TempDir(), "mongosh-2.3.1-linux-x64.tgz")
	writeTgz(t, archive, map[string]bool{
		"mongosh-2.3.1-linux-x64/LICENSE":     false,
		"mongosh-2.3.1-linux-x64/bin/mongosh": true,
	})

	installed, err := InstallFromArchive(archive, "mongosh")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(binDir, "mongosh"), installed)

	info, err := os.Stat(installed)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o111, "installed binary must be executable")
}

func TestInstallFromArchiveZip(t *testing.T) {
	binDir := redirectBinDir(t)
	archive := filepath.Join(t.TempDir(), "tool.zip")

	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	hdr := &zip.FileHeader{Name: "tool-1.0/tool", Method: zip.Deflate}
	hdr.SetMode(0o755)
	w, err := zw.CreateHeader(hdr)
	require.NoError(t, err)
	_, err = w.Write([]byte("#!/bin/sh\nexit 0\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	installed, err := InstallFromArchive(archive, "tool")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(binDir, "tool"), installed)
}

func TestInstallFromArchiveSkipsLinkEntries(t *testing.T) {
	binDir := redirectBinDir(t)
	archive := filepath.Join(t.TempDir(), "tool-1.0-linux-x64.tgz")

	f, err := os.Create(archive)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	content := []byte("#!/bin/sh\nexit 0\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "tool-1.0/libexec/tool", Mode: 0o755, Size: int64(len(content)), Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "tool-1.0/bin/current", Linkname: "../libexec/tool", Typeflag: tar.TypeSymlink,
	}))
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	installed, err := InstallFromArchive(archive, "tool")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(binDir, "tool"), installed)
}

func TestInstallFromArchiveNoExecutable(t *testing.T) {
	redirectBinDir(t)
	archive := filepath.Join(t.TempDir(), "empty.tgz")
	writeTgz(t, archive, map[string]bool{"dist/README": false})

	_, err := InstallFromArchive(archive, "mongosh")
	assert.Error(t, err)
}

func TestInstallFromArchiveUnsupportedFormat(t *testing.T) {
	_, err := InstallFromArchive("/tmp/whatever.rar", "tool")
	assert.Error(t, err)
}

func TestExtractRejectsPathEscape(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.tgz")
	writeTgz(t, archive, map[string]bool{"../evil": true})

	_, err := extractArchive(archive, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

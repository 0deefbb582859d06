package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/xi2/xz"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// installBinDir is where extracted binaries land; a var so tests can redirect
// it away from the real system path.
var installBinDir = "/usr/local/bin"

// InstallFromArchive extracts a release archive into a scratch directory,
// locates the executable named binName inside it and copies it into the
// system bin directory. It returns the installed path.
func InstallFromArchive(src, binName string) (string, error) {
	scratch, err := os.MkdirTemp(os.TempDir(), binName+"-extract-")
	if err != nil {
		return "", fmt.Errorf("create extraction directory: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(scratch); rerr != nil {
			logger.Debug("remove %s: %v\n", scratch, rerr)
		}
	}()

	root, err := extractArchive(src, scratch)
	if err != nil {
		return "", err
	}

	binary, err := findExecutable(root, binName)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(installBinDir, binName)
	if err := copyExecutable(binary, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// extractArchive routes to the extraction routine matching the archive
// suffix and returns the top-level extracted path.
func extractArchive(src, dest string) (string, error) {
	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("extracting zip %s\n", src)
		return extractZip(src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("extracting 7z %s\n", src)
		return extract7z(src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		logger.Debug("extracting tarball %s\n", src)
		return extractTarArchive(src, dest)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}
}

// extractTarArchive handles tar and its compressed variants.
func extractTarArchive(src, dest string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return "", err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return "", err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	var topLevel string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		target, err := secureJoin(dest, hdr.Name)
		if err != nil {
			return "", err
		}
		if topLevel == "" {
			topLevel = firstPathElement(hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode()); err != nil {
				return "", err
			}
		case tar.TypeSymlink, tar.TypeLink:
			logger.Debug("skipping link entry %s -> %s\n", hdr.Name, hdr.Linkname)
		default:
			logger.Debug("skipping tar entry %s (type %d)\n", hdr.Name, hdr.Typeflag)
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// extractZip extracts a .zip archive.
func extractZip(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer r.Close()

	var topLevel string
	for _, f := range r.File {
		target, err := secureJoin(dest, f.Name)
		if err != nil {
			return "", err
		}
		if topLevel == "" {
			topLevel = firstPathElement(f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// extract7z extracts a .7z archive with the sevenzip library.
func extract7z(src, dest string) (string, error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("open 7z archive: %w", err)
	}
	defer r.Close()

	var topLevel string
	for _, f := range r.File {
		target, err := secureJoin(dest, f.Name)
		if err != nil {
			return "", err
		}
		if topLevel == "" {
			topLevel = firstPathElement(f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// writeEntry writes one archive entry to disk, creating parent directories.
func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// secureJoin joins an archive entry name onto dest, rejecting entries that
// would escape it.
func secureJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

func firstPathElement(name string) string {
	parts := strings.Split(filepath.ToSlash(name), "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return name
}

// findExecutable walks the extracted tree for a regular file named binName
// with an executable bit set.
func findExecutable(root, binName string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return err
		}
		if filepath.Base(path) != binName {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no executable named %q found under %s", binName, root)
	}
	logger.Debug("found executable %s\n", found)
	return found, nil
}

// copyExecutable copies a binary into place with 0755 permissions.
func copyExecutable(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/a-khushal/rnp/internal/rnperrors"
)

// extractViaStaging extracts blob into a fresh, uniquely named directory
// under nodeModulesDir/.rnp-tmp, then renames it over destDir. The random
// staging name (github.com/google/uuid) means two jobs extracting
// different packages never collide, and the final rename is atomic on
// every platform this module targets, so destDir either doesn't exist yet
// or is already complete.
func extractViaStaging(blob []byte, nodeModulesDir, destDir string) error {
	stagingRoot := filepath.Join(nodeModulesDir, ".rnp-tmp")
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return &rnperrors.FSError{Path: stagingRoot, Cause: err}
	}
	staged := filepath.Join(stagingRoot, uuid.NewString())
	defer os.RemoveAll(staged)

	if err := extractTarball(blob, staged); err != nil {
		return err
	}

	_ = os.RemoveAll(destDir)
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return &rnperrors.FSError{Path: destDir, Cause: err}
	}
	if err := os.Rename(staged, destDir); err != nil {
		return &rnperrors.FSError{Path: destDir, Cause: err}
	}
	return nil
}

// extractTarball unpacks a gzip+tar package archive into destDir, stripping
// the canonical leading "package/" path component from every entry (spec.md
// §4.6 step 5). Every entry name is canonicalised and rejected if it would
// escape destDir, closing the path-traversal open question of spec.md §9;
// grounded on the teacher's internal/cacheitem name-safety checks.
func extractTarball(blob []byte, destDir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return &rnperrors.FSError{Path: destDir, Cause: fmt.Errorf("opening gzip stream: %w", err)}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &rnperrors.FSError{Path: destDir, Cause: err}
	}

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &rnperrors.FSError{Path: destDir, Cause: err}
		}

		relPath, ok := stripPackagePrefix(header.Name)
		if !ok {
			// An entry named exactly "package" (no slash) would extract to
			// the package root directly; spec.md §8 says to ignore it.
			continue
		}

		destPath, err := safeJoin(destDir, relPath)
		if err != nil {
			return &rnperrors.FSError{Path: header.Name, Cause: err}
		}

		if err := extractEntry(tr, header, destPath); err != nil {
			return &rnperrors.FSError{Path: destPath, Cause: err}
		}
	}
}

// stripPackagePrefix removes the leading path component (the tarball's
// "package/" root) from a tar entry name. Returns ok=false for an entry
// that names the root itself (no remaining path).
func stripPackagePrefix(name string) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	idx := strings.Index(name, "/")
	if idx < 0 {
		return "", false
	}
	rest := name[idx+1:]
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return "", false
	}
	return rest, true
}

// safeJoin canonicalises a relative tar entry path and rejects anything
// that would resolve outside base: empty, ".", "..", absolute, or
// containing a ".." path segment.
func safeJoin(base, rel string) (string, error) {
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." || rel == ".." {
		return "", fmt.Errorf("malformed tar entry path %q", rel)
	}
	if strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("tar entry path %q is absolute", rel)
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", fmt.Errorf("tar entry path %q attempts to traverse outside the package root", rel)
		}
	}
	return filepath.Join(base, filepath.FromSlash(rel)), nil
}

func extractEntry(tr *tar.Reader, header *tar.Header, destPath string) error {
	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(destPath, os.FileMode(header.Mode))
	case tar.TypeReg, tar.TypeRegA:
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode))
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(f, tr)
		return err
	case tar.TypeSymlink:
		if runtime.GOOS == "windows" {
			return nil // symlink restoration on Windows requires elevated privilege; skip, matching copy-on-failure posture
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		_ = os.Remove(destPath)
		return os.Symlink(header.Linkname, destPath)
	case tar.TypeLink:
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		target, err := safeJoin(filepath.Dir(destPath), header.Linkname)
		if err != nil {
			target = filepath.Join(filepath.Dir(destPath), filepath.Base(header.Linkname))
		}
		_ = os.Remove(destPath)
		return os.Link(target, destPath)
	default:
		return nil // unsupported entry types (devices, fifos) are silently skipped, as cache creation already was permissive
	}
}

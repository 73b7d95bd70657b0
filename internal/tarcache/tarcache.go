// Package tarcache implements the content-addressed tarball cache of
// spec.md §4.3: a flat directory of <sha256(name@version)>.tgz blobs under
// the user's home directory, with freshness and checksum validation.
package tarcache

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

// DefaultMaxAge is the fixed 7-day freshness window used for installs
// (spec.md §4.3).
const DefaultMaxAge = 7 * 24 * time.Hour

// Cache is a content-addressed tarball blob store.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir resolves ~/.rnp/cache, the location named in spec.md §6.
func DefaultDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rnp", "cache"), nil
}

// Key returns the 64-character lowercase hex SHA-256 of "<name>@<version>".
func Key(name, version string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s@%s", name, version)))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(name, version string) string {
	return filepath.Join(c.dir, Key(name, version)+".tgz")
}

// Save writes the full blob for (name, version). The write is
// atomic-enough: it writes to a temp file in the same directory then
// renames over the final path, so concurrent readers never observe a
// partial file (spec.md §5, "last-writer-wins on the file").
func (c *Cache) Save(name, version string, data []byte) error {
	dest := c.path(name, version)
	tmp, err := os.CreateTemp(c.dir, "tmp-*.tgz")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// GetValid returns the cached blob for (name, version) only if it exists,
// is no older than maxAge, and (when expectedSha1 is non-empty) hashes to
// expectedSha1. Any failure of the latter two checks deletes the blob and
// returns (nil, false), per spec.md §4.3.
func (c *Cache) GetValid(name, version, expectedSha1 string, maxAge time.Duration) ([]byte, bool) {
	path := c.path(name, version)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > maxAge {
		_ = os.Remove(path)
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, false
	}

	if expectedSha1 != "" {
		sum := sha1.Sum(data)
		if !strings.EqualFold(hex.EncodeToString(sum[:]), expectedSha1) {
			_ = os.Remove(path)
			return nil, false
		}
	}

	return data, true
}

// Invalidate deletes the cached blob for (name, version), if present.
func (c *Cache) Invalidate(name, version string) error {
	err := os.Remove(c.path(name, version))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

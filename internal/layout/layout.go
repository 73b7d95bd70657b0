// Package layout materialises the resolved dependency graph onto disk as a
// flat node_modules/ tree (spec.md §4.7) with POSIX/Windows bin shims. Every
// package is placed at node_modules/<name>; this package has no pass that
// links dependencies into a package's own nested node_modules/. Grounded on the teacher's internal/turbopath absolute-path
// handling and the general symlink conventions of cli/internal/fs.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/rnperrors"
)

// HoistMode names the --hoist setting (spec.md §4.7). Tree records it in
// Mode, but no code reads Mode: every mode yields the same flat tree and no
// nested node_modules/ links are created for any of them.
type HoistMode string

const (
	// HoistSafe is the default mode, the "safe" flag value.
	HoistSafe HoistMode = "safe"
	// HoistAggressive is the "aggressive" flag value.
	HoistAggressive HoistMode = "aggressive"
	// HoistNone is the "none" flag value.
	HoistNone HoistMode = "none"
)

// Tree lays out one project's node_modules/ directory.
type Tree struct {
	Root string // the project root directory (node_modules is Root/node_modules)
	Mode HoistMode
}

// New returns a Tree rooted at projectRoot.
func New(projectRoot string, mode HoistMode) *Tree {
	if mode == "" {
		mode = HoistSafe
	}
	return &Tree{Root: projectRoot, Mode: mode}
}

// NodeModulesDir returns Root/node_modules.
func (t *Tree) NodeModulesDir() string {
	return filepath.Join(t.Root, "node_modules")
}

// PackageDir returns the flat install directory for a top-level package
// name, honoring scoped names ("@scope/name" -> node_modules/@scope/name).
func (t *Tree) PackageDir(name string) string {
	return filepath.Join(t.NodeModulesDir(), filepath.FromSlash(name))
}

// EnsureRoot creates node_modules/ if absent.
func (t *Tree) EnsureRoot() error {
	if err := os.MkdirAll(t.NodeModulesDir(), 0o755); err != nil {
		return &rnperrors.FSError{Path: t.NodeModulesDir(), Cause: err}
	}
	return nil
}

// NestPath returns the install directory used when name must be nested
// beneath parentDir rather than hoisted to the flat root, per spec.md
// §4.7's "nested dependency" case.
func NestPath(parentDir, name string) string {
	return filepath.Join(parentDir, "node_modules", filepath.FromSlash(name))
}

// LinkNested creates parentDir/node_modules/name as a directory symlink to
// targetDir (a recursive copy on Windows). The installer calls it with the
// project root as parentDir to place a workspace package at
// node_modules/<name>.
func LinkNested(parentDir, name, targetDir string) error {
	linkPath := NestPath(parentDir, name)
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return &rnperrors.FSError{Path: linkPath, Cause: err}
	}
	_ = os.RemoveAll(linkPath)
	if runtime.GOOS == "windows" {
		// Directory symlinks on Windows require elevated privilege in the
		// common case; junction-free clients fall back to a recursive copy.
		return copyDir(targetDir, linkPath)
	}
	if err := os.Symlink(targetDir, linkPath); err != nil {
		return &rnperrors.FSError{Path: linkPath, Cause: err}
	}
	return nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}

// InstallBinShims creates one shim per entry in pkg.BinEntries under
// Root/node_modules/.bin, per spec.md §4.7's bin-linking step: a POSIX
// symlink to the real script (chmod +x), or on Windows a ".cmd" wrapper
// that shells out to node.
func (t *Tree) InstallBinShims(pkg resolve.PackageInfo, packageDir string) error {
	if len(pkg.BinEntries) == 0 {
		return nil
	}
	binDir := filepath.Join(t.NodeModulesDir(), ".bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return &rnperrors.FSError{Path: binDir, Cause: err}
	}

	for shimName, relTarget := range pkg.BinEntries {
		target := filepath.Join(packageDir, filepath.FromSlash(relTarget))
		if err := installOneShim(binDir, shimName, target); err != nil {
			return &rnperrors.FSError{Path: filepath.Join(binDir, shimName), Cause: err}
		}
	}
	return nil
}

func installOneShim(binDir, shimName, target string) error {
	if runtime.GOOS == "windows" {
		return writeWindowsShim(binDir, shimName, target)
	}
	return writePosixShim(binDir, shimName, target)
}

func writePosixShim(binDir, shimName, target string) error {
	_ = os.Chmod(target, 0o755)
	linkPath := filepath.Join(binDir, shimName)
	_ = os.Remove(linkPath)
	if err := os.Symlink(target, linkPath); err != nil {
		return err
	}
	return os.Chmod(target, 0o755)
}

// writeWindowsShim writes a ".cmd" wrapper since Windows lacks a symlink
// equivalent usable without elevated privilege; grounded on
// github.com/moby/sys/sequential's File, which this module already
// depends on for ordered (non-concurrent-unsafe) file creation on NTFS.
func writeWindowsShim(binDir, shimName, target string) error {
	cmdPath := filepath.Join(binDir, shimName+".cmd")
	content := fmt.Sprintf("@SETLOCAL\r\n@node \"%s\" %%*\r\n", target)
	f, err := sequentialCreate(cmdPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(content))
	return err
}

// Package rnpconfig resolves the ambient configuration spec.md §6 names:
// where the tarball cache lives, where the project root actually is once
// symlinks are resolved, and the user-facing install options a command
// collects from its flags.
package rnpconfig

import (
	"path/filepath"

	"github.com/yookoala/realpath"

	"github.com/a-khushal/rnp/internal/layout"
	"github.com/a-khushal/rnp/internal/tarcache"
)

// Options is the full set of user-controllable install behaviors, gathered
// from CLI flags by internal/cmd and threaded down into the resolver,
// installer, and lockfile writer.
type Options struct {
	IgnoreScripts  bool
	NoPackageLock  bool
	HoistMode      layout.HoistMode
	Workspace      string // the -w value; no part of the pipeline reads it
	Verbose        bool
	Quiet          bool
}

// ResolveProjectRoot canonicalises dir (defaulting to the working
// directory convention used throughout spec.md: the directory containing
// package.json) through any symlinks, so that two different paths to the
// same project are never treated as different lock/cache scopes. Grounded
// on github.com/yookoala/realpath, already present in the pack's dependency
// surface for exactly this kind of canonicalization.
func ResolveProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return realpath.Realpath(abs)
}

// CacheDir resolves the tarball cache directory: override when it is
// non-empty, otherwise tarcache.DefaultDir. The commands always pass an
// empty override.
func CacheDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return tarcache.DefaultDir()
}

// Package workspace expands a root manifest's "workspaces" glob patterns
// into concrete (name, version, path) triples, per spec.md §4.2's
// workspace-substitution rule. Grounded on the teacher's internal/globby,
// which pairs github.com/gobwas/glob for pattern compilation with
// github.com/karrick/godirwalk for the directory walk itself.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/karrick/godirwalk"

	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/rnperrors"
	"github.com/a-khushal/rnp/internal/semver"
)

type packageJSONStub struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Discover walks root applying each workspace glob pattern and returns one
// Workspace per matched directory that contains a package.json with a
// name field. A pattern ending in "/*" matches every immediate
// subdirectory; any other pattern is compiled with gobwas/glob and matched
// against paths relative to root.
func Discover(root string, patterns []string) (map[string]resolve.Workspace, error) {
	out := map[string]resolve.Workspace{}

	for _, pattern := range patterns {
		dirs, err := candidateDirs(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			ws, ok, err := readWorkspace(root, dir)
			if err != nil {
				return nil, err
			}
			if ok {
				out[ws.Name] = ws
			}
		}
	}
	return out, nil
}

// candidateDirs returns every directory under root that pattern selects.
// "packages/*" is treated as "every immediate child of packages/", which
// is how npm/yarn workspace globs are used in practice; anything else is
// matched as a full glob against the slash-joined relative path of every
// directory godirwalk visits.
func candidateDirs(root, pattern string) ([]string, error) {
	if strings.HasSuffix(pattern, "/*") {
		parent := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(pattern, "/*")))
		entries, err := os.ReadDir(parent)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, &rnperrors.FSError{Path: parent, Cause: err}
		}
		var dirs []string
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(parent, e.Name()))
			}
		}
		return dirs, nil
	}

	compiled, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &rnperrors.ParseError{Subject: "workspace pattern", Cause: err}
	}

	var dirs []string
	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root || !de.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if strings.HasPrefix(rel, "node_modules") {
				return filepath.SkipDir
			}
			if compiled.Match(rel) {
				dirs = append(dirs, path)
			}
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return nil, &rnperrors.FSError{Path: root, Cause: err}
	}
	return dirs, nil
}

func readWorkspace(root, dir string) (resolve.Workspace, bool, error) {
	manifestPath := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return resolve.Workspace{}, false, nil
		}
		return resolve.Workspace{}, false, &rnperrors.FSError{Path: manifestPath, Cause: err}
	}
	var stub packageJSONStub
	if err := json.Unmarshal(data, &stub); err != nil {
		return resolve.Workspace{}, false, &rnperrors.ParseError{Subject: "workspace manifest " + manifestPath, Cause: err}
	}
	if stub.Name == "" {
		return resolve.Workspace{}, false, nil
	}

	versionText := stub.Version
	if versionText == "" {
		versionText = "0.0.0"
	}
	version, err := semver.ParseVersion(versionText)
	if err != nil {
		return resolve.Workspace{}, false, &rnperrors.ParseError{Subject: "workspace version " + manifestPath, Cause: err}
	}
	return resolve.Workspace{Name: stub.Name, Version: version, Path: dir}, true, nil
}

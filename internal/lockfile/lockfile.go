// Package lockfile implements the codec and drift detection of spec.md
// §4.9: a pretty-printed, key-sorted JSON document that is a pure function
// of the resolved graph. Grounded on the teacher's internal/lockfile
// NpmLockfile/NpmPackage pair, adapted from turborepo's "read other
// ecosystems' lockfiles to plan a build" use case to "write our own
// lockfile to reproduce an install".
package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/rnperrors"
)

// LockfileVersion is the schema version written by this package.
const LockfileVersion = 1

// Lockfile is the decoded/encoded form of package-lock.json, per spec.md §3.
type Lockfile struct {
	Name            string                 `json:"name"`
	Version         string                 `json:"version"`
	LockfileVersion int                    `json:"lockfileVersion"`
	Requires        bool                   `json:"requires"`
	Dependencies    map[string]string      `json:"dependencies,omitempty"`
	WorkspacePaths  map[string]string      `json:"workspacePaths,omitempty"`
	Packages        map[string]PackageEntry `json:"packages"`
}

// PackageEntry is one packages[path] value.
type PackageEntry struct {
	Version      string            `json:"version"`
	Resolved     string            `json:"resolved,omitempty"`
	Integrity    string            `json:"integrity,omitempty"`
	Shasum       string            `json:"shasum,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// orderedLockfile is the wire representation with explicit key ordering,
// so re-writing an unchanged graph is byte-stable (spec.md §3 invariant,
// tested by property 5 in spec.md §8).
type orderedLockfile struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	LockfileVersion int             `json:"lockfileVersion"`
	Requires        bool            `json:"requires"`
	Dependencies    json.RawMessage `json:"dependencies,omitempty"`
	WorkspacePaths  json.RawMessage `json:"workspacePaths,omitempty"`
	Packages        json.RawMessage `json:"packages"`
}

// RootInfo carries the manifest fields the writer needs that aren't derived
// from the resolved graph.
type RootInfo struct {
	Name            string
	Version         string
	DirectDeps      map[string]string // manifest dependencies, for the root "dependencies" field
	WorkspacePaths  map[string]string // name -> relative path, for workspace entries
}

// Write serialises root + resolved into the deterministic schema and
// returns the bytes (callers decide where to write them).
func Write(root RootInfo, resolved []resolve.ResolvedPackage) ([]byte, error) {
	name := root.Name
	if name == "" {
		name = "root"
	}
	version := root.Version
	if version == "" {
		version = "0.0.0"
	}

	packages := map[string]PackageEntry{}
	packages[""] = PackageEntry{
		Version:      version,
		Dependencies: sortedCopy(root.DirectDeps),
	}

	for _, rp := range resolved {
		path := fmt.Sprintf("node_modules/%s", rp.Info.Name)
		entry := PackageEntry{
			Version:   rp.Info.Version.String(),
			Resolved:  rp.Info.TarballURL,
			Integrity: rp.Info.Integrity,
			Shasum:    rp.Info.Shasum,
		}
		deps := map[string]string{}
		for n, r := range rp.Info.Dependencies {
			deps[n] = r.Display()
		}
		for n, r := range rp.Info.PeerDependencies {
			deps[n] = r.Display()
		}
		for n, r := range rp.Info.OptionalDependencies {
			deps[n] = r.Display()
		}
		if len(deps) > 0 {
			entry.Dependencies = deps
		}
		packages[path] = entry
	}

	lf := Lockfile{
		Name:            name,
		Version:         version,
		LockfileVersion: LockfileVersion,
		Requires:        true,
		Dependencies:    sortedCopy(root.DirectDeps),
		WorkspacePaths:  sortedCopy(root.WorkspacePaths),
		Packages:        packages,
	}

	return encode(lf)
}

// encode renders the lockfile with sorted map keys at every level so the
// byte stream is stable across runs with an unchanged graph.
func encode(lf Lockfile) ([]byte, error) {
	depsJSON, err := marshalSortedStringMap(lf.Dependencies)
	if err != nil {
		return nil, err
	}
	wsJSON, err := marshalSortedStringMap(lf.WorkspacePaths)
	if err != nil {
		return nil, err
	}
	pkgsJSON, err := marshalSortedPackages(lf.Packages)
	if err != nil {
		return nil, err
	}

	ordered := orderedLockfile{
		Name:            lf.Name,
		Version:         lf.Version,
		LockfileVersion: lf.LockfileVersion,
		Requires:        lf.Requires,
		Dependencies:    depsJSON,
		WorkspacePaths:  wsJSON,
		Packages:        pkgsJSON,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ordered); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalSortedStringMap(m map[string]string) (json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	keys := sortedKeys(m)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalSortedPackages(packages map[string]PackageEntry) (json.RawMessage, error) {
	keys := make([]string, 0, len(packages))
	for k := range packages {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		entry := packages[k]
		entryDeps, err := marshalSortedStringMap(entry.Dependencies)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(struct {
			Version      string          `json:"version"`
			Resolved     string          `json:"resolved,omitempty"`
			Integrity    string          `json:"integrity,omitempty"`
			Shasum       string          `json:"shasum,omitempty"`
			Dependencies json.RawMessage `json:"dependencies,omitempty"`
		}{entry.Version, entry.Resolved, entry.Integrity, entry.Shasum, entryDeps})
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCopy(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WriteFile writes the lockfile document to path.
func WriteFile(path string, root RootInfo, resolved []resolve.ResolvedPackage) error {
	data, err := Write(root, resolved)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads and decodes package-lock.json at path.
func Read(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses lockfile bytes.
func Decode(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, &rnperrors.ParseError{Subject: "lockfile", Cause: err}
	}
	return &lf, nil
}

// LockedVersion looks up the version a lockfile pins for a flat-hoisted
// package name, for C5's "locked version" priming step (spec.md §4.5).
func (lf *Lockfile) LockedVersion(name string) (string, bool) {
	entry, ok := lf.Packages[fmt.Sprintf("node_modules/%s", name)]
	if !ok {
		return "", false
	}
	return entry.Version, true
}

// DecodedPackage is one lightweight resolved-package record that Decoded
// rebuilds from a packages entry, per spec.md §4.9's reader contract:
// depth is inferred from the count of "node_modules/" occurrences in the
// path key, name from the substring after the final one. There are no
// separate peer or optional requirement fields: Dependencies is the
// entry's single map, into which the writer merged all three kinds.
type DecodedPackage struct {
	Name         string
	Version      string
	Resolved     string
	Integrity    string
	Shasum       string
	Dependencies map[string]string
	Depth        int
}

// Decoded returns every non-root packages entry as a DecodedPackage.
func (lf *Lockfile) Decoded() []DecodedPackage {
	var out []DecodedPackage
	for path, entry := range lf.Packages {
		if path == "" {
			continue
		}
		depth := strings.Count(path, "node_modules/")
		idx := strings.LastIndex(path, "node_modules/")
		name := path[idx+len("node_modules/"):]
		out = append(out, DecodedPackage{
			Name:         name,
			Version:      entry.Version,
			Resolved:     entry.Resolved,
			Integrity:    entry.Integrity,
			Shasum:       entry.Shasum,
			Dependencies: entry.Dependencies,
			Depth:        depth,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CheckDrift compares manifest direct dependencies against the lockfile's
// root dependencies for the `ci` pre-flight check of spec.md §4.9. Any
// difference is a fatal OutOfSyncError; the caller must not touch disk.
func (lf *Lockfile) CheckDrift(manifestDeps map[string]string) error {
	if len(manifestDeps) != len(lf.Dependencies) {
		return &rnperrors.OutOfSyncError{Detail: "dependency count differs between package.json and package-lock.json"}
	}
	for name, req := range manifestDeps {
		lockedReq, ok := lf.Dependencies[name]
		if !ok || lockedReq != req {
			return &rnperrors.OutOfSyncError{Detail: fmt.Sprintf("%s: package.json wants %q, lockfile has %q", name, req, lockedReq)}
		}
	}
	return nil
}

// Package manifest reads and writes package.json, preserving unknown keys
// across a round trip. Grounded on the teacher's internal/fs.PackageJSON:
// typed fields for the keys the pipeline cares about, plus a raw map for
// everything else.
package manifest

import (
	"encoding/json"
	"os"
	"sort"
)

// Manifest is the decoded package.json, per spec.md §6.
type Manifest struct {
	Name                 string            `json:"name,omitempty"`
	Version              string            `json:"version,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	Scripts              map[string]string `json:"scripts,omitempty"`
	Workspaces           Workspaces        `json:"workspaces,omitempty"`

	// Raw preserves every key found in the document, including ones this
	// struct doesn't model, so that Write() never drops unknown fields.
	Raw map[string]interface{} `json:"-"`

	// Path is the filesystem location this manifest was read from, if any.
	Path string `json:"-"`
}

// Workspaces accepts both the array form and the {"packages": [...]} form.
type Workspaces []string

type workspacesObject struct {
	Packages []string `json:"packages,omitempty"`
}

// UnmarshalJSON implements the dual array/object workspaces form.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var obj workspacesObject
	if err := json.Unmarshal(data, &obj); err == nil && obj.Packages != nil {
		*w = Workspaces(obj.Packages)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*w = Workspaces(list)
	return nil
}

// Read loads and parses package.json at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse decodes manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.Raw = raw
	return &m, nil
}

// Write serialises the manifest back to path, preserving unknown top-level
// keys from Raw and overlaying the typed fields (which reflect any edits
// made by, e.g., `install <pkg>` rewriting a dependency range).
func (m *Manifest) Write(path string) error {
	merged := map[string]interface{}{}
	for k, v := range m.Raw {
		merged[k] = v
	}
	overlay := map[string]interface{}{}
	blob, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(blob, &overlay); err != nil {
		return err
	}
	for k, v := range overlay {
		merged[k] = v
	}
	// omitempty leaves an emptied dependency map out of the overlay; write
	// it as {} so the stale copy in Raw does not come back.
	for key, deps := range map[string]map[string]string{
		"dependencies":         m.Dependencies,
		"devDependencies":      m.DevDependencies,
		"peerDependencies":     m.PeerDependencies,
		"optionalDependencies": m.OptionalDependencies,
	} {
		if deps != nil && len(deps) == 0 {
			merged[key] = deps
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Re-encode with a stable key order by building an ordered buffer via
	// a wrapper type is unnecessary here: encoding/json on a map sorts map
	// keys automatically, which already gives byte-stable output.
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	return os.WriteFile(path, out, 0o644)
}

// SetDependency records name at requirement in the manifest's direct
// dependencies, creating the map if needed. Used by `install <pkg>` to
// record the range given on the command line, or "*" for a bare name.
func (m *Manifest) SetDependency(name, requirement string) {
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	m.Dependencies[name] = requirement
}

// RemoveFromAllDependencyMaps deletes name from all four dependency maps,
// per the `uninstall` contract of spec.md §6. Returns true if it was
// present in at least one.
func (m *Manifest) RemoveFromAllDependencyMaps(name string) bool {
	removed := false
	for _, deps := range []map[string]string{
		m.Dependencies, m.DevDependencies, m.PeerDependencies, m.OptionalDependencies,
	} {
		if deps == nil {
			continue
		}
		if _, ok := deps[name]; ok {
			delete(deps, name)
			removed = true
		}
	}
	return removed
}

// Package resolve implements the dependency resolver of spec.md §4.5: a
// breadth-first graph build against the registry, lockfile priming, and
// conflict capture. The BFS loop is sequential by design (spec.md §5)
// since it must select a deterministic version per name.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/a-khushal/rnp/internal/registry"
	"github.com/a-khushal/rnp/internal/rnperrors"
	"github.com/a-khushal/rnp/internal/semver"
)

// Workspace describes a local package substituted for a registry package
// during resolution, per spec.md's Workspace glossary entry.
type Workspace struct {
	Name    string
	Version semver.Version
	Path    string
}

// LockedVersions maps a package name to the version a prior lockfile
// pinned for it, used by C5a's "locked version" priming step.
type LockedVersions map[string]string

// RootManifest is the minimal view of package.json the resolver needs to
// seed the BFS queue.
type RootManifest struct {
	Name                 string
	Dependencies         map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string
}

// Resolver builds a resolved dependency graph against a registry.Client.
type Resolver struct {
	client     *registry.Client
	workspaces map[string]Workspace
	locked     LockedVersions
}

// New constructs a Resolver. workspaces and locked may both be nil.
func New(client *registry.Client, workspaces map[string]Workspace, locked LockedVersions) *Resolver {
	return &Resolver{client: client, workspaces: workspaces, locked: locked}
}

type workItem struct {
	name     string
	req      semver.Requirement
	depth    int
	optional bool
}

type commitment struct {
	version semver.Version
	depth   int
}

// Result is the resolver's output.
type Result struct {
	// Resolved is accepted, sorted by ascending depth, per spec.md §4.5.
	Resolved []ResolvedPackage
	// Conflicts is the human-readable conflict log of spec.md §4.5 step 1,
	// non-fatal and surfaced to the operator as warnings.
	Conflicts []string
	// ConflictErr is the same log as a multierror.Error, for callers that
	// want to log every individual conflict through one error value.
	ConflictErr *multierror.Error
}

// Resolve runs the BFS described in spec.md §4.5 starting from root.
func (r *Resolver) Resolve(ctx context.Context, root RootManifest) (*Result, error) {
	queue := make([]workItem, 0, len(root.Dependencies)+len(root.PeerDependencies)+len(root.OptionalDependencies))
	queue = append(queue, r.seedEdges(root, 1)...)

	resolved := map[string]commitment{}
	accepted := map[string]ResolvedPackage{}
	var conflicts *multierror.Error
	var conflictLines []string

	recordConflict := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		conflictLines = append(conflictLines, msg)
		conflicts = multierror.Append(conflicts, &rnperrors.ConflictError{Message: msg})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if committed, ok := resolved[item.name]; ok {
			if item.req.Matches(committed.version) {
				continue // already satisfied
			}
			// An incompatible re-request never displaces the first commitment,
			// regardless of whether it arrives at a shallower or deeper depth
			// than the one already committed (see DESIGN.md for why this
			// collapses spec.md §4.5's depth-conditioned branches into one:
			// the documented "deeper requirement is silently dropped" case
			// would otherwise leave the scenario in spec.md §8's resolver
			// conflict test unrecorded).
			recordConflict("Version conflict for %s: %s vs %s", item.name, item.req.Display(), committed.version.String())
			continue
		}

		info, err := r.selectVersion(ctx, item.name, item.req)
		if err != nil {
			if item.optional {
				recordConflict("Optional dependency %s dropped: %v", item.name, err)
				continue
			}
			return nil, err
		}

		resolved[item.name] = commitment{version: info.Version, depth: item.depth}
		accepted[item.name] = ResolvedPackage{Info: *info, Depth: item.depth, Optional: item.optional}

		queue = append(queue, edgesAtDepth(info.Dependencies, item.depth+1, false)...)
		queue = append(queue, edgesAtDepth(info.PeerDependencies, item.depth+1, false)...)
		queue = append(queue, edgesAtDepth(info.OptionalDependencies, item.depth+1, true)...)
	}

	out := make([]ResolvedPackage, 0, len(accepted))
	for _, rp := range accepted {
		out = append(out, rp)
	}
	sortByDepthThenName(out)

	return &Result{Resolved: out, Conflicts: conflictLines, ConflictErr: conflicts}, nil
}

// seedEdges turns the root manifest's three dependency maps into the
// initial queue, per spec.md §4.5's root work item at depth=0 whose edges
// are enqueued at depth 1. The root itself is never fetched from the
// registry or written to disk: it is a local manifest, not a registry
// package (see DESIGN.md for this Open Question resolution).
func (r *Resolver) seedEdges(root RootManifest, depth int) []workItem {
	var items []workItem
	addAll := func(deps map[string]string, optional bool) {
		for _, name := range sortedStringKeys(deps) {
			req, err := semver.ParseRange(deps[name])
			if err != nil {
				req = semver.Any() // degrade to "any", per spec.md §4.1; the parse error is dropped and no warning is emitted
			}
			items = append(items, workItem{name: name, req: req, depth: depth, optional: optional})
		}
	}
	addAll(root.Dependencies, false)
	addAll(root.PeerDependencies, false)
	addAll(root.OptionalDependencies, true)
	return items
}

// edgesAtDepth enqueues a package's dependency edges in name-sorted order so
// that, for a fixed registry response, the BFS visits work items in a
// deterministic sequence (spec.md §4.5: "The resolver is deterministic
// given a fixed registry response").
func edgesAtDepth(deps map[string]semver.Requirement, depth int, optional bool) []workItem {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sortStrings(names)
	items := make([]workItem, 0, len(names))
	for _, name := range names {
		items = append(items, workItem{name: name, req: deps[name], depth: depth, optional: optional})
	}
	return items
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

// sortStrings is a tiny insertion sort, consistent with
// SortVersionsDescending's style in the semver package, avoiding a "sort"
// import for a handful of dependency names per package.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// selectVersion implements C5a of spec.md §4.5.
func (r *Resolver) selectVersion(ctx context.Context, name string, req semver.Requirement) (*PackageInfo, error) {
	if ws, ok := r.workspaces[name]; ok && req.Matches(ws.Version) {
		return &PackageInfo{
			Name:          name,
			Version:       ws.Version,
			IsWorkspace:   true,
			WorkspacePath: ws.Path,
		}, nil
	}

	if lockedText, ok := r.locked[name]; ok {
		if lockedVersion, err := semver.ParseVersion(lockedText); err == nil && req.Matches(lockedVersion) {
			meta, err := r.client.FetchMetadata(ctx, name)
			if err != nil {
				return nil, err
			}
			details, ok := meta.Versions[lockedVersion.String()]
			if !ok {
				return nil, fmt.Errorf("locked version %s of %s not found in registry metadata", lockedVersion, name)
			}
			return buildPackageInfo(name, lockedVersion, details)
		}
	}

	meta, err := r.client.FetchMetadata(ctx, name)
	if err != nil {
		return nil, err
	}

	var candidates []semver.Version
	versionText := map[string]string{}
	for text := range meta.Versions {
		v, err := semver.ParseVersion(text)
		if err != nil {
			continue // malformed version in metadata: skip, not fatal
		}
		if req.Matches(v) {
			candidates = append(candidates, v)
			versionText[v.String()] = text
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no version of %s satisfies %s", name, req.Display())
	}
	semver.SortVersionsDescending(candidates)
	chosen := candidates[0]
	details := meta.Versions[versionText[chosen.String()]]

	return buildPackageInfo(name, chosen, details)
}

func buildPackageInfo(name string, version semver.Version, details registry.VersionDetails) (*PackageInfo, error) {
	info := &PackageInfo{
		Name:                 name,
		Version:              version,
		Dependencies:         requirementMap(details.Dependencies),
		PeerDependencies:     requirementMap(details.PeerDependencies),
		OptionalDependencies: requirementMap(details.OptionalDependencies),
		TarballURL:           details.Dist.Tarball,
		Integrity:            details.Dist.Integrity,
		Shasum:               details.Dist.Shasum,
		OSConstraints:        details.OS,
		CPUConstraints:       details.CPU,
		LifecycleScripts: LifecycleScripts{
			Preinstall:  details.Scripts.Preinstall,
			Install:     details.Scripts.Install,
			Postinstall: details.Scripts.Postinstall,
		},
	}

	if details.Engines.Node != "" {
		req, err := semver.ParseRange(details.Engines.Node)
		if err == nil {
			info.EnginesNode = &req
		}
	}

	bin, err := parseBin(name, details.Bin)
	if err != nil {
		return nil, err
	}
	info.BinEntries = bin

	return info, nil
}

func requirementMap(raw map[string]string) map[string]semver.Requirement {
	if len(raw) == 0 {
		return map[string]semver.Requirement{}
	}
	out := make(map[string]semver.Requirement, len(raw))
	for name, text := range raw {
		req, err := semver.ParseRange(text)
		if err != nil {
			req = semver.Any()
		}
		out[name] = req
	}
	return out
}

// parseBin handles both "bin" forms: a bare string (shim defaults to the
// last path segment of the package name) and a name->path object.
func parseBin(packageName string, raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return map[string]string{lastPathSegment(packageName): asString}, nil
	}
	var asObject map[string]string
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject, nil
	}
	return nil, &rnperrors.ParseError{Subject: "bin field", Cause: fmt.Errorf("unsupported bin shape for %s", packageName)}
}

func lastPathSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

func sortByDepthThenName(out []ResolvedPackage) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if a.Depth < b.Depth || (a.Depth == b.Depth && a.Info.Name <= b.Info.Name) {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
}

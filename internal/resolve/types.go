package resolve

import "github.com/a-khushal/rnp/internal/semver"

// PackageIdentity names one exact resolved package.
type PackageIdentity struct {
	Name    string
	Version semver.Version
}

// LifecycleScripts holds the three scripts spec.md §3 names.
type LifecycleScripts struct {
	Preinstall  string
	Install     string
	Postinstall string
}

// PackageInfo is one resolved package's full metadata, per spec.md §3.
type PackageInfo struct {
	Name    string
	Version semver.Version

	Dependencies         map[string]semver.Requirement
	PeerDependencies     map[string]semver.Requirement
	OptionalDependencies map[string]semver.Requirement

	TarballURL string
	Integrity  string
	Shasum     string

	EnginesNode *semver.Requirement

	OSConstraints  []string
	CPUConstraints []string

	LifecycleScripts LifecycleScripts
	BinEntries       map[string]string

	IsWorkspace   bool
	WorkspacePath string
}

// ResolvedPackage is a PackageInfo accepted into the dependency graph at a
// given depth, per spec.md §3.
type ResolvedPackage struct {
	Info     PackageInfo
	Depth    int
	Optional bool
}

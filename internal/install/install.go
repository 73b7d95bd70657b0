// Package install implements C6 of spec.md: turning a resolved dependency
// graph into an on-disk node_modules/ tree. Packages are installed in
// depth bands, deepest first, so that by the time a package's dependents
// are processed its files already exist on disk; within a band, jobs run
// at bounded concurrency. Grounded on the teacher's worker-pool idiom
// (golang.org/x/sync/errgroup + golang.org/x/sync/semaphore), the same
// pairing cli/internal/runcache uses for its own fan-out.
package install

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/a-khushal/rnp/internal/integrity"
	"github.com/a-khushal/rnp/internal/layout"
	"github.com/a-khushal/rnp/internal/lifecycle"
	"github.com/a-khushal/rnp/internal/registry"
	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/rnperrors"
	"github.com/a-khushal/rnp/internal/semver"
	"github.com/a-khushal/rnp/internal/tarcache"
)

// MaxConcurrentJobs bounds simultaneous package installs, per spec.md §4.6.
const MaxConcurrentJobs = 15

// Reporter receives progress notifications. Implementations must be safe
// for concurrent use; the cmd/ package backs this with a
// schollz/progressbar-driven internal/ui.UI.
type Reporter interface {
	PackageStarted(name, version string)
	PackageDone(name, version string, err error)
}

type nullReporter struct{}

func (nullReporter) PackageStarted(string, string)    {}
func (nullReporter) PackageDone(string, string, error) {}

// Options configures an installer run.
type Options struct {
	IgnoreScripts bool
	HoistMode     layout.HoistMode
	RuntimeNode   semver.Version // the node engine version to validate engines.node against
	Reporter      Reporter
}

// Installer materialises resolved packages into a project's node_modules/.
type Installer struct {
	client *registry.Client
	cache  *tarcache.Cache
	tree   *layout.Tree
	opts   Options
}

// New constructs an Installer rooted at projectRoot.
func New(client *registry.Client, cache *tarcache.Cache, projectRoot string, opts Options) *Installer {
	if opts.Reporter == nil {
		opts.Reporter = nullReporter{}
	}
	return &Installer{
		client: client,
		cache:  cache,
		tree:   layout.New(projectRoot, opts.HoistMode),
		opts:   opts,
	}
}

// Install runs every resolved package to completion, deepest depth band
// first, per spec.md §4.6 and §5's concurrency model.
func (inst *Installer) Install(ctx context.Context, resolved []resolve.ResolvedPackage) error {
	if err := inst.tree.EnsureRoot(); err != nil {
		return err
	}

	bands := groupByDepthDescending(resolved)
	sem := semaphore.NewWeighted(MaxConcurrentJobs)

	for _, band := range bands {
		group, groupCtx := errgroup.WithContext(ctx)
		for _, rp := range band {
			rp := rp
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			group.Go(func() error {
				defer sem.Release(1)
				return inst.installOne(groupCtx, rp)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// groupByDepthDescending buckets resolved packages by depth, returning
// bands ordered from deepest to shallowest.
func groupByDepthDescending(resolved []resolve.ResolvedPackage) [][]resolve.ResolvedPackage {
	byDepth := map[int][]resolve.ResolvedPackage{}
	maxDepth := 0
	for _, rp := range resolved {
		byDepth[rp.Depth] = append(byDepth[rp.Depth], rp)
		if rp.Depth > maxDepth {
			maxDepth = rp.Depth
		}
	}
	bands := make([][]resolve.ResolvedPackage, 0, maxDepth)
	for depth := maxDepth; depth >= 1; depth-- {
		if band, ok := byDepth[depth]; ok {
			sort.Slice(band, func(i, j int) bool { return band[i].Info.Name < band[j].Info.Name })
			bands = append(bands, band)
		}
	}
	return bands
}

// installOne runs the full per-package pipeline of spec.md §4.6 steps 1-6.
func (inst *Installer) installOne(ctx context.Context, rp resolve.ResolvedPackage) error {
	pkg := rp.Info
	version := pkg.Version.String()
	inst.opts.Reporter.PackageStarted(pkg.Name, version)

	err := inst.runPipeline(ctx, rp)
	inst.opts.Reporter.PackageDone(pkg.Name, version, err)

	if err != nil && rp.Optional {
		return nil // optional packages never fail the overall install
	}
	return err
}

func (inst *Installer) runPipeline(ctx context.Context, rp resolve.ResolvedPackage) error {
	pkg := rp.Info
	version := pkg.Version.String()

	// Step 1: engine/platform validation.
	if err := validateEngines(pkg.Name, version, pkg.EnginesNode, inst.opts.RuntimeNode); err != nil {
		return err
	}
	if err := validatePlatform(pkg.Name, version, pkg.OSConstraints, pkg.CPUConstraints); err != nil {
		return err
	}

	packageDir := inst.tree.PackageDir(pkg.Name)

	// Step 2: workspaces are symlinked/copied from their local path, never
	// fetched or cached.
	if pkg.IsWorkspace {
		if err := layout.LinkNested(inst.tree.Root, pkg.Name, pkg.WorkspacePath); err != nil {
			return err
		}
		return inst.finishPackage(ctx, pkg, pkg.WorkspacePath)
	}

	// Steps 3-4: acquire and verify the tarball, preferring a fresh,
	// checksum-valid cache entry over a network fetch.
	blob, err := inst.acquireBlob(ctx, pkg, version)
	if err != nil {
		return err
	}

	// Step 5: extract into a uniquely named staging directory first, then
	// rename into place, so a concurrently running job never observes a
	// half-written package directory under the flat layout.
	if err := extractViaStaging(blob, inst.tree.NodeModulesDir(), packageDir); err != nil {
		return err
	}

	return inst.finishPackage(ctx, pkg, packageDir)
}

// finishPackage runs step 6: bin shim installation, then lifecycle scripts.
func (inst *Installer) finishPackage(ctx context.Context, pkg resolve.PackageInfo, packageDir string) error {
	if err := inst.tree.InstallBinShims(pkg, packageDir); err != nil {
		return err
	}
	runner := lifecycle.Runner{IgnoreScripts: inst.opts.IgnoreScripts}
	return runner.Run(ctx, pkg, packageDir)
}

// acquireBlob implements steps 3-4: a cache hit that still passes integrity
// verification is used as-is; anything else falls back to a network fetch,
// which is itself verified and then (best-effort) written back to the
// cache for next time.
func (inst *Installer) acquireBlob(ctx context.Context, pkg resolve.PackageInfo, version string) ([]byte, error) {
	spec := integrity.Spec{Integrity: pkg.Integrity, Shasum: pkg.Shasum}

	if inst.cache != nil {
		if data, ok := inst.cache.GetValid(pkg.Name, version, pkg.Shasum, tarcache.DefaultMaxAge); ok {
			if err := integrity.Verify(pkg.Name, version, spec, data); err == nil {
				return data, nil
			}
			// Cached blob failed verification: discard and re-fetch.
			_ = inst.cache.Invalidate(pkg.Name, version)
		}
	}

	if pkg.TarballURL == "" {
		return nil, &rnperrors.NetworkError{URL: "", Cause: fmt.Errorf("no tarball URL recorded for %s@%s", pkg.Name, version)}
	}

	data, err := inst.client.FetchTarball(ctx, pkg.TarballURL)
	if err != nil {
		return nil, err
	}
	if err := integrity.Verify(pkg.Name, version, spec, data); err != nil {
		return nil, err
	}
	if inst.cache != nil {
		_ = inst.cache.Save(pkg.Name, version, data) // cache-write failure is non-fatal
	}
	return data, nil
}

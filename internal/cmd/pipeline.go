package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/install"
	"github.com/a-khushal/rnp/internal/layout"
	"github.com/a-khushal/rnp/internal/lockfile"
	"github.com/a-khushal/rnp/internal/manifest"
	"github.com/a-khushal/rnp/internal/projectlock"
	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/rnpconfig"
	"github.com/a-khushal/rnp/internal/semver"
	"github.com/a-khushal/rnp/internal/ui"
	"github.com/a-khushal/rnp/internal/workspace"
)

// pipeline bundles the full resolve -> install -> lockfile-write sequence
// shared by `install`, `update`, and `ci`, per spec.md §6.
type pipeline struct {
	helper *cmdutil.Helper
	ui     *ui.UI
	opts   rnpconfig.Options
}

func newPipeline(helper *cmdutil.Helper, opts rnpconfig.Options) *pipeline {
	u := helper.UI()
	return &pipeline{helper: helper, ui: u, opts: opts}
}

// run performs one full install. useLockedVersions controls whether an
// existing lockfile primes the resolver (true for `install`/`ci`, false for
// `update`, which should re-resolve every range against latest).
func (p *pipeline) run(ctx context.Context, useLockedVersions bool) error {
	root, err := p.helper.ProjectRoot()
	if err != nil {
		return err
	}

	nodeModules := filepath.Join(root, "node_modules")
	if err := os.MkdirAll(nodeModules, 0o755); err != nil {
		return err
	}
	lock, err := projectlock.New(nodeModules)
	if err != nil {
		return err
	}
	lockCtx, cancel := context.WithTimeout(ctx, projectlock.DefaultMaxWait)
	defer cancel()
	if err := lock.Acquire(lockCtx); err != nil {
		return err
	}
	defer lock.Release()

	manifestPath := filepath.Join(root, "package.json")
	m, err := manifest.Read(manifestPath)
	if err != nil {
		return fmt.Errorf("reading package.json: %w", err)
	}

	workspaces, err := workspace.Discover(root, m.Workspaces)
	if err != nil {
		return err
	}

	locked := resolve.LockedVersions{}
	lockPath := filepath.Join(root, "package-lock.json")
	if useLockedVersions {
		if lf, err := lockfile.Read(lockPath); err == nil {
			for name, version := range versionsByName(lf) {
				locked[name] = version
			}
		}
	}

	client := p.helper.RegistryClient(p.ui)
	resolver := resolve.New(client, workspaces, locked)

	stopSpinner := p.ui.StartSpinner("resolving dependencies")
	result, err := resolver.Resolve(ctx, resolve.RootManifest{
		Name:                 m.Name,
		Dependencies:         m.Dependencies,
		PeerDependencies:     m.PeerDependencies,
		OptionalDependencies: m.OptionalDependencies,
	})
	stopSpinner()
	if err != nil {
		return err
	}
	for _, c := range result.Conflicts {
		p.ui.Cli.Warn(c)
	}

	cache, err := p.helper.TarCache()
	if err != nil {
		return err
	}

	runtimeNode, _ := semver.ParseVersion("18.0.0") // fixed node version used for engines.node checks; the host's node is not probed

	p.ui.BeginProgress(len(result.Resolved))
	installer := install.New(client, cache, root, install.Options{
		IgnoreScripts: p.opts.IgnoreScripts,
		HoistMode:     p.opts.HoistMode,
		RuntimeNode:   runtimeNode,
		Reporter:      p.ui,
	})
	if err := installer.Install(ctx, result.Resolved); err != nil {
		return err
	}

	if p.opts.NoPackageLock {
		return nil
	}

	workspacePaths := map[string]string{}
	for name, ws := range workspaces {
		rel, err := filepath.Rel(root, ws.Path)
		if err == nil {
			workspacePaths[name] = rel
		}
	}

	return lockfile.WriteFile(lockPath, lockfile.RootInfo{
		Name:           m.Name,
		Version:        m.Version,
		DirectDeps:     m.Dependencies,
		WorkspacePaths: workspacePaths,
	}, result.Resolved)
}

func versionsByName(lf *lockfile.Lockfile) map[string]string {
	out := map[string]string{}
	for _, d := range lf.Decoded() {
		if d.Depth == 1 {
			out[d.Name] = d.Version
		}
	}
	return out
}

// layoutModeFromFlag converts the --hoist flag's raw text into a
// layout.HoistMode, defaulting to "safe".
func layoutModeFromFlag(text string) layout.HoistMode {
	switch text {
	case "none":
		return layout.HoistNone
	case "aggressive":
		return layout.HoistAggressive
	default:
		return layout.HoistSafe
	}
}

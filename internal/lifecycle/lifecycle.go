// Package lifecycle runs a package's preinstall/install/postinstall
// scripts (spec.md §4.8), shelling out the way npm itself does: through
// the platform shell, with the package directory as the working directory
// and inherited stdio so output interleaves live with the rest of the
// install.
package lifecycle

import (
	"context"
	"os"
	"os/exec"
	"runtime"

	"github.com/a-khushal/rnp/internal/resolve"
	"github.com/a-khushal/rnp/internal/rnperrors"
)

// Runner executes lifecycle scripts for one package.
type Runner struct {
	IgnoreScripts bool
}

// Run executes preinstall, then install, then postinstall, in packageDir,
// stopping at the first failure. Scripts left empty are skipped. When
// r.IgnoreScripts is set, Run is a no-op, per spec.md's --ignore-scripts
// flag.
func (r Runner) Run(ctx context.Context, pkg resolve.PackageInfo, packageDir string) error {
	if r.IgnoreScripts {
		return nil
	}
	scripts := []struct {
		name string
		cmd  string
	}{
		{"preinstall", pkg.LifecycleScripts.Preinstall},
		{"install", pkg.LifecycleScripts.Install},
		{"postinstall", pkg.LifecycleScripts.Postinstall},
	}
	for _, s := range scripts {
		if s.cmd == "" {
			continue
		}
		if err := r.runOne(ctx, pkg.Name, s.name, s.cmd, packageDir); err != nil {
			return err
		}
	}
	return nil
}

func (r Runner) runOne(ctx context.Context, pkgName, scriptName, script, dir string) error {
	cmd := shellCommand(ctx, script)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return &rnperrors.LifecycleError{Package: pkgName, Script: scriptName, Cause: err}
	}
	return nil
}

func shellCommand(ctx context.Context, script string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", script)
	}
	return exec.CommandContext(ctx, "sh", "-c", script)
}

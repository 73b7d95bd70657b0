package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/manifest"
	"github.com/a-khushal/rnp/internal/rnpconfig"
)

func newInstallCommand(helper *cmdutil.Helper) *cobra.Command {
	var (
		ignoreScripts bool
		noPackageLock bool
		hoist         string
		workspaceFlag string
	)

	c := &cobra.Command{
		Use:     "install [packages...]",
		Aliases: []string{"i"},
		Short:   "Resolve and install dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if err := addDependencies(helper, args); err != nil {
					return err
				}
			}
			opts := rnpconfig.Options{
				IgnoreScripts: ignoreScripts,
				NoPackageLock: noPackageLock,
				HoistMode:     layoutModeFromFlag(hoist),
				Workspace:     workspaceFlag,
			}
			return newPipeline(helper, opts).run(context.Background(), true)
		},
	}

	c.Flags().BoolVar(&ignoreScripts, "ignore-scripts", false, "skip preinstall/install/postinstall scripts")
	c.Flags().BoolVar(&noPackageLock, "no-package-lock", false, "do not write package-lock.json")
	c.Flags().StringVar(&hoist, "hoist", "safe", "nested-dependency hoisting mode: none, safe, aggressive")
	c.Flags().StringVarP(&workspaceFlag, "workspace", "w", "", "workspace name (accepted; the install pipeline does not read it)")
	return c
}

// addDependencies splits "name" or "name@range" tokens and writes each into
// package.json's dependencies: the given range, or "*" for a bare name, so
// resolution picks the newest match. The written range is kept as is; it
// is not rewritten to the installed version afterwards.
func addDependencies(helper *cmdutil.Helper, args []string) error {
	root, err := helper.ProjectRoot()
	if err != nil {
		return err
	}
	manifestPath := filepath.Join(root, "package.json")
	m, err := manifest.Read(manifestPath)
	if err != nil {
		return fmt.Errorf("reading package.json: %w", err)
	}

	for _, arg := range args {
		name, rangeText := splitNameRange(arg)
		m.SetDependency(name, rangeText)
	}
	return m.Write(manifestPath)
}

func splitNameRange(arg string) (string, string) {
	// A scoped package name ("@scope/name") starts with '@'; only split on
	// a second '@' that introduces the version range.
	searchFrom := 0
	if strings.HasPrefix(arg, "@") {
		searchFrom = 1
	}
	if idx := strings.Index(arg[searchFrom:], "@"); idx >= 0 {
		at := searchFrom + idx
		return arg[:at], arg[at+1:]
	}
	return arg, "*"
}

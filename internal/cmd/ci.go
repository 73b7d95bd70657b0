package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/lockfile"
	"github.com/a-khushal/rnp/internal/manifest"
	"github.com/a-khushal/rnp/internal/rnpconfig"
)

func newCICommand(helper *cmdutil.Helper) *cobra.Command {
	c := &cobra.Command{
		Use:   "ci",
		Short: "Install strictly from package-lock.json, failing if it is out of sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := helper.ProjectRoot()
			if err != nil {
				return err
			}

			manifestPath := filepath.Join(root, "package.json")
			m, err := manifest.Read(manifestPath)
			if err != nil {
				return fmt.Errorf("reading package.json: %w", err)
			}

			lockPath := filepath.Join(root, "package-lock.json")
			lf, err := lockfile.Read(lockPath)
			if err != nil {
				return fmt.Errorf("package-lock.json is required for ci: %w", err)
			}
			if err := lf.CheckDrift(m.Dependencies); err != nil {
				return err
			}

			nodeModules := filepath.Join(root, "node_modules")
			if err := os.RemoveAll(nodeModules); err != nil {
				return err
			}

			return newPipeline(helper, rnpconfig.Options{}).run(context.Background(), true)
		},
	}
	return c
}

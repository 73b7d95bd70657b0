package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/manifest"
)

func newUninstallCommand(helper *cmdutil.Helper) *cobra.Command {
	c := &cobra.Command{
		Use:     "uninstall <packages...>",
		Aliases: []string{"remove", "rm"},
		Short:   "Remove dependencies from package.json and node_modules/",
		Args:    cobra.MinimumNArgs(1),
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

			u := helper.UI()
			for _, name := range args {
				if !m.RemoveFromAllDependencyMaps(name) {
					u.Cli.Warn(fmt.Sprintf("%s is not listed in package.json", name))
				}
				if err := os.RemoveAll(filepath.Join(root, "node_modules", name)); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			return m.Write(manifestPath)
		},
	}
	return c
}

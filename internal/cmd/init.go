package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
)

func newInitCommand(helper *cmdutil.Helper) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "init",
		Short: "Create a new package.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := helper.ProjectRoot()
			if err != nil {
				return err
			}
			manifestPath := filepath.Join(root, "package.json")
			if _, err := os.Stat(manifestPath); err == nil {
				return fmt.Errorf("package.json already exists at %s", manifestPath)
			}

			name := filepath.Base(root)
			version := "1.0.0"
			if !yes {
				u := helper.UI()
				if answer, err := promptDefault(u.Cli.Ask, "package name", name); err == nil && answer != "" {
					name = answer
				}
				if answer, err := promptDefault(u.Cli.Ask, "version", version); err == nil && answer != "" {
					version = answer
				}
			}

			content := fmt.Sprintf(`{
  "name": %q,
  "version": %q,
  "scripts": {},
  "dependencies": {}
}
`, name, version)
			return os.WriteFile(manifestPath, []byte(content), 0o644)
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "accept defaults without prompting")
	return c
}

func promptDefault(ask func(string) (string, error), label, def string) (string, error) {
	answer, err := ask(fmt.Sprintf("%s (%s): ", label, def))
	if err != nil {
		return "", err
	}
	return answer, nil
}

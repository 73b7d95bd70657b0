package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	auditpkg "github.com/a-khushal/rnp/internal/audit"
	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/lockfile"
)

func newAuditCommand(helper *cmdutil.Helper) *cobra.Command {
	c := &cobra.Command{
		Use:   "audit",
		Short: "Check installed packages against the registry's advisory database",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := helper.ProjectRoot()
			if err != nil {
				return err
			}
			lf, err := lockfile.Read(filepath.Join(root, "package-lock.json"))
			if err != nil {
				return fmt.Errorf("package-lock.json is required for audit: %w", err)
			}

			u := helper.UI()
			client := helper.RegistryClient(u)
			report, err := auditpkg.Run(cmd.Context(), client, lf.Decoded())
			if err != nil {
				return err
			}

			u.Cli.Output(auditpkg.Summary(report))
			if report.HasFindings() {
				return fmt.Errorf("audit found %d advisories", len(report.Advisories))
			}
			return nil
		},
	}
	return c
}

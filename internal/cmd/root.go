// Package cmd assembles the rnp command tree with spf13/cobra, mirroring
// the teacher's internal/cmd package layout: one file per subcommand, each
// constructed from the shared cmdutil.Helper.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
)

// NewRootCommand builds the full rnp command tree.
func NewRootCommand(version string) *cobra.Command {
	cmdutil.Version = version
	helper := cmdutil.NewHelper()

	root := &cobra.Command{
		Use:           "rnp",
		Short:         "A package manager client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	helper.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newInitCommand(helper),
		newInstallCommand(helper),
		newUninstallCommand(helper),
		newUpdateCommand(helper),
		newCICommand(helper),
		newRunCommand(helper),
		newAuditCommand(helper),
	)
	return root
}

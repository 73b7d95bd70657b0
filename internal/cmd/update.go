package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/a-khushal/rnp/internal/cmdutil"
	"github.com/a-khushal/rnp/internal/rnpconfig"
)

func newUpdateCommand(helper *cmdutil.Helper) *cobra.Command {
	var ignoreScripts bool
	var hoist string

	c := &cobra.Command{
		Use:   "update [packages...]",
		Short: "Re-resolve dependency ranges against the latest matching versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rnpconfig.Options{
				IgnoreScripts: ignoreScripts,
				HoistMode:     layoutModeFromFlag(hoist),
			}
			// update ignores the existing lockfile's pinned versions so every
			// range is re-evaluated against the newest matching release,
			// per spec.md §6's distinction between `install` and `update`.
			return newPipeline(helper, opts).run(context.Background(), false)
		},
	}
	c.Flags().BoolVar(&ignoreScripts, "ignore-scripts", false, "skip preinstall/install/postinstall scripts")
	c.Flags().StringVar(&hoist, "hoist", "safe", "nested-dependency hoisting mode: none, safe, aggressive")
	return c
}

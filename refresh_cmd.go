package main

import (
	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <uuid> [uuid...]",
		Short: "Reconcile one or more cached directories against the remote collaborator",
		Long:  "Refresh marks every cached child of each directory stale, lists the directory remotely, upserts every child, and sweeps whatever is still stale. At most one refresh per directory runs at a time; concurrent calls for the same uuid share one in-flight attempt.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			if err := cc.Pool.RefreshMany(cmd.Context(), args); err != nil {
				return err
			}

			cc.Statusf("refreshed %d director(ies)\n", len(args))

			return nil
		},
	}
}

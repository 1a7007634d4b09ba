// Package commands holds the deediq CLI.
package commands

import "github.com/spf13/cobra"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deediq",
		Short: "DeedIQ real-estate analytics backend",
	}

	root.AddCommand(
		ServeCmd(),
		GRPCCmd(),
		MigrateCmd(),
		SeedCmd(),
		LockThreadCmd(),
		WatchCmd(),
	)
	return root
}

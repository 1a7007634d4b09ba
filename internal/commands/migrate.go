package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"deediq/internal/config"
	"deediq/internal/database"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := getDB(ctx, config.Load())
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("failed to migrate: %v", err)
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}

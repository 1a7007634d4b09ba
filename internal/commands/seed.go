package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"deediq/internal/config"
	"deediq/internal/database"
	"deediq/internal/market"
)

func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled market data and forum categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			skipMarkets, _ := cmd.Flags().GetBool("skip-markets")

			ctx := cmd.Context()
			cfg := config.Load()
			db, err := getDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("failed to migrate: %v", err)
			}
			if err := database.SeedCategories(ctx, db); err != nil {
				return fmt.Errorf("failed to seed categories: %v", err)
			}
			fmt.Printf("Seeded %d forum categories.\n", len(database.DefaultCategories))

			if skipMarkets {
				return nil
			}
			markets, closeCache, err := getMarkets(ctx, db, cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			data := market.SampleData()
			if err := markets.Ingest(ctx, data); err != nil {
				return fmt.Errorf("failed to ingest markets: %v", err)
			}
			fmt.Printf("Ingested %d markets.\n", len(data))
			return nil
		},
	}

	cmd.Flags().Bool("skip-markets", false, "Only seed forum categories")
	return cmd
}

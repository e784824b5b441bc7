package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/db"
	"github.com/example/assetflow/internal/wire"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample sectors, custodians and assets into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := wire.Database()
			if err != nil {
				return err
			}
			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed database (already seeded?): %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Seeded 3 sectors, 4 custodians, 5 assets and 1 pending transfer")
			return nil
		},
	}
}

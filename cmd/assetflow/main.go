package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/cli"
	"github.com/example/assetflow/internal/version"
)

func main() {
	// A missing .env is fine; the config file and environment still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "assetflow",
		Short:   "assetflow - asset transfer requests and approvals",
		Version: version.String(),
		Long: `assetflow manages requests to move registered assets between sectors
and custodians: request, approve or reject, and effectuate.`,
		SilenceUsage: true,
	}

	// Setup and operations
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	// Registry
	rootCmd.AddCommand(cli.AssetCmd())
	rootCmd.AddCommand(cli.SectorCmd())
	rootCmd.AddCommand(cli.CustodianCmd())

	// Workflow
	rootCmd.AddCommand(cli.TransferCmd())
	rootCmd.AddCommand(cli.AuditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

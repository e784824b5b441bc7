package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/wire"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage the asset registry",
}

var assetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filters primary.AssetFilters
		filters.SectorID, _ = cmd.Flags().GetInt64("sector")
		filters.CustodianID, _ = cmd.Flags().GetInt64("custodian")
		status, _ := cmd.Flags().GetString("status")
		filters.Status = transfer.AssetStatus(status)

		return wire.AssetAdapter().List(NewContext(), filters)
	},
}

var assetShowCmd = &cobra.Command{
	Use:   "show [asset-id]",
	Short: "Show asset details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("asset", args[0])
		if err != nil {
			return err
		}
		_, err = wire.AssetAdapter().Show(NewContext(), id)
		return err
	},
}

var assetCreateCmd = &cobra.Command{
	Use:   "create [tag]",
	Short: "Register a new asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := primary.CreateAssetRequest{Tag: args[0]}
		req.Description, _ = cmd.Flags().GetString("description")
		req.SectorID, _ = cmd.Flags().GetInt64("sector")
		req.CustodianID, _ = cmd.Flags().GetInt64("custodian")

		raw, _ := cmd.Flags().GetString("value")
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid acquisition value %q: %w", raw, err)
		}
		req.AcquisitionValue = value

		return wire.AssetAdapter().Create(NewContext(), req)
	},
}

var assetStatusCmd = &cobra.Command{
	Use:   "status [asset-id] [active|maintenance|retired]",
	Short: "Change an asset's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("asset", args[0])
		if err != nil {
			return err
		}
		return wire.AssetAdapter().SetStatus(NewContext(), id, transfer.AssetStatus(args[1]))
	},
}

var sectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "Manage sectors",
}

var sectorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AssetAdapter().ListSectors(NewContext())
	},
}

var sectorCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a sector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AssetAdapter().CreateSector(NewContext(), args[0])
	},
}

var custodianCmd = &cobra.Command{
	Use:   "custodian",
	Short: "Manage custodians",
}

var custodianListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custodians",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AssetAdapter().ListCustodians(NewContext())
	},
}

var custodianCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a custodian",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AssetAdapter().CreateCustodian(NewContext(), args[0])
	},
}

func init() {
	// asset list flags
	assetListCmd.Flags().Int64("sector", 0, "Filter by sector ID")
	assetListCmd.Flags().Int64("custodian", 0, "Filter by custodian ID")
	assetListCmd.Flags().StringP("status", "s", "", "Filter by status (active, maintenance, retired)")

	// asset create flags
	assetCreateCmd.Flags().StringP("description", "d", "", "Asset description")
	assetCreateCmd.Flags().Int64("sector", 0, "Sector ID")
	assetCreateCmd.Flags().Int64("custodian", 0, "Custodian ID")
	assetCreateCmd.Flags().String("value", "0", "Acquisition value")
	_ = assetCreateCmd.MarkFlagRequired("sector")
	_ = assetCreateCmd.MarkFlagRequired("custodian")

	assetCmd.AddCommand(assetListCmd)
	assetCmd.AddCommand(assetShowCmd)
	assetCmd.AddCommand(assetCreateCmd)
	assetCmd.AddCommand(assetStatusCmd)

	sectorCmd.AddCommand(sectorListCmd)
	sectorCmd.AddCommand(sectorCreateCmd)

	custodianCmd.AddCommand(custodianListCmd)
	custodianCmd.AddCommand(custodianCreateCmd)
}

// AssetCmd returns the asset command
func AssetCmd() *cobra.Command {
	return assetCmd
}

// SectorCmd returns the sector command
func SectorCmd() *cobra.Command {
	return sectorCmd
}

// CustodianCmd returns the custodian command
func CustodianCmd() *cobra.Command {
	return custodianCmd
}

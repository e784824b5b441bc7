package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/wire"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Request and decide asset transfers",
	Long: `Request moving an asset to another sector or custodian, and approve,
reject or effectuate pending requests.

Lifecycle: pending -> approved -> completed, or pending -> rejected.`,
}

var transferRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a transfer (interactive unless all flags are given)",
	Long: `Request a transfer through a three step wizard: pick the asset, choose
the destination and reason, then confirm. Values given as flags are not
prompted for.

Examples:
  assetflow transfer request
  assetflow transfer request --asset 1 --to-sector 2 --reason "Team moved floors" --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts requestOptions
		opts.AssetID, _ = cmd.Flags().GetInt64("asset")
		opts.SectorID, _ = cmd.Flags().GetInt64("to-sector")
		opts.CustodianID, _ = cmd.Flags().GetInt64("to-custodian")
		opts.Reason, _ = cmd.Flags().GetString("reason")
		opts.Yes, _ = cmd.Flags().GetBool("yes")

		wizard := wire.Get().NewTransferWizard()
		result, err := runTransferRequest(NewContext(), wizard, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		if errors.Is(err, ErrRequestCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Request cancelled, nothing was submitted.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("transfer request failed:\n%s", describeError(err))
		}
		wire.TransferAdapterWithOutput(cmd.OutOrStdout()).Submitted(result)
		return nil
	},
}

var transferListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transfers",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filters primary.TransferFilters
		filters.AssetID, _ = cmd.Flags().GetInt64("asset")
		filters.RequesterID, _ = cmd.Flags().GetInt64("requester")
		filters.Limit, _ = cmd.Flags().GetInt("limit")

		if raw, _ := cmd.Flags().GetString("state"); raw != "" {
			state, ok := transfer.ParseState(raw)
			if !ok {
				return fmt.Errorf("invalid state %q: must be pending, approved, rejected or completed", raw)
			}
			filters.State = state
		}

		return wire.TransferAdapter().List(NewContext(), filters)
	},
}

var transferShowCmd = &cobra.Command{
	Use:   "show [transfer-id]",
	Short: "Show transfer details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("transfer", args[0])
		if err != nil {
			return err
		}
		_, err = wire.TransferAdapter().Show(NewContext(), id)
		return err
	},
}

var transferApproveCmd = &cobra.Command{
	Use:   "approve [transfer-id]",
	Short: "Approve a pending transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("transfer", args[0])
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")
		effectuate, _ := cmd.Flags().GetBool("effectuate")

		return wire.TransferAdapter().Approve(NewContext(), id, notes, effectuate)
	},
}

var transferRejectCmd = &cobra.Command{
	Use:   "reject [transfer-id]",
	Short: "Reject a pending transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("transfer", args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")

		return wire.TransferAdapter().Reject(NewContext(), id, reason)
	},
}

var transferEffectuateCmd = &cobra.Command{
	Use:   "effectuate [transfer-id]",
	Short: "Apply an approved transfer to the asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("transfer", args[0])
		if err != nil {
			return err
		}
		return wire.TransferAdapter().Effectuate(NewContext(), id)
	},
}

func init() {
	// transfer request flags
	transferRequestCmd.Flags().Int64("asset", 0, "Asset ID")
	transferRequestCmd.Flags().Int64("to-sector", 0, "Destination sector ID")
	transferRequestCmd.Flags().Int64("to-custodian", 0, "Destination custodian ID")
	transferRequestCmd.Flags().StringP("reason", "r", "", "Reason for the transfer (at least 10 characters)")
	transferRequestCmd.Flags().BoolP("yes", "y", false, "Submit without confirmation")

	// transfer list flags
	transferListCmd.Flags().Int64("asset", 0, "Filter by asset ID")
	transferListCmd.Flags().Int64("requester", 0, "Filter by requester ID")
	transferListCmd.Flags().StringP("state", "s", "", "Filter by state (pending, approved, rejected, completed)")
	transferListCmd.Flags().Int("limit", 0, "Maximum number of transfers")

	// decision flags
	transferApproveCmd.Flags().StringP("notes", "n", "", "Approval notes")
	transferApproveCmd.Flags().Bool("effectuate", false, "Effectuate immediately after approval")
	transferRejectCmd.Flags().StringP("reason", "r", "", "Rejection reason")
	_ = transferRejectCmd.MarkFlagRequired("reason")

	// Register subcommands
	transferCmd.AddCommand(transferRequestCmd)
	transferCmd.AddCommand(transferListCmd)
	transferCmd.AddCommand(transferShowCmd)
	transferCmd.AddCommand(transferApproveCmd)
	transferCmd.AddCommand(transferRejectCmd)
	transferCmd.AddCommand(transferEffectuateCmd)
}

// TransferCmd returns the transfer command
func TransferCmd() *cobra.Command {
	return transferCmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/wire"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit log entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filters primary.AuditLogFilters
		filters.Entity, _ = cmd.Flags().GetString("entity")
		filters.EntityID, _ = cmd.Flags().GetInt64("entity-id")
		filters.ActorID, _ = cmd.Flags().GetInt64("actor")
		filters.Limit, _ = cmd.Flags().GetInt("limit")

		return wire.TransferAdapter().AuditLogs(NewContext(), filters)
	},
}

func init() {
	auditListCmd.Flags().StringP("entity", "e", "", "Filter by entity (transfer, asset)")
	auditListCmd.Flags().Int64("entity-id", 0, "Filter by entity ID")
	auditListCmd.Flags().Int64("actor", 0, "Filter by actor ID")
	auditListCmd.Flags().Int("limit", 50, "Maximum number of entries")

	auditCmd.AddCommand(auditListCmd)
}

// AuditCmd returns the audit command
func AuditCmd() *cobra.Command {
	return auditCmd
}

// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ports/primary"
)

// TransferAdapter is a thin adapter that translates CLI operations to the
// transfer gateway and the caller's transfer actions.
type TransferAdapter struct {
	gateway primary.TransferGateway
	actions primary.TransferActionService
	out     io.Writer
}

// NewTransferAdapter creates a new TransferAdapter.
func NewTransferAdapter(gateway primary.TransferGateway, actions primary.TransferActionService, out io.Writer) *TransferAdapter {
	return &TransferAdapter{
		gateway: gateway,
		actions: actions,
		out:     out,
	}
}

// List lists transfers matching filters.
func (a *TransferAdapter) List(ctx context.Context, filters primary.TransferFilters) error {
	transfers, err := a.gateway.ListTransfers(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list transfers: %w", err)
	}

	if len(transfers) == 0 {
		fmt.Fprintln(a.out, "No transfers found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-8s %-10s %-12s %-9s %s\n", "ID", "ASSET", "STATE", "DESTINATION", "REQUESTER", "REASON")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, t := range transfers {
		fmt.Fprintf(a.out, "%-6d %-8d %s %-12s %-9d %s\n",
			t.ID, t.AssetID, stateLabel(t.State), destination(t), t.RequesterID, t.Reason)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single transfer.
func (a *TransferAdapter) Show(ctx context.Context, id int64) (*primary.Transfer, error) {
	t, err := a.gateway.GetTransfer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	fmt.Fprintf(a.out, "\nTransfer:  %d\n", t.ID)
	fmt.Fprintf(a.out, "Asset:     %d\n", t.AssetID)
	fmt.Fprintf(a.out, "State:     %s\n", stateLabel(t.State))
	fmt.Fprintf(a.out, "Origin:    sector %d, custodian %d\n", t.OriginSectorID, t.OriginCustodianID)
	fmt.Fprintf(a.out, "Moving:    %s\n", destination(t))
	fmt.Fprintf(a.out, "Reason:    %s\n", t.Reason)
	fmt.Fprintf(a.out, "Requester: %d\n", t.RequesterID)
	if t.ApproverID != nil {
		fmt.Fprintf(a.out, "Decided by: %d\n", *t.ApproverID)
	}
	if t.ApprovalNotes != "" {
		fmt.Fprintf(a.out, "Notes:     %s\n", t.ApprovalNotes)
	}
	if t.RejectionReason != "" {
		fmt.Fprintf(a.out, "Rejected:  %s\n", t.RejectionReason)
	}
	if t.EffectuatedAt != nil {
		fmt.Fprintf(a.out, "Effectuated: %s\n", t.EffectuatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(a.out, "Created:   %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintln(a.out)

	return t, nil
}

// Approve approves a pending transfer, optionally effectuating it.
func (a *TransferAdapter) Approve(ctx context.Context, id int64, notes string, autoEffectuate bool) error {
	result, err := a.actions.Approve(ctx, id, notes, autoEffectuate)
	if err != nil {
		a.reportCurrent(result)
		return err
	}
	if result.Transfer.State == transfer.StateCompleted {
		fmt.Fprintf(a.out, "✓ Transfer %d approved and effectuated\n", id)
	} else {
		fmt.Fprintf(a.out, "✓ Transfer %d approved\n", id)
	}
	a.reportAudit(result.AuditErr)
	return nil
}

// Reject rejects a pending transfer.
func (a *TransferAdapter) Reject(ctx context.Context, id int64, reason string) error {
	result, err := a.actions.Reject(ctx, id, reason)
	if err != nil {
		a.reportCurrent(result)
		return err
	}
	fmt.Fprintf(a.out, "✓ Transfer %d rejected\n", id)
	a.reportAudit(result.AuditErr)
	return nil
}

// Effectuate applies an approved transfer to the asset.
func (a *TransferAdapter) Effectuate(ctx context.Context, id int64) error {
	result, err := a.actions.Effectuate(ctx, id)
	if err != nil {
		a.reportCurrent(result)
		return err
	}
	fmt.Fprintf(a.out, "✓ Transfer %d effectuated: asset %d is now %s\n", id, result.Transfer.AssetID, destination(result.Transfer))
	a.reportAudit(result.AuditErr)
	return nil
}

// Submitted reports a transfer created through the request wizard.
func (a *TransferAdapter) Submitted(result *primary.SubmitResult) {
	fmt.Fprintf(a.out, "✓ Transfer %d requested for asset %d (%s)\n",
		result.Transfer.ID, result.Transfer.AssetID, stateLabel(result.Transfer.State))
	a.reportAudit(result.AuditErr)
}

// AuditLogs lists audit log entries.
func (a *TransferAdapter) AuditLogs(ctx context.Context, filters primary.AuditLogFilters) error {
	logs, err := a.gateway.ListAuditLogs(ctx, filters)
	if err != nil {
		return err
	}

	if len(logs) == 0 {
		fmt.Fprintln(a.out, "No audit log entries found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-17s %-11s %-9s %-6s %-6s %s\n", "WHEN", "ACTION", "ENTITY", "ID", "ACTOR", "PAYLOAD")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, l := range logs {
		fmt.Fprintf(a.out, "%-17s %-11s %-9s %-6d %-6d %v\n",
			l.CreatedAt.Format("2006-01-02 15:04"), l.Action, l.Entity, l.EntityID, l.ActorID, l.Payload)
	}
	fmt.Fprintln(a.out)

	return nil
}

// reportCurrent shows the state a refused action left the transfer in.
func (a *TransferAdapter) reportCurrent(result *primary.ActionResult) {
	if result == nil || result.Transfer == nil {
		return
	}
	fmt.Fprintf(a.out, "Transfer %d is %s\n", result.Transfer.ID, stateLabel(result.Transfer.State))
	if result.Transfer.State.IsTerminal() {
		fmt.Fprintln(a.out, "  No further actions are possible on this transfer.")
	}
}

func (a *TransferAdapter) reportAudit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(a.out, "%s audit log not written: %v\n", color.New(color.FgYellow).Sprint("!"), err)
}

// stateLabel pads before colouring so columns stay aligned.
func stateLabel(s transfer.State) string {
	padded := fmt.Sprintf("%-10s", s)
	switch s {
	case transfer.StatePending:
		return color.New(color.FgYellow).Sprint(padded)
	case transfer.StateApproved:
		return color.New(color.FgBlue).Sprint(padded)
	case transfer.StateRejected:
		return color.New(color.FgRed).Sprint(padded)
	case transfer.StateCompleted:
		return color.New(color.FgGreen).Sprint(padded)
	default:
		return padded
	}
}

func destination(t *primary.Transfer) string {
	switch {
	case t.DestinationSectorID != nil && t.DestinationCustodianID != nil:
		return fmt.Sprintf("S%d/C%d", *t.DestinationSectorID, *t.DestinationCustodianID)
	case t.DestinationSectorID != nil:
		return fmt.Sprintf("S%d", *t.DestinationSectorID)
	case t.DestinationCustodianID != nil:
		return fmt.Sprintf("C%d", *t.DestinationCustodianID)
	default:
		return "-"
	}
}

package primary

import (
	"context"
	"time"

	"github.com/example/assetflow/internal/core/transfer"
)

// TransferGateway is the command gateway for transfer requests. It is the
// single authority on persisted transfer state: permissions and transitions
// checked by clients are advisory and re-verified here.
type TransferGateway interface {
	// CreateTransfer persists a new pending transfer request. A second
	// pending request for the same asset fails with a validation error on
	// asset_id.
	CreateTransfer(ctx context.Context, req CreateTransferRequest) (*Transfer, error)

	// GetTransfer retrieves a transfer by ID.
	GetTransfer(ctx context.Context, id int64) (*Transfer, error)

	// ListTransfers retrieves transfers matching the given filters, newest first.
	ListTransfers(ctx context.Context, filters TransferFilters) ([]*Transfer, error)

	// FindPending returns the pending transfer for an asset, or nil if none.
	FindPending(ctx context.Context, assetID int64) (*Transfer, error)

	// ApproveTransfer moves a pending transfer to approved. With
	// autoEffectuate the transfer is completed in the same request.
	ApproveTransfer(ctx context.Context, id int64, notes string, autoEffectuate bool) (*Transfer, error)

	// RejectTransfer moves a pending transfer to rejected.
	RejectTransfer(ctx context.Context, id int64, reason string) (*Transfer, error)

	// EffectuateTransfer applies an approved transfer to the asset registry.
	// Effectuating an already completed transfer returns it unchanged.
	EffectuateTransfer(ctx context.Context, id int64) (*Transfer, error)

	// WriteAuditLog appends an audit log entry.
	WriteAuditLog(ctx context.Context, entry AuditEntry) (*AuditLog, error)

	// ListAuditLogs retrieves audit log entries, newest first.
	ListAuditLogs(ctx context.Context, filters AuditLogFilters) ([]*AuditLog, error)
}

// CreateTransferRequest contains parameters for creating a transfer request.
// Origin fields are the snapshot taken when the asset was selected.
type CreateTransferRequest struct {
	AssetID                int64  `json:"asset_id"`
	OriginSectorID         int64  `json:"origin_sector_id"`
	OriginCustodianID      int64  `json:"origin_custodian_id"`
	DestinationSectorID    *int64 `json:"destination_sector_id,omitempty"`
	DestinationCustodianID *int64 `json:"destination_custodian_id,omitempty"`
	Reason                 string `json:"reason"`
}

// Candidate converts the request into the validator's input.
func (r CreateTransferRequest) Candidate() transfer.Candidate {
	return transfer.Candidate{
		AssetID:                r.AssetID,
		OriginSectorID:         r.OriginSectorID,
		OriginCustodianID:      r.OriginCustodianID,
		DestinationSectorID:    r.DestinationSectorID,
		DestinationCustodianID: r.DestinationCustodianID,
		Reason:                 r.Reason,
	}
}

// Transfer represents a transfer request at the port boundary.
// State is always derived from the decision fields, never stored.
type Transfer struct {
	ID                     int64          `json:"id"`
	AssetID                int64          `json:"asset_id"`
	OriginSectorID         int64          `json:"origin_sector_id"`
	OriginCustodianID      int64          `json:"origin_custodian_id"`
	DestinationSectorID    *int64         `json:"destination_sector_id,omitempty"`
	DestinationCustodianID *int64         `json:"destination_custodian_id,omitempty"`
	Reason                 string         `json:"reason"`
	RequesterID            int64          `json:"requester_id"`
	ApproverID             *int64         `json:"approver_id,omitempty"`
	ApprovalNotes          string         `json:"approval_notes,omitempty"`
	RejectionReason        string         `json:"rejection_reason,omitempty"`
	ApprovedAt             *time.Time     `json:"approved_at,omitempty"`
	Effectuated            bool           `json:"effectuated"`
	EffectuatedAt          *time.Time     `json:"effectuated_at,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	State                  transfer.State `json:"state"`
}

// StateFields returns the fields the state is derived from.
func (t *Transfer) StateFields() transfer.StateFields {
	return transfer.StateFields{
		ApproverID:      t.ApproverID,
		RejectionReason: t.RejectionReason,
		Effectuated:     t.Effectuated,
	}
}

// TransferFilters contains filter options for querying transfers.
type TransferFilters struct {
	AssetID     int64
	RequesterID int64
	State       transfer.State
	Limit       int
}

// AuditEntry is an audit log entry to be written.
type AuditEntry struct {
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID int64          `json:"entity_id"`
	ActorID  int64          `json:"actor_id,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// AuditLog represents a persisted audit log entry.
type AuditLog struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  int64          `json:"entity_id"`
	ActorID   int64          `json:"actor_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditLogFilters contains filter options for querying audit logs.
type AuditLogFilters struct {
	Entity   string
	EntityID int64
	ActorID  int64
	Limit    int
}

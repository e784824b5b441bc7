// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// TransferRepository defines the secondary port for transfer persistence.
// Decision methods are conditional on the current state and report whether a
// row was changed; false means the transfer was not in the required state.
type TransferRepository interface {
	// Create persists a new pending transfer and sets record.ID. Violating
	// the one-pending-per-asset index yields a validation error on asset_id.
	Create(ctx context.Context, record *TransferRecord) error

	// GetByID retrieves a transfer by its ID.
	GetByID(ctx context.Context, id int64) (*TransferRecord, error)

	// List retrieves transfers matching the given filters, newest first.
	List(ctx context.Context, filters TransferFilters) ([]*TransferRecord, error)

	// FindPending returns the pending transfer for an asset, or nil if none.
	FindPending(ctx context.Context, assetID int64) (*TransferRecord, error)

	// Approve records an approval on a pending transfer.
	Approve(ctx context.Context, decision DecisionRecord) (bool, error)

	// Reject records a rejection on a pending transfer.
	Reject(ctx context.Context, decision DecisionRecord) (bool, error)

	// Effectuate marks an approved transfer completed and applies the asset
	// mutation in the same transaction. When Approval is set, the pending
	// transfer is approved first, still within that transaction.
	Effectuate(ctx context.Context, effectuation EffectuationRecord) (bool, error)
}

// TransferRecord represents a transfer as stored in persistence.
type TransferRecord struct {
	ID                     int64
	AssetID                int64
	OriginSectorID         int64
	OriginCustodianID      int64
	DestinationSectorID    *int64
	DestinationCustodianID *int64
	Reason                 string
	RequesterID            int64
	ApproverID             *int64
	ApprovalNotes          string
	RejectionReason        string
	ApprovedAt             *time.Time
	Effectuated            bool
	EffectuatedAt          *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TransferFilters contains filter options for querying transfers.
// State is matched against the derived state.
type TransferFilters struct {
	AssetID     int64
	RequesterID int64
	State       string
	Limit       int
}

// DecisionRecord is an approval or rejection of a pending transfer.
type DecisionRecord struct {
	TransferID      int64
	ApproverID      int64
	ApprovalNotes   string
	RejectionReason string
	At              time.Time
}

// EffectuationRecord completes a transfer and moves the asset.
type EffectuationRecord struct {
	TransferID  int64
	AssetID     int64
	SectorID    int64
	CustodianID int64
	At          time.Time
	Approval    *DecisionRecord
}

// AssetRepository defines the secondary port for asset persistence.
type AssetRepository interface {
	// Create persists a new asset and sets record.ID.
	Create(ctx context.Context, record *AssetRecord) error

	// GetByID retrieves an asset by its ID.
	GetByID(ctx context.Context, id int64) (*AssetRecord, error)

	// List retrieves assets matching the given filters, ordered by tag.
	List(ctx context.Context, filters AssetFilters) ([]*AssetRecord, error)

	// UpdateStatus changes an asset's lifecycle status.
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// AssetRecord represents an asset as stored in persistence.
// AcquisitionValue is kept as its decimal string form.
type AssetRecord struct {
	ID               int64
	Tag              string
	Description      string
	SectorID         int64
	CustodianID      int64
	Status           string
	AcquisitionValue string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AssetFilters contains filter options for querying assets.
type AssetFilters struct {
	SectorID    int64
	CustodianID int64
	Status      string
}

// SectorRepository defines the secondary port for sector persistence.
type SectorRepository interface {
	Create(ctx context.Context, record *NamedRecord) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*NamedRecord, error)
}

// CustodianRepository defines the secondary port for custodian persistence.
type CustodianRepository interface {
	Create(ctx context.Context, record *NamedRecord) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*NamedRecord, error)
}

// NamedRecord is a sector or custodian row.
type NamedRecord struct {
	ID   int64
	Name string
}

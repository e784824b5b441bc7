package primary

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/assetflow/internal/core/transfer"
)

// AssetRegistry is the read side of the asset registry used by the
// transfer workflow.
type AssetRegistry interface {
	// ListAssets retrieves assets matching the given filters.
	ListAssets(ctx context.Context, filters AssetFilters) ([]*Asset, error)

	// GetAsset retrieves an asset by ID. Fails with a not-found error.
	GetAsset(ctx context.Context, id int64) (*Asset, error)

	// SectorExists reports whether a sector exists.
	SectorExists(ctx context.Context, id int64) (bool, error)

	// CustodianExists reports whether a custodian exists.
	CustodianExists(ctx context.Context, id int64) (bool, error)

	// ListSectors retrieves all sectors ordered by name.
	ListSectors(ctx context.Context) ([]*Sector, error)

	// ListCustodians retrieves all custodians ordered by name.
	ListCustodians(ctx context.Context) ([]*Custodian, error)
}

// RegistryAdmin maintains registry data. Local only.
type RegistryAdmin interface {
	AssetRegistry

	// CreateAsset registers a new asset.
	CreateAsset(ctx context.Context, req CreateAssetRequest) (*Asset, error)

	// SetAssetStatus changes an asset's lifecycle status.
	SetAssetStatus(ctx context.Context, id int64, status transfer.AssetStatus) (*Asset, error)

	// CreateSector registers a new sector.
	CreateSector(ctx context.Context, name string) (*Sector, error)

	// CreateCustodian registers a new custodian.
	CreateCustodian(ctx context.Context, name string) (*Custodian, error)
}

// Asset represents an asset at the port boundary.
type Asset struct {
	ID               int64                `json:"id"`
	Tag              string               `json:"tag"`
	Description      string               `json:"description"`
	SectorID         int64                `json:"sector_id"`
	CustodianID      int64                `json:"custodian_id"`
	Status           transfer.AssetStatus `json:"status"`
	AcquisitionValue decimal.Decimal      `json:"acquisition_value"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Snapshot returns the fields the permission resolver and validator use.
func (a *Asset) Snapshot() transfer.AssetSnapshot {
	return transfer.AssetSnapshot{
		ID:          a.ID,
		SectorID:    a.SectorID,
		CustodianID: a.CustodianID,
		Status:      a.Status,
	}
}

// AssetFilters contains filter options for querying assets.
type AssetFilters struct {
	SectorID    int64
	CustodianID int64
	Status      transfer.AssetStatus
}

// CreateAssetRequest contains parameters for registering an asset.
type CreateAssetRequest struct {
	Tag              string
	Description      string
	SectorID         int64
	CustodianID      int64
	AcquisitionValue decimal.Decimal
}

// Sector is an organizational unit that holds assets.
type Sector struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Custodian is a person responsible for assets.
type Custodian struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ports/primary"
)

// ErrRegistryReadOnly is returned for registry changes through a remote gateway.
var ErrRegistryReadOnly = errors.New("registry administration requires the local database")

// AssetAdapter is a thin adapter that translates CLI operations to the
// asset registry.
type AssetAdapter struct {
	registry primary.AssetRegistry
	admin    primary.RegistryAdmin
	out      io.Writer
}

// NewAssetAdapter creates a new AssetAdapter. admin may be nil, in which
// case only read operations are available.
func NewAssetAdapter(registry primary.AssetRegistry, admin primary.RegistryAdmin, out io.Writer) *AssetAdapter {
	return &AssetAdapter{
		registry: registry,
		admin:    admin,
		out:      out,
	}
}

// List lists assets matching filters.
func (a *AssetAdapter) List(ctx context.Context, filters primary.AssetFilters) error {
	assets, err := a.registry.ListAssets(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}

	if len(assets) == 0 {
		fmt.Fprintln(a.out, "No assets found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-5s %-10s %-7s %-9s %-12s %12s  %s\n", "ID", "TAG", "SECTOR", "CUSTODIAN", "STATUS", "VALUE", "DESCRIPTION")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, asset := range assets {
		fmt.Fprintf(a.out, "%-5d %-10s %-7d %-9d %s %12s  %s\n",
			asset.ID, asset.Tag, asset.SectorID, asset.CustodianID, statusLabel(asset.Status),
			asset.AcquisitionValue.StringFixed(2), asset.Description)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single asset.
func (a *AssetAdapter) Show(ctx context.Context, id int64) (*primary.Asset, error) {
	asset, err := a.registry.GetAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	fmt.Fprintf(a.out, "\nAsset:     %d (%s)\n", asset.ID, asset.Tag)
	if asset.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", asset.Description)
	}
	fmt.Fprintf(a.out, "Sector:    %d\n", asset.SectorID)
	fmt.Fprintf(a.out, "Custodian: %d\n", asset.CustodianID)
	fmt.Fprintf(a.out, "Status:    %s\n", statusLabel(asset.Status))
	fmt.Fprintf(a.out, "Value:     %s\n", asset.AcquisitionValue.StringFixed(2))
	fmt.Fprintln(a.out)

	return asset, nil
}

// Create registers a new asset.
func (a *AssetAdapter) Create(ctx context.Context, req primary.CreateAssetRequest) error {
	if a.admin == nil {
		return ErrRegistryReadOnly
	}
	asset, err := a.admin.CreateAsset(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created asset %d: %s\n", asset.ID, asset.Tag)
	return nil
}

// SetStatus changes an asset's lifecycle status.
func (a *AssetAdapter) SetStatus(ctx context.Context, id int64, status transfer.AssetStatus) error {
	if a.admin == nil {
		return ErrRegistryReadOnly
	}
	asset, err := a.admin.SetAssetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Asset %d is now %s\n", asset.ID, asset.Status)
	return nil
}

// ListSectors lists all sectors.
func (a *AssetAdapter) ListSectors(ctx context.Context) error {
	sectors, err := a.registry.ListSectors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sectors: %w", err)
	}
	if len(sectors) == 0 {
		fmt.Fprintln(a.out, "No sectors found")
		return nil
	}
	for _, s := range sectors {
		fmt.Fprintf(a.out, "%-5d %s\n", s.ID, s.Name)
	}
	return nil
}

// CreateSector registers a new sector.
func (a *AssetAdapter) CreateSector(ctx context.Context, name string) error {
	if a.admin == nil {
		return ErrRegistryReadOnly
	}
	sector, err := a.admin.CreateSector(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created sector %d: %s\n", sector.ID, sector.Name)
	return nil
}

// ListCustodians lists all custodians.
func (a *AssetAdapter) ListCustodians(ctx context.Context) error {
	custodians, err := a.registry.ListCustodians(ctx)
	if err != nil {
		return fmt.Errorf("failed to list custodians: %w", err)
	}
	if len(custodians) == 0 {
		fmt.Fprintln(a.out, "No custodians found")
		return nil
	}
	for _, c := range custodians {
		fmt.Fprintf(a.out, "%-5d %s\n", c.ID, c.Name)
	}
	return nil
}

// CreateCustodian registers a new custodian.
func (a *AssetAdapter) CreateCustodian(ctx context.Context, name string) error {
	if a.admin == nil {
		return ErrRegistryReadOnly
	}
	custodian, err := a.admin.CreateCustodian(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created custodian %d: %s\n", custodian.ID, custodian.Name)
	return nil
}

func statusLabel(s transfer.AssetStatus) string {
	padded := fmt.Sprintf("%-12s", s)
	switch s {
	case transfer.AssetMaintenance:
		return color.New(color.FgYellow).Sprint(padded)
	case transfer.AssetRetired:
		return color.New(color.FgRed).Sprint(padded)
	default:
		return padded
	}
}

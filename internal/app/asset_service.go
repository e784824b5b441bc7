package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/assetflow/internal/core/transfer"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/ports/secondary"
)

// AssetServiceImpl implements primary.RegistryAdmin over the local store.
type AssetServiceImpl struct {
	assets     secondary.AssetRepository
	sectors    secondary.SectorRepository
	custodians secondary.CustodianRepository
	audit      secondary.AuditWriter
	logger     *slog.Logger
}

// NewAssetService creates a new AssetService with injected dependencies.
func NewAssetService(
	assets secondary.AssetRepository,
	sectors secondary.SectorRepository,
	custodians secondary.CustodianRepository,
	audit secondary.AuditWriter,
	logger *slog.Logger,
) *AssetServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetServiceImpl{
		assets:     assets,
		sectors:    sectors,
		custodians: custodians,
		audit:      audit,
		logger:     logger,
	}
}

// ListAssets retrieves assets matching the given filters.
func (s *AssetServiceImpl) ListAssets(ctx context.Context, filters primary.AssetFilters) ([]*primary.Asset, error) {
	records, err := s.assets.List(ctx, secondary.AssetFilters{
		SectorID:    filters.SectorID,
		CustodianID: filters.CustodianID,
		Status:      string(filters.Status),
	})
	if err != nil {
		return nil, err
	}

	assets := make([]*primary.Asset, 0, len(records))
	for _, r := range records {
		asset, err := toAsset(r)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GetAsset retrieves an asset by ID.
func (s *AssetServiceImpl) GetAsset(ctx context.Context, id int64) (*primary.Asset, error) {
	record, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAsset(record)
}

// SectorExists reports whether a sector exists.
func (s *AssetServiceImpl) SectorExists(ctx context.Context, id int64) (bool, error) {
	return s.sectors.Exists(ctx, id)
}

// CustodianExists reports whether a custodian exists.
func (s *AssetServiceImpl) CustodianExists(ctx context.Context, id int64) (bool, error) {
	return s.custodians.Exists(ctx, id)
}

// ListSectors retrieves all sectors.
func (s *AssetServiceImpl) ListSectors(ctx context.Context) ([]*primary.Sector, error) {
	records, err := s.sectors.List(ctx)
	if err != nil {
		return nil, err
	}
	sectors := make([]*primary.Sector, len(records))
	for i, r := range records {
		sectors[i] = &primary.Sector{ID: r.ID, Name: r.Name}
	}
	return sectors, nil
}

// ListCustodians retrieves all custodians.
func (s *AssetServiceImpl) ListCustodians(ctx context.Context) ([]*primary.Custodian, error) {
	records, err := s.custodians.List(ctx)
	if err != nil {
		return nil, err
	}
	custodians := make([]*primary.Custodian, len(records))
	for i, r := range records {
		custodians[i] = &primary.Custodian{ID: r.ID, Name: r.Name}
	}
	return custodians, nil
}

// CreateAsset registers a new asset after checking its references.
func (s *AssetServiceImpl) CreateAsset(ctx context.Context, req primary.CreateAssetRequest) (*primary.Asset, error) {
	errs := map[string]string{}
	if strings.TrimSpace(req.Tag) == "" {
		errs["tag"] = "tag is required"
	}
	if req.AcquisitionValue.IsNegative() {
		errs["acquisition_value"] = "acquisition value cannot be negative"
	}
	if ok, err := s.sectors.Exists(ctx, req.SectorID); err != nil {
		return nil, err
	} else if !ok {
		errs["sector_id"] = "sector not found"
	}
	if ok, err := s.custodians.Exists(ctx, req.CustodianID); err != nil {
		return nil, err
	} else if !ok {
		errs["custodian_id"] = "custodian not found"
	}
	if len(errs) > 0 {
		return nil, apperrors.Validation(errs)
	}

	record := &secondary.AssetRecord{
		Tag:              strings.TrimSpace(req.Tag),
		Description:      req.Description,
		SectorID:         req.SectorID,
		CustodianID:      req.CustodianID,
		Status:           string(transfer.AssetActive),
		AcquisitionValue: req.AcquisitionValue.StringFixed(2),
	}
	if err := s.assets.Create(ctx, record); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, secondary.AuditEntry{
		Action:   "create",
		Entity:   "asset",
		EntityID: record.ID,
		Payload:  map[string]any{"tag": record.Tag, "sector_id": record.SectorID, "custodian_id": record.CustodianID},
	})
	return toAsset(record)
}

// SetAssetStatus changes an asset's lifecycle status.
func (s *AssetServiceImpl) SetAssetStatus(ctx context.Context, id int64, status transfer.AssetStatus) (*primary.Asset, error) {
	switch status {
	case transfer.AssetActive, transfer.AssetMaintenance, transfer.AssetRetired:
	default:
		return nil, apperrors.ValidationField("status", fmt.Sprintf("unknown status %q", status))
	}

	current, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.assets.UpdateStatus(ctx, id, string(status)); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, secondary.AuditEntry{
		Action:   "update",
		Entity:   "asset",
		EntityID: id,
		Payload:  map[string]any{"status": map[string]any{"old": current.Status, "new": string(status)}},
	})
	return s.GetAsset(ctx, id)
}

// CreateSector registers a new sector.
func (s *AssetServiceImpl) CreateSector(ctx context.Context, name string) (*primary.Sector, error) {
	record, err := s.createNamed(ctx, s.sectors.Create, name)
	if err != nil {
		return nil, err
	}
	return &primary.Sector{ID: record.ID, Name: record.Name}, nil
}

// CreateCustodian registers a new custodian.
func (s *AssetServiceImpl) CreateCustodian(ctx context.Context, name string) (*primary.Custodian, error) {
	record, err := s.createNamed(ctx, s.custodians.Create, name)
	if err != nil {
		return nil, err
	}
	return &primary.Custodian{ID: record.ID, Name: record.Name}, nil
}

func (s *AssetServiceImpl) createNamed(ctx context.Context, create func(context.Context, *secondary.NamedRecord) error, name string) (*secondary.NamedRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ValidationField("name", "name is required")
	}
	record := &secondary.NamedRecord{Name: name}
	if err := create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// writeAudit records registry changes. Failures are logged, never returned.
func (s *AssetServiceImpl) writeAudit(ctx context.Context, entry secondary.AuditEntry) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Write(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit log write failed", "entity", entry.Entity, "entity_id", entry.EntityID, "error", err)
	}
}

var _ primary.RegistryAdmin = (*AssetServiceImpl)(nil)

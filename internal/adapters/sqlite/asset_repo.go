package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/secondary"
)

const assetColumns = "id, tag, description, sector_id, custodian_id, status, acquisition_value, created_at, updated_at"

// AssetRepository implements secondary.AssetRepository with SQLite.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new SQLite asset repository.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Create persists a new asset.
func (r *AssetRepository) Create(ctx context.Context, asset *secondary.AssetRecord) error {
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	if asset.Status == "" {
		asset.Status = "active"
	}
	if asset.AcquisitionValue == "" {
		asset.AcquisitionValue = "0"
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO assets (tag, description, sector_id, custodian_id, status, acquisition_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.Tag, asset.Description, asset.SectorID, asset.CustodianID,
		asset.Status, asset.AcquisitionValue, asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationField("tag", fmt.Sprintf("tag %q is already registered", asset.Tag))
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read asset id: %w", err)
	}
	asset.ID = id
	return nil
}

// GetByID retrieves an asset by its ID.
func (r *AssetRepository) GetByID(ctx context.Context, id int64) (*secondary.AssetRecord, error) {
	record := &secondary.AssetRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = ?", id,
	).Scan(
		&record.ID, &record.Tag, &record.Description, &record.SectorID, &record.CustodianID,
		&record.Status, &record.AcquisitionValue, &record.CreatedAt, &record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("asset %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return record, nil
}

// List retrieves assets matching the given filters, ordered by tag.
func (r *AssetRepository) List(ctx context.Context, filters secondary.AssetFilters) ([]*secondary.AssetRecord, error) {
	query := "SELECT " + assetColumns + " FROM assets WHERE 1=1"
	var args []any

	if filters.SectorID != 0 {
		query += " AND sector_id = ?"
		args = append(args, filters.SectorID)
	}
	if filters.CustodianID != 0 {
		query += " AND custodian_id = ?"
		args = append(args, filters.CustodianID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY tag ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*secondary.AssetRecord
	for rows.Next() {
		record := &secondary.AssetRecord{}
		if err := rows.Scan(
			&record.ID, &record.Tag, &record.Description, &record.SectorID, &record.CustodianID,
			&record.Status, &record.AcquisitionValue, &record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, record)
	}
	return assets, rows.Err()
}

// UpdateStatus changes an asset's lifecycle status.
func (r *AssetRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE assets SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NotFound("asset %d not found", id)
	}
	return nil
}

var _ secondary.AssetRepository = (*AssetRepository)(nil)

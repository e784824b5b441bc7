package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/secondary"
)

// namedTable backs the sector and custodian tables, which share a shape.
type namedTable struct {
	db     *sql.DB
	table  string
	entity string
}

func (t namedTable) create(ctx context.Context, record *secondary.NamedRecord) error {
	result, err := t.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", t.table),
		record.Name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationField("name", fmt.Sprintf("%s %q already exists", t.entity, record.Name))
		}
		return fmt.Errorf("failed to create %s: %w", t.entity, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read %s id: %w", t.entity, err)
	}
	record.ID = id
	return nil
}

func (t namedTable) exists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", t.table), id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", t.entity, err)
	}
	return count > 0, nil
}

func (t namedTable) list(ctx context.Context) ([]*secondary.NamedRecord, error) {
	rows, err := t.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, name FROM %s ORDER BY name ASC", t.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", t.entity, err)
	}
	defer rows.Close()

	var records []*secondary.NamedRecord
	for rows.Next() {
		record := &secondary.NamedRecord{}
		if err := rows.Scan(&record.ID, &record.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.entity, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SectorRepository implements secondary.SectorRepository with SQLite.
type SectorRepository struct {
	t namedTable
}

// NewSectorRepository creates a new SQLite sector repository.
func NewSectorRepository(db *sql.DB) *SectorRepository {
	return &SectorRepository{t: namedTable{db: db, table: "sectors", entity: "sector"}}
}

// Create persists a new sector.
func (r *SectorRepository) Create(ctx context.Context, record *secondary.NamedRecord) error {
	return r.t.create(ctx, record)
}

// Exists reports whether a sector exists.
func (r *SectorRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.t.exists(ctx, id)
}

// List retrieves all sectors ordered by name.
func (r *SectorRepository) List(ctx context.Context) ([]*secondary.NamedRecord, error) {
	return r.t.list(ctx)
}

// CustodianRepository implements secondary.CustodianRepository with SQLite.
type CustodianRepository struct {
	t namedTable
}

// NewCustodianRepository creates a new SQLite custodian repository.
func NewCustodianRepository(db *sql.DB) *CustodianRepository {
	return &CustodianRepository{t: namedTable{db: db, table: "custodians", entity: "custodian"}}
}

// Create persists a new custodian.
func (r *CustodianRepository) Create(ctx context.Context, record *secondary.NamedRecord) error {
	return r.t.create(ctx, record)
}

// Exists reports whether a custodian exists.
func (r *CustodianRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.t.exists(ctx, id)
}

// List retrieves all custodians ordered by name.
func (r *CustodianRepository) List(ctx context.Context) ([]*secondary.NamedRecord, error) {
	return r.t.list(ctx)
}

var (
	_ secondary.SectorRepository    = (*SectorRepository)(nil)
	_ secondary.CustodianRepository = (*CustodianRepository)(nil)
)

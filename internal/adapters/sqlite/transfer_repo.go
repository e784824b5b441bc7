// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/example/assetflow/internal/core/transfer"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/secondary"
)

// State predicates mirroring transfer.DeriveState. Rejection wins, then
// effectuation, then approval.
var statePredicates = map[transfer.State]string{
	transfer.StateRejected:  "rejection_reason IS NOT NULL",
	transfer.StateCompleted: "rejection_reason IS NULL AND effectuated = 1",
	transfer.StateApproved:  "rejection_reason IS NULL AND effectuated = 0 AND approver_id IS NOT NULL",
	transfer.StatePending:   "rejection_reason IS NULL AND effectuated = 0 AND approver_id IS NULL",
}

const transferColumns = `id, asset_id, origin_sector_id, origin_custodian_id,
	destination_sector_id, destination_custodian_id, reason, requester_id,
	approver_id, approval_notes, rejection_reason, approved_at,
	effectuated, effectuated_at, created_at, updated_at`

// TransferRepository implements secondary.TransferRepository with SQLite.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new SQLite transfer repository.
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create persists a new pending transfer.
func (r *TransferRepository) Create(ctx context.Context, record *secondary.TransferRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (asset_id, origin_sector_id, origin_custodian_id,
			destination_sector_id, destination_custodian_id, reason, requester_id,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.AssetID, record.OriginSectorID, record.OriginCustodianID,
		nullInt64(record.DestinationSectorID), nullInt64(record.DestinationCustodianID),
		record.Reason, record.RequesterID, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationField(transfer.FieldAssetID, transfer.MsgPendingTransferExists)
		}
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transfer id: %w", err)
	}
	record.ID = id
	return nil
}

// GetByID retrieves a transfer by its ID.
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*secondary.TransferRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transferColumns+" FROM transfers WHERE id = ?", id)

	record, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("transfer %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return record, nil
}

// List retrieves transfers matching the given filters, newest first.
func (r *TransferRepository) List(ctx context.Context, filters secondary.TransferFilters) ([]*secondary.TransferRecord, error) {
	query := "SELECT " + transferColumns + " FROM transfers WHERE 1=1"
	var args []any

	if filters.AssetID != 0 {
		query += " AND asset_id = ?"
		args = append(args, filters.AssetID)
	}
	if filters.RequesterID != 0 {
		query += " AND requester_id = ?"
		args = append(args, filters.RequesterID)
	}
	if filters.State != "" {
		predicate, ok := statePredicates[transfer.State(filters.State)]
		if !ok {
			return nil, apperrors.ValidationField("state", fmt.Sprintf("unknown state %q", filters.State))
		}
		query += " AND " + predicate
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*secondary.TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, record)
	}
	return transfers, rows.Err()
}

// FindPending returns the pending transfer for an asset, or nil if none.
func (r *TransferRepository) FindPending(ctx context.Context, assetID int64) (*secondary.TransferRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transferColumns+" FROM transfers WHERE asset_id = ? AND "+statePredicates[transfer.StatePending],
		assetID)

	record, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending transfer: %w", err)
	}
	return record, nil
}

// Approve records an approval if the transfer is still pending.
func (r *TransferRepository) Approve(ctx context.Context, decision secondary.DecisionRecord) (bool, error) {
	changed, err := approve(ctx, r.db, decision)
	if err != nil {
		return false, fmt.Errorf("failed to approve transfer: %w", err)
	}
	return changed, nil
}

// Reject records a rejection if the transfer is still pending. The
// rejecting approver is recorded as the decision maker.
func (r *TransferRepository) Reject(ctx context.Context, decision secondary.DecisionRecord) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transfers SET approver_id = ?, rejection_reason = ?, updated_at = ?
		 WHERE id = ? AND `+statePredicates[transfer.RequiredState(transfer.ActionReject)],
		decision.ApproverID, decision.RejectionReason, decision.At, decision.TransferID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reject transfer: %w", err)
	}
	return rowsChanged(result)
}

// Effectuate completes an approved transfer and moves the asset atomically.
func (r *TransferRepository) Effectuate(ctx context.Context, e secondary.EffectuationRecord) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if e.Approval != nil {
		approved, err := approve(ctx, tx, *e.Approval)
		if err != nil {
			return false, fmt.Errorf("failed to approve transfer: %w", err)
		}
		if !approved {
			return false, nil
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE transfers SET effectuated = 1, effectuated_at = ?, updated_at = ?
		 WHERE id = ? AND `+statePredicates[transfer.RequiredState(transfer.ActionEffectuate)],
		e.At, e.At, e.TransferID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to effectuate transfer: %w", err)
	}
	if changed, err := rowsChanged(result); err != nil || !changed {
		return false, err
	}

	result, err = tx.ExecContext(ctx,
		"UPDATE assets SET sector_id = ?, custodian_id = ?, updated_at = ? WHERE id = ?",
		e.SectorID, e.CustodianID, e.At, e.AssetID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to move asset: %w", err)
	}
	if changed, err := rowsChanged(result); err != nil {
		return false, err
	} else if !changed {
		return false, apperrors.NotFound("asset %d not found", e.AssetID)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit effectuation: %w", err)
	}
	return true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func approve(ctx context.Context, db execer, d secondary.DecisionRecord) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE transfers SET approver_id = ?, approval_notes = ?, approved_at = ?, updated_at = ?
		 WHERE id = ? AND `+statePredicates[transfer.RequiredState(transfer.ActionApprove)],
		d.ApproverID, nullString(d.ApprovalNotes), d.At, d.At, d.TransferID,
	)
	if err != nil {
		return false, err
	}
	return rowsChanged(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*secondary.TransferRecord, error) {
	var (
		destSector    sql.NullInt64
		destCustodian sql.NullInt64
		approverID    sql.NullInt64
		notes         sql.NullString
		rejection     sql.NullString
		approvedAt    sql.NullTime
		effectuatedAt sql.NullTime
	)

	record := &secondary.TransferRecord{}
	err := row.Scan(
		&record.ID, &record.AssetID, &record.OriginSectorID, &record.OriginCustodianID,
		&destSector, &destCustodian, &record.Reason, &record.RequesterID,
		&approverID, &notes, &rejection, &approvedAt,
		&record.Effectuated, &effectuatedAt, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.DestinationSectorID = int64FromNull(destSector)
	record.DestinationCustodianID = int64FromNull(destCustodian)
	record.ApproverID = int64FromNull(approverID)
	record.ApprovalNotes = notes.String
	record.RejectionReason = rejection.String
	record.ApprovedAt = timeFromNull(approvedAt)
	record.EffectuatedAt = timeFromNull(effectuatedAt)
	return record, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func rowsChanged(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func int64FromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func timeFromNull(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

var _ secondary.TransferRepository = (*TransferRepository)(nil)

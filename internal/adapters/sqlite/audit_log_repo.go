package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/assetflow/internal/ports/secondary"
)

// AuditLogRepository implements secondary.AuditLogRepository with SQLite.
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new SQLite audit log repository.
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an audit log entry.
func (r *AuditLogRepository) Create(ctx context.Context, record *secondary.AuditLogRecord) error {
	payload := record.Payload
	if payload == "" {
		payload = "{}"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity, entity_id, actor_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Action, record.Entity, record.EntityID, record.ActorID, payload, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List retrieves entries matching the given filters, newest first.
func (r *AuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	query := "SELECT id, action, entity, entity_id, actor_id, payload, created_at FROM audit_logs WHERE 1=1"
	var args []any

	if filters.Entity != "" {
		query += " AND entity = ?"
		args = append(args, filters.Entity)
	}
	if filters.EntityID != 0 {
		query += " AND entity_id = ?"
		args = append(args, filters.EntityID)
	}
	if filters.ActorID != 0 {
		query += " AND actor_id = ?"
		args = append(args, filters.ActorID)
	}

	query += " ORDER BY created_at DESC, rowid DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*secondary.AuditLogRecord
	for rows.Next() {
		record := &secondary.AuditLogRecord{}
		if err := rows.Scan(
			&record.ID, &record.Action, &record.Entity, &record.EntityID,
			&record.ActorID, &record.Payload, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, record)
	}
	return logs, rows.Err()
}

var _ secondary.AuditLogRepository = (*AuditLogRepository)(nil)

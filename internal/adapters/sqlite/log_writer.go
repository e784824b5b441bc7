package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/assetflow/internal/ctxutil"
	"github.com/example/assetflow/internal/ports/secondary"
)

// AuditWriterAdapter implements secondary.AuditWriter using AuditLogRepository.
type AuditWriterAdapter struct {
	logRepo secondary.AuditLogRepository
	now     func() time.Time
}

// NewAuditWriterAdapter creates a new AuditWriterAdapter.
func NewAuditWriterAdapter(logRepo secondary.AuditLogRepository) *AuditWriterAdapter {
	return &AuditWriterAdapter{
		logRepo: logRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Write persists an audit entry with a fresh UUID. The actor falls back to
// the caller in ctx when the entry does not name one.
func (w *AuditWriterAdapter) Write(ctx context.Context, entry secondary.AuditEntry) (*secondary.AuditLogRecord, error) {
	actorID := entry.ActorID
	if actorID == 0 {
		actorID = ctxutil.ActorFromContext(ctx)
	}

	payload := []byte("{}")
	if len(entry.Payload) > 0 {
		var err error
		payload, err = json.Marshal(entry.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode audit payload: %w", err)
		}
	}

	record := &secondary.AuditLogRecord{
		ID:        uuid.NewString(),
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		ActorID:   actorID,
		Payload:   string(payload),
		CreatedAt: w.now(),
	}
	if err := w.logRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Ensure AuditWriterAdapter implements the interface
var _ secondary.AuditWriter = (*AuditWriterAdapter)(nil)

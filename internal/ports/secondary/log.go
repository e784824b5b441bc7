package secondary

import (
	"context"
	"time"
)

// AuditLogRepository defines the secondary port for audit log persistence.
type AuditLogRepository interface {
	// Create appends an audit log entry.
	Create(ctx context.Context, record *AuditLogRecord) error

	// List retrieves entries matching the given filters, newest first.
	List(ctx context.Context, filters AuditLogFilters) ([]*AuditLogRecord, error)
}

// AuditLogRecord represents an audit log entry as stored in persistence.
// Payload is JSON text.
type AuditLogRecord struct {
	ID        string
	Action    string
	Entity    string
	EntityID  int64
	ActorID   int64
	Payload   string
	CreatedAt time.Time
}

// AuditLogFilters contains filter options for querying audit logs.
type AuditLogFilters struct {
	Entity   string
	EntityID int64
	ActorID  int64
	Limit    int
}

// AuditWriter writes audit entries. Implementations fill in the ID and
// timestamp and take the actor from context when the entry has none.
type AuditWriter interface {
	Write(ctx context.Context, entry AuditEntry) (*AuditLogRecord, error)
}

// AuditEntry is an audit entry before persistence.
type AuditEntry struct {
	Action   string
	Entity   string
	EntityID int64
	ActorID  int64
	Payload  map[string]any
}

package sqlite_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/example/assetflow/internal/adapters/sqlite"
	"github.com/example/assetflow/internal/ctxutil"
	"github.com/example/assetflow/internal/ports/secondary"
)

func TestAuditWriterAdapter_Write(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuditLogRepository(db)
	writer := sqlite.NewAuditWriterAdapter(repo)
	ctx := ctxutil.WithCaller(context.Background(), ctxutil.Caller{ID: 7, Role: "Manager"})

	record, err := writer.Write(ctx, secondary.AuditEntry{
		Action:   "create",
		Entity:   "transfer",
		EntityID: 3,
		Payload:  map[string]any{"asset_id": 1},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := uuid.Parse(record.ID); err != nil {
		t.Errorf("expected UUID id, got %q", record.ID)
	}
	if record.ActorID != 7 {
		t.Errorf("expected actor from context, got %d", record.ActorID)
	}

	logs, err := repo.List(context.Background(), secondary.AuditLogFilters{Entity: "transfer", EntityID: 3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if logs[0].Payload != `{"asset_id":1}` {
		t.Errorf("unexpected payload %s", logs[0].Payload)
	}
}

func TestAuditWriterAdapter_ExplicitActorWins(t *testing.T) {
	db := setupTestDB(t)
	writer := sqlite.NewAuditWriterAdapter(sqlite.NewAuditLogRepository(db))
	ctx := ctxutil.WithCaller(context.Background(), ctxutil.Caller{ID: 7})

	record, err := writer.Write(ctx, secondary.AuditEntry{Action: "update", Entity: "asset", EntityID: 1, ActorID: 2})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if record.ActorID != 2 || record.Payload != "{}" {
		t.Errorf("unexpected record %+v", record)
	}
}

func TestAuditLogRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuditLogRepository(db)
	writer := sqlite.NewAuditWriterAdapter(repo)
	ctx := context.Background()

	entries := []secondary.AuditEntry{
		{Action: "create", Entity: "transfer", EntityID: 1, ActorID: 100},
		{Action: "approve", Entity: "transfer", EntityID: 1, ActorID: 2},
		{Action: "update", Entity: "asset", EntityID: 1, ActorID: 2},
	}
	for _, e := range entries {
		if _, err := writer.Write(ctx, e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		filters secondary.AuditLogFilters
		want    int
	}{
		{"all", secondary.AuditLogFilters{}, 3},
		{"by entity", secondary.AuditLogFilters{Entity: "transfer"}, 2},
		{"by actor", secondary.AuditLogFilters{ActorID: 2}, 2},
		{"limit", secondary.AuditLogFilters{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := repo.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(logs) != tt.want {
				t.Errorf("expected %d logs, got %d", tt.want, len(logs))
			}
		})
	}

	newest, _ := repo.List(ctx, secondary.AuditLogFilters{Limit: 1})
	if newest[0].Entity != "asset" {
		t.Errorf("expected newest entry first, got %+v", newest[0])
	}
}

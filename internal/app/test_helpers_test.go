package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/assetflow/internal/core/effects"
	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ctxutil"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.TransferRepository = (*mockTransferRepository)(nil)
	_ secondary.AssetRepository    = (*mockAssetRepository)(nil)
	_ secondary.SectorRepository   = (*mockNamedRepository)(nil)
	_ secondary.AuditWriter        = (*mockAuditWriter)(nil)
	_ secondary.AuditLogRepository = (*mockAuditWriter)(nil)
	_ secondary.EventPublisher     = (*mockEventPublisher)(nil)
	_ secondary.TransitionRecorder = (*mockRecorder)(nil)
	_ EffectExecutor               = (*mockEffectExecutor)(nil)
)

// mockTransferRepository implements secondary.TransferRepository in memory,
// honouring the one-pending-per-asset rule and the conditional updates.
type mockTransferRepository struct {
	mu        sync.Mutex
	transfers map[int64]*secondary.TransferRecord
	nextID    int64
	assets    *mockAssetRepository
	createErr error
	getErr    error
	// beforeDecision runs inside Approve/Reject/Effectuate before the state
	// check, simulating a concurrent writer.
	beforeDecision func()
}

func newMockTransferRepository(assets *mockAssetRepository) *mockTransferRepository {
	return &mockTransferRepository{
		transfers: make(map[int64]*secondary.TransferRecord),
		assets:    assets,
	}
}

func stateOfRecord(r *secondary.TransferRecord) transfer.State {
	return transfer.DeriveState(transfer.StateFields{
		ApproverID:      r.ApproverID,
		RejectionReason: r.RejectionReason,
		Effectuated:     r.Effectuated,
	})
}

func (m *mockTransferRepository) Create(ctx context.Context, record *secondary.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, t := range m.transfers {
		if t.AssetID == record.AssetID && stateOfRecord(t) == transfer.StatePending {
			return apperrors.ValidationField(transfer.FieldAssetID, transfer.MsgPendingTransferExists)
		}
	}
	m.nextID++
	record.ID = m.nextID
	copied := *record
	m.transfers[record.ID] = &copied
	return nil
}

func (m *mockTransferRepository) GetByID(ctx context.Context, id int64) (*secondary.TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.transfers[id]
	if !ok {
		return nil, apperrors.NotFound("transfer %d not found", id)
	}
	copied := *t
	return &copied, nil
}

func (m *mockTransferRepository) List(ctx context.Context, filters secondary.TransferFilters) ([]*secondary.TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.TransferRecord
	for _, t := range m.transfers {
		if filters.AssetID != 0 && t.AssetID != filters.AssetID {
			continue
		}
		if filters.RequesterID != 0 && t.RequesterID != filters.RequesterID {
			continue
		}
		if filters.State != "" && string(stateOfRecord(t)) != filters.State {
			continue
		}
		copied := *t
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockTransferRepository) FindPending(ctx context.Context, assetID int64) (*secondary.TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transfers {
		if t.AssetID == assetID && stateOfRecord(t) == transfer.StatePending {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockTransferRepository) Approve(ctx context.Context, d secondary.DecisionRecord) (bool, error) {
	if m.beforeDecision != nil {
		m.beforeDecision()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approveLocked(d), nil
}

func (m *mockTransferRepository) approveLocked(d secondary.DecisionRecord) bool {
	t, ok := m.transfers[d.TransferID]
	if !ok || stateOfRecord(t) != transfer.StatePending {
		return false
	}
	approver := d.ApproverID
	at := d.At
	t.ApproverID = &approver
	t.ApprovalNotes = d.ApprovalNotes
	t.ApprovedAt = &at
	t.UpdatedAt = at
	return true
}

func (m *mockTransferRepository) Reject(ctx context.Context, d secondary.DecisionRecord) (bool, error) {
	if m.beforeDecision != nil {
		m.beforeDecision()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[d.TransferID]
	if !ok || stateOfRecord(t) != transfer.StatePending {
		return false, nil
	}
	approver := d.ApproverID
	t.ApproverID = &approver
	t.RejectionReason = d.RejectionReason
	t.UpdatedAt = d.At
	return true, nil
}

func (m *mockTransferRepository) Effectuate(ctx context.Context, e secondary.EffectuationRecord) (bool, error) {
	if m.beforeDecision != nil {
		m.beforeDecision()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transfers[e.TransferID]
	if !ok {
		return false, nil
	}
	snapshot := *t
	if e.Approval != nil && !m.approveLocked(*e.Approval) {
		return false, nil
	}
	if stateOfRecord(t) != transfer.StateApproved {
		*t = snapshot
		return false, nil
	}
	if err := m.assets.move(e.AssetID, e.SectorID, e.CustodianID); err != nil {
		*t = snapshot
		return false, err
	}
	at := e.At
	t.Effectuated = true
	t.EffectuatedAt = &at
	t.UpdatedAt = at
	return true, nil
}

// put stores a record directly, bypassing the pending check.
func (m *mockTransferRepository) put(r *secondary.TransferRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
	}
	m.transfers[r.ID] = r
}

// mockAssetRepository implements secondary.AssetRepository for testing.
type mockAssetRepository struct {
	mu        sync.Mutex
	assets    map[int64]*secondary.AssetRecord
	nextID    int64
	createErr error
	getErr    error
}

func newMockAssetRepository() *mockAssetRepository {
	return &mockAssetRepository{assets: make(map[int64]*secondary.AssetRecord)}
}

func (m *mockAssetRepository) Create(ctx context.Context, record *secondary.AssetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	record.ID = m.nextID
	copied := *record
	m.assets[record.ID] = &copied
	return nil
}

func (m *mockAssetRepository) GetByID(ctx context.Context, id int64) (*secondary.AssetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.assets[id]
	if !ok {
		return nil, apperrors.NotFound("asset %d not found", id)
	}
	copied := *a
	return &copied, nil
}

func (m *mockAssetRepository) List(ctx context.Context, filters secondary.AssetFilters) ([]*secondary.AssetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.AssetRecord
	for _, a := range m.assets {
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		copied := *a
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockAssetRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return apperrors.NotFound("asset %d not found", id)
	}
	a.Status = status
	return nil
}

func (m *mockAssetRepository) put(a *secondary.AssetRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.AcquisitionValue == "" {
		a.AcquisitionValue = "0"
	}
	if a.ID > m.nextID {
		m.nextID = a.ID
	}
	m.assets[a.ID] = a
}

func (m *mockAssetRepository) move(id, sectorID, custodianID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return apperrors.NotFound("asset %d not found", id)
	}
	a.SectorID = sectorID
	a.CustodianID = custodianID
	return nil
}

func (m *mockAssetRepository) location(id int64) (int64, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.assets[id]
	return a.SectorID, a.CustodianID
}

// mockNamedRepository implements the sector and custodian repositories.
type mockNamedRepository struct {
	records map[int64]string
	nextID  int64
}

func newMockNamedRepository(ids ...int64) *mockNamedRepository {
	m := &mockNamedRepository{records: make(map[int64]string)}
	for _, id := range ids {
		m.records[id] = "seeded"
		if id > m.nextID {
			m.nextID = id
		}
	}
	return m
}

func (m *mockNamedRepository) Create(ctx context.Context, record *secondary.NamedRecord) error {
	for _, name := range m.records {
		if name == record.Name {
			return apperrors.ValidationField("name", "already exists")
		}
	}
	m.nextID++
	record.ID = m.nextID
	m.records[record.ID] = record.Name
	return nil
}

func (m *mockNamedRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.records[id]
	return ok, nil
}

func (m *mockNamedRepository) List(ctx context.Context) ([]*secondary.NamedRecord, error) {
	var result []*secondary.NamedRecord
	for id, name := range m.records {
		result = append(result, &secondary.NamedRecord{ID: id, Name: name})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// mockAuditWriter implements both secondary.AuditWriter and
// secondary.AuditLogRepository over one slice.
type mockAuditWriter struct {
	mu       sync.Mutex
	entries  []secondary.AuditEntry
	stored   []*secondary.AuditLogRecord
	writeErr error
}

func newMockAuditWriter() *mockAuditWriter {
	return &mockAuditWriter{}
}

func (m *mockAuditWriter) Write(ctx context.Context, entry secondary.AuditEntry) (*secondary.AuditLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	if entry.ActorID == 0 {
		entry.ActorID = ctxutil.ActorFromContext(ctx)
	}
	m.entries = append(m.entries, entry)
	return &secondary.AuditLogRecord{
		ID:        "audit-" + entry.Action,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		ActorID:   entry.ActorID,
		Payload:   "{}",
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockAuditWriter) Create(ctx context.Context, record *secondary.AuditLogRecord) error {
	return errors.New("not used")
}

func (m *mockAuditWriter) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := append([]*secondary.AuditLogRecord(nil), m.stored...)
	for _, e := range m.entries {
		if filters.Entity != "" && e.Entity != filters.Entity {
			continue
		}
		result = append(result, &secondary.AuditLogRecord{Action: e.Action, Entity: e.Entity, EntityID: e.EntityID, ActorID: e.ActorID})
	}
	return result, nil
}

func (m *mockAuditWriter) actions(entity string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var actions []string
	for _, e := range m.entries {
		if e.Entity == entity {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

// mockEventPublisher implements secondary.EventPublisher for testing.
type mockEventPublisher struct {
	mu         sync.Mutex
	events     []any
	publishErr error
}

func (m *mockEventPublisher) Publish(ctx context.Context, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) Close() error { return nil }

func (m *mockEventPublisher) states() []transfer.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	var states []transfer.State
	for _, e := range m.events {
		if ev, ok := e.(transfer.Event); ok {
			states = append(states, ev.State)
		}
	}
	return states
}

// mockRecorder implements secondary.TransitionRecorder for testing.
type mockRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{outcomes: make(map[string]int)}
}

func (m *mockRecorder) RecordTransition(action, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[action+"/"+outcome]++
}

func (m *mockRecorder) count(action, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[action+"/"+outcome]
}

// mockEffectExecutor records effects without executing them.
type mockEffectExecutor struct {
	executed []effects.Effect
	err      error
}

func (m *mockEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	m.executed = append(m.executed, effs...)
	return m.err
}

// ============================================================================
// Test Helpers
// ============================================================================

func int64Ptr(v int64) *int64 { return &v }

func ctxAs(id int64, role transfer.Role) context.Context {
	return ctxutil.WithCaller(context.Background(), ctxutil.Caller{ID: id, Role: string(role)})
}

// gatewayFixture wires a GatewayServiceImpl over in-memory mocks seeded
// with sectors 10/20, custodians 100/200 and asset 1 (sector 10,
// custodian 100, active).
type gatewayFixture struct {
	service    *GatewayServiceImpl
	transfers  *mockTransferRepository
	assets     *mockAssetRepository
	audit      *mockAuditWriter
	publisher  *mockEventPublisher
	recorder   *mockRecorder
	sectors    *mockNamedRepository
	custodians *mockNamedRepository
}

func newGatewayFixture(policy Policy) *gatewayFixture {
	assets := newMockAssetRepository()
	assets.put(&secondary.AssetRecord{ID: 1, Tag: "PAT-0001", SectorID: 10, CustodianID: 100, Status: "active", AcquisitionValue: "1500.00"})

	f := &gatewayFixture{
		transfers:  newMockTransferRepository(assets),
		assets:     assets,
		audit:      newMockAuditWriter(),
		publisher:  &mockEventPublisher{},
		recorder:   newMockRecorder(),
		sectors:    newMockNamedRepository(10, 20),
		custodians: newMockNamedRepository(100, 200),
	}
	executor := NewEffectExecutor(f.audit, f.publisher, nil)
	f.service = NewGatewayService(GatewayRepositories{
		Transfers:  f.transfers,
		Assets:     assets,
		Sectors:    f.sectors,
		Custodians: f.custodians,
		AuditLogs:  f.audit,
	}, f.audit, executor, f.recorder, policy, nil)
	return f
}

// sectorMoveRequest asks to move asset 1 from sector 10 to sector 20.
func sectorMoveRequest() primary.CreateTransferRequest {
	return primary.CreateTransferRequest{
		AssetID:             1,
		OriginSectorID:      10,
		OriginCustodianID:   100,
		DestinationSectorID: int64Ptr(20),
		Reason:              "Needs relocation",
	}
}

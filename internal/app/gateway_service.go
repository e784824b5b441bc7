package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/assetflow/internal/core/effects"
	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ctxutil"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/ports/secondary"
)

// Policy holds configurable workflow rules.
type Policy struct {
	AllowSelfApproval bool
}

// GatewayRepositories groups the stores the gateway writes through.
type GatewayRepositories struct {
	Transfers  secondary.TransferRepository
	Assets     secondary.AssetRepository
	Sectors    secondary.SectorRepository
	Custodians secondary.CustodianRepository
	AuditLogs  secondary.AuditLogRepository
}

// GatewayServiceImpl implements primary.TransferGateway. It is the
// authority on transfer state: every guard the client checked is checked
// again here against freshly read data.
type GatewayServiceImpl struct {
	repos    GatewayRepositories
	audit    secondary.AuditWriter
	executor EffectExecutor
	recorder secondary.TransitionRecorder
	policy   Policy
	logger   *slog.Logger
	now      func() time.Time
}

// NewGatewayService creates a new GatewayService with injected dependencies.
func NewGatewayService(
	repos GatewayRepositories,
	audit secondary.AuditWriter,
	executor EffectExecutor,
	recorder secondary.TransitionRecorder,
	policy Policy,
	logger *slog.Logger,
) *GatewayServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayServiceImpl{
		repos:    repos,
		audit:    audit,
		executor: executor,
		recorder: recorder,
		policy:   policy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTransfer validates and persists a new pending transfer.
func (s *GatewayServiceImpl) CreateTransfer(ctx context.Context, req primary.CreateTransferRequest) (result *primary.Transfer, err error) {
	defer func() { s.record("create", err) }()

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	candidate := req.Candidate()
	view, err := s.registryView(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if err := transfer.Validate(candidate, view).Err(); err != nil {
		return nil, err
	}
	if err := transfer.CanRequest(caller, *view.Asset).Error(); err != nil {
		return nil, err
	}

	record := &secondary.TransferRecord{
		AssetID:                req.AssetID,
		OriginSectorID:         req.OriginSectorID,
		OriginCustodianID:      req.OriginCustodianID,
		DestinationSectorID:    req.DestinationSectorID,
		DestinationCustodianID: req.DestinationCustodianID,
		Reason:                 req.Reason,
		RequesterID:            caller.ID,
		CreatedAt:              s.now(),
	}
	if err := s.repos.Transfers.Create(ctx, record); err != nil {
		return nil, err
	}

	s.runEffects(ctx, transfer.PlanTransitionEffects(transfer.TransitionInput{
		TransferID: record.ID,
		AssetID:    record.AssetID,
		Action:     "create",
		State:      transfer.StatePending,
		ActorID:    caller.ID,
		Now:        record.CreatedAt,
	}))

	return toTransfer(record), nil
}

// GetTransfer retrieves a transfer by ID.
func (s *GatewayServiceImpl) GetTransfer(ctx context.Context, id int64) (*primary.Transfer, error) {
	record, err := s.repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTransfer(record), nil
}

// ListTransfers retrieves transfers matching the given filters.
func (s *GatewayServiceImpl) ListTransfers(ctx context.Context, filters primary.TransferFilters) ([]*primary.Transfer, error) {
	records, err := s.repos.Transfers.List(ctx, secondary.TransferFilters{
		AssetID:     filters.AssetID,
		RequesterID: filters.RequesterID,
		State:       string(filters.State),
		Limit:       filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	transfers := make([]*primary.Transfer, len(records))
	for i, r := range records {
		transfers[i] = toTransfer(r)
	}
	return transfers, nil
}

// FindPending returns the pending transfer for an asset, or nil if none.
func (s *GatewayServiceImpl) FindPending(ctx context.Context, assetID int64) (*primary.Transfer, error) {
	record, err := s.repos.Transfers.FindPending(ctx, assetID)
	if err != nil || record == nil {
		return nil, err
	}
	return toTransfer(record), nil
}

// ApproveTransfer approves a pending transfer, optionally completing it in
// the same transaction.
func (s *GatewayServiceImpl) ApproveTransfer(ctx context.Context, id int64, notes string, autoEffectuate bool) (result *primary.Transfer, err error) {
	defer func() { s.record(string(transfer.ActionApprove), err) }()

	caller, current, err := s.loadForDecision(ctx, id)
	if err != nil {
		return nil, err
	}

	decisionCtx := s.decisionContext(caller, current)
	if err := transfer.CanApprove(decisionCtx).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	decision := secondary.DecisionRecord{
		TransferID:    id,
		ApproverID:    caller.ID,
		ApprovalNotes: notes,
		At:            now,
	}

	if !autoEffectuate {
		changed, err := s.repos.Transfers.Approve(ctx, decision)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, s.lostRace(ctx, id, transfer.ActionApprove)
		}
		s.runEffects(ctx, s.transitionEffects(ctx, current, current.State, transfer.ActionApprove, caller.ID, now))
		return s.GetTransfer(ctx, id)
	}

	// Both guards hold against the post-approval state before anything is written.
	decisionCtx.State = transfer.StateApproved
	if err := transfer.CanEffectuate(decisionCtx).Error(); err != nil {
		return nil, err
	}

	plan, err := s.applyEffectuation(ctx, current, caller, now, &decision)
	if err != nil {
		return nil, err
	}

	effs := s.transitionEffects(ctx, current, current.State, transfer.ActionApprove, caller.ID, now)
	effs = append(effs, plan.Effects...)
	effs = append(effs, s.transitionEffects(ctx, current, decisionCtx.State, transfer.ActionEffectuate, caller.ID, now)...)
	s.runEffects(ctx, effs)
	s.record(string(transfer.ActionEffectuate), nil)

	return s.GetTransfer(ctx, id)
}

// RejectTransfer rejects a pending transfer.
func (s *GatewayServiceImpl) RejectTransfer(ctx context.Context, id int64, reason string) (result *primary.Transfer, err error) {
	defer func() { s.record(string(transfer.ActionReject), err) }()

	if err := transfer.ValidateRejection(reason).Err(); err != nil {
		return nil, err
	}

	caller, current, err := s.loadForDecision(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transfer.CanReject(s.decisionContext(caller, current)).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	changed, err := s.repos.Transfers.Reject(ctx, secondary.DecisionRecord{
		TransferID:      id,
		ApproverID:      caller.ID,
		RejectionReason: reason,
		At:              now,
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, s.lostRace(ctx, id, transfer.ActionReject)
	}

	s.runEffects(ctx, s.transitionEffects(ctx, current, current.State, transfer.ActionReject, caller.ID, now))
	return s.GetTransfer(ctx, id)
}

// EffectuateTransfer applies an approved transfer to the asset registry.
// A transfer that is already completed is returned unchanged.
func (s *GatewayServiceImpl) EffectuateTransfer(ctx context.Context, id int64) (result *primary.Transfer, err error) {
	defer func() { s.record(string(transfer.ActionEffectuate), err) }()

	caller, current, err := s.loadForDecision(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.State == transfer.StateCompleted && caller.Role.IsApprover() {
		return current, nil
	}
	if err := transfer.CanEffectuate(s.decisionContext(caller, current)).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	plan, err := s.applyEffectuation(ctx, current, caller, now, nil)
	if apperrors.Is(err, apperrors.KindConflict) {
		// A concurrent effectuation won; the outcome is the same.
		if fresh, getErr := s.GetTransfer(ctx, id); getErr == nil && fresh.State == transfer.StateCompleted {
			return fresh, nil
		}
	}
	if err != nil {
		return nil, err
	}

	effs := append(plan.Effects, s.transitionEffects(ctx, current, current.State, transfer.ActionEffectuate, caller.ID, now)...)
	s.runEffects(ctx, effs)
	return s.GetTransfer(ctx, id)
}

// WriteAuditLog appends an audit log entry.
func (s *GatewayServiceImpl) WriteAuditLog(ctx context.Context, entry primary.AuditEntry) (*primary.AuditLog, error) {
	record, err := s.audit.Write(ctx, secondary.AuditEntry{
		Action:   entry.Action,
		Entity:   entry.Entity,
		EntityID: entry.EntityID,
		ActorID:  entry.ActorID,
		Payload:  entry.Payload,
	})
	if err != nil {
		return nil, apperrors.AuditLog(err)
	}
	return s.toAuditLog(ctx, record), nil
}

// ListAuditLogs retrieves audit log entries, newest first.
func (s *GatewayServiceImpl) ListAuditLogs(ctx context.Context, filters primary.AuditLogFilters) ([]*primary.AuditLog, error) {
	records, err := s.repos.AuditLogs.List(ctx, secondary.AuditLogFilters{
		Entity:   filters.Entity,
		EntityID: filters.EntityID,
		ActorID:  filters.ActorID,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	logs := make([]*primary.AuditLog, len(records))
	for i, r := range records {
		logs[i] = s.toAuditLog(ctx, r)
	}
	return logs, nil
}

// registryView prefetches what the validator needs about the registry.
func (s *GatewayServiceImpl) registryView(ctx context.Context, c transfer.Candidate) (transfer.RegistryView, error) {
	var view transfer.RegistryView
	if c.AssetID == 0 {
		return view, nil
	}

	asset, err := s.repos.Assets.GetByID(ctx, c.AssetID)
	switch {
	case apperrors.Is(err, apperrors.KindNotFound):
		return view, nil
	case err != nil:
		return view, fmt.Errorf("failed to load asset: %w", err)
	}
	snapshot := transfer.AssetSnapshot{
		ID:          asset.ID,
		SectorID:    asset.SectorID,
		CustodianID: asset.CustodianID,
		Status:      transfer.AssetStatus(asset.Status),
	}
	view.Asset = &snapshot

	pending, err := s.repos.Transfers.FindPending(ctx, c.AssetID)
	if err != nil {
		return view, err
	}
	view.HasPendingTransfer = pending != nil

	if c.DestinationSectorID != nil {
		ok, err := s.repos.Sectors.Exists(ctx, *c.DestinationSectorID)
		if err != nil {
			return view, err
		}
		view.DestinationSectorUnknown = !ok
	}
	if c.DestinationCustodianID != nil {
		ok, err := s.repos.Custodians.Exists(ctx, *c.DestinationCustodianID)
		if err != nil {
			return view, err
		}
		view.DestinationCustodianUnknown = !ok
	}
	return view, nil
}

func (s *GatewayServiceImpl) loadForDecision(ctx context.Context, id int64) (transfer.Caller, *primary.Transfer, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return caller, nil, err
	}
	current, err := s.GetTransfer(ctx, id)
	if err != nil {
		return caller, nil, err
	}
	return caller, current, nil
}

func (s *GatewayServiceImpl) decisionContext(caller transfer.Caller, t *primary.Transfer) transfer.DecisionContext {
	return transfer.DecisionContext{
		Caller:            caller,
		TransferID:        t.ID,
		RequesterID:       t.RequesterID,
		State:             t.State,
		AllowSelfApproval: s.policy.AllowSelfApproval,
	}
}

// applyEffectuation plans the asset mutation from the current registry state
// and persists it together with the transfer update.
func (s *GatewayServiceImpl) applyEffectuation(ctx context.Context, t *primary.Transfer, caller transfer.Caller, now time.Time, approval *secondary.DecisionRecord) (transfer.EffectuationPlan, error) {
	asset, err := s.repos.Assets.GetByID(ctx, t.AssetID)
	if err != nil {
		return transfer.EffectuationPlan{}, err
	}

	plan := transfer.PlanEffectuation(transfer.EffectuationInput{
		TransferID:             t.ID,
		DestinationSectorID:    t.DestinationSectorID,
		DestinationCustodianID: t.DestinationCustodianID,
		Asset: transfer.AssetSnapshot{
			ID:          asset.ID,
			SectorID:    asset.SectorID,
			CustodianID: asset.CustodianID,
			Status:      transfer.AssetStatus(asset.Status),
		},
		ActorID: caller.ID,
		Now:     now,
	})

	changed, err := s.repos.Transfers.Effectuate(ctx, secondary.EffectuationRecord{
		TransferID:  t.ID,
		AssetID:     plan.Mutation.AssetID,
		SectorID:    plan.Mutation.SectorID,
		CustodianID: plan.Mutation.CustodianID,
		At:          now,
		Approval:    approval,
	})
	if err != nil {
		return plan, err
	}
	if !changed {
		action := transfer.ActionEffectuate
		if approval != nil {
			action = transfer.ActionApprove
		}
		return plan, s.lostRace(ctx, t.ID, action)
	}
	return plan, nil
}

// lostRace reports a conditional update that matched no row: another
// request moved the transfer first.
func (s *GatewayServiceImpl) lostRace(ctx context.Context, id int64, action transfer.Action) error {
	fresh, err := s.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.Conflict("cannot %s transfer %d: state is now %s", action, id, fresh.State)
}

// transitionEffects plans the side effects of applying action to a transfer
// that was in state from. The caller has already persisted the transition.
func (s *GatewayServiceImpl) transitionEffects(ctx context.Context, t *primary.Transfer, from transfer.State, action transfer.Action, actorID int64, now time.Time) []effects.Effect {
	next, err := transfer.NextState(from, action)
	if err != nil {
		s.logger.ErrorContext(ctx, "no side effects for illegal transition", "transfer_id", t.ID, "error", err)
		return nil
	}
	return transfer.PlanTransitionEffects(transfer.TransitionInput{
		TransferID: t.ID,
		AssetID:    t.AssetID,
		Action:     string(action),
		State:      next,
		ActorID:    actorID,
		Now:        now,
	})
}

// runEffects executes side channels. They never fail the transition.
func (s *GatewayServiceImpl) runEffects(ctx context.Context, effs []effects.Effect) {
	if s.executor == nil {
		return
	}
	if err := s.executor.Execute(ctx, effs); err != nil {
		s.logger.WarnContext(ctx, "side effects failed after transition", "error", err)
	}
}

func (s *GatewayServiceImpl) record(action string, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	s.recorder.RecordTransition(action, outcome)
}

// callerFrom reads the caller identity placed in ctx by the transport.
func callerFrom(ctx context.Context) (transfer.Caller, error) {
	c, ok := ctxutil.CallerFromContext(ctx)
	if !ok || c.ID == 0 {
		return transfer.Caller{}, apperrors.Permission("no caller identity on request")
	}
	return transfer.Caller{ID: c.ID, Role: transfer.Role(c.Role)}, nil
}

// toAuditLog converts a stored entry. An undecodable payload is logged and
// left empty so one corrupt row does not hide the rest of the log.
func (s *GatewayServiceImpl) toAuditLog(ctx context.Context, r *secondary.AuditLogRecord) *primary.AuditLog {
	log := &primary.AuditLog{
		ID:        r.ID,
		Action:    r.Action,
		Entity:    r.Entity,
		EntityID:  r.EntityID,
		ActorID:   r.ActorID,
		CreatedAt: r.CreatedAt,
	}
	if r.Payload != "" && r.Payload != "{}" {
		if err := json.Unmarshal([]byte(r.Payload), &log.Payload); err != nil {
			log.Payload = nil
			s.logger.WarnContext(ctx, "audit log payload is not valid JSON", "audit_log_id", r.ID, "error", err)
		}
	}
	return log
}

var _ primary.TransferGateway = (*GatewayServiceImpl)(nil)

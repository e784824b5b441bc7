package app

import (
	"context"
	"log/slog"

	"github.com/example/assetflow/internal/core/transfer"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
)

// TransferActionsImpl implements primary.TransferActionService for one
// caller. Guards here are advisory: they spare a round trip for requests
// the gateway would refuse anyway.
type TransferActionsImpl struct {
	gateway primary.TransferGateway
	caller  transfer.Caller
	policy  Policy
	logger  *slog.Logger
}

// NewTransferActions creates a new TransferActions service.
func NewTransferActions(gateway primary.TransferGateway, caller transfer.Caller, policy Policy, logger *slog.Logger) *TransferActionsImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferActionsImpl{
		gateway: gateway,
		caller:  caller,
		policy:  policy,
		logger:  logger,
	}
}

// Approve approves a pending transfer.
func (s *TransferActionsImpl) Approve(ctx context.Context, id int64, notes string, autoEffectuate bool) (*primary.ActionResult, error) {
	current, err := s.gateway.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	decisionCtx := s.decisionContext(current)
	if err := transfer.CanApprove(decisionCtx).Error(); err != nil {
		return &primary.ActionResult{Transfer: current}, err
	}
	if autoEffectuate {
		decisionCtx.State = transfer.StateApproved
		if err := transfer.CanEffectuate(decisionCtx).Error(); err != nil {
			return &primary.ActionResult{Transfer: current}, err
		}
	}

	updated, err := s.gateway.ApproveTransfer(ctx, id, notes, autoEffectuate)
	if err != nil {
		return s.afterFailure(ctx, id, current, err)
	}
	return s.afterSuccess(ctx, updated, transfer.ActionApprove, map[string]any{
		"notes":           notes,
		"auto_effectuate": autoEffectuate,
		"state":           string(updated.State),
	}), nil
}

// Reject rejects a pending transfer.
func (s *TransferActionsImpl) Reject(ctx context.Context, id int64, reason string) (*primary.ActionResult, error) {
	if err := transfer.ValidateRejection(reason).Err(); err != nil {
		return nil, err
	}

	current, err := s.gateway.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transfer.CanReject(s.decisionContext(current)).Error(); err != nil {
		return &primary.ActionResult{Transfer: current}, err
	}

	updated, err := s.gateway.RejectTransfer(ctx, id, reason)
	if err != nil {
		return s.afterFailure(ctx, id, current, err)
	}
	return s.afterSuccess(ctx, updated, transfer.ActionReject, map[string]any{
		"rejection_reason": reason,
	}), nil
}

// Effectuate applies an approved transfer.
func (s *TransferActionsImpl) Effectuate(ctx context.Context, id int64) (*primary.ActionResult, error) {
	current, err := s.gateway.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transfer.CanEffectuate(s.decisionContext(current)).Error(); err != nil {
		return &primary.ActionResult{Transfer: current}, err
	}

	updated, err := s.gateway.EffectuateTransfer(ctx, id)
	if err != nil {
		return s.afterFailure(ctx, id, current, err)
	}
	return s.afterSuccess(ctx, updated, transfer.ActionEffectuate, map[string]any{
		"asset_id":                 updated.AssetID,
		"destination_sector_id":    updated.DestinationSectorID,
		"destination_custodian_id": updated.DestinationCustodianID,
	}), nil
}

func (s *TransferActionsImpl) decisionContext(t *primary.Transfer) transfer.DecisionContext {
	return transfer.DecisionContext{
		Caller:            s.caller,
		TransferID:        t.ID,
		RequesterID:       t.RequesterID,
		State:             t.State,
		AllowSelfApproval: s.policy.AllowSelfApproval,
	}
}

// afterFailure re-fetches the transfer on a conflict so the caller sees the
// state that actually won.
func (s *TransferActionsImpl) afterFailure(ctx context.Context, id int64, stale *primary.Transfer, err error) (*primary.ActionResult, error) {
	if !apperrors.Is(err, apperrors.KindConflict) {
		return nil, err
	}
	fresh, getErr := s.gateway.GetTransfer(ctx, id)
	if getErr != nil {
		s.logger.WarnContext(ctx, "failed to refresh transfer after conflict", "transfer_id", id, "error", getErr)
		return &primary.ActionResult{Transfer: stale}, err
	}
	return &primary.ActionResult{Transfer: fresh}, err
}

func (s *TransferActionsImpl) afterSuccess(ctx context.Context, t *primary.Transfer, action transfer.Action, payload map[string]any) *primary.ActionResult {
	result := &primary.ActionResult{Transfer: t}
	if _, err := s.gateway.WriteAuditLog(ctx, primary.AuditEntry{
		Action:   string(action),
		Entity:   "transfer",
		EntityID: t.ID,
		ActorID:  s.caller.ID,
		Payload:  payload,
	}); err != nil {
		result.AuditErr = apperrors.AuditLog(err)
		s.logger.WarnContext(ctx, "transfer action succeeded but audit log failed", "transfer_id", t.ID, "action", action, "error", err)
	}
	return result
}

var _ primary.TransferActionService = (*TransferActionsImpl)(nil)

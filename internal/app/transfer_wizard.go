package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/assetflow/internal/core/transfer"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
)

// ErrSubmissionInFlight is returned when the wizard is driven while a
// submission has not finished.
var ErrSubmissionInFlight = errors.New("a transfer submission is already in flight")

// TransferWizard drives one user's transfer request wizard. The step logic
// lives in transfer.Wizard; this type fetches registry data for each
// step and talks to the gateway.
type TransferWizard struct {
	gateway  primary.TransferGateway
	registry primary.AssetRegistry
	logger   *slog.Logger

	mu       sync.Mutex
	state    transfer.Wizard
	inFlight bool
}

// NewTransferWizard starts a wizard for caller.
func NewTransferWizard(gateway primary.TransferGateway, registry primary.AssetRegistry, caller transfer.Caller, logger *slog.Logger) *TransferWizard {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferWizard{
		gateway:  gateway,
		registry: registry,
		logger:   logger,
		state:    transfer.NewWizard(caller),
	}
}

// State returns the current wizard state.
func (w *TransferWizard) State() transfer.Wizard {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// CandidateAssets lists the assets the caller may open a transfer for.
func (w *TransferWizard) CandidateAssets(ctx context.Context) ([]*primary.Asset, error) {
	assets, err := w.registry.ListAssets(ctx, primary.AssetFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	caller := w.State().Caller()
	var candidates []*primary.Asset
	for _, a := range assets {
		if transfer.CanRequest(caller, a.Snapshot()).Allowed {
			candidates = append(candidates, a)
		}
	}
	return candidates, nil
}

// SelectAsset completes step 1.
func (w *TransferWizard) SelectAsset(ctx context.Context, assetID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmissionInFlight
	}
	draft := w.state.Draft()
	draft.AssetID = assetID
	view, err := w.registryView(ctx, draft)
	if err != nil {
		return err
	}

	next, err := w.state.SelectAsset(assetID, view)
	w.state = next
	return err
}

// SetDestination completes step 2. On validation failure the input is kept
// so the user can correct it.
func (w *TransferWizard) SetDestination(ctx context.Context, input transfer.DestinationInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmissionInFlight
	}
	draft := w.state.Draft()
	draft.DestinationSectorID = input.SectorID
	draft.DestinationCustodianID = input.CustodianID
	draft.Reason = input.Reason
	view, err := w.registryView(ctx, draft)
	if err != nil {
		return err
	}

	next, err := w.state.SetDestination(input, view)
	w.state = next
	return err
}

// Back returns to the previous step, preserving entered data.
func (w *TransferWizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmissionInFlight
	}
	next, err := w.state.Back()
	if err != nil {
		return err
	}
	w.state = next
	return nil
}

// Cancel discards the draft. Refused once a submission has started.
func (w *TransferWizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return apperrors.Conflict("cannot cancel: submission in progress")
	}
	next, err := w.state.Cancel()
	if err != nil {
		return err
	}
	w.state = next
	return nil
}

// Submit confirms the draft and issues exactly one CreateTransfer. A
// validation failure, local or from the gateway, returns the wizard to the
// destination step with its data intact. The audit write that follows is
// best-effort and reported through SubmitResult.AuditErr.
func (w *TransferWizard) Submit(ctx context.Context) (*primary.SubmitResult, error) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	view, err := w.registryView(ctx, w.state.Draft())
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	confirmed, candidate, err := w.state.Confirm(view)
	if err != nil {
		if apperrors.Is(err, apperrors.KindValidation) {
			w.state = w.state.SubmissionRejected()
		}
		w.mu.Unlock()
		return nil, err
	}
	w.state = confirmed
	w.inFlight = true
	w.mu.Unlock()

	created, err := w.gateway.CreateTransfer(ctx, primary.CreateTransferRequest{
		AssetID:                candidate.AssetID,
		OriginSectorID:         candidate.OriginSectorID,
		OriginCustodianID:      candidate.OriginCustodianID,
		DestinationSectorID:    candidate.DestinationSectorID,
		DestinationCustodianID: candidate.DestinationCustodianID,
		Reason:                 candidate.Reason,
	})

	w.mu.Lock()
	w.inFlight = false
	if err != nil {
		if apperrors.Is(err, apperrors.KindValidation) {
			w.state = w.state.SubmissionRejected()
		}
		w.mu.Unlock()
		return nil, err
	}
	submitted, stepErr := w.state.Submitted(created.ID)
	if stepErr != nil {
		w.mu.Unlock()
		w.logger.ErrorContext(ctx, "transfer created but wizard could not record it", "transfer_id", created.ID, "error", stepErr)
		return &primary.SubmitResult{Transfer: created}, stepErr
	}
	w.state = submitted
	caller := w.state.Caller()
	w.mu.Unlock()

	result := &primary.SubmitResult{Transfer: created}
	if _, err := w.gateway.WriteAuditLog(ctx, primary.AuditEntry{
		Action:   "create",
		Entity:   "transfer",
		EntityID: created.ID,
		ActorID:  caller.ID,
		Payload: map[string]any{
			"asset_id":                 created.AssetID,
			"requester_id":             created.RequesterID,
			"destination_sector_id":    created.DestinationSectorID,
			"destination_custodian_id": created.DestinationCustodianID,
		},
	}); err != nil {
		result.AuditErr = apperrors.AuditLog(err)
		w.logger.WarnContext(ctx, "transfer created but audit log failed", "transfer_id", created.ID, "error", err)
	}
	return result, nil
}

// registryView prefetches registry facts for draft. An unknown asset
// yields an empty view for the validator to report.
func (w *TransferWizard) registryView(ctx context.Context, draft transfer.Candidate) (transfer.RegistryView, error) {
	var view transfer.RegistryView
	if draft.AssetID == 0 {
		return view, nil
	}

	asset, err := w.registry.GetAsset(ctx, draft.AssetID)
	switch {
	case apperrors.Is(err, apperrors.KindNotFound):
		return view, nil
	case err != nil:
		return view, fmt.Errorf("failed to load asset: %w", err)
	}
	snapshot := asset.Snapshot()
	view.Asset = &snapshot

	pending, err := w.gateway.FindPending(ctx, draft.AssetID)
	if err != nil {
		return view, fmt.Errorf("failed to check pending transfers: %w", err)
	}
	view.HasPendingTransfer = pending != nil

	if draft.DestinationSectorID != nil {
		ok, err := w.registry.SectorExists(ctx, *draft.DestinationSectorID)
		if err != nil {
			return view, err
		}
		view.DestinationSectorUnknown = !ok
	}
	if draft.DestinationCustodianID != nil {
		ok, err := w.registry.CustodianExists(ctx, *draft.DestinationCustodianID)
		if err != nil {
			return view, err
		}
		view.DestinationCustodianUnknown = !ok
	}
	return view, nil
}

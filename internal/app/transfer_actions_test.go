package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/assetflow/internal/core/transfer"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/ports/secondary"
)

var managerCaller = transfer.Caller{ID: 2, Role: transfer.RoleManager}

func TestTransferActions_Approve(t *testing.T) {
	f := newGatewayFixture(Policy{})
	created := createPending(t, f)
	actions := NewTransferActions(f.service, managerCaller, Policy{}, nil)

	result, err := actions.Approve(managerCtx, created.ID, "ok", false)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if result.Transfer.State != transfer.StateApproved {
		t.Errorf("expected approved, got %s", result.Transfer.State)
	}
	if result.AuditErr != nil {
		t.Errorf("unexpected audit error: %v", result.AuditErr)
	}
	if got := f.audit.actions("transfer"); len(got) != 1 || got[0] != "approve" {
		t.Errorf("expected one approve audit, got %v", got)
	}
}

func TestTransferActions_GuardsRunBeforeGateway(t *testing.T) {
	f := newGatewayFixture(Policy{})
	created := createPending(t, f)
	user := transfer.Caller{ID: 3, Role: transfer.RoleUser}
	actions := NewTransferActions(f.service, user, Policy{}, nil)
	userCtx := ctxAs(3, transfer.RoleUser)

	result, err := actions.Approve(userCtx, created.ID, "", false)
	if !apperrors.Is(err, apperrors.KindPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if result == nil || result.Transfer.ID != created.ID {
		t.Error("expected the current transfer alongside the refusal")
	}
	if f.recorder.count("approve", "permission") != 0 {
		t.Error("gateway should not have been called")
	}

	_, err = NewTransferActions(f.service, managerCaller, Policy{}, nil).Effectuate(managerCtx, created.ID)
	if !apperrors.Is(err, apperrors.KindConflict) {
		t.Errorf("expected conflict effectuating a pending transfer, got %v", err)
	}
}

func TestTransferActions_ConflictReturnsFreshTransfer(t *testing.T) {
	f := newGatewayFixture(Policy{})
	created := createPending(t, f)
	actions := NewTransferActions(f.service, managerCaller, Policy{}, nil)

	f.transfers.beforeDecision = func() {
		f.transfers.beforeDecision = nil
		f.transfers.Reject(context.Background(), secondary.DecisionRecord{
			TransferID: created.ID, ApproverID: 1, RejectionReason: "duplicate", At: time.Now(),
		})
	}

	result, err := actions.Approve(managerCtx, created.ID, "", false)
	if !apperrors.Is(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if result == nil || result.Transfer.State != transfer.StateRejected {
		t.Errorf("expected refreshed rejected transfer, got %+v", result)
	}
}

func TestTransferActions_RejectAndEffectuate(t *testing.T) {
	f := newGatewayFixture(Policy{})
	actions := NewTransferActions(f.service, managerCaller, Policy{}, nil)

	if _, err := actions.Reject(managerCtx, 1, ""); !apperrors.Is(err, apperrors.KindValidation) {
		t.Errorf("expected validation error for empty reason, got %v", err)
	}

	created := createPending(t, f)
	if _, err := actions.Approve(managerCtx, created.ID, "", false); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	result, err := actions.Effectuate(managerCtx, created.ID)
	if err != nil {
		t.Fatalf("Effectuate failed: %v", err)
	}
	if result.Transfer.State != transfer.StateCompleted {
		t.Errorf("expected completed, got %s", result.Transfer.State)
	}
	if sector, _ := f.assets.location(1); sector != 20 {
		t.Errorf("expected asset in sector 20, got %d", sector)
	}

	second := createPendingFor(t, f, 1)
	rejected, err := actions.Reject(managerCtx, second.ID, "Not needed")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Transfer.State != transfer.StateRejected {
		t.Errorf("expected rejected, got %s", rejected.Transfer.State)
	}
}

func TestTransferActions_AuditFailureIsReported(t *testing.T) {
	f := newGatewayFixture(Policy{})
	created := createPending(t, f)
	actions := NewTransferActions(f.service, managerCaller, Policy{}, nil)
	f.audit.writeErr = errors.New("audit store down")

	result, err := actions.Approve(managerCtx, created.ID, "", true)
	if err != nil {
		t.Fatalf("expected the transition to succeed, got %v", err)
	}
	if result.Transfer.State != transfer.StateCompleted {
		t.Errorf("expected completed, got %s", result.Transfer.State)
	}
	if !apperrors.Is(result.AuditErr, apperrors.KindAuditLog) {
		t.Errorf("expected audit log error, got %v", result.AuditErr)
	}
}

// createPendingFor opens a sector move for an asset after it has moved to
// sector 20, sending it back to sector 10.
func createPendingFor(t *testing.T, f *gatewayFixture, assetID int64) *primary.Transfer {
	t.Helper()
	sector, custodianID := f.assets.location(assetID)
	dest := int64(10)
	if sector == 10 {
		dest = 20
	}
	created, err := f.service.CreateTransfer(ctxAs(custodianID, transfer.RoleUser), primary.CreateTransferRequest{
		AssetID:             assetID,
		OriginSectorID:      sector,
		OriginCustodianID:   custodianID,
		DestinationSectorID: &dest,
		Reason:              "Return to origin",
	})
	if err != nil {
		t.Fatalf("CreateTransfer failed: %v", err)
	}
	return created
}

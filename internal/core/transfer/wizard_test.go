package transfer

import (
	"testing"

	apperrors "github.com/example/assetflow/internal/errors"
)

var custodianCaller = Caller{ID: 100, Role: RoleUser}

func wizardAtDestination(t *testing.T) Wizard {
	t.Helper()
	w, err := NewWizard(custodianCaller).SelectAsset(1, RegistryView{Asset: scenarioAsset()})
	if err != nil {
		t.Fatalf("SelectAsset() error = %v", err)
	}
	return w
}

func wizardAtConfirmation(t *testing.T) Wizard {
	t.Helper()
	w, err := wizardAtDestination(t).SetDestination(DestinationInput{
		SectorID: int64Ptr(20),
		Reason:   "Needs relocation",
	}, RegistryView{Asset: scenarioAsset()})
	if err != nil {
		t.Fatalf("SetDestination() error = %v", err)
	}
	return w
}

func TestWizard_HappyPath(t *testing.T) {
	w := NewWizard(custodianCaller)
	if w.Step() != StepAssetSelection {
		t.Fatalf("new wizard step = %s", w.Step())
	}

	w = wizardAtConfirmation(t)
	if w.Step() != StepConfirmation {
		t.Fatalf("step = %s, want confirmation", w.Step())
	}

	w, candidate, err := w.Confirm(RegistryView{Asset: scenarioAsset()})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if candidate.AssetID != 1 || candidate.OriginSectorID != 10 || candidate.OriginCustodianID != 100 {
		t.Errorf("candidate snapshot = %+v", candidate)
	}
	if candidate.DestinationSectorID == nil || *candidate.DestinationSectorID != 20 {
		t.Errorf("candidate destination = %v", candidate.DestinationSectorID)
	}

	w, err = w.Submitted(42)
	if err != nil {
		t.Fatalf("Submitted() error = %v", err)
	}
	if w.Step() != StepSubmitted || w.TransferID() != 42 || !w.IsFinished() {
		t.Errorf("after submit: step=%s id=%d", w.Step(), w.TransferID())
	}
}

func TestWizard_SelectAssetRejections(t *testing.T) {
	retired := scenarioAsset()
	retired.Status = AssetRetired

	tests := []struct {
		name     string
		caller   Caller
		view     RegistryView
		wantKind apperrors.Kind
		wantMsg  string
	}{
		{
			name:     "unknown asset",
			caller:   custodianCaller,
			view:     RegistryView{},
			wantKind: apperrors.KindValidation,
			wantMsg:  MsgAssetNotFound,
		},
		{
			name:     "retired asset",
			caller:   Caller{ID: 1, Role: RoleAdministrator},
			view:     RegistryView{Asset: retired},
			wantKind: apperrors.KindValidation,
			wantMsg:  MsgAssetRetired,
		},
		{
			name:     "pending transfer exists",
			caller:   custodianCaller,
			view:     RegistryView{Asset: scenarioAsset(), HasPendingTransfer: true},
			wantKind: apperrors.KindValidation,
			wantMsg:  MsgPendingTransferExists,
		},
		{
			name:     "caller is not the custodian",
			caller:   Caller{ID: 555, Role: RoleUser},
			view:     RegistryView{Asset: scenarioAsset()},
			wantKind: apperrors.KindPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWizard(tt.caller)
			next, err := w.SelectAsset(1, tt.view)
			if err == nil {
				t.Fatal("SelectAsset() error = nil")
			}
			if apperrors.KindOf(err) != tt.wantKind {
				t.Errorf("error kind = %q, want %q (%v)", apperrors.KindOf(err), tt.wantKind, err)
			}
			if tt.wantMsg != "" && !FieldErrors(apperrors.FieldsOf(err)).Has(FieldAssetID, tt.wantMsg) {
				t.Errorf("fields = %v, want %q", apperrors.FieldsOf(err), tt.wantMsg)
			}
			if next.Step() != StepAssetSelection {
				t.Errorf("step advanced to %s on failure", next.Step())
			}
		})
	}
}

func TestWizard_SetDestinationKeepsInputOnFailure(t *testing.T) {
	w := wizardAtDestination(t)

	next, err := w.SetDestination(DestinationInput{
		SectorID: int64Ptr(10),
		Reason:   "short",
	}, RegistryView{Asset: scenarioAsset()})

	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("SetDestination() error = %v, want validation", err)
	}
	fields := FieldErrors(apperrors.FieldsOf(err))
	if !fields.Has(FieldDestination, MsgNoEffectiveChange) || !fields.Has(FieldReason, MsgReasonTooShort) {
		t.Errorf("fields = %v", fields)
	}
	if next.Step() != StepDestination {
		t.Errorf("step = %s, want destination", next.Step())
	}
	if next.Draft().Reason != "short" || *next.Draft().DestinationSectorID != 10 {
		t.Errorf("draft lost input: %+v", next.Draft())
	}
	if w.Draft().Reason != "" {
		t.Error("receiver was mutated")
	}
}

func TestWizard_BackPreservesData(t *testing.T) {
	w := wizardAtConfirmation(t)

	w, err := w.Back()
	if err != nil || w.Step() != StepDestination {
		t.Fatalf("Back() = %s, %v", w.Step(), err)
	}
	w, err = w.Back()
	if err != nil || w.Step() != StepAssetSelection {
		t.Fatalf("Back() = %s, %v", w.Step(), err)
	}
	if w.Draft().Reason != "Needs relocation" || w.Draft().AssetID != 1 {
		t.Errorf("draft after going back = %+v", w.Draft())
	}
	if _, err := w.Back(); err == nil {
		t.Error("Back() from the first step should fail")
	}
}

func TestWizard_ForwardAdvanceRefreshesSnapshot(t *testing.T) {
	w := wizardAtConfirmation(t)
	w, _ = w.Back()
	w, _ = w.Back()

	// Meanwhile the asset moved to sector 20 under a new custodian who is
	// still the caller.
	moved := &AssetSnapshot{ID: 1, SectorID: 20, CustodianID: 100, Status: AssetActive}
	w, err := w.SelectAsset(1, RegistryView{Asset: moved})
	if err != nil {
		t.Fatalf("SelectAsset() error = %v", err)
	}
	if w.Draft().OriginSectorID != 20 {
		t.Errorf("origin not refreshed: %+v", w.Draft())
	}

	// Re-entering the old destination (sector 20) is now no change at all.
	_, err = w.SetDestination(DestinationInput{
		SectorID: w.Draft().DestinationSectorID,
		Reason:   w.Draft().Reason,
	}, RegistryView{Asset: moved})
	if !FieldErrors(apperrors.FieldsOf(err)).Has(FieldDestination, MsgNoEffectiveChange) {
		t.Errorf("SetDestination() error = %v, want no effective change", err)
	}
}

func TestWizard_ConfirmRevalidates(t *testing.T) {
	w := wizardAtConfirmation(t)

	_, _, err := w.Confirm(RegistryView{Asset: scenarioAsset(), HasPendingTransfer: true})
	if !FieldErrors(apperrors.FieldsOf(err)).Has(FieldAssetID, MsgPendingTransferExists) {
		t.Errorf("Confirm() error = %v, want pending transfer failure", err)
	}
}

func TestWizard_SubmissionRejectedReturnsToDestination(t *testing.T) {
	w := wizardAtConfirmation(t).SubmissionRejected()
	if w.Step() != StepDestination {
		t.Errorf("step = %s, want destination", w.Step())
	}
	if w.Draft().Reason != "Needs relocation" {
		t.Errorf("draft lost: %+v", w.Draft())
	}
}

func TestWizard_Cancel(t *testing.T) {
	w, err := wizardAtConfirmation(t).Cancel()
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if w.Step() != StepCancelled || w.HasSelection() || w.Draft().Reason != "" {
		t.Errorf("cancel kept state: step=%s draft=%+v", w.Step(), w.Draft())
	}

	submitted, _ := wizardAtConfirmation(t).Submitted(1)
	if _, err := submitted.Cancel(); !apperrors.Is(err, apperrors.KindConflict) {
		t.Errorf("Cancel() after submit error = %v, want conflict", err)
	}
}

func TestWizard_OutOfOrderTransitions(t *testing.T) {
	w := NewWizard(custodianCaller)

	if _, err := w.SetDestination(DestinationInput{}, RegistryView{}); err == nil {
		t.Error("SetDestination() on step 1 should fail")
	}
	if _, _, err := w.Confirm(RegistryView{}); err == nil {
		t.Error("Confirm() on step 1 should fail")
	}
	if _, err := w.Submitted(1); err == nil {
		t.Error("Submitted() on step 1 should fail")
	}
	dest := wizardAtDestination(t)
	if _, err := dest.SelectAsset(1, RegistryView{Asset: scenarioAsset()}); err == nil {
		t.Error("SelectAsset() on step 2 should fail")
	}
}

package transfer

import (
	apperrors "github.com/example/assetflow/internal/errors"
)

// Step is the current step of the transfer request wizard.
type Step int

const (
	StepAssetSelection Step = iota + 1
	StepDestination
	StepConfirmation
	StepSubmitted
	StepCancelled
)

func (s Step) String() string {
	switch s {
	case StepAssetSelection:
		return "asset_selection"
	case StepDestination:
		return "destination"
	case StepConfirmation:
		return "confirmation"
	case StepSubmitted:
		return "submitted"
	case StepCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Wizard is the three-step transfer request flow as an explicit state machine.
// It is a value: every transition returns a new Wizard and never mutates the
// receiver, so a rejected transition leaves the caller's copy untouched.
type Wizard struct {
	step       Step
	caller     Caller
	draft      Candidate
	transferID int64
}

// DestinationInput is what the user enters on the destination step.
type DestinationInput struct {
	SectorID    *int64
	CustodianID *int64
	Reason      string
}

// NewWizard starts a wizard for caller on the asset selection step.
func NewWizard(caller Caller) Wizard {
	return Wizard{step: StepAssetSelection, caller: caller}
}

func (w Wizard) Step() Step { return w.step }
func (w Wizard) Caller() Caller { return w.caller }
func (w Wizard) Draft() Candidate { return w.draft }
func (w Wizard) TransferID() int64 { return w.transferID }
func (w Wizard) IsFinished() bool { return w.step == StepSubmitted || w.step == StepCancelled }
func (w Wizard) CanGoBack() bool { return w.step == StepDestination || w.step == StepConfirmation }
func (w Wizard) HasSelection() bool { return w.draft.AssetID != 0 }

// SelectAsset commits step 1. The asset must exist, must be requestable by
// the caller and must not already have a pending transfer. The origin is
// snapshotted from the asset. Entered destination data survives reselection.
func (w Wizard) SelectAsset(assetID int64, view RegistryView) (Wizard, error) {
	if w.step != StepAssetSelection {
		return w, stepError(w.step, "select an asset")
	}

	errs := FieldErrors{}
	probe := Candidate{AssetID: assetID}
	if view.Asset != nil {
		probe = snapshotOrigin(probe, *view.Asset)
	}
	validateAsset(errs, probe, view)
	if err := errs.Err(); err != nil {
		return w, err
	}
	if res := CanRequest(w.caller, *view.Asset); !res.Allowed {
		return w, res.Error()
	}

	next := w
	next.draft.AssetID = assetID
	next.draft = snapshotOrigin(next.draft, *view.Asset)
	next.step = StepDestination
	return next, nil
}

// SetDestination commits step 2. The input is stored on the returned wizard
// even when validation fails so that nothing entered is lost; the step only
// advances when the full validation batch passes against a fresh snapshot.
func (w Wizard) SetDestination(input DestinationInput, view RegistryView) (Wizard, error) {
	if w.step != StepDestination {
		return w, stepError(w.step, "set the destination")
	}

	next := w
	next.draft.DestinationSectorID = input.SectorID
	next.draft.DestinationCustodianID = input.CustodianID
	next.draft.Reason = input.Reason

	checked, err := next.revalidate(view)
	if err != nil {
		return next, err
	}
	checked.step = StepConfirmation
	return checked, nil
}

// Confirm re-runs validation on step 3 and returns the candidate to submit.
// The wizard stays on the confirmation step until Submitted is called.
func (w Wizard) Confirm(view RegistryView) (Wizard, Candidate, error) {
	if w.step != StepConfirmation {
		return w, Candidate{}, stepError(w.step, "confirm")
	}
	checked, err := w.revalidate(view)
	if err != nil {
		return w, Candidate{}, err
	}
	return checked, checked.draft, nil
}

// Submitted records a successful creation.
func (w Wizard) Submitted(transferID int64) (Wizard, error) {
	if w.step != StepConfirmation {
		return w, stepError(w.step, "submit")
	}
	next := w
	next.step = StepSubmitted
	next.transferID = transferID
	return next, nil
}

// SubmissionRejected returns to the destination step after the gateway
// refused a creation that passed local validation. Draft data is kept.
func (w Wizard) SubmissionRejected() Wizard {
	if w.step != StepConfirmation {
		return w
	}
	next := w
	next.step = StepDestination
	return next
}

// Back moves one step backwards keeping all entered data.
func (w Wizard) Back() (Wizard, error) {
	if !w.CanGoBack() {
		return w, stepError(w.step, "go back")
	}
	next := w
	next.step--
	return next, nil
}

// Cancel discards all candidate state. Not possible once submitted.
func (w Wizard) Cancel() (Wizard, error) {
	if w.step == StepSubmitted {
		return w, apperrors.Conflict("transfer request already submitted; it cannot be cancelled")
	}
	return Wizard{step: StepCancelled, caller: w.caller}, nil
}

func (w Wizard) revalidate(view RegistryView) (Wizard, error) {
	next := w
	if view.Asset != nil {
		next.draft = snapshotOrigin(next.draft, *view.Asset)
	}
	if err := Validate(next.draft, view).Err(); err != nil {
		return w, err
	}
	if res := CanRequest(w.caller, *view.Asset); !res.Allowed {
		return w, res.Error()
	}
	return next, nil
}

func snapshotOrigin(c Candidate, asset AssetSnapshot) Candidate {
	c.OriginSectorID = asset.SectorID
	c.OriginCustodianID = asset.CustodianID
	return c
}

func stepError(step Step, action string) error {
	return apperrors.Conflict("cannot %s on wizard step %s", action, step)
}

package transfer

import (
	"fmt"

	apperrors "github.com/example/assetflow/internal/errors"
)

// Role is the caller's organisational role.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleManager       Role = "Manager"
	RoleUser          Role = "User"
)

// IsApprover reports whether the role may decide and effectuate transfers.
func (r Role) IsApprover() bool {
	return r == RoleAdministrator || r == RoleManager
}

// Caller identifies who is acting. Always passed explicitly to guards.
type Caller struct {
	ID   int64
	Role Role
}

// AssetStatus is the registry status of an asset.
type AssetStatus string

const (
	AssetActive      AssetStatus = "active"
	AssetMaintenance AssetStatus = "maintenance"
	AssetRetired     AssetStatus = "retired"
)

// AssetSnapshot is the part of an asset record the guards look at.
type AssetSnapshot struct {
	ID          int64
	SectorID    int64
	CustodianID int64
	Status      AssetStatus
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	// Kind classifies a refusal: permission for who-may-act refusals,
	// conflict for refusals caused by the transfer's state.
	Kind apperrors.Kind
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == "" {
		kind = apperrors.KindPermission
	}
	return &apperrors.Error{Kind: kind, Message: r.Reason}
}

func allowed() GuardResult { return GuardResult{Allowed: true} }

func denied(kind apperrors.Kind, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// CanRequest evaluates whether caller may open a transfer for asset.
// Rules:
// - Retired assets can never be transferred, regardless of role
// - Administrators and Managers may request for any asset
// - Anyone else only for assets in their own custody
func CanRequest(caller Caller, asset AssetSnapshot) GuardResult {
	if asset.Status == AssetRetired {
		return denied(apperrors.KindPermission, "asset %d is retired and cannot be transferred", asset.ID)
	}
	if caller.Role.IsApprover() {
		return allowed()
	}
	if caller.ID != 0 && caller.ID == asset.CustodianID {
		return allowed()
	}
	return denied(apperrors.KindPermission, "user %d is not the custodian of asset %d", caller.ID, asset.ID)
}

// DecisionContext provides context for approve/reject/effectuate guards.
type DecisionContext struct {
	Caller            Caller
	TransferID        int64
	RequesterID       int64
	State             State
	AllowSelfApproval bool
}

// CanApprove evaluates whether the caller may approve a transfer.
// Rules:
// - Transfer must be pending
// - Caller must be an Administrator or Manager
// - Caller must not be the requester (unless self-approval is allowed by policy)
func CanApprove(ctx DecisionContext) GuardResult {
	return canDecide(ctx, ActionApprove)
}

// CanReject evaluates whether the caller may reject a transfer.
// Rejection is the other outcome of the approval decision and shares its rules.
func CanReject(ctx DecisionContext) GuardResult {
	return canDecide(ctx, ActionReject)
}

func canDecide(ctx DecisionContext, action Action) GuardResult {
	if ctx.State != RequiredState(action) {
		return denied(apperrors.KindConflict, "cannot %s transfer %d: already %s", action, ctx.TransferID, ctx.State)
	}
	if !ctx.Caller.Role.IsApprover() {
		return denied(apperrors.KindPermission, "only Administrators and Managers can %s transfers (role: %s)", action, roleLabel(ctx.Caller.Role))
	}
	if !ctx.AllowSelfApproval && ctx.Caller.ID == ctx.RequesterID {
		return denied(apperrors.KindPermission, "user %d cannot %s their own transfer request %d", ctx.Caller.ID, action, ctx.TransferID)
	}
	return allowed()
}

// CanEffectuate evaluates whether the caller may effectuate a transfer.
// Rules:
// - Transfer must be approved
// - Caller must be an Administrator or Manager
func CanEffectuate(ctx DecisionContext) GuardResult {
	if ctx.State != RequiredState(ActionEffectuate) {
		return denied(apperrors.KindConflict, "cannot effectuate transfer %d: state is %s, must be approved", ctx.TransferID, ctx.State)
	}
	if !ctx.Caller.Role.IsApprover() {
		return denied(apperrors.KindPermission, "only Administrators and Managers can effectuate transfers (role: %s)", roleLabel(ctx.Caller.Role))
	}
	return allowed()
}

func roleLabel(r Role) string {
	if r == "" {
		return "none"
	}
	return string(r)
}

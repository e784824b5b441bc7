package primary

import "context"

// TransferActionService drives decisions on existing transfers from the
// client side: gate, call the gateway once, then audit.
type TransferActionService interface {
	// Approve approves a pending transfer, optionally effectuating it in the
	// same gateway request.
	Approve(ctx context.Context, id int64, notes string, autoEffectuate bool) (*ActionResult, error)

	// Reject rejects a pending transfer.
	Reject(ctx context.Context, id int64, reason string) (*ActionResult, error)

	// Effectuate applies an approved transfer.
	Effectuate(ctx context.Context, id int64) (*ActionResult, error)
}

// ActionResult is the outcome of a transfer action. On a conflict the
// result still carries the freshly fetched transfer so callers can show the
// real state.
type ActionResult struct {
	Transfer *Transfer
	// AuditErr is set when the action succeeded but its audit entry could
	// not be written.
	AuditErr error
}

// SubmitResult is the outcome of submitting a transfer request.
type SubmitResult struct {
	Transfer *Transfer
	AuditErr error
}

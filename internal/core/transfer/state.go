// Package transfer contains the pure business logic for asset transfers.
// This is part of the Functional Core - no I/O, only pure functions.
package transfer

import (
	apperrors "github.com/example/assetflow/internal/errors"
)

// State is the derived lifecycle state of a transfer request.
// It is never persisted; DeriveState computes it from stored fields.
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateCompleted State = "completed"
)

// States lists every state in lifecycle order.
var States = []State{StatePending, StateApproved, StateRejected, StateCompleted}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateRejected || s == StateCompleted
}

// ParseState converts a string into a State.
func ParseState(s string) (State, bool) {
	for _, st := range States {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// StateFields are the stored fields the derived state depends on.
type StateFields struct {
	ApproverID      *int64
	RejectionReason string
	Effectuated     bool
}

// DeriveState computes the lifecycle state. First match wins:
// rejected, then completed, then approved, then pending.
// Rejected wins over completed if both are (inconsistently) set.
func DeriveState(f StateFields) State {
	switch {
	case f.RejectionReason != "":
		return StateRejected
	case f.Effectuated:
		return StateCompleted
	case f.ApproverID != nil:
		return StateApproved
	default:
		return StatePending
	}
}

// Action is a mutating transition requested on a transfer.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionEffectuate Action = "effectuate"
)

// NextState returns the state reached by applying action to from.
// Only pending→approved, pending→rejected and approved→completed are legal.
func NextState(from State, action Action) (State, error) {
	switch {
	case action == ActionApprove && from == StatePending:
		return StateApproved, nil
	case action == ActionReject && from == StatePending:
		return StateRejected, nil
	case action == ActionEffectuate && from == StateApproved:
		return StateCompleted, nil
	}
	return from, apperrors.Conflict("cannot %s a transfer in state %s", action, from)
}

// RequiredState returns the state an action must start from.
func RequiredState(action Action) State {
	if action == ActionEffectuate {
		return StateApproved
	}
	return StatePending
}

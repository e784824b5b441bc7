// Package httpapi exposes the transfer gateway and asset registry over
// HTTP/JSON.
package httpapi

import (
	apperrors "github.com/example/assetflow/internal/errors"
)

// Caller identity headers.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ApproveRequest is the body of POST /v1/transfers/{id}/approve.
type ApproveRequest struct {
	Notes          string `json:"notes"`
	AutoEffectuate bool   `json:"auto_effectuate"`
}

// RejectRequest is the body of POST /v1/transfers/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Kind    apperrors.Kind    `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Err converts the detail back into a typed error.
func (d ErrorDetail) Err(status int) *apperrors.Error {
	kind := d.Kind
	if kind == "" {
		kind = apperrors.KindFromHTTPStatus(status)
	}
	return &apperrors.Error{Kind: kind, Message: d.Message, Fields: d.Fields}
}

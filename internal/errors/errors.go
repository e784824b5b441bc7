// Package errors provides the typed error taxonomy shared by the transfer
// core, the gateway and its transports.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// KindInternal is any failure that is not part of the taxonomy.
	KindInternal Kind = "internal"
	// KindValidation is a field-scoped input failure. Recoverable locally.
	KindValidation Kind = "validation"
	// KindConflict is an illegal state transition detected by the gateway.
	KindConflict Kind = "conflict"
	// KindPermission is a caller that may not perform the action.
	KindPermission Kind = "permission"
	// KindNotFound is a missing transfer, asset, sector or custodian.
	KindNotFound Kind = "not_found"
	// KindTransport is a network or timeout failure. No state is assumed changed.
	KindTransport Kind = "transport"
	// KindAuditLog is a failed audit write. Never rolls back the primary action.
	KindAuditLog Kind = "audit_log"
)

// Error is a categorized error. Fields is populated for validation errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, formatFields(e.Fields))
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation creates a validation error from a field → message map.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// ValidationField creates a validation error for a single field.
func ValidationField(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Permission creates a permission error.
func Permission(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a network failure.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: "gateway unreachable", Err: err}
}

// AuditLog wraps a failed audit write.
func AuditLog(err error) *Error {
	return &Error{Kind: KindAuditLog, Message: "audit log write failed", Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldsOf extracts validation fields, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// HTTPStatus maps a kind to the HTTP status used by the gateway API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// KindFromHTTPStatus is the inverse of HTTPStatus for gateway clients.
func KindFromHTTPStatus(status int) Kind {
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return KindValidation
	case http.StatusConflict:
		return KindConflict
	case http.StatusForbidden, http.StatusUnauthorized:
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindTransport
	default:
		return KindInternal
	}
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, "; ")
}

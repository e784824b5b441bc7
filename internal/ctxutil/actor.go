// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// CallerKey is the context key for the calling user's identity.
// Exported so it can be used consistently across packages.
type CallerKey struct{}

// Caller identifies the user on whose behalf a request runs.
type Caller struct {
	ID   int64
	Role string
}

// WithCaller returns a context with the caller embedded.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerKey{}, caller)
}

// CallerFromContext returns the caller from context and whether one was set.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerKey{}).(Caller)
	return caller, ok
}

// ActorFromContext returns the caller's ID, or 0 if no caller is set.
func ActorFromContext(ctx context.Context) int64 {
	caller, _ := CallerFromContext(ctx)
	return caller.ID
}

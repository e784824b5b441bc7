// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a structured logging operation.
type LogEffect struct {
	Level   string // "debug", "info", "warn", "error"
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// AuditEffect represents an audit log write.
// Audit is a side channel: a failed write never undoes the primary change.
type AuditEffect struct {
	Action   string // e.g., "create", "approve", "update"
	Entity   string // e.g., "transfer", "asset"
	EntityID int64
	ActorID  int64
	Payload  map[string]any
}

func (e AuditEffect) EffectType() string { return "audit" }

// PublishEffect represents publishing a domain event to the event bus.
type PublishEffect struct {
	Key   string // partition key
	Event any    // JSON-encodable payload
}

func (e PublishEffect) EffectType() string { return "publish" }

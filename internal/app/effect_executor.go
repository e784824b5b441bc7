// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/assetflow/internal/core/effects"
	"github.com/example/assetflow/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place side-channel I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
// Every effect is attempted; failures are joined and returned together.
type DefaultEffectExecutor struct {
	audit     secondary.AuditWriter
	publisher secondary.EventPublisher
	logger    *slog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(audit secondary.AuditWriter, publisher secondary.EventPublisher, logger *slog.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultEffectExecutor{
		audit:     audit,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	var errs []error
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			errs = append(errs, fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err))
		}
	}
	return errors.Join(errs...)
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.AuditEffect:
		return e.executeAudit(ctx, typed)
	case effects.PublishEffect:
		return e.executePublish(ctx, typed)
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeAudit(ctx context.Context, eff effects.AuditEffect) error {
	if e.audit == nil {
		return nil
	}
	_, err := e.audit.Write(ctx, secondary.AuditEntry{
		Action:   eff.Action,
		Entity:   eff.Entity,
		EntityID: eff.EntityID,
		ActorID:  eff.ActorID,
		Payload:  eff.Payload,
	})
	return err
}

func (e *DefaultEffectExecutor) executePublish(ctx context.Context, eff effects.PublishEffect) error {
	if e.publisher == nil {
		return nil
	}
	return e.publisher.Publish(ctx, eff.Key, eff.Event)
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	attrs := make([]any, 0, len(eff.Fields)*2)
	for k, v := range eff.Fields {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelInfo
	switch eff.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	e.logger.Log(ctx, level, eff.Message, attrs...)
}

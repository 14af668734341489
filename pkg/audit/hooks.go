// Package audit fans out settings persistence events to registered hooks so
// integrators can feed activity feeds, telemetry, or compliance logs without
// coupling the engine to any sink.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verbs emitted by the settings engine.
const (
	VerbSaved    = "settings.saved"
	VerbAutoload = "settings.autoload"
	VerbMigrated = "settings.migrated"
	VerbErased   = "settings.erased"
)

// Event describes one settings persistence occurrence. IDs are
// stringly-typed to avoid coupling call sites to specific UUID types.
type Event struct {
	ID         string
	Verb       string
	Bundle     string
	Scope      string
	ActorID    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized audit events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when required fields are
// missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.Bundle == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a timestamp
// is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.ID = strings.TrimSpace(event.ID)
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Bundle = strings.TrimSpace(event.Bundle)
	normalized.Scope = strings.TrimSpace(event.Scope)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.Metadata = cloneMetadata(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

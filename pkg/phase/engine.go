package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
)

// Outcome describes one ApplyPhase call.
type Outcome struct {
	Level    Level
	Previous string
	Phase    string
	// Applied is false when nothing was written: no addressable location or
	// the location already had the phase.
	Applied  bool
	Document *domain.Document
}

// Engine persists phase transitions through a session manager.
type Engine struct {
	sessions   *session.Manager
	vocabulary map[string]struct{}
	hooks      domain.LifecycleHooks
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithVocabulary restricts phases to a known set. Without it any phase is accepted.
func WithVocabulary(v map[string]struct{}) EngineOption {
	return func(e *Engine) {
		e.vocabulary = v
	}
}

// WithHooks registers lifecycle observers.
func WithHooks(h domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = h
	}
}

// NewEngine creates an Engine.
func NewEngine(sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Known reports whether phase belongs to the vocabulary.
func (e *Engine) Known(phase string) bool {
	if e.vocabulary == nil {
		return phase != ""
	}
	_, ok := e.vocabulary[phase]
	return ok
}

// Plan picks the phase to write from the locked document. current is the
// phase at the addressed level and addressable reports whether that level has
// a location at all. An empty result leaves the document untouched.
type Plan func(doc *domain.Document, current string, addressable bool) (string, error)

// ApplyPhase loads the document for key, writes phase at level and persists
// it under the session lock. A no-op is not written and is not an error.
func (e *Engine) ApplyPhase(ctx context.Context, key, phase string, level Level) (Outcome, error) {
	if !e.Known(phase) {
		return Outcome{}, fmt.Errorf("%w: %q", domain.ErrUnknownPhase, phase)
	}
	return e.Transition(ctx, key, level, func(*domain.Document, string, bool) (string, error) {
		return phase, nil
	})
}

// Transition runs plan and writes its phase in a single load-mutate-save
// cycle under the session lock. After a revision conflict the document is
// reloaded and plan runs again, so the decision always matches the written
// revision.
func (e *Engine) Transition(ctx context.Context, key string, level Level, plan Plan) (Outcome, error) {
	var out Outcome
	doc, changed, err := e.sessions.Update(ctx, key, func(doc *domain.Document) (bool, error) {
		current, addressable := Current(doc, level)
		out = Outcome{Level: level, Previous: current}

		target, err := plan(doc, current, addressable)
		if err != nil || target == "" {
			return false, err
		}
		if !e.Known(target) {
			return false, fmt.Errorf("%w: %q", domain.ErrUnknownPhase, target)
		}
		out.Phase = target
		return Apply(doc, target, level), nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to apply phase at %s level: %w", level, err)
	}
	out.Applied = changed
	out.Document = doc

	if changed {
		e.hooks.EmitPhase(ctx, &domain.PhaseEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventPhaseApplied, Project: key},
			Level:     string(level),
			From:      out.Previous,
			To:        out.Phase,
		})
	}
	return out, nil
}

package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventGateEvaluated EventType = "gate_evaluated"
	EventPhaseApplied  EventType = "phase_applied"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Project   string    `json:"project,omitempty"` // project hash
}

// GateEvent is emitted every time a gate is evaluated.
type GateEvent struct {
	EventBase
	GateID  string      `json:"gate_id"`
	Policy  string      `json:"policy"`
	Passed  bool        `json:"passed"`
	Message string      `json:"message,omitempty"`
	Work    WorkPointer `json:"work"`
}

// PhaseEvent is emitted when a phase transition is persisted.
type PhaseEvent struct {
	EventBase
	Level string `json:"level"`
	From  string `json:"from,omitempty"`
	To    string `json:"to"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
type LifecycleHooks struct {
	OnGateEvaluated func(context.Context, *GateEvent)
	OnPhaseApplied  func(context.Context, *PhaseEvent)
}

// EmitGate calls OnGateEvaluated if set.
func (h LifecycleHooks) EmitGate(ctx context.Context, e *GateEvent) {
	if h.OnGateEvaluated != nil {
		h.OnGateEvaluated(ctx, e)
	}
}

// EmitPhase calls OnPhaseApplied if set.
func (h LifecycleHooks) EmitPhase(ctx context.Context, e *PhaseEvent) {
	if h.OnPhaseApplied != nil {
		h.OnPhaseApplied(ctx, e)
	}
}

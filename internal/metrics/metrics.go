// Package metrics counts orchestrator activity on a private prometheus
// registry. Invocations are short-lived, so the registry is flushed to a
// node-exporter textfile instead of being scraped.
package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Store operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Recorder holds the orchestrator counters.
type Recorder struct {
	registry    *prometheus.Registry
	gates       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	storeOps    *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		gates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_gate_evaluations_total",
				Help: "Total number of gate evaluations",
			},
			[]string{"gate", "result"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_phase_transitions_total",
				Help: "Total number of persisted phase transitions",
			},
			[]string{"level", "phase"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_store_operations_total",
				Help: "Total number of state store operations",
			},
			[]string{"op", "result"},
		),
	}
	r.registry.MustRegister(r.gates, r.transitions, r.storeOps)
	return r
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStore counts one store operation.
func (r *Recorder) ObserveStore(op string, err error) {
	r.storeOps.WithLabelValues(op, storeResult(err)).Inc()
}

func storeResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrStateNotFound):
		return ResultNotFound
	case errors.Is(err, domain.ErrRevisionConflict):
		return ResultConflict
	default:
		return ResultError
	}
}

// Hooks returns lifecycle hooks feeding the gate and transition counters.
// When next is given its callbacks run after the counters.
func (r *Recorder) Hooks(next ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGateEvaluated: func(ctx context.Context, e *domain.GateEvent) {
			r.gates.WithLabelValues(e.GateID, strconv.FormatBool(e.Passed)).Inc()
			for _, h := range next {
				h.EmitGate(ctx, e)
			}
		},
		OnPhaseApplied: func(ctx context.Context, e *domain.PhaseEvent) {
			r.transitions.WithLabelValues(e.Level, e.To).Inc()
			for _, h := range next {
				h.EmitPhase(ctx, e)
			}
		},
	}
}

// WriteTextfile writes the registry in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Package gate evaluates named gates: preconditions that must hold before a
// phase may be entered.
package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/contract"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Policy tells how a gate was decided.
type Policy int

const (
	// Unconfigured: no such gate; evaluation passes.
	Unconfigured Policy = iota
	// Blocking: an artifact predicate was checked.
	Blocking
	// Permissive: the condition kind is not enforced; evaluation passes.
	Permissive
)

func (p Policy) String() string {
	switch p {
	case Unconfigured:
		return "unconfigured"
	case Blocking:
		return "blocking"
	case Permissive:
		return "permissive"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ConditionKind classifies a gate condition expression.
type ConditionKind int

const (
	Unknown ConditionKind = iota
	ArtifactExists
	ScopeChange
	DesignInvariant
)

// Condition is a parsed gate condition.
type Condition struct {
	Kind     ConditionKind
	Artifact string // set for ArtifactExists
	Raw      string
}

// ParseCondition classifies a condition expression.
// "<artifact> exists" is an artifact predicate; text mentioning scope or
// invariant is a structural check.
func ParseCondition(raw string) Condition {
	c := Condition{Raw: raw}
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	const suffix = " exists"
	if len(text) > len(suffix) && strings.EqualFold(text[len(text)-len(suffix):], suffix) {
		name := strings.TrimSpace(text[:len(text)-len(suffix)])
		if name != "" && !strings.ContainsAny(name, " \t") {
			c.Kind = ArtifactExists
			c.Artifact = name
			return c
		}
	}
	switch {
	case strings.Contains(lower, "scope"):
		c.Kind = ScopeChange
	case strings.Contains(lower, "invariant"):
		c.Kind = DesignInvariant
	}
	return c
}

// Result is the outcome of one gate evaluation.
type Result struct {
	GateID    string
	Passed    bool
	Message   string
	Policy    Policy
	Blocks    string
	Condition Condition
}

// Evaluator decides gates against the contract store.
type Evaluator struct {
	gates     map[string]config.Gate
	contracts *contract.Store
	hooks     domain.LifecycleHooks
	project   string
	now       func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithHooks registers lifecycle observers.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Evaluator) {
		e.hooks = h
	}
}

// WithProject tags emitted events with a project hash.
func WithProject(hash string) Option {
	return func(e *Evaluator) {
		e.project = hash
	}
}

// New creates an Evaluator over the given gate definitions.
func New(gates map[string]config.Gate, contracts *contract.Store, opts ...Option) *Evaluator {
	e := &Evaluator{
		gates:     gates,
		contracts: contracts,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides one gate for the given work pointer.
// It is side-effect free apart from the OnGateEvaluated hook.
func (e *Evaluator) Evaluate(ctx context.Context, gateID string, work domain.WorkPointer) Result {
	res := e.evaluate(gateID, work)
	e.hooks.EmitGate(ctx, &domain.GateEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventGateEvaluated, Project: e.project},
		GateID:    gateID,
		Policy:    res.Policy.String(),
		Passed:    res.Passed,
		Message:   res.Message,
		Work:      work,
	})
	return res
}

func (e *Evaluator) evaluate(gateID string, work domain.WorkPointer) Result {
	g, ok := e.gates[gateID]
	if !ok {
		return Result{GateID: gateID, Passed: true, Policy: Unconfigured}
	}

	cond := ParseCondition(g.Condition)
	res := Result{GateID: gateID, Blocks: g.Blocks, Condition: cond}
	if cond.Kind != ArtifactExists {
		res.Policy = Permissive
		res.Passed = true
		return res
	}

	res.Policy = Blocking
	if e.contracts != nil && e.contracts.Exists(cond.Artifact, contract.ScopeOf(work)) {
		res.Passed = true
		return res
	}
	res.Message = g.Message
	if res.Message == "" {
		res.Message = fmt.Sprintf("Gate %s blocked", gateID)
	}
	return res
}

// EvaluateBlocking evaluates every gate that blocks phase, ordered by gate id.
func (e *Evaluator) EvaluateBlocking(ctx context.Context, phase string, work domain.WorkPointer) []Result {
	var out []Result
	for _, id := range e.idsBlocking(phase) {
		out = append(out, e.Evaluate(ctx, id, work))
	}
	return out
}

// GatesFor returns the ids of gates whose artifact predicate names artifact.
func (e *Evaluator) GatesFor(artifact string) []string {
	var out []string
	for _, id := range sortedIDs(e.gates) {
		c := ParseCondition(e.gates[id].Condition)
		if c.Kind == ArtifactExists && c.Artifact == artifact {
			out = append(out, id)
		}
	}
	return out
}

func (e *Evaluator) idsBlocking(phase string) []string {
	var out []string
	for _, id := range sortedIDs(e.gates) {
		if e.gates[id].Blocks == phase {
			out = append(out, id)
		}
	}
	return out
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func sortedIDs(gates map[string]config.Gate) []string {
	ids := make([]string, 0, len(gates))
	for id := range gates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

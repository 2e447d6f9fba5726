package gate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/contract"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var work = domain.WorkPointer{RequestID: "R1", TaskID: "T1", SubtaskID: "S1", Phase: "test_first"}

func setup(t *testing.T) (*gate.Evaluator, *contract.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := contract.New(dir)
	return gate.New(config.Default().Gates, store), store, dir
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		raw      string
		kind     gate.ConditionKind
		artifact string
	}{
		{"test-contract.yaml exists", gate.ArtifactExists, "test-contract.yaml"},
		{"  design-contract.yaml EXISTS ", gate.ArtifactExists, "design-contract.yaml"},
		{"no scope change since design", gate.ScopeChange, ""},
		{"design invariant violation", gate.DesignInvariant, ""},
		{"two words exists", gate.Unknown, ""},
		{"", gate.Unknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := gate.ParseCondition(tt.raw)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.artifact, c.Artifact)
		})
	}
}

func TestScenario_Gate1(t *testing.T) {
	ev, store, _ := setup(t)
	ctx := context.Background()

	res := ev.Evaluate(ctx, "GATE-1", work)
	assert.False(t, res.Passed)
	assert.Equal(t, "Test contract is missing.", res.Message)
	assert.Equal(t, gate.Blocking, res.Policy)

	_, err := store.Write("test-contract.yaml", contract.Scope{RequestID: "R1", TaskID: "T1"}, []byte("cases: []\n"))
	require.NoError(t, err)

	res = ev.Evaluate(ctx, "GATE-1", work)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Message)
}

func TestEvaluate_Unconfigured(t *testing.T) {
	ev, _, _ := setup(t)
	res := ev.Evaluate(context.Background(), "GATE-404", work)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Message)
	assert.Equal(t, gate.Unconfigured, res.Policy)
}

func TestEvaluate_PermissiveConditions(t *testing.T) {
	gates := map[string]config.Gate{
		"SCOPE":     {Condition: "scope change detected", Blocks: "implementation"},
		"INVARIANT": {Condition: "design invariant holds", Blocks: "implementation"},
		"WEIRD":     {Condition: "the moon is full", Blocks: "implementation"},
	}
	ev := gate.New(gates, contract.New(t.TempDir()))

	for id := range gates {
		res := ev.Evaluate(context.Background(), id, work)
		assert.True(t, res.Passed, id)
		assert.Equal(t, gate.Permissive, res.Policy, id)
	}
}

func TestEvaluate_DefaultMessage(t *testing.T) {
	gates := map[string]config.Gate{"G": {Condition: "x.yaml exists", Blocks: "design"}}
	ev := gate.New(gates, contract.New(t.TempDir()))

	res := ev.Evaluate(context.Background(), "G", work)
	assert.False(t, res.Passed)
	assert.Equal(t, "Gate G blocked", res.Message)
}

func TestEvaluate_EmptyRequestFallsBackToR1(t *testing.T) {
	ev, _, dir := setup(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "R1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "R1", "test-contract.yaml"), nil, 0644))

	res := ev.Evaluate(context.Background(), "GATE-1", domain.WorkPointer{})
	assert.True(t, res.Passed)
}

func TestEvaluate_Idempotent(t *testing.T) {
	ev, _, _ := setup(t)
	ctx := context.Background()
	a := ev.Evaluate(ctx, "GATE-2", work)
	b := ev.Evaluate(ctx, "GATE-2", work)
	assert.Equal(t, a, b)
}

func TestEvaluateBlocking(t *testing.T) {
	gates := map[string]config.Gate{
		"B": {Condition: "b.yaml exists", Blocks: "implementation"},
		"A": {Condition: "a.yaml exists", Blocks: "implementation"},
		"C": {Condition: "c.yaml exists", Blocks: "complete"},
	}
	var seen []string
	ev := gate.New(gates, contract.New(t.TempDir()), gate.WithHooks(domain.LifecycleHooks{
		OnGateEvaluated: func(_ context.Context, e *domain.GateEvent) { seen = append(seen, e.GateID) },
	}))

	results := ev.EvaluateBlocking(context.Background(), "implementation", work)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].GateID)
	assert.Equal(t, "B", results[1].GateID)
	assert.Len(t, gate.Failed(results), 2)
	assert.Equal(t, []string{"A", "B"}, seen)

	assert.Empty(t, ev.EvaluateBlocking(context.Background(), "design", work))
}

func TestGatesFor(t *testing.T) {
	ev, _, _ := setup(t)
	assert.Equal(t, []string{"GATE-1"}, ev.GatesFor("test-contract.yaml"))
	assert.Equal(t, []string{"GATE-2"}, ev.GatesFor("test-result.yaml"))
	assert.Empty(t, ev.GatesFor("explored.yaml"))
}

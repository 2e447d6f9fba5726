package phase_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/waypoint/internal/adapters/memory"
	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/phase"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_TestFirstTrigger(t *testing.T) {
	table := phase.Table{
		"test_first": {On: map[string]string{
			"tests_written": "implementation",
			"tests_failed":  "test_first",
		}},
	}

	next, ok := phase.NextOn("test_first", "tests_written", table)
	assert.True(t, ok)
	assert.Equal(t, "implementation", next)

	next, ok = phase.NextOn("test_first", "tests_failed", table)
	assert.True(t, ok)
	assert.Equal(t, "test_first", next)

	_, ok = phase.NextOn("test_first", "unknown", table)
	assert.False(t, ok, "no default successor configured")
}

func TestNext(t *testing.T) {
	table := phase.Table(config.Default().PhaseTransitions)

	next, ok := phase.Next("design", table)
	assert.True(t, ok)
	assert.Equal(t, "test_first", next)

	_, ok = phase.Next("complete", table)
	assert.False(t, ok, "terminal phase")

	next, ok = phase.NextOn("verification", "nope", table)
	assert.True(t, ok)
	assert.Equal(t, "complete", next, "unmatched trigger falls back to next")
}

func TestAgentNext(t *testing.T) {
	cfg := config.Default()
	qa, _ := cfg.Agent("qa-engineer")

	next, ok := phase.AgentNext(qa, "test_first")
	assert.True(t, ok)
	assert.Equal(t, "implementation", next)

	next, ok = phase.AgentNext(qa, "verification")
	assert.True(t, ok)
	assert.Equal(t, "complete", next)

	_, ok = phase.AgentNext(qa, "design")
	assert.False(t, ok)

	impl, _ := cfg.Agent("implementer")
	next, ok = phase.AgentNext(impl, "implementation")
	assert.True(t, ok)
	assert.Equal(t, "verification", next)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]phase.Level{
		"global": phase.Global, "request": phase.Global, "task": phase.Task, "subtask": phase.Subtask,
	} {
		got, err := phase.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := phase.ParseLevel("galaxy")
	assert.Error(t, err)
}

func TestApply_SubtaskWithoutCurrentTaskIsNoOp(t *testing.T) {
	doc := domain.NewDocument("r", "", time.Now())
	_, _ = doc.AddTask("T1", "t")
	before := doc.Clone()

	assert.NotPanics(t, func() {
		assert.False(t, phase.Apply(doc, "implementation", phase.Subtask))
		assert.False(t, phase.Apply(doc, "design", phase.Task))
	})
	assert.Equal(t, before, doc)
}

func TestApply_Levels(t *testing.T) {
	doc := domain.NewDocument("r", "", time.Now())
	_, _ = doc.AddTask("T1", "t")
	_, _ = doc.AddSubtask("T1", "S1", "s")
	require.NoError(t, doc.Focus("T1", "S1"))

	assert.True(t, phase.Apply(doc, "merge", phase.Global))
	assert.True(t, phase.Apply(doc, "test_first", phase.Task))
	assert.True(t, phase.Apply(doc, "implementation", phase.Subtask))
	assert.False(t, phase.Apply(doc, "implementation", phase.Subtask), "same phase is not a change")

	assert.Equal(t, "merge", doc.Request.GlobalPhase)
	assert.Equal(t, "test_first", doc.Tasks["T1"].Phase)
	assert.Equal(t, "implementation", doc.Tasks["T1"].Subtasks["S1"].Phase)
}

func newEngine(t *testing.T) (*phase.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	eng := phase.NewEngine(session.NewManager(store), phase.WithVocabulary(config.Default().Vocabulary()))
	return eng, store
}

func TestEngine_ApplyPhase(t *testing.T) {
	store := memory.New()
	mgr := session.NewManager(store)
	var events []*domain.PhaseEvent
	eng := phase.NewEngine(mgr,
		phase.WithVocabulary(config.Default().Vocabulary()),
		phase.WithHooks(domain.LifecycleHooks{
			OnPhaseApplied: func(_ context.Context, e *domain.PhaseEvent) { events = append(events, e) },
		}),
	)
	ctx := context.Background()

	_, err := mgr.Initialize(ctx, "k", "r", session.Identity{}, false)
	require.NoError(t, err)

	out, err := eng.ApplyPhase(ctx, "k", "merge", phase.Global)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "global_discovery", out.Previous)

	doc, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "merge", doc.Request.GlobalPhase)
	require.Len(t, events, 1)
	assert.Equal(t, "merge", events[0].To)
}

func TestEngine_SubtaskNoOpDoesNotWrite(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", domain.NewDocument("r", "", time.Now())))

	out, err := eng.ApplyPhase(ctx, "k", "implementation", phase.Subtask)
	require.NoError(t, err)
	assert.False(t, out.Applied)

	doc, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Revision, "no-op must not save")
}

func TestEngine_Errors(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	_, err := eng.ApplyPhase(ctx, "missing", "merge", phase.Global)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	_, err = eng.ApplyPhase(ctx, "missing", "lunch", phase.Global)
	assert.ErrorIs(t, err, domain.ErrUnknownPhase)
}

func TestEngine_TransitionReplansAfterConflict(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", domain.NewDocument("r", "", time.Now())))

	var seen []string
	out, err := eng.Transition(ctx, "k", phase.Global, func(doc *domain.Document, current string, _ bool) (string, error) {
		seen = append(seen, current)
		if len(seen) == 1 {
			// Another writer lands between this load and the save.
			other, err := store.Load(ctx, "k")
			require.NoError(t, err)
			other.Request.GlobalPhase = "merge"
			require.NoError(t, store.Save(ctx, "k", other))
		}
		if current == "merge" {
			return "", nil
		}
		return "merge", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"global_discovery", "merge"}, seen)
	assert.False(t, out.Applied)
	assert.Equal(t, "merge", out.Document.Request.GlobalPhase)
}

func TestEngine_TransitionRejectsUnknownPlannedPhase(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", domain.NewDocument("r", "", time.Now())))

	_, err := eng.Transition(ctx, "k", phase.Global, func(*domain.Document, string, bool) (string, error) {
		return "lunch", nil
	})
	assert.ErrorIs(t, err, domain.ErrUnknownPhase)
}

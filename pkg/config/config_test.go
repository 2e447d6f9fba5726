package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	g, ok := cfg.Gate("GATE-1")
	require.True(t, ok)
	assert.Equal(t, "test-contract.yaml exists", g.Condition)
	assert.Equal(t, "implementation", g.Blocks)

	qa, ok := cfg.Agent("qa-engineer")
	require.True(t, ok)
	assert.Equal(t, "implementation", qa.NextPhaseMap["test_first"])
	assert.Equal(t, []string{"test-contract.yaml", "test-result.yaml"}, qa.Artifacts())

	assert.Equal(t, []string{"GATE-1", "GATE-2"}, cfg.GateIDs())
	assert.Equal(t, 5*time.Second, cfg.Storage.LockTimeout)
}

func TestDefault_TransitionsCoverVocabulary(t *testing.T) {
	cfg := config.Default()
	vocab := cfg.Vocabulary()
	for _, p := range []string{"global_discovery", "merge", "design", "test_first", "implementation", "verification", "complete"} {
		assert.Contains(t, vocab, p)
	}
	for p := range vocab {
		if p == "complete" {
			continue
		}
		_, ok := cfg.PhaseTransitions[p]
		assert.True(t, ok, "phase %q has no transition", p)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_MalformedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gates: [unterminated"), 0644))

	cfg := config.Load(path, nil)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_InvalidValueUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestration:\n  gate_enforcement: maybe\n"), 0644))

	cfg := config.Load(path, nil)
	assert.Equal(t, config.EnforceBlock, cfg.Orchestration.GateEnforcement)
}

func TestParse_SectionsReplaceDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
gates:
  GATE-9:
    condition: design-contract.yaml exists
    blocks: test_first
orchestration:
  gate_enforcement: warn
`))
	require.NoError(t, err)

	// A present section replaces the default one wholesale.
	assert.Equal(t, []string{"GATE-9"}, cfg.GateIDs())
	// Absent sections come from defaults.
	assert.Contains(t, cfg.Agents, "qa-engineer")
	assert.Contains(t, cfg.PhaseTransitions, "test_first")
	// Missing scalars inside a present section are defaulted.
	assert.True(t, cfg.Orchestration.Enabled)
	assert.Equal(t, config.EnforceWarn, cfg.Orchestration.GateEnforcement)
	assert.Equal(t, "global_discovery", cfg.Orchestration.InitialPhase)
}

func TestParse_TransitionTriggers(t *testing.T) {
	cfg, err := config.Parse([]byte(`
phase_transitions:
  test_first:
    on:
      tests_written: implementation
      tests_failed: test_first
`))
	require.NoError(t, err)
	tr := cfg.PhaseTransitions["test_first"]
	assert.Equal(t, "implementation", tr.On["tests_written"])
	assert.Empty(t, tr.Next)
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("WAYPOINT_STORAGE_BACKEND", "sqlite")
	t.Setenv("WAYPOINT_STORAGE_LOCK_TIMEOUT", "250ms")
	t.Setenv("WAYPOINT_ORCHESTRATION_GATE_ENFORCEMENT", "warn")
	t.Setenv("WAYPOINT_METRICS_TEXTFILE", "true")
	t.Setenv("WAYPOINT_DEBUG", "1")

	cfg, err := config.Parse([]byte("storage:\n  backend: file\n"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.LockTimeout)
	assert.Equal(t, config.EnforceWarn, cfg.Orchestration.GateEnforcement)
	assert.True(t, cfg.Metrics.Textfile)
	assert.True(t, cfg.Orchestration.Enabled)
}

func TestMarshal_RoundTrip(t *testing.T) {
	data, err := config.Marshal(config.Default())
	require.NoError(t, err)

	back, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), back)
}

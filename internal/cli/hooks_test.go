package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/contract"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/hook"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLogin(t *testing.T, app *App, owner string) {
	t.Helper()
	ctx := context.Background()
	orch := app.Orchestrator
	_, err := orch.Start(ctx, "add login feature", session.Identity{ID: owner}, false)
	require.NoError(t, err)
	_, err = orch.AddTask(ctx, "T1", "design schema")
	require.NoError(t, err)
	_, err = orch.AddSubtask(ctx, "T1", "S1", "users table")
	require.NoError(t, err)
	_, err = orch.Focus(ctx, "T1", "S1")
	require.NoError(t, err)
}

func runHook(t *testing.T, app *App, event hook.Event, in hook.Input, idFile session.IdentityFile) string {
	t.Helper()
	var out bytes.Buffer
	RunHook(context.Background(), app, event, in, &out, idFile)
	if out.Len() == 0 {
		return ""
	}
	var decoded struct {
		HookSpecificOutput struct {
			HookEventName     string `json:"hookEventName"`
			AdditionalContext string `json:"additionalContext"`
		} `json:"hookSpecificOutput"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, string(event), decoded.HookSpecificOutput.HookEventName)
	return decoded.HookSpecificOutput.AdditionalContext
}

func tempIdentity(t *testing.T) session.IdentityFile {
	return session.IdentityFile{Path: filepath.Join(t.TempDir(), session.IdentityFileName)}
}

func TestSessionStart(t *testing.T) {
	t.Run("no state", func(t *testing.T) {
		app := newTestApp(t, nil)
		idFile := tempIdentity(t)
		assert.Empty(t, runHook(t, app, hook.SessionStart, hook.Input{SessionID: "sess-1"}, idFile))

		id, err := idFile.Read()
		require.NoError(t, err)
		assert.Equal(t, "sess-1", id.ID)
	})

	t.Run("same session resumes", func(t *testing.T) {
		app := newTestApp(t, nil)
		seedLogin(t, app, "sess-1")

		text := runHook(t, app, hook.SessionStart, hook.Input{SessionID: "sess-1"}, tempIdentity(t))
		assert.Contains(t, text, "Resuming request: add login feature")
		assert.Contains(t, text, "Current: T1 design schema / S1 users table")
		assert.Contains(t, text, "Pending: 1 tasks, 1 subtasks")
	})

	t.Run("other session gets a recovery prompt", func(t *testing.T) {
		app := newTestApp(t, nil)
		seedLogin(t, app, "sess-1")

		text := runHook(t, app, hook.SessionStart, hook.Input{SessionID: "sess-2"}, tempIdentity(t))
		assert.Contains(t, text, "unfinished request from another session")
		assert.NotContains(t, text, "Resuming")
	})

	t.Run("identity file fallback", func(t *testing.T) {
		app := newTestApp(t, nil)
		seedLogin(t, app, "sess-1")
		idFile := tempIdentity(t)
		require.NoError(t, idFile.Write(session.Identity{ID: "sess-1"}))

		text := runHook(t, app, hook.SessionStart, hook.Input{}, idFile)
		assert.Contains(t, text, "Resuming request")
	})
}

func TestStop(t *testing.T) {
	app := newTestApp(t, nil)
	idFile := tempIdentity(t)
	assert.Empty(t, runHook(t, app, hook.Stop, hook.Input{}, idFile))

	seedLogin(t, app, "sess-1")
	text := runHook(t, app, hook.Stop, hook.Input{}, idFile)
	assert.Contains(t, text, "Work is still pending: 1 tasks, 1 subtasks.")

	assert.Empty(t, runHook(t, app, hook.Stop, hook.Input{StopHookActive: true}, idFile))
}

func TestPreCompact(t *testing.T) {
	app := newTestApp(t, nil)
	seedLogin(t, app, "sess-1")

	text := runHook(t, app, hook.PreCompact, hook.Input{}, tempIdentity(t))
	assert.Contains(t, text, "Request: add login feature")
	assert.Contains(t, text, "S1 users table [>]")
}

func TestSubagentStop(t *testing.T) {
	ctx := context.Background()
	idFile := tempIdentity(t)

	t.Run("blocked by gate", func(t *testing.T) {
		app := newTestApp(t, nil)
		seedLogin(t, app, "sess-1")
		_, err := app.Orchestrator.Advance(ctx, waypoint.AdvanceRequest{Phase: domain.PhaseTestFirst})
		require.NoError(t, err)

		text := runHook(t, app, hook.SubagentStop, hook.Input{SubagentType: "qa-engineer"}, idFile)
		assert.Equal(t, "[waypoint] qa-engineer finished but implementation is blocked:\n- GATE-1: Test contract is missing.", text)

		doc, err := app.Orchestrator.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseTestFirst, doc.Tasks["T1"].Subtasks["S1"].Phase)
	})

	t.Run("warn enforcement advances", func(t *testing.T) {
		app := newTestApp(t, func(c *config.Config) { c.Orchestration.GateEnforcement = config.EnforceWarn })
		seedLogin(t, app, "sess-1")
		_, err := app.Orchestrator.Advance(ctx, waypoint.AdvanceRequest{Phase: domain.PhaseTestFirst})
		require.NoError(t, err)

		text := runHook(t, app, hook.SubagentStop, hook.Input{AgentType: "qa-engineer"}, idFile)
		assert.Contains(t, text, "subtask phase test_first -> implementation")
		assert.Contains(t, text, "Warning: GATE-1")
	})

	t.Run("task level agent", func(t *testing.T) {
		app := newTestApp(t, nil)
		seedLogin(t, app, "sess-1")

		text := runHook(t, app, hook.SubagentStop, hook.Input{SubagentType: "architect"}, idFile)
		assert.Equal(t, "[waypoint] architect finished: task phase (none) -> test_first", text)
	})

	t.Run("unknown agent", func(t *testing.T) {
		app := newTestApp(t, nil)
		seedLogin(t, app, "sess-1")
		assert.Empty(t, runHook(t, app, hook.SubagentStop, hook.Input{SubagentType: "ghost"}, idFile))
	})
}

func TestPostToolUse(t *testing.T) {
	app := newTestApp(t, nil)
	idFile := tempIdentity(t)

	in := hook.Input{ToolName: "Write", ToolInput: map[string]any{"file_path": "/repo/.waypoint/x/" + contract.TestContract}}
	assert.Equal(t, "[waypoint] Contract test-contract.yaml written. It can unlock GATE-1.", runHook(t, app, hook.PostToolUse, in, idFile))

	in.ToolInput["file_path"] = "/repo/main.go"
	assert.Empty(t, runHook(t, app, hook.PostToolUse, in, idFile))
}

func TestHooks_TemplateOverrideAndDisabled(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Templates["stop_pending"] = "pending={{.PendingTasks}}"
	})
	seedLogin(t, app, "sess-1")
	assert.Equal(t, "pending=1", runHook(t, app, hook.Stop, hook.Input{}, tempIdentity(t)))

	app.Config.Orchestration.Enabled = false
	assert.Empty(t, runHook(t, app, hook.Stop, hook.Input{}, tempIdentity(t)))
}

func TestRenderTemplate_BrokenOverrideFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.Templates[tmplContractWritten] = "{{.Nope"
	out, err := renderTemplate(cfg, tmplContractWritten, hookData{Contract: "x.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "[waypoint] Contract x.yaml written.", out)
}

package hook_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/waypoint/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInput(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		in, err := hook.ReadInput(strings.NewReader("  \n"))
		require.NoError(t, err)
		assert.Equal(t, hook.Input{}, in)
	})

	t.Run("malformed", func(t *testing.T) {
		in, err := hook.ReadInput(strings.NewReader("{not json"))
		assert.Error(t, err)
		assert.Equal(t, hook.Input{}, in)
	})

	t.Run("typed with extra", func(t *testing.T) {
		payload := `{
			"session_id": "abc",
			"hook_event_name": "PostToolUse",
			"tool_name": "Write",
			"tool_input": {"file_path": "/p/.waypoint/contracts/R1/T1/S1/test-contract.yaml"},
			"stop_hook_active": true,
			"permission_mode": "default"
		}`
		in, err := hook.ReadInput(strings.NewReader(payload))
		require.NoError(t, err)

		assert.Equal(t, "abc", in.SessionID)
		assert.Equal(t, "Write", in.ToolName)
		assert.True(t, in.StopHookActive)
		assert.Equal(t, "/p/.waypoint/contracts/R1/T1/S1/test-contract.yaml", in.FilePath())
		assert.Equal(t, "default", in.Extra["permission_mode"])
	})

	t.Run("agent type alias", func(t *testing.T) {
		in, err := hook.ReadInput(strings.NewReader(`{"agent_type":"architect"}`))
		require.NoError(t, err)
		assert.Equal(t, "architect", in.Agent())

		in, err = hook.ReadInput(strings.NewReader(`{"agent_type":"x","subagent_type":"planner"}`))
		require.NoError(t, err)
		assert.Equal(t, "planner", in.Agent())
	})
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, hook.WriteOutput(&buf, hook.Stop, ""))
	assert.Empty(t, buf.String())

	require.NoError(t, hook.WriteOutput(&buf, hook.Stop, "2 tasks pending"))

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"hookEventName":     "Stop",
		"additionalContext": "2 tasks pending",
	}, got["hookSpecificOutput"])
}

func TestParseEvent(t *testing.T) {
	ev, err := hook.ParseEvent("subagent-stop")
	require.NoError(t, err)
	assert.Equal(t, hook.SubagentStop, ev)

	ev, err = hook.ParseEvent("PreCompact")
	require.NoError(t, err)
	assert.Equal(t, hook.PreCompact, ev)

	_, err = hook.ParseEvent("bogus")
	assert.Error(t, err)
}

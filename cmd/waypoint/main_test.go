package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_GateFlow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	run := func(args ...string) (string, error) {
		return execute(t, "", append([]string{"--dir", dir}, args...)...)
	}

	out, err := run("init", "add", "login", "feature")
	require.NoError(t, err)
	assert.Contains(t, out, "Started R1: add login feature")

	_, err = run("init", "other")
	assert.Error(t, err, "unfinished request is kept")

	_, err = run("task", "add", "T1", "design", "schema")
	require.NoError(t, err)
	_, err = run("subtask", "add", "T1", "S1", "users", "table")
	require.NoError(t, err)
	_, err = run("focus", "T1", "S1")
	require.NoError(t, err)

	out, err = run("advance", "--phase", "test_first")
	require.NoError(t, err)
	assert.Contains(t, out, "subtask phase  -> test_first")

	out, err = run("advance", "--phase=")
	assert.Error(t, err)
	assert.Contains(t, out, "Test contract is missing.")

	contractFile := filepath.Join(t.TempDir(), "tc.yaml")
	require.NoError(t, os.WriteFile(contractFile, []byte("cases: []\n"), 0644))
	_, err = run("contract", "put", "test-contract.yaml", contractFile)
	require.NoError(t, err)

	out, err = run("contract", "check", "test-contract.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("T1", "S1", "test-contract.yaml"))

	out, err = run("advance", "--phase=")
	require.NoError(t, err)
	assert.Contains(t, out, "test_first -> implementation")

	out, err = run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "S1 users table [>] (implementation) <- current")
}

func TestCLI_Hook(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	_, err := execute(t, "", "--dir", dir, "init", "add", "login")
	require.NoError(t, err)
	_, err = execute(t, "", "--dir", dir, "task", "add", "T1", "schema")
	require.NoError(t, err)

	out, err := execute(t, `{"hook_event_name":"Stop"}`, "--dir", dir, "hook", "stop")
	require.NoError(t, err)

	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded["hookSpecificOutput"]["additionalContext"], "1 tasks")

	out, err = execute(t, "{broken", "--dir", dir, "hook", "bogus-event")
	require.NoError(t, err, "hooks never fail the host")
	assert.Empty(t, out)
}

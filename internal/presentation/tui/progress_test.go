package tui_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument(t *testing.T) *domain.Document {
	t.Helper()
	doc := domain.NewDocument("add login feature", "", time.Unix(0, 0))
	_, _ = doc.AddTask("T1", "design schema")
	_, _ = doc.AddTask("T2", "wire handlers")
	_, _ = doc.AddSubtask("T1", "S1", "users table")
	_, _ = doc.AddSubtask("T1", "S2", "sessions table")
	require.NoError(t, doc.Focus("T1", "S1"))
	doc.Tasks["T1"].Subtasks["S1"].Phase = domain.PhaseTestFirst
	require.NoError(t, doc.SetSubtaskStatus("T1", "S2", domain.StatusCompleted))
	return doc
}

func TestProgressTree(t *testing.T) {
	want := "|- T1 design schema [>] <- current\n" +
		"|  |- S1 users table [>] (test_first) <- current\n" +
		"|  `- S2 sessions table [v]\n" +
		"`- T2 wire handlers [ ]"
	assert.Equal(t, want, tui.ProgressTree(sampleDocument(t)))
	assert.Empty(t, tui.ProgressTree(nil))
}

func TestStatusMarkdown(t *testing.T) {
	md := tui.StatusMarkdown(sampleDocument(t))
	assert.Contains(t, md, "# add login feature")
	assert.Contains(t, md, "- **Current:** T1 / S1 (test_first)")
	assert.Contains(t, md, "- **Pending:** 2 tasks, 1 subtasks")
}

func TestNonTerminalOutputIsPlain(t *testing.T) {
	var buf bytes.Buffer
	render := tui.NewRenderer(&buf)
	out, err := render("# title")
	require.NoError(t, err)
	assert.Equal(t, "# title", out)

	assert.Equal(t, "ok", tui.NewStyler(&buf).OK("ok"))
}

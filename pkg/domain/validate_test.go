package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brokenDocument() *domain.Document {
	return &domain.Document{
		Request: domain.Request{CurrentTask: "T9"},
		TaskOrder: []string{"T1", "T1", "ghost"},
		Tasks: map[string]*domain.Task{
			"T1": {
				Name:           "one",
				CurrentSubtask: "S9",
				SubtaskOrder:   []string{"S2"},
				Subtasks: map[string]*domain.Subtask{
					"S1": {Name: "a"},
					"S2": {Name: "b", Status: domain.StatusCompleted},
				},
			},
			"T2": {Name: "two"},
		},
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	err := brokenDocument().Validate()
	require.Error(t, err)

	errs := domain.ValidationErrors(err)
	// duplicate T1, dangling ghost, missing T2, dangling current_task,
	// missing S1, dangling current_subtask
	assert.Len(t, errs, 6)
	assert.Contains(t, err.Error(), "6 validation errors")
}

func TestNormalize_Repairs(t *testing.T) {
	doc := brokenDocument()
	repairs := doc.Normalize()

	assert.NotEmpty(t, repairs)
	assert.NoError(t, doc.Validate())
	assert.Equal(t, []string{"T1", "T2"}, doc.TaskOrder)
	assert.Equal(t, []string{"S2", "S1"}, doc.Tasks["T1"].SubtaskOrder)
	assert.Empty(t, doc.Request.CurrentTask)
	assert.Empty(t, doc.Tasks["T1"].CurrentSubtask)
	assert.Equal(t, "R1", doc.Request.ID)
	assert.Equal(t, domain.StatusPending, doc.Tasks["T2"].Status)
	assert.NotNil(t, doc.Tasks["T2"].Subtasks)

	assert.Empty(t, doc.Normalize(), "normalize is idempotent")
}

func TestNormalize_DropsNullEntries(t *testing.T) {
	doc := &domain.Document{
		TaskOrder: []string{"T1", "T2"},
		Tasks: map[string]*domain.Task{
			"T1": nil,
			"T2": {Subtasks: map[string]*domain.Subtask{"S1": nil}, SubtaskOrder: []string{"S1"}},
		},
	}
	doc.Normalize()

	assert.Equal(t, []string{"T2"}, doc.TaskOrder)
	assert.Empty(t, doc.Tasks["T2"].SubtaskOrder)
	assert.NoError(t, doc.Validate())
}

func TestUnknownPhases(t *testing.T) {
	doc := domain.NewDocument("r", "", time.Now())
	doc.Request.GlobalPhase = "lunch"
	_, err := doc.AddTask("T1", "one")
	require.NoError(t, err)
	_, err = doc.AddSubtask("T1", "S1", "a")
	require.NoError(t, err)
	doc.Tasks["T1"].Subtasks["S1"].Phase = "nap"
	doc.Tasks["T1"].Phase = domain.PhaseTestFirst

	vocab := map[string]struct{}{domain.PhaseTestFirst: {}}
	assert.Equal(t, []string{
		`request.global_phase: "lunch"`,
		`tasks.T1.subtasks.S1.phase: "nap"`,
	}, doc.UnknownPhases(vocab))
}

package domain

import "time"

// Status is the progress status of a request, task or subtask.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusActive     Status = "active" // Request-level: orchestration running
)

// Valid reports whether s is a known task/subtask status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Request is the top-level unit of work a Document tracks.
type Request struct {
	ID              string    `json:"id"`
	OriginalRequest string    `json:"original_request"`
	Status          Status    `json:"status"`
	GlobalPhase     string    `json:"global_phase"`
	CurrentTask     string    `json:"current_task,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	SessionID       string    `json:"session_id,omitempty"`
}

// Task is one ordered step of a request.
type Task struct {
	Name   string `json:"name"`
	Status Status `json:"status"`

	// Phase is only set by task-level agents (e.g. the architect).
	Phase string `json:"phase,omitempty"`

	CurrentSubtask string              `json:"current_subtask,omitempty"`
	SubtaskOrder   []string            `json:"subtask_order"`
	Subtasks       map[string]*Subtask `json:"subtasks"`
}

// Subtask is the smallest unit of work; it walks through the phase sequence.
type Subtask struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Phase  string `json:"phase,omitempty"`
}

// Document is the persisted session document for one project.
type Document struct {
	// Version is the schema version of the document.
	Version int `json:"version"`

	// Revision is the optimistic concurrency token. Stores increment it on
	// every successful save and refuse to overwrite a newer revision.
	Revision int64 `json:"revision"`

	Request   Request          `json:"request"`
	TaskOrder []string         `json:"task_order"`
	Tasks     map[string]*Task `json:"tasks"`
}

// NewDocument creates a fresh document for a new request at the initial global phase.
func NewDocument(requestText, sessionID string, now time.Time) *Document {
	return &Document{
		Version: SchemaVersion,
		Request: Request{
			ID:              DefaultRequestID,
			OriginalRequest: requestText,
			Status:          StatusActive,
			GlobalPhase:     InitialGlobalPhase,
			CreatedAt:       now.UTC(),
			SessionID:       sessionID,
		},
		TaskOrder: []string{},
		Tasks:     make(map[string]*Task),
	}
}

// NewTask creates a pending task with empty subtask collections.
func NewTask(name string) *Task {
	return &Task{
		Name:         name,
		Status:       StatusPending,
		SubtaskOrder: []string{},
		Subtasks:     make(map[string]*Subtask),
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.TaskOrder = append([]string(nil), d.TaskOrder...)
	out.Tasks = make(map[string]*Task, len(d.Tasks))
	for id, t := range d.Tasks {
		if t == nil {
			out.Tasks[id] = nil
			continue
		}
		ct := *t
		ct.SubtaskOrder = append([]string(nil), t.SubtaskOrder...)
		ct.Subtasks = make(map[string]*Subtask, len(t.Subtasks))
		for sid, s := range t.Subtasks {
			if s == nil {
				ct.Subtasks[sid] = nil
				continue
			}
			cs := *s
			ct.Subtasks[sid] = &cs
		}
		out.Tasks[id] = &ct
	}
	return &out
}

// Finished reports whether the request has no pending work left.
func (d *Document) Finished() bool {
	return d.Request.Status == StatusCompleted || (len(d.Tasks) > 0 && CountPendingTasks(d) == 0)
}

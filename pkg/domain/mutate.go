package domain

import "fmt"

// AddTask appends a new pending task. The id must be unique.
func (d *Document) AddTask(id, name string) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("task id is required")
	}
	if d.Tasks == nil {
		d.Tasks = make(map[string]*Task)
	}
	if _, exists := d.Tasks[id]; exists {
		return nil, fmt.Errorf("task %q: %w", id, ErrDuplicateID)
	}
	t := NewTask(name)
	d.Tasks[id] = t
	d.TaskOrder = append(d.TaskOrder, id)
	return t, nil
}

// AddSubtask appends a new pending subtask to an existing task.
func (d *Document) AddSubtask(taskID, id, name string) (*Subtask, error) {
	if id == "" {
		return nil, fmt.Errorf("subtask id is required")
	}
	t, ok := d.Tasks[taskID]
	if !ok || t == nil {
		return nil, fmt.Errorf("task %q: %w", taskID, ErrUnknownTask)
	}
	if t.Subtasks == nil {
		t.Subtasks = make(map[string]*Subtask)
	}
	if _, exists := t.Subtasks[id]; exists {
		return nil, fmt.Errorf("subtask %q of task %q: %w", id, taskID, ErrDuplicateID)
	}
	s := &Subtask{Name: name, Status: StatusPending}
	t.Subtasks[id] = s
	t.SubtaskOrder = append(t.SubtaskOrder, id)
	return s, nil
}

// Focus moves the current work pointer. An empty subtaskID leaves the task's
// current subtask unchanged. A focused task or subtask that is still pending
// is marked in progress.
func (d *Document) Focus(taskID, subtaskID string) error {
	t, ok := d.Tasks[taskID]
	if !ok || t == nil {
		return fmt.Errorf("task %q: %w", taskID, ErrUnknownTask)
	}
	if subtaskID != "" {
		s, ok := t.Subtasks[subtaskID]
		if !ok || s == nil {
			return fmt.Errorf("subtask %q of task %q: %w", subtaskID, taskID, ErrUnknownSubtask)
		}
		t.CurrentSubtask = subtaskID
		if s.Status == StatusPending {
			s.Status = StatusInProgress
		}
	}
	d.Request.CurrentTask = taskID
	if t.Status == StatusPending {
		t.Status = StatusInProgress
	}
	return nil
}

// SetTaskStatus changes the status of a task. Completing the last pending task
// completes the request.
func (d *Document) SetTaskStatus(taskID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	t, ok := d.Tasks[taskID]
	if !ok || t == nil {
		return fmt.Errorf("task %q: %w", taskID, ErrUnknownTask)
	}
	t.Status = status
	if status == StatusCompleted && CountPendingTasks(d) == 0 {
		d.Request.Status = StatusCompleted
	} else if d.Request.Status == StatusCompleted {
		d.Request.Status = StatusActive
	}
	return nil
}

// SetSubtaskStatus changes the status of a subtask.
func (d *Document) SetSubtaskStatus(taskID, subtaskID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	t, ok := d.Tasks[taskID]
	if !ok || t == nil {
		return fmt.Errorf("task %q: %w", taskID, ErrUnknownTask)
	}
	s, ok := t.Subtasks[subtaskID]
	if !ok || s == nil {
		return fmt.Errorf("subtask %q of task %q: %w", subtaskID, taskID, ErrUnknownSubtask)
	}
	s.Status = status
	return nil
}

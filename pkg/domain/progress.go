package domain

// WorkPointer is the resolved unit of work currently in progress.
// The zero value means "no current work".
type WorkPointer struct {
	RequestID   string `json:"request_id,omitempty"`
	Request     string `json:"request,omitempty"`
	GlobalPhase string `json:"global_phase,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
	TaskName    string `json:"task_name,omitempty"`
	SubtaskID   string `json:"subtask_id,omitempty"`
	SubtaskName string `json:"subtask_name,omitempty"`
	Phase       string `json:"phase,omitempty"`
}

// IsZero reports whether the pointer carries no work.
func (w WorkPointer) IsZero() bool {
	return w == WorkPointer{}
}

// CountPendingTasks counts tasks whose status is not completed.
func CountPendingTasks(d *Document) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, t := range d.Tasks {
		if t != nil && t.Status != StatusCompleted {
			n++
		}
	}
	return n
}

// CountPendingSubtasks counts subtasks, across all tasks, whose status is not completed.
func CountPendingSubtasks(d *Document) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, t := range d.Tasks {
		if t == nil {
			continue
		}
		for _, s := range t.Subtasks {
			if s != nil && s.Status != StatusCompleted {
				n++
			}
		}
	}
	return n
}

// CurrentWork resolves request.current_task -> task -> current_subtask -> subtask.
// If any link in the chain is unset or dangling it returns the zero pointer.
func CurrentWork(d *Document) WorkPointer {
	w := ResolveWork(d)
	if w.TaskID == "" || w.SubtaskID == "" {
		return WorkPointer{}
	}
	return w
}

// ResolveWork is the lenient form of CurrentWork: it fills in as much of the
// chain as resolves and stops at the first broken link.
func ResolveWork(d *Document) WorkPointer {
	if d == nil {
		return WorkPointer{}
	}
	w := WorkPointer{
		RequestID:   d.Request.ID,
		Request:     d.Request.OriginalRequest,
		GlobalPhase: d.Request.GlobalPhase,
	}
	task := d.currentTask()
	if task == nil {
		return w
	}
	w.TaskID = d.Request.CurrentTask
	w.TaskName = task.Name
	w.Phase = task.Phase

	sub := task.currentSubtask()
	if sub == nil {
		return w
	}
	w.SubtaskID = task.CurrentSubtask
	w.SubtaskName = sub.Name
	w.Phase = sub.Phase
	return w
}

func (d *Document) currentTask() *Task {
	if d.Request.CurrentTask == "" {
		return nil
	}
	return d.Tasks[d.Request.CurrentTask]
}

func (t *Task) currentSubtask() *Subtask {
	if t.CurrentSubtask == "" {
		return nil
	}
	return t.Subtasks[t.CurrentSubtask]
}

// CurrentTask returns the current task and its id, or nil when unset.
func (d *Document) CurrentTask() (string, *Task) {
	t := d.currentTask()
	if t == nil {
		return "", nil
	}
	return d.Request.CurrentTask, t
}

// CurrentSubtask returns the current subtask of the current task, or nil when
// any link is unset.
func (d *Document) CurrentSubtask() (string, *Subtask) {
	_, t := d.CurrentTask()
	if t == nil {
		return "", nil
	}
	s := t.currentSubtask()
	if s == nil {
		return "", nil
	}
	return t.CurrentSubtask, s
}

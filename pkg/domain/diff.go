package domain

// DocumentDiff represents the changes between two documents.
// It is used by `status --watch` to print only what moved.
type DocumentDiff struct {
	Project string `json:"project,omitempty"`

	GlobalPhase   *string `json:"global_phase,omitempty"`
	RequestStatus *Status `json:"request_status,omitempty"`
	CurrentTask   *string `json:"current_task,omitempty"`

	// AddedTasks lists task ids appended to task_order.
	AddedTasks []string `json:"added_tasks,omitempty"`

	// Tasks holds per-task changes keyed by task id.
	Tasks map[string]*TaskDiff `json:"tasks,omitempty"`
}

// TaskDiff represents the changes of one task.
type TaskDiff struct {
	Status         *Status                `json:"status,omitempty"`
	Phase          *string                `json:"phase,omitempty"`
	CurrentSubtask *string                `json:"current_subtask,omitempty"`
	AddedSubtasks  []string               `json:"added_subtasks,omitempty"`
	Subtasks       map[string]SubtaskDiff `json:"subtasks,omitempty"`
}

// SubtaskDiff represents the changes of one subtask.
type SubtaskDiff struct {
	Status *Status `json:"status,omitempty"`
	Phase  *string `json:"phase,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, the diff describes the entire newDoc (initial load).
// Returns nil when nothing changed.
func Diff(oldDoc, newDoc *Document) *DocumentDiff {
	if newDoc == nil {
		return nil
	}
	if oldDoc == nil {
		oldDoc = &Document{}
	}

	diff := &DocumentDiff{}
	if oldDoc.Request.GlobalPhase != newDoc.Request.GlobalPhase {
		diff.GlobalPhase = ptr(newDoc.Request.GlobalPhase)
	}
	if oldDoc.Request.Status != newDoc.Request.Status {
		diff.RequestStatus = ptr(newDoc.Request.Status)
	}
	if oldDoc.Request.CurrentTask != newDoc.Request.CurrentTask {
		diff.CurrentTask = ptr(newDoc.Request.CurrentTask)
	}
	diff.AddedTasks = appended(oldDoc.TaskOrder, newDoc.TaskOrder)

	for _, id := range newDoc.TaskOrder {
		nt := newDoc.Tasks[id]
		if nt == nil {
			continue
		}
		ot := oldDoc.Tasks[id]
		if ot == nil {
			ot = &Task{}
		}
		if td := diffTask(ot, nt); td != nil {
			if diff.Tasks == nil {
				diff.Tasks = make(map[string]*TaskDiff)
			}
			diff.Tasks[id] = td
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffTask(old, new *Task) *TaskDiff {
	td := &TaskDiff{}
	if old.Status != new.Status {
		td.Status = ptr(new.Status)
	}
	if old.Phase != new.Phase {
		td.Phase = ptr(new.Phase)
	}
	if old.CurrentSubtask != new.CurrentSubtask {
		td.CurrentSubtask = ptr(new.CurrentSubtask)
	}
	td.AddedSubtasks = appended(old.SubtaskOrder, new.SubtaskOrder)

	for _, sid := range new.SubtaskOrder {
		ns := new.Subtasks[sid]
		if ns == nil {
			continue
		}
		os := old.Subtasks[sid]
		if os == nil {
			os = &Subtask{}
		}
		var sd SubtaskDiff
		if os.Status != ns.Status {
			sd.Status = ptr(ns.Status)
		}
		if os.Phase != ns.Phase {
			sd.Phase = ptr(ns.Phase)
		}
		if sd.Status != nil || sd.Phase != nil {
			if td.Subtasks == nil {
				td.Subtasks = make(map[string]SubtaskDiff)
			}
			td.Subtasks[sid] = sd
		}
	}

	if td.Status == nil && td.Phase == nil && td.CurrentSubtask == nil &&
		len(td.AddedSubtasks) == 0 && len(td.Subtasks) == 0 {
		return nil
	}
	return td
}

// appended assumes append-only order slices and returns the new tail.
func appended(old, new []string) []string {
	seen := make(map[string]struct{}, len(old))
	for _, id := range old {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range new {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d.GlobalPhase == nil &&
		d.RequestStatus == nil &&
		d.CurrentTask == nil &&
		len(d.AddedTasks) == 0 &&
		len(d.Tasks) == 0
}

func ptr[T any](v T) *T { return &v }

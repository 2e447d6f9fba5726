package domain

import (
	"fmt"
	"sort"
)

// ValidationError represents a single structural violation in a document.
type ValidationError struct {
	Path   string // e.g. "tasks.T1.subtask_order"
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}

// Validate checks the ordering and reference invariants of the document.
// It returns an *AggregateError listing every violation, or nil.
func (d *Document) Validate() error {
	var errs []error
	add := func(path, format string, args ...any) {
		errs = append(errs, &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)})
	}

	checkOrder(d.TaskOrder, keysOf(d.Tasks), "task_order", add)

	if cur := d.Request.CurrentTask; cur != "" {
		if _, ok := d.Tasks[cur]; !ok {
			add("request.current_task", "references unknown task %q", cur)
		}
	}

	for _, id := range sortedKeys(d.Tasks) {
		t := d.Tasks[id]
		path := "tasks." + id
		if t == nil {
			add(path, "is null")
			continue
		}
		if t.Status != "" && !t.Status.Valid() {
			add(path+".status", "unknown status %q", t.Status)
		}
		checkOrder(t.SubtaskOrder, keysOf(t.Subtasks), path+".subtask_order", add)
		if cur := t.CurrentSubtask; cur != "" {
			if _, ok := t.Subtasks[cur]; !ok {
				add(path+".current_subtask", "references unknown subtask %q", cur)
			}
		}
		for _, sid := range sortedKeys(t.Subtasks) {
			s := t.Subtasks[sid]
			spath := path + ".subtasks." + sid
			if s == nil {
				add(spath, "is null")
				continue
			}
			if s.Status != "" && !s.Status.Valid() {
				add(spath+".status", "unknown status %q", s.Status)
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Normalize repairs the document in place so that Validate passes for the
// ordering and reference invariants. It returns a description of every repair.
func (d *Document) Normalize() []string {
	var repairs []string

	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	if d.Request.ID == "" {
		d.Request.ID = DefaultRequestID
	}
	if d.Tasks == nil {
		d.Tasks = make(map[string]*Task)
	}
	for id, t := range d.Tasks {
		if t == nil {
			delete(d.Tasks, id)
			repairs = append(repairs, fmt.Sprintf("dropped null task %q", id))
		}
	}

	var r []string
	d.TaskOrder, r = repairOrder(d.TaskOrder, keysOf(d.Tasks), "task_order")
	repairs = append(repairs, r...)

	if cur := d.Request.CurrentTask; cur != "" {
		if _, ok := d.Tasks[cur]; !ok {
			d.Request.CurrentTask = ""
			repairs = append(repairs, fmt.Sprintf("cleared dangling current_task %q", cur))
		}
	}

	for _, id := range d.TaskOrder {
		t := d.Tasks[id]
		if t.Status == "" {
			t.Status = StatusPending
		}
		if t.Subtasks == nil {
			t.Subtasks = make(map[string]*Subtask)
		}
		for sid, s := range t.Subtasks {
			if s == nil {
				delete(t.Subtasks, sid)
				repairs = append(repairs, fmt.Sprintf("dropped null subtask %q of task %q", sid, id))
			} else if s.Status == "" {
				s.Status = StatusPending
			}
		}
		t.SubtaskOrder, r = repairOrder(t.SubtaskOrder, keysOf(t.Subtasks), "tasks."+id+".subtask_order")
		repairs = append(repairs, r...)
		if cur := t.CurrentSubtask; cur != "" {
			if _, ok := t.Subtasks[cur]; !ok {
				t.CurrentSubtask = ""
				repairs = append(repairs, fmt.Sprintf("cleared dangling current_subtask %q of task %q", cur, id))
			}
		}
	}

	return repairs
}

func checkOrder(order []string, keys map[string]struct{}, path string, add func(path, format string, args ...any)) {
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			add(path, "duplicate entry %q", id)
			continue
		}
		seen[id] = struct{}{}
		if _, ok := keys[id]; !ok {
			add(path, "dangling entry %q", id)
		}
	}
	missing := make([]string, 0)
	for id := range keys {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	for _, id := range missing {
		add(path, "missing entry %q", id)
	}
}

func repairOrder(order []string, keys map[string]struct{}, path string) ([]string, []string) {
	var repairs []string
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			repairs = append(repairs, fmt.Sprintf("%s: removed duplicate %q", path, id))
			continue
		}
		if _, ok := keys[id]; !ok {
			repairs = append(repairs, fmt.Sprintf("%s: removed dangling %q", path, id))
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	var missing []string
	for id := range keys {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	for _, id := range missing {
		repairs = append(repairs, fmt.Sprintf("%s: appended missing %q", path, id))
		out = append(out, id)
	}
	return out, repairs
}

func keysOf[V any](m map[string]V) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UnknownPhases lists every phase of the document outside vocab, as
// "path: phase". Empty task and subtask phases are not reported.
func (d *Document) UnknownPhases(vocab map[string]struct{}) []string {
	var out []string
	check := func(path, phase string) {
		if phase == "" {
			return
		}
		if _, ok := vocab[phase]; !ok {
			out = append(out, fmt.Sprintf("%s: %q", path, phase))
		}
	}
	check("request.global_phase", d.Request.GlobalPhase)
	for _, id := range sortedKeys(d.Tasks) {
		t := d.Tasks[id]
		if t == nil {
			continue
		}
		check("tasks."+id+".phase", t.Phase)
		for _, sid := range sortedKeys(t.Subtasks) {
			if s := t.Subtasks[sid]; s != nil {
				check("tasks."+id+".subtasks."+sid+".phase", s.Phase)
			}
		}
	}
	return out
}

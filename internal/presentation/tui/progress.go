package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
)

// StatusIcon returns the ASCII marker of a status.
func StatusIcon(s domain.Status) string {
	switch s {
	case domain.StatusCompleted:
		return "[v]"
	case domain.StatusInProgress, domain.StatusActive:
		return "[>]"
	case domain.StatusFailed:
		return "[x]"
	default:
		return "[ ]"
	}
}

// ProgressTree renders tasks and subtasks as an ASCII tree, marking the
// current ones.
func ProgressTree(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	var lines []string
	for i, tid := range doc.TaskOrder {
		t := doc.Tasks[tid]
		if t == nil {
			continue
		}
		lastTask := i == len(doc.TaskOrder)-1
		prefix := "|-"
		if lastTask {
			prefix = "`-"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s%s", prefix, tid, t.Name, StatusIcon(t.Status),
			currentMarker(tid == doc.Request.CurrentTask)))

		for j, sid := range t.SubtaskOrder {
			s := t.Subtasks[sid]
			if s == nil {
				continue
			}
			branch := "|-"
			if j == len(t.SubtaskOrder)-1 {
				branch = "`-"
			}
			indent := "|  "
			if lastTask {
				indent = "   "
			}
			phase := ""
			if s.Phase != "" {
				phase = " (" + s.Phase + ")"
			}
			lines = append(lines, fmt.Sprintf("%s%s %s %s %s%s%s", indent, branch, sid, s.Name, StatusIcon(s.Status),
				phase, currentMarker(sid == t.CurrentSubtask)))
		}
	}
	return strings.Join(lines, "\n")
}

func currentMarker(current bool) string {
	if current {
		return " <- current"
	}
	return ""
}

// StatusMarkdown renders a document summary as markdown.
func StatusMarkdown(doc *domain.Document) string {
	var b strings.Builder
	w := domain.ResolveWork(doc)
	fmt.Fprintf(&b, "# %s\n\n", doc.Request.OriginalRequest)
	fmt.Fprintf(&b, "- **Request:** %s %s\n", doc.Request.ID, StatusIcon(doc.Request.Status))
	fmt.Fprintf(&b, "- **Global phase:** %s\n", doc.Request.GlobalPhase)
	if w.TaskID != "" {
		fmt.Fprintf(&b, "- **Current:** %s", w.TaskID)
		if w.SubtaskID != "" {
			fmt.Fprintf(&b, " / %s", w.SubtaskID)
		}
		if w.Phase != "" {
			fmt.Fprintf(&b, " (%s)", w.Phase)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- **Pending:** %d tasks, %d subtasks\n", domain.CountPendingTasks(doc), domain.CountPendingSubtasks(doc))
	if tree := ProgressTree(doc); tree != "" {
		fmt.Fprintf(&b, "\n```\n%s\n```\n", tree)
	}
	return b.String()
}

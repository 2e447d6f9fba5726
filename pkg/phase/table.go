// Package phase computes phase successors from the transition table and
// applies phases at the global, task or subtask level of a document.
package phase

import (
	"fmt"

	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Table maps a phase to its successors.
type Table map[string]config.Transition

// Next returns the default successor of current. An absent entry means no
// defined transition (terminal or misconfigured), not an error.
func Next(current string, table Table) (string, bool) {
	t, ok := table[current]
	if !ok || t.Next == "" {
		return "", false
	}
	return t.Next, true
}

// NextOn returns the successor of current selected by trigger, falling back
// to Next when the trigger has no entry.
func NextOn(current, trigger string, table Table) (string, bool) {
	if t, ok := table[current]; ok && trigger != "" {
		if to, ok := t.On[trigger]; ok && to != "" {
			return to, true
		}
	}
	return Next(current, table)
}

// AgentNext returns the phase an agent moves to once it finished while the
// work was in current: next_phase_map[current] wins over next_phase.
func AgentNext(agent config.Agent, current string) (string, bool) {
	if to, ok := agent.NextPhaseMap[current]; ok && to != "" {
		return to, true
	}
	if agent.NextPhase != "" {
		return agent.NextPhase, true
	}
	return "", false
}

// Level is the nesting level a phase is written to.
type Level string

const (
	Global  Level = config.LevelGlobal
	Task    Level = config.LevelTask
	Subtask Level = config.LevelSubtask
)

// ParseLevel accepts the configured level names; "request" is an alias of global.
func ParseLevel(s string) (Level, error) {
	switch s {
	case config.LevelGlobal, config.LevelRequest:
		return Global, nil
	case config.LevelTask:
		return Task, nil
	case config.LevelSubtask, "":
		return Subtask, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// Current returns the phase at level, and whether that location exists.
func Current(doc *domain.Document, level Level) (string, bool) {
	switch level {
	case Global:
		return doc.Request.GlobalPhase, true
	case Task:
		if _, t := doc.CurrentTask(); t != nil {
			return t.Phase, true
		}
	case Subtask:
		if _, s := doc.CurrentSubtask(); s != nil {
			return s.Phase, true
		}
	}
	return "", false
}

// Apply writes phase at level. It is a pure mutation: with no current task
// (or subtask) to address, the document is left untouched and false returned.
// Writing the phase a location already has is also reported as false.
func Apply(doc *domain.Document, phase string, level Level) bool {
	switch level {
	case Global:
		if doc.Request.GlobalPhase == phase {
			return false
		}
		doc.Request.GlobalPhase = phase
		return true
	case Task:
		_, t := doc.CurrentTask()
		if t == nil || t.Phase == phase {
			return false
		}
		t.Phase = phase
		return true
	case Subtask:
		_, s := doc.CurrentSubtask()
		if s == nil || s.Phase == phase {
			return false
		}
		s.Phase = phase
		return true
	}
	return false
}

// Package hook implements the process-boundary protocol of the assistant
// host: a JSON event on stdin, an optional JSON context on stdout.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Event is the host event name.
type Event string

const (
	SessionStart Event = "SessionStart"
	Stop         Event = "Stop"
	PreCompact   Event = "PreCompact"
	SubagentStop Event = "SubagentStop"
	PostToolUse  Event = "PostToolUse"
)

// Events lists the supported events with their command names.
var Events = map[string]Event{
	"session-start": SessionStart,
	"stop":          Stop,
	"pre-compact":   PreCompact,
	"subagent-stop": SubagentStop,
	"post-tool-use": PostToolUse,
}

// ParseEvent accepts a command name (session-start) or an event name (SessionStart).
func ParseEvent(s string) (Event, error) {
	if ev, ok := Events[strings.ToLower(s)]; ok {
		return ev, nil
	}
	for _, ev := range Events {
		if string(ev) == s {
			return ev, nil
		}
	}
	return "", fmt.Errorf("unknown hook event %q", s)
}

// Input is the decoded hook payload. Keys not modelled here are kept in Extra.
type Input struct {
	SessionID      string         `mapstructure:"session_id"`
	TranscriptPath string         `mapstructure:"transcript_path"`
	Cwd            string         `mapstructure:"cwd"`
	HookEventName  string         `mapstructure:"hook_event_name"`
	Prompt         string         `mapstructure:"prompt"`
	Source         string         `mapstructure:"source"`
	StopHookActive bool           `mapstructure:"stop_hook_active"`
	ToolName       string         `mapstructure:"tool_name"`
	ToolInput      map[string]any `mapstructure:"tool_input"`
	SubagentType   string         `mapstructure:"subagent_type"`
	AgentType      string         `mapstructure:"agent_type"`
	Extra          map[string]any `mapstructure:",remain"`
}

// Agent returns the agent type, whichever key the host used.
func (in Input) Agent() string {
	if in.SubagentType != "" {
		return in.SubagentType
	}
	return in.AgentType
}

// FilePath returns tool_input.file_path (or path) when present.
func (in Input) FilePath() string {
	for _, k := range []string{"file_path", "path"} {
		if s, ok := in.ToolInput[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ReadInput decodes one payload from r. Empty input yields a zero Input.
// Malformed input yields a zero Input and an error; callers log and go on.
func ReadInput(r io.Reader) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("failed to read hook input: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Input{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Input{}, fmt.Errorf("failed to parse hook input: %w", err)
	}

	var in Input
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Input{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Input{}, fmt.Errorf("failed to decode hook input: %w", err)
	}
	return in, nil
}

type output struct {
	HookSpecificOutput specificOutput `json:"hookSpecificOutput"`
}

type specificOutput struct {
	HookEventName     Event  `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// WriteOutput writes the additional context for event. Nothing is written
// when context is empty.
func WriteOutput(w io.Writer, event Event, context string) error {
	if context == "" {
		return nil
	}
	return json.NewEncoder(w).Encode(output{
		HookSpecificOutput: specificOutput{HookEventName: event, AdditionalContext: context},
	})
}

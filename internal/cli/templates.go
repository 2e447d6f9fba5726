package cli

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/waypoint/pkg/config"
)

// Template names. Each can be overridden under `templates` in the config.
const (
	tmplSessionResume    = "session_resume"
	tmplSessionRecovery  = "session_recovery"
	tmplStopPending      = "stop_pending"
	tmplPreCompact       = "pre_compact"
	tmplSubagentBlocked  = "subagent_blocked"
	tmplSubagentAdvanced = "subagent_advanced"
	tmplContractWritten  = "contract_written"
)

const workLine = `{{with .Work}}{{if .TaskID}}Current: {{.TaskID}} {{.TaskName}}{{if .SubtaskID}} / {{.SubtaskID}} {{.SubtaskName}}{{end}}{{if .Phase}} ({{.Phase}}){{end}}
{{end}}{{end}}`

var defaultTemplates = map[string]string{
	tmplSessionResume: `[waypoint] Resuming request: {{.Request}}
Global phase: {{.GlobalPhase}}
` + workLine + `Pending: {{.PendingTasks}} tasks, {{.PendingSubtasks}} subtasks
{{.Tree}}{{if .Knowledge}}

Knowledge:
{{.Knowledge}}{{end}}`,

	tmplSessionRecovery: `[waypoint] An unfinished request from another session was found: {{.Request}}
Global phase: {{.GlobalPhase}}
` + workLine + `Pending: {{.PendingTasks}} tasks, {{.PendingSubtasks}} subtasks
Ask the user whether to continue it or start over ("waypoint init --force").`,

	tmplStopPending: `[waypoint] Work is still pending: {{.PendingTasks}} tasks, {{.PendingSubtasks}} subtasks.
` + workLine,

	tmplPreCompact: `[waypoint] Keep this orchestration state after compaction.
Request: {{.Request}}
Global phase: {{.GlobalPhase}}
` + workLine + `Pending: {{.PendingTasks}} tasks, {{.PendingSubtasks}} subtasks
{{.Tree}}`,

	tmplSubagentBlocked: `[waypoint] {{.Agent}} finished but {{.To}} is blocked:
{{range .Failed}}- {{.GateID}}: {{.Message}}
{{end}}`,

	tmplSubagentAdvanced: `[waypoint] {{.Agent}} finished: {{.Level}} phase {{if .From}}{{.From}}{{else}}(none){{end}} -> {{.To}}
{{range .Failed}}Warning: {{.GateID}}: {{.Message}}
{{end}}`,

	tmplContractWritten: `[waypoint] Contract {{.Contract}} written.{{if .GateIDs}} It can unlock {{join .GateIDs ", "}}.{{end}}`,
}

var funcs = template.FuncMap{"join": strings.Join}

// renderTemplate executes the configured template, or the built-in one.
// A broken override falls back to the built-in template.
func renderTemplate(cfg *config.Config, name string, data any) (string, error) {
	if text := cfg.Template(name); text != "" {
		out, err := execute(name, text, data)
		if err == nil {
			return out, nil
		}
	}
	text, ok := defaultTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return execute(name, text, data)
}

func execute(name, text string, data any) (string, error) {
	t, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

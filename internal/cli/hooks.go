package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/contract"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/gate"
	"github.com/aretw0/waypoint/pkg/hook"
	"github.com/aretw0/waypoint/pkg/knowledge"
	"github.com/aretw0/waypoint/pkg/session"
)

// hookData feeds the context templates.
type hookData struct {
	Request         string
	GlobalPhase     string
	Work            domain.WorkPointer
	PendingTasks    int
	PendingSubtasks int
	Tree            string
	Knowledge       string

	Agent  string
	Level  string
	From   string
	To     string
	Failed []gate.Result

	Contract string
	GateIDs  []string
}

func statusData(st waypoint.Status) hookData {
	doc := st.Document
	return hookData{
		Request:         doc.Request.OriginalRequest,
		GlobalPhase:     doc.Request.GlobalPhase,
		Work:            st.Work,
		PendingTasks:    st.PendingTasks,
		PendingSubtasks: st.PendingSubtasks,
		Tree:            tui.ProgressTree(doc),
	}
}

// ReadHookInput decodes the hook payload. Malformed input is logged and
// treated as empty.
func ReadHookInput(r io.Reader, logger *slog.Logger) hook.Input {
	in, err := hook.ReadInput(r)
	if err != nil {
		logger.Warn("Malformed hook input, continuing without it", "err", err)
	}
	return in
}

// RunHook handles one host event and writes its context to out. It never
// fails the host: every error is logged and the hook ends without context.
func RunHook(ctx context.Context, app *App, event hook.Event, in hook.Input, out io.Writer, idFile session.IdentityFile) {
	if !app.Config.Orchestration.Enabled {
		app.Logger.Debug("Orchestration disabled, hook skipped", "event", event)
		return
	}

	var (
		text string
		err  error
	)
	switch event {
	case hook.SessionStart:
		text, err = sessionStart(ctx, app, in, idFile)
	case hook.Stop:
		text, err = stop(ctx, app, in)
	case hook.PreCompact:
		text, err = preCompact(ctx, app)
	case hook.SubagentStop:
		text, err = subagentStop(ctx, app, in)
	case hook.PostToolUse:
		text, err = postToolUse(app, in)
	default:
		err = fmt.Errorf("unsupported hook event %q", event)
	}
	if err != nil {
		app.Logger.Warn("Hook failed", "event", event, "err", err)
		return
	}
	if err := hook.WriteOutput(out, event, text); err != nil {
		app.Logger.Warn("Failed to write hook output", "event", event, "err", err)
	}
}

func sessionStart(ctx context.Context, app *App, in hook.Input, idFile session.IdentityFile) (string, error) {
	id := session.Identity{ID: in.SessionID}
	if id.IsZero() {
		recorded, err := idFile.Read()
		if err != nil {
			app.Logger.Warn("Session id unavailable", "err", err)
		}
		id = recorded
	} else if err := idFile.Write(id); err != nil {
		app.Logger.Warn("Failed to record session id", "err", err)
	}

	doc, ok := app.Orchestrator.Lookup(ctx)
	if !ok || doc.Finished() {
		return "", nil
	}

	data := statusData(waypoint.StatusOf(doc))
	if !session.IsSameSession(doc, id) {
		// never resumed silently: the user decides
		return renderTemplate(app.Config, tmplSessionRecovery, data)
	}
	if kdoc, err := app.Orchestrator.Knowledge().Load(); err != nil {
		app.Logger.Warn("Knowledge unavailable", "err", err)
	} else if !kdoc.IsEmpty() {
		data.Knowledge = knowledge.Summary(kdoc, 3)
	}
	return renderTemplate(app.Config, tmplSessionResume, data)
}

func stop(ctx context.Context, app *App, in hook.Input) (string, error) {
	if in.StopHookActive {
		return "", nil
	}
	doc, ok := app.Orchestrator.Lookup(ctx)
	if !ok {
		return "", nil
	}
	st := waypoint.StatusOf(doc)
	if !st.HasPendingWork() {
		return "", nil
	}
	return renderTemplate(app.Config, tmplStopPending, statusData(st))
}

func preCompact(ctx context.Context, app *App) (string, error) {
	doc, ok := app.Orchestrator.Lookup(ctx)
	if !ok || doc.Finished() {
		return "", nil
	}
	return renderTemplate(app.Config, tmplPreCompact, statusData(waypoint.StatusOf(doc)))
}

func subagentStop(ctx context.Context, app *App, in hook.Input) (string, error) {
	agent := in.Agent()
	if agent == "" {
		return "", nil
	}
	if _, ok := app.Config.Agent(agent); !ok {
		app.Logger.Debug("Agent not configured, no transition", "agent", agent)
		return "", nil
	}
	if _, ok := app.Orchestrator.Lookup(ctx); !ok {
		return "", nil
	}

	ctx, cancel := app.WithTimeout(ctx)
	defer cancel()
	res, err := app.Orchestrator.Advance(ctx, waypoint.AdvanceRequest{Agent: agent})
	if err != nil {
		return "", err
	}

	data := hookData{
		Agent:  agent,
		Level:  string(res.Level),
		From:   res.From,
		To:     res.To,
		Failed: res.Failed(),
	}
	switch {
	case res.Blocked:
		return renderTemplate(app.Config, tmplSubagentBlocked, data)
	case res.Applied:
		return renderTemplate(app.Config, tmplSubagentAdvanced, data)
	}
	app.Logger.Debug("No transition", "agent", agent, "reason", res.Reason)
	return "", nil
}

func postToolUse(app *App, in hook.Input) (string, error) {
	path := in.FilePath()
	if !contract.IsContractFile(path) {
		return "", nil
	}
	name := filepath.Base(path)
	return renderTemplate(app.Config, tmplContractWritten, hookData{
		Contract: name,
		GateIDs:  app.Orchestrator.Gates().GatesFor(name),
	})
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// watchPoll is the polling interval of backends without file notifications.
var watchPoll = time.Second

// RunStatus prints the current status, rendered as markdown on a terminal.
func RunStatus(ctx context.Context, app *App, w io.Writer) error {
	doc, err := app.Orchestrator.State(ctx)
	if err != nil {
		return err
	}
	out, err := tui.NewRenderer(w)(tui.StatusMarkdown(doc))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// RunWatch prints the status, then every change to it until ctx is done.
// The file backend is watched with fsnotify; other backends are polled.
func RunWatch(ctx context.Context, app *App, w io.Writer) error {
	prev, _ := app.Orchestrator.Lookup(ctx)
	if prev != nil {
		if err := RunStatus(ctx, app, w); err != nil {
			return err
		}
	} else {
		printSystemMessage(w, "No active request. Waiting for changes...")
	}

	changes, stop, err := watchChanges(ctx, app)
	if err != nil {
		return err
	}
	defer stop()

	styler := tui.NewStyler(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			cur, found := app.Orchestrator.Lookup(ctx)
			if !found {
				continue
			}
			if diff := domain.Diff(prev, cur); diff != nil {
				printDiff(w, styler, diff)
			}
			prev = cur
		}
	}
}

// watchChanges emits a tick whenever the state may have changed.
func watchChanges(ctx context.Context, app *App) (<-chan struct{}, func(), error) {
	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}

	if app.Config.Storage.Backend != config.BackendFile {
		ticker := time.NewTicker(watchPoll)
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					notify()
				}
			}
		}()
		return out, ticker.Stop, nil
	}

	dir := app.Orchestrator.Layout().SessionDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure session directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// the directory is watched: atomic writes replace the file by rename
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Base(app.Orchestrator.Layout().StatePath())

	go func() {
		defer close(out)
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce = time.After(watchDebounce)
				}
			case <-debounce:
				debounce = nil
				notify()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				app.Logger.Warn("Watcher error", "err", err)
			}
		}
	}()
	return out, func() { _ = watcher.Close() }, nil
}

func printDiff(w io.Writer, s tui.Styler, d *domain.DocumentDiff) {
	if d.GlobalPhase != nil {
		fmt.Fprintf(w, "global phase -> %s\n", s.OK(*d.GlobalPhase))
	}
	if d.RequestStatus != nil {
		fmt.Fprintf(w, "request %s\n", statusWord(s, *d.RequestStatus))
	}
	if d.CurrentTask != nil {
		fmt.Fprintf(w, "current task -> %s\n", *d.CurrentTask)
	}
	for _, id := range d.AddedTasks {
		fmt.Fprintf(w, "+ task %s\n", id)
	}
	for _, tid := range sortedKeys(d.Tasks) {
		td := d.Tasks[tid]
		if td.Status != nil {
			fmt.Fprintf(w, "%s %s\n", tid, statusWord(s, *td.Status))
		}
		if td.Phase != nil {
			fmt.Fprintf(w, "%s phase -> %s\n", tid, s.OK(*td.Phase))
		}
		if td.CurrentSubtask != nil {
			fmt.Fprintf(w, "%s current subtask -> %s\n", tid, *td.CurrentSubtask)
		}
		for _, sid := range td.AddedSubtasks {
			fmt.Fprintf(w, "+ subtask %s/%s\n", tid, sid)
		}
		for _, sid := range sortedKeys(td.Subtasks) {
			sd := td.Subtasks[sid]
			if sd.Status != nil {
				fmt.Fprintf(w, "%s/%s %s\n", tid, sid, statusWord(s, *sd.Status))
			}
			if sd.Phase != nil {
				fmt.Fprintf(w, "%s/%s phase -> %s\n", tid, sid, s.OK(*sd.Phase))
			}
		}
	}
}

func statusWord(s tui.Styler, st domain.Status) string {
	switch st {
	case domain.StatusCompleted:
		return s.OK(string(st))
	case domain.StatusFailed:
		return s.Fail(string(st))
	default:
		return s.Warn(string(st))
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/adapters/file"
	"github.com/aretw0/waypoint/internal/adapters/memory"
	redisadapter "github.com/aretw0/waypoint/internal/adapters/redis"
	"github.com/aretw0/waypoint/internal/adapters/sqlite"
	"github.com/aretw0/waypoint/internal/metrics"
	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/project"
)

// Options are the global flags shared by every command.
type Options struct {
	Dir        string
	ConfigPath string
	Debug      bool
}

// App is the wired orchestrator of one invocation.
type App struct {
	Orchestrator *waypoint.Orchestrator
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Recorder

	closers []io.Closer
}

// NewApp loads the configuration and wires the configured backend.
func NewApp(opts Options) (*App, error) {
	logger := createLogger(opts.Debug)

	handle, err := project.NewHandle(dirOrDot(opts.Dir))
	if err != nil {
		return nil, err
	}
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath(handle.Root)
	}
	cfg := config.Load(cfgPath, logger)
	return NewAppWithConfig(handle, cfg, logger)
}

// NewAppWithConfig wires an App from an already loaded configuration.
func NewAppWithConfig(handle project.Handle, cfg *config.Config, logger *slog.Logger) (*App, error) {
	layout := project.NewLayout(handle, cfg.Storage.BaseDir)
	store, locker, closer, err := openStore(cfg, layout)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Metrics: metrics.NewRecorder()}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	orch, err := waypoint.New(handle.Root,
		waypoint.WithConfig(cfg),
		waypoint.WithStore(store),
		waypoint.WithLocker(locker),
		waypoint.WithMiddleware(middleware.Instrument(app.Metrics)),
		waypoint.WithLifecycleHooks(app.Metrics.Hooks(createDebugHooks(logger))),
		waypoint.WithLogger(logger),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Orchestrator = orch
	return app, nil
}

// WithTimeout bounds ctx by storage.lock_timeout.
func (a *App) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.Config.Storage.LockTimeout)
}

// Close flushes metrics (when enabled) and releases backend connections.
func (a *App) Close() error {
	var errs []error
	if a.Config.Metrics.Textfile && a.Orchestrator != nil {
		path := a.Orchestrator.Layout().MetricsPath()
		if err := a.Metrics.WriteTextfile(path); err != nil {
			a.Logger.Warn("Failed to write metrics textfile", "path", path, "err", err)
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openStore builds the state store and locker of the configured backend.
func openStore(cfg *config.Config, layout project.Layout) (ports.StateStore, ports.DistributedLocker, io.Closer, error) {
	sessions := layout.SessionsDir()
	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		return file.New(sessions), file.NewLocker(sessions), nil, nil
	case config.BackendMemory:
		return memory.New(), memory.NewLocker(), nil, nil
	case config.BackendRedis:
		s := redisadapter.New(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
		return s, redisadapter.NewLocker(s.Client(), s.Prefix()), s, nil
	case config.BackendSQLite:
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = layout.DatabasePath()
		} else if !filepath.IsAbs(path) {
			path = filepath.Join(layout.Handle.Root, path)
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		// sqlite serializes writers itself; the flock keeps load-mutate-save atomic
		return s, file.NewLocker(sessions), s, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

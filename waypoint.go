package waypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/waypoint/internal/adapters/file"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/contract"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/gate"
	"github.com/aretw0/waypoint/pkg/knowledge"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/phase"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/project"
	"github.com/aretw0/waypoint/pkg/session"
)

// Orchestrator is the high-level entry point of the library.
// It binds one project to its configuration, state store, contracts and
// knowledge, and exposes the operations used by hooks and the CLI.
type Orchestrator struct {
	Name string

	layout      project.Layout
	cfg         *config.Config
	store       ports.StateStore
	locker      ports.DistributedLocker
	middlewares []middleware.Middleware
	sessions    *session.Manager
	contracts   *contract.Store
	gates       *gate.Evaluator
	engine      *phase.Engine
	knowledge   *knowledge.Store
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	baseDir     string
	now         func() time.Time
}

// Option defines a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithConfig sets the configuration. Defaults to config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *Orchestrator) {
		o.cfg = cfg
	}
}

// WithStore injects a state store, bypassing the default file store.
func WithStore(s ports.StateStore) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithLocker sets the cross-process locker. With a custom store and no
// locker only in-process locking applies.
func WithLocker(l ports.DistributedLocker) Option {
	return func(o *Orchestrator) {
		o.locker = l
	}
}

// WithMiddleware wraps the state store. The first middleware is the outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *Orchestrator) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithBaseDir overrides storage.base_dir.
func WithBaseDir(dir string) Option {
	return func(o *Orchestrator) {
		o.baseDir = dir
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New initializes an Orchestrator for the project rooted at root.
// By default state lives in <root>/.waypoint/sessions guarded by a file lock.
func New(root string, opts ...Option) (*Orchestrator, error) {
	handle, err := project.NewHandle(root)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.baseDir == "" {
		o.baseDir = o.cfg.Storage.BaseDir
	}
	o.layout = project.NewLayout(handle, o.baseDir)
	o.Name = handle.Root
	o.logger = o.logger.With("project", handle.Hash)

	if o.store == nil {
		o.store = file.New(o.layout.SessionsDir())
		if o.locker == nil {
			o.locker = file.NewLocker(o.layout.SessionsDir())
		}
	}
	mws := append([]middleware.Middleware{}, o.middlewares...)
	mws = append(mws, middleware.Normalize(o.logger, middleware.WithVocabulary(o.cfg.Vocabulary())))
	o.store = middleware.Chain(o.store, mws...)

	sessOpts := []session.Option{
		session.WithInitialPhase(o.cfg.Orchestration.InitialPhase),
		session.WithClock(o.now),
		session.WithLogger(o.logger),
	}
	if o.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(o.locker))
	}
	o.sessions = session.NewManager(o.store, sessOpts...)

	o.contracts = contract.New(o.layout.ContractsDir())
	o.gates = gate.New(o.cfg.Gates, o.contracts,
		gate.WithHooks(o.hooks),
		gate.WithProject(handle.Hash),
	)
	o.engine = phase.NewEngine(o.sessions,
		phase.WithVocabulary(o.cfg.Vocabulary()),
		phase.WithHooks(o.hooks),
	)
	o.knowledge = knowledge.NewStore(o.layout.KnowledgePath())
	return o, nil
}

// Key is the state store key of the project.
func (o *Orchestrator) Key() string { return o.layout.Handle.Hash }

// Layout returns the persisted layout of the project.
func (o *Orchestrator) Layout() project.Layout { return o.layout }

// Config returns the active configuration.
func (o *Orchestrator) Config() *config.Config { return o.cfg }

// Sessions returns the session manager.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Contracts returns the contract store.
func (o *Orchestrator) Contracts() *contract.Store { return o.contracts }

// Gates returns the gate evaluator.
func (o *Orchestrator) Gates() *gate.Evaluator { return o.gates }

// Knowledge returns the knowledge store.
func (o *Orchestrator) Knowledge() *knowledge.Store { return o.knowledge }

// Start records a new request. An unfinished request is kept and
// domain.ErrRequestExists returned unless force is set.
func (o *Orchestrator) Start(ctx context.Context, request string, id session.Identity, force bool) (*domain.Document, error) {
	doc, err := o.sessions.Initialize(ctx, o.Key(), request, id, force)
	if err != nil {
		return doc, err
	}
	o.logger.Info("Request started", "request", doc.Request.ID, "session_id", id.ID)
	return doc, nil
}

// State loads the document of the project.
func (o *Orchestrator) State(ctx context.Context) (*domain.Document, error) {
	return o.sessions.Load(ctx, o.Key())
}

// Lookup is the fail-soft form of State.
func (o *Orchestrator) Lookup(ctx context.Context) (*domain.Document, bool) {
	return o.sessions.Lookup(ctx, o.Key())
}

// Status summarizes the progress of a document.
type Status struct {
	Document        *domain.Document
	Work            domain.WorkPointer
	PendingTasks    int
	PendingSubtasks int
}

// HasPendingWork reports whether any task or subtask is not completed.
func (s Status) HasPendingWork() bool {
	return s.PendingTasks > 0 || s.PendingSubtasks > 0
}

// StatusOf computes the Status of doc.
func StatusOf(doc *domain.Document) Status {
	return Status{
		Document:        doc,
		Work:            domain.ResolveWork(doc),
		PendingTasks:    domain.CountPendingTasks(doc),
		PendingSubtasks: domain.CountPendingSubtasks(doc),
	}
}

// Status loads the document and summarizes it.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	doc, err := o.State(ctx)
	if err != nil {
		return Status{}, err
	}
	return StatusOf(doc), nil
}

// CheckGate evaluates one gate against the current work.
func (o *Orchestrator) CheckGate(ctx context.Context, gateID string) (gate.Result, error) {
	doc, err := o.State(ctx)
	if err != nil {
		return gate.Result{}, err
	}
	return o.gates.Evaluate(ctx, gateID, domain.ResolveWork(doc)), nil
}

// AdvanceRequest selects the target phase of an Advance.
// Phase wins over Agent; without either the transition table is used,
// optionally with a Trigger.
type AdvanceRequest struct {
	Phase   string
	Agent   string
	Trigger string
	// Level overrides the agent's level. Empty means the agent level, or
	// subtask when no agent is given.
	Level string
}

// AdvanceResult describes an Advance.
type AdvanceResult struct {
	Level   phase.Level
	From    string
	To      string
	Applied bool
	// Blocked is set when failing gates stopped the transition.
	Blocked bool
	Gates   []gate.Result
	// Reason explains why nothing was applied.
	Reason   string
	Document *domain.Document
}

// Failed returns the gates that did not pass.
func (r AdvanceResult) Failed() []gate.Result {
	return gate.Failed(r.Gates)
}

// Advance moves the addressed level to its next phase. Gates blocking the
// target phase are evaluated first; with gate_enforcement "block" a failing
// gate stops the transition, with "warn" it is applied and the failures
// reported. The target, the gate check and the write all use the same locked
// revision of the document.
func (o *Orchestrator) Advance(ctx context.Context, req AdvanceRequest) (AdvanceResult, error) {
	levelName := req.Level
	var agent config.Agent
	if req.Agent != "" {
		a, ok := o.cfg.Agent(req.Agent)
		if !ok {
			return AdvanceResult{Reason: fmt.Sprintf("agent %q is not configured", req.Agent)}, nil
		}
		agent = a
		if levelName == "" {
			levelName = a.Level
		}
	}
	level, err := phase.ParseLevel(levelName)
	if err != nil {
		return AdvanceResult{}, err
	}

	var res AdvanceResult
	out, err := o.engine.Transition(ctx, o.Key(), level, func(doc *domain.Document, current string, addressable bool) (string, error) {
		res = AdvanceResult{Level: level, From: current}

		target := req.Phase
		switch {
		case target != "":
		case req.Agent != "":
			target, _ = phase.AgentNext(agent, current)
		case addressable:
			target, _ = phase.NextOn(current, req.Trigger, phase.Table(o.cfg.PhaseTransitions))
		}
		res.To = target
		if !addressable {
			res.Reason = fmt.Sprintf("no current work at %s level", level)
			return "", nil
		}
		if target == "" {
			res.Reason = fmt.Sprintf("no transition from %q", current)
			return "", nil
		}

		res.Gates = o.gates.EvaluateBlocking(ctx, target, domain.ResolveWork(doc))
		if failed := gate.Failed(res.Gates); len(failed) > 0 {
			if o.cfg.Orchestration.GateEnforcement != config.EnforceWarn {
				res.Blocked = true
				res.Reason = failed[0].Message
				o.logger.Info("Transition blocked", "to", target, "gate", failed[0].GateID)
				return "", nil
			}
			o.logger.Warn("Transition applied despite failing gates", "to", target, "failed", len(failed))
		}
		return target, nil
	})
	if err != nil {
		return res, err
	}
	res.Applied = out.Applied
	res.Document = out.Document
	if !out.Applied && res.Reason == "" {
		res.Reason = fmt.Sprintf("already at %q", res.To)
	}
	return res, nil
}

func (o *Orchestrator) update(ctx context.Context, fn func(*domain.Document) error) (*domain.Document, error) {
	doc, _, err := o.sessions.Update(ctx, o.Key(), func(doc *domain.Document) (bool, error) {
		if err := fn(doc); err != nil {
			return false, err
		}
		return true, nil
	})
	return doc, err
}

// AddTask appends a task to the current request.
func (o *Orchestrator) AddTask(ctx context.Context, id, name string) (*domain.Document, error) {
	return o.update(ctx, func(doc *domain.Document) error {
		_, err := doc.AddTask(id, name)
		return err
	})
}

// AddSubtask appends a subtask to a task.
func (o *Orchestrator) AddSubtask(ctx context.Context, taskID, id, name string) (*domain.Document, error) {
	return o.update(ctx, func(doc *domain.Document) error {
		_, err := doc.AddSubtask(taskID, id, name)
		return err
	})
}

// Focus moves the current task and subtask pointers.
func (o *Orchestrator) Focus(ctx context.Context, taskID, subtaskID string) (*domain.Document, error) {
	return o.update(ctx, func(doc *domain.Document) error {
		return doc.Focus(taskID, subtaskID)
	})
}

// SetTaskStatus sets the status of a task.
func (o *Orchestrator) SetTaskStatus(ctx context.Context, taskID string, st domain.Status) (*domain.Document, error) {
	return o.update(ctx, func(doc *domain.Document) error {
		return doc.SetTaskStatus(taskID, st)
	})
}

// SetSubtaskStatus sets the status of a subtask.
func (o *Orchestrator) SetSubtaskStatus(ctx context.Context, taskID, subtaskID string, st domain.Status) (*domain.Document, error) {
	return o.update(ctx, func(doc *domain.Document) error {
		return doc.SetSubtaskStatus(taskID, subtaskID, st)
	})
}

// PutContract writes a contract at the scope of the current work.
func (o *Orchestrator) PutContract(ctx context.Context, name string, data []byte) (string, error) {
	doc, err := o.State(ctx)
	if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
		return "", err
	}
	var scope contract.Scope
	if doc != nil {
		scope = contract.ScopeOf(domain.ResolveWork(doc))
	}
	return o.contracts.Write(name, scope, data)
}

// FindContract resolves a contract for the current work, broader scopes included.
func (o *Orchestrator) FindContract(ctx context.Context, name string) (string, bool) {
	var scope contract.Scope
	if doc, ok := o.Lookup(ctx); ok {
		scope = contract.ScopeOf(domain.ResolveWork(doc))
	}
	return o.contracts.Find(name, scope)
}

// MergeKnowledge folds incoming into the project knowledge.
func (o *Orchestrator) MergeKnowledge(ctx context.Context, incoming knowledge.Document) (knowledge.MergeResult, error) {
	res, err := o.knowledge.Merge(ctx, incoming)
	if err != nil {
		return res, err
	}
	for _, c := range res.NotMerged {
		o.logger.Info("Knowledge key kept", "key", c.Key, "existing", c.Existing, "proposed", c.Proposed)
	}
	return res, nil
}

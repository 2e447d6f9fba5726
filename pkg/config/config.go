// Package config defines the orchestrator configuration: agents, gates, phase
// transitions and storage. Configuration is loaded from YAML with koanf,
// overridden by WAYPOINT_* environment variables, and always falls back to
// built-in defaults.
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Gate enforcement modes.
const (
	EnforceBlock = "block"
	EnforceWarn  = "warn"
)

// Agent levels.
const (
	LevelGlobal  = "global"
	LevelRequest = "request" // alias of global
	LevelTask    = "task"
	LevelSubtask = "subtask"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the whole configuration surface.
type Config struct {
	Orchestration    Orchestration         `koanf:"orchestration" yaml:"orchestration"`
	Keywords         Keywords              `koanf:"keywords" yaml:"keywords"`
	Agents           map[string]Agent      `koanf:"agents" yaml:"agents"`
	Gates            map[string]Gate       `koanf:"gates" yaml:"gates"`
	PhaseTransitions map[string]Transition `koanf:"phase_transitions" yaml:"phase_transitions"`
	Templates        map[string]string     `koanf:"templates" yaml:"templates,omitempty"`
	Storage          Storage               `koanf:"storage" yaml:"storage"`
	Metrics          Metrics               `koanf:"metrics" yaml:"metrics"`
}

type Orchestration struct {
	Enabled         bool   `koanf:"enabled" yaml:"enabled"`
	GateEnforcement string `koanf:"gate_enforcement" yaml:"gate_enforcement"`
	InitialPhase    string `koanf:"initial_phase" yaml:"initial_phase"`
}

// Keywords are the prompt patterns that start or skip orchestration.
// They are carried as data for external detectors.
type Keywords struct {
	Trigger []string `koanf:"trigger" yaml:"trigger"`
	Skip    []string `koanf:"skip" yaml:"skip"`
}

// Agent describes what an agent produces and where it moves the workflow.
type Agent struct {
	Output       string            `koanf:"output" yaml:"output,omitempty"`
	Outputs      []string          `koanf:"outputs" yaml:"outputs,omitempty"`
	NextPhase    string            `koanf:"next_phase" yaml:"next_phase,omitempty"`
	NextPhaseMap map[string]string `koanf:"next_phase_map" yaml:"next_phase_map,omitempty"`
	Level        string            `koanf:"level" yaml:"level"`
}

// Artifacts returns every contract the agent may produce.
func (a Agent) Artifacts() []string {
	var out []string
	if a.Output != "" {
		out = append(out, a.Output)
	}
	return append(out, a.Outputs...)
}

// Gate is a named precondition on entering a phase.
type Gate struct {
	Condition string `koanf:"condition" yaml:"condition"`
	Blocks    string `koanf:"blocks" yaml:"blocks"`
	Message   string `koanf:"message" yaml:"message,omitempty"`
}

// Transition is the successor of a phase: Next by default, On when a
// trigger condition selects a specific successor.
type Transition struct {
	Next string            `koanf:"next" yaml:"next,omitempty"`
	On   map[string]string `koanf:"on" yaml:"on,omitempty"`
}

type Storage struct {
	Backend       string        `koanf:"backend" yaml:"backend"`
	BaseDir       string        `koanf:"base_dir" yaml:"base_dir,omitempty"`
	RedisAddr     string        `koanf:"redis_addr" yaml:"redis_addr,omitempty"`
	RedisPassword string        `koanf:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB       int           `koanf:"redis_db" yaml:"redis_db,omitempty"`
	SQLitePath    string        `koanf:"sqlite_path" yaml:"sqlite_path,omitempty"`
	LockTimeout   time.Duration `koanf:"lock_timeout" yaml:"lock_timeout"`
}

type Metrics struct {
	Textfile bool `koanf:"textfile" yaml:"textfile"`
}

// Gate returns the gate configuration, if any.
func (c *Config) Gate(id string) (Gate, bool) {
	g, ok := c.Gates[id]
	return g, ok
}

// Agent returns the agent configuration, if any.
func (c *Config) Agent(name string) (Agent, bool) {
	a, ok := c.Agents[name]
	return a, ok
}

// GateIDs returns configured gate ids in sorted order.
func (c *Config) GateIDs() []string {
	ids := make([]string, 0, len(c.Gates))
	for id := range c.Gates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Template returns a named template, or "" if not configured.
func (c *Config) Template(name string) string {
	return c.Templates[name]
}

// Vocabulary returns every phase name the configuration refers to.
func (c *Config) Vocabulary() map[string]struct{} {
	v := make(map[string]struct{})
	add := func(p string) {
		if p != "" {
			v[p] = struct{}{}
		}
	}
	add(c.Orchestration.InitialPhase)
	for from, t := range c.PhaseTransitions {
		add(from)
		add(t.Next)
		for _, to := range t.On {
			add(to)
		}
	}
	for _, a := range c.Agents {
		add(a.NextPhase)
		for from, to := range a.NextPhaseMap {
			add(from)
			add(to)
		}
	}
	for _, g := range c.Gates {
		add(g.Blocks)
	}
	return v
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	var errs []error
	switch c.Orchestration.GateEnforcement {
	case EnforceBlock, EnforceWarn:
	default:
		errs = append(errs, &domain.ValidationError{
			Path:   "orchestration.gate_enforcement",
			Reason: fmt.Sprintf("must be %q or %q, got %q", EnforceBlock, EnforceWarn, c.Orchestration.GateEnforcement),
		})
	}
	for name, a := range c.Agents {
		switch a.Level {
		case LevelGlobal, LevelRequest, LevelTask, LevelSubtask:
		default:
			errs = append(errs, &domain.ValidationError{
				Path:   "agents." + name + ".level",
				Reason: fmt.Sprintf("unknown level %q", a.Level),
			})
		}
	}
	for id, g := range c.Gates {
		if g.Blocks == "" {
			errs = append(errs, &domain.ValidationError{Path: "gates." + id + ".blocks", Reason: "is required"})
		}
	}
	switch c.Storage.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendSQLite:
	default:
		errs = append(errs, &domain.ValidationError{
			Path:   "storage.backend",
			Reason: fmt.Sprintf("unknown backend %q", c.Storage.Backend),
		})
	}
	if len(errs) > 0 {
		return &domain.AggregateError{Errors: errs}
	}
	return nil
}

package config

import (
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
)

// DefaultLockTimeout bounds how long an invocation waits for the state lock.
const DefaultLockTimeout = 5 * time.Second

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Orchestration: Orchestration{
			Enabled:         true,
			GateEnforcement: EnforceBlock,
			InitialPhase:    domain.InitialGlobalPhase,
		},
		Keywords: Keywords{
			Trigger: []string{
				`(?i)\bimplement\b`,
				`(?i)\bbuild\b`,
				`(?i)\badd\b`,
				`(?i)\bchange\b`,
				`(?i)\bfix\b`,
				`구현해\s*줘`,
				`만들어\s*줘`,
				`추가해\s*줘`,
				`/orchestrator`,
				`/orchestrate`,
			},
			Skip: []string{
				`(?i)\bexplain\b`,
				`(?i)\bsearch\b`,
				`(?i)\banaly[sz]e\b`,
				`설명해\s*줘`,
				`찾아\s*줘`,
				`분석해\s*줘`,
			},
		},
		Agents: map[string]Agent{
			"code-explore": {Output: "explored.yaml", NextPhase: domain.PhaseMerge, Level: LevelRequest},
			"planner":      {Output: "task-breakdown.yaml", NextPhase: domain.PhaseMerge, Level: LevelRequest},
			"architect":    {Output: "design-contract.yaml", NextPhase: domain.PhaseTestFirst, Level: LevelTask},
			"qa-engineer": {
				Outputs: []string{"test-contract.yaml", "test-result.yaml"},
				NextPhaseMap: map[string]string{
					domain.PhaseTestFirst:    domain.PhaseImplementation,
					domain.PhaseVerification: domain.PhaseComplete,
				},
				Level: LevelSubtask,
			},
			"implementer": {NextPhase: domain.PhaseVerification, Level: LevelSubtask},
		},
		Gates: map[string]Gate{
			"GATE-1": {
				Condition: "test-contract.yaml exists",
				Blocks:    domain.PhaseImplementation,
				Message:   "Test contract is missing.",
			},
			"GATE-2": {
				Condition: "test-result.yaml exists",
				Blocks:    domain.PhaseComplete,
				Message:   "Test results are missing.",
			},
		},
		PhaseTransitions: map[string]Transition{
			domain.PhaseGlobalDiscovery: {Next: domain.PhaseMerge},
			domain.PhaseMerge:           {Next: domain.PhaseDesign},
			domain.PhaseDiscovery:       {Next: domain.PhaseDesign},
			domain.PhaseDesign:          {Next: domain.PhaseTestFirst},
			domain.PhaseTestFirst: {
				Next: domain.PhaseImplementation,
				On: map[string]string{
					"tests_written": domain.PhaseImplementation,
					"tests_failed":  domain.PhaseTestFirst,
				},
			},
			domain.PhaseImplementation: {Next: domain.PhaseVerification},
			domain.PhaseVerification: {
				Next: domain.PhaseComplete,
				On: map[string]string{
					"tests_passed": domain.PhaseComplete,
					"tests_failed": domain.PhaseImplementation,
				},
			},
		},
		Templates: map[string]string{},
		Storage: Storage{
			Backend:     BackendFile,
			LockTimeout: DefaultLockTimeout,
		},
	}
}

// applyDefaults fills empty scalars left by a partial file.
func applyDefaults(cfg *Config) {
	if cfg.Orchestration.GateEnforcement == "" {
		cfg.Orchestration.GateEnforcement = EnforceBlock
	}
	if cfg.Orchestration.InitialPhase == "" {
		cfg.Orchestration.InitialPhase = domain.InitialGlobalPhase
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.LockTimeout <= 0 {
		cfg.Storage.LockTimeout = DefaultLockTimeout
	}
	if cfg.Templates == nil {
		cfg.Templates = map[string]string{}
	}
	for name, a := range cfg.Agents {
		if a.Level == "" {
			a.Level = LevelSubtask
			cfg.Agents[name] = a
		}
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WAYPOINT_"

// DefaultPath returns the default config location for a project root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".waypoint", "config.yaml")
}

// Load reads the configuration at path. It never fails: a missing file yields
// the defaults, and an unreadable, unparsable or invalid file yields the
// defaults with a warning.
func Load(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Config unreadable, using defaults", "path", path, "err", err)
		data = nil
	}

	cfg, err := Parse(data)
	if err == nil {
		return cfg
	}
	logger.Warn("Config invalid, using defaults", "path", path, "err", err)

	// Environment overrides still apply to the defaults.
	if cfg, err := Parse(nil); err == nil {
		return cfg
	}
	return Default()
}

// Parse decodes YAML bytes (possibly empty) and applies environment overrides.
// Top-level sections absent from the input are taken from Default.
func Parse(data []byte) (*Config, error) {
	k := koanf.New(".")

	if len(bytes.TrimSpace(data)) > 0 {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// WAYPOINT_STORAGE_LOCK_TIMEOUT -> storage.lock_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	def := Default()
	if !k.Exists("orchestration") {
		cfg.Orchestration = def.Orchestration
	} else if !k.Exists("orchestration.enabled") {
		cfg.Orchestration.Enabled = true
	}
	if !k.Exists("keywords") {
		cfg.Keywords = def.Keywords
	}
	if !k.Exists("agents") {
		cfg.Agents = def.Agents
	}
	if !k.Exists("gates") {
		cfg.Gates = def.Gates
	}
	if !k.Exists("phase_transitions") {
		cfg.PhaseTransitions = def.PhaseTransitions
	}
	if !k.Exists("storage") {
		cfg.Storage = def.Storage
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps WAYPOINT_SECTION_FIELD_NAME to section.field_name.
// Variables without a field part are ignored.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return ""
	}
	return parts[0] + "." + parts[1]
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yamlv3.Marshal(cfg)
}

// Package config provides the configuration loader for armada.
package config

import (
	"os"
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up when no explicit path
// is given.
const DefaultFilename = "armada.yaml"

// EnvConfigPath overrides the configuration file path when set.
const EnvConfigPath = "ARMADA_CONFIG"

// Config is the resolved engine configuration with all defaults applied.
type Config struct {
	PlanPath          string
	Workspace         string
	MaxParallel       int
	RequireApproval   bool
	DispatchGrace     time.Duration
	TaskTimeout       time.Duration
	CheckpointRetries uint64
	StoreBackend      string
	StorePath         string
	TelemetryEnabled  bool
	Roles             map[string][]string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		PlanPath:          "mission.yaml",
		Workspace:         ".",
		MaxParallel:       4,
		DispatchGrace:     10 * time.Second,
		TaskTimeout:       5 * time.Minute,
		CheckpointRetries: 3,
		StoreBackend:      "sqlite",
		StorePath:         ".armada/checkpoints.db",
		Roles:             map[string][]string{},
	}
}

// Load reads a configuration file and resolves it against the defaults.
// A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Armadafile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	if file.Plan != "" {
		cfg.PlanPath = file.Plan
	}
	if file.Workspace != "" {
		cfg.Workspace = file.Workspace
	}
	if file.Engine.MaxParallel > 0 {
		cfg.MaxParallel = file.Engine.MaxParallel
	}
	cfg.RequireApproval = file.Engine.RequireApproval
	if file.Engine.DispatchGrace != "" {
		d, err := time.ParseDuration(file.Engine.DispatchGrace)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid dispatchGrace"), "value", file.Engine.DispatchGrace)
		}
		cfg.DispatchGrace = d
	}
	if file.Engine.TaskTimeout != "" {
		d, err := time.ParseDuration(file.Engine.TaskTimeout)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid taskTimeout"), "value", file.Engine.TaskTimeout)
		}
		cfg.TaskTimeout = d
	}
	if file.Engine.CheckpointRetries > 0 {
		cfg.CheckpointRetries = file.Engine.CheckpointRetries
	}
	if file.Store.Backend != "" {
		cfg.StoreBackend = file.Store.Backend
	}
	if file.Store.Path != "" {
		cfg.StorePath = file.Store.Path
	}
	cfg.TelemetryEnabled = file.Telemetry.Enabled
	for role, dto := range file.Roles {
		if len(dto.Cmd) > 0 {
			cfg.Roles[role] = dto.Cmd
		}
	}

	switch cfg.StoreBackend {
	case "sqlite", "jsonl":
	default:
		return nil, zerr.With(zerr.New("invalid store backend, expected 'sqlite' or 'jsonl'"), "backend", cfg.StoreBackend)
	}

	return cfg, nil
}

// Path returns the configuration file path, honoring the environment
// override.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultFilename
}

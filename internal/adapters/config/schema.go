package config

// Armadafile represents the structure of the armada.yaml configuration file.
type Armadafile struct {
	Version   string             `yaml:"version"`
	Plan      string             `yaml:"plan"`
	Workspace string             `yaml:"workspace"`
	Engine    EngineDTO          `yaml:"engine"`
	Store     StoreDTO           `yaml:"store"`
	Telemetry TelemetryDTO       `yaml:"telemetry"`
	Roles     map[string]RoleDTO `yaml:"roles"`
}

// EngineDTO configures the mission engine.
type EngineDTO struct {
	MaxParallel       int    `yaml:"maxParallel"`
	RequireApproval   bool   `yaml:"requireApproval"`
	DispatchGrace     string `yaml:"dispatchGrace"`
	TaskTimeout       string `yaml:"taskTimeout"`
	CheckpointRetries uint64 `yaml:"checkpointRetries"`
}

// StoreDTO configures checkpoint persistence.
type StoreDTO struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// TelemetryDTO configures progress reporting.
type TelemetryDTO struct {
	Enabled bool `yaml:"enabled"`
}

// RoleDTO maps a worker role to the command that executes its tasks.
type RoleDTO struct {
	Cmd []string `yaml:"cmd"`
}

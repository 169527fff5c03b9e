// Package config loads and validates the engine configuration from YAML,
// with ${VAR} environment interpolation for secrets.
package config

import (
	"time"

	"github.com/promoforge/promoforge/internal/llm"
)

// Config is the full engine configuration.
type Config struct {
	Database  DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Model     llm.ProviderConfig `mapstructure:"model" yaml:"model" validate:"required"`
	Artifacts ArtifactsConfig   `mapstructure:"artifacts" yaml:"artifacts"`
	Engine    EngineConfig      `mapstructure:"engine" yaml:"engine"`
	Cost      CostConfig        `mapstructure:"cost" yaml:"cost"`
	Logging   LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// DatabaseConfig locates the SQLite datastore.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// ArtifactsConfig locates generated artifact storage.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`
}

// EngineConfig tunes the execution engine and generation pipeline.
type EngineConfig struct {
	// StepDelay is the fixed pacing between consecutive execution steps.
	StepDelay time.Duration `mapstructure:"step_delay" yaml:"step_delay"`

	// CriticThreshold is the critique score below which a revision triggers
	// regeneration.
	CriticThreshold int `mapstructure:"critic_threshold" yaml:"critic_threshold" validate:"min=0,max=100"`

	// CriticMaxRetries bounds extra generation attempts per post.
	CriticMaxRetries int `mapstructure:"critic_max_retries" yaml:"critic_max_retries" validate:"min=0,max=5"`

	// StageTimeout bounds each optional enrichment stage.
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout"`

	// GateRefine enables the model pass over the quality-gate score.
	GateRefine bool `mapstructure:"gate_refine" yaml:"gate_refine"`
}

// CostConfig tunes the adaptive cost estimator.
type CostConfig struct {
	// PriorMeanMicros is the assumed per-generation cost before any usage
	// history exists.
	PriorMeanMicros int64 `mapstructure:"prior_mean_micros" yaml:"prior_mean_micros" validate:"min=0"`

	// HalfLife is the age at which a usage sample's weight halves.
	HalfLife time.Duration `mapstructure:"half_life" yaml:"half_life"`

	// Window bounds how far back usage rows are read.
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultConfig returns a runnable local configuration. The model provider
// defaults to the mock client so the engine works without credentials.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "promoforge.db",
		},
		Model: llm.ProviderConfig{
			Provider:    "mock",
			Temperature: 0.7,
		},
		Artifacts: ArtifactsConfig{
			Dir: "artifacts",
		},
		Engine: EngineConfig{
			StepDelay:        2 * time.Second,
			CriticThreshold:  60,
			CriticMaxRetries: 2,
			StageTimeout:     5 * time.Second,
		},
		Cost: CostConfig{
			PriorMeanMicros: 100_000,
			HalfLife:        7 * 24 * time.Hour,
			Window:          30 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

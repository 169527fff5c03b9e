package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_Validates(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/custom.db
engine:
  step_delay: 5s
  critic_threshold: 80
cost:
  prior_mean_micros: 250000
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Engine.StepDelay)
	assert.Equal(t, 80, cfg.Engine.CriticThreshold)
	assert.Equal(t, int64(250_000), cfg.Cost.PriorMeanMicros)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, "mock", cfg.Model.Provider)
	assert.Equal(t, 2, cfg.Engine.CriticMaxRetries)
}

func TestLoad_InterpolatesEnvVars(t *testing.T) {
	t.Setenv("PROMOFORGE_TEST_KEY", "sk-secret")
	t.Setenv("PROMOFORGE_TEST_DATA", "/var/data")

	path := writeConfig(t, `
database:
  path: ${PROMOFORGE_TEST_DATA}/promoforge.db
model:
  provider: openai
  text_model: gpt-4o
  api_key: ${PROMOFORGE_TEST_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/data/promoforge.db", cfg.Database.Path)
	assert.Equal(t, "sk-secret", cfg.Model.APIKey)
}

func TestLoad_UnsetEnvVarLeftVerbatim(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ${PROMOFORGE_DEFINITELY_UNSET}/promoforge.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${PROMOFORGE_DEFINITELY_UNSET}/promoforge.db", cfg.Database.Path)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, types.HasCode(err, types.CONFIG_LOAD_FAILED))
}

func TestLoadWithDefaults_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"

	err := Validate(cfg)
	assert.True(t, types.HasCode(err, types.CONFIG_VALIDATION_FAILED))
}

func TestValidate_RejectsCriticThresholdOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.CriticThreshold = 150

	err := Validate(cfg)
	assert.True(t, types.HasCode(err, types.CONFIG_VALIDATION_FAILED))
}

func TestValidate_NonMockProviderRequiresAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.Provider = "openai"
	cfg.Model.TextModel = "gpt-4o"
	cfg.Model.APIKey = ""

	err := Validate(cfg)
	assert.True(t, types.HasCode(err, types.CONFIG_VALIDATION_FAILED))

	cfg.Model.APIKey = "sk-something"
	assert.NoError(t, Validate(cfg))
}

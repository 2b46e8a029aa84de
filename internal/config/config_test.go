package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 50.0, cfg.Realtime.EncounterThresholdMeters)
	assert.Equal(t, 5*time.Minute, cfg.Realtime.EncounterCooldown)
	assert.Equal(t, 5*time.Minute, cfg.Realtime.PresenceTimeout)
	assert.Equal(t, 10, cfg.RateLimit.Chat.Max)
	assert.Equal(t, 60, cfg.RateLimit.Location.Max)
	assert.Equal(t, 30, cfg.RateLimit.General.Max)
	assert.Contains(t, cfg.DSN, "surelink")
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: production
redis_url: redis://cache:6379/1
realtime:
  encounter_threshold_meters: 25
  encounter_cooldown_ms: 120000
  presence_timeout_ms: 60000
rate_limit:
  chat:
    max: 5
    window_ms: 30000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 25.0, cfg.Realtime.EncounterThresholdMeters)
	assert.Equal(t, 2*time.Minute, cfg.Realtime.EncounterCooldown)
	assert.Equal(t, time.Minute, cfg.Realtime.PresenceTimeout)
	assert.Equal(t, 5, cfg.RateLimit.Chat.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Chat.Window())
	// untouched policies keep defaults
	assert.Equal(t, 60, cfg.RateLimit.Location.Max)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "port: 8080\n")
	t.Setenv("PORT", "9090")
	t.Setenv("ENCOUNTER_THRESHOLD_METERS", "75")
	t.Setenv("ENCOUNTER_COOLDOWN_MS", "1000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 75.0, cfg.Realtime.EncounterThresholdMeters)
	assert.Equal(t, time.Second, cfg.Realtime.EncounterCooldown)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 70000\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "realtime:\n  encounter_threshold_meters: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "nonsense_key: true\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestDSNBuiltFromParts(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 3307
  user: app
  password: secret
  name: chat
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(db.internal:3307)/chat?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN)
}

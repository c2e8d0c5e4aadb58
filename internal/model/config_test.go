package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	defaults := DefaultAppConfig()
	assert.Equal(t, defaults.Server, cfg.Server)
	assert.Equal(t, defaults.Import, cfg.Import)
	assert.Equal(t, defaults.Database.Path, cfg.Database.Path)
}

func TestSaveThenLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Server.Addr = ":8080"
	cfg.Log.Level = "debug"
	cfg.Log.Development = true
	cfg.Import.Enabled = false
	cfg.Import.Schedule = "*/5 * * * *"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", loaded.Server.Addr)
	assert.Equal(t, "debug", loaded.Log.Level)
	assert.True(t, loaded.Log.Development)
	assert.False(t, loaded.Import.Enabled)
	assert.Equal(t, "*/5 * * * *", loaded.Import.Schedule)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("KANEO_SERVER_ADDR", ":9999")
	t.Setenv("KANEO_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigFillsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  max_webhook_body_bytes: 0\nimport:\n  schedule: \"\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5<<20), cfg.Server.MaxWebhookBodyBytes)
	assert.Equal(t, "@every 10m", cfg.Import.Schedule)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

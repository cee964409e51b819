package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"POLYGON_API_KEY", "TELEGRAM_BOT_TOKEN", "DATABASE_URL", "REDIS_ADDR", "PORT"} {
		t.Setenv(k, "")
	}
	// keep a stray .env in the package dir from leaking in
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "k")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"XNAS", "XNYS", "XASE"}, cfg.Polygon.Exchanges)
	assert.Equal(t, 1000, cfg.Polygon.PageLimit)
	assert.Equal(t, 1000, cfg.Polygon.SubscribeChunk)
	assert.Equal(t, 2, cfg.Detector.ConditionFlag)
	assert.Equal(t, int64(50000), cfg.Detector.MinVolume)
	assert.Equal(t, 0, cfg.Detector.CooldownSeconds)
	assert.Equal(t, 8, cfg.Dispatch.Workers)
	assert.Equal(t, 1024, cfg.Dispatch.QueueSize)
	assert.Equal(t, LifecycleExit, cfg.Lifecycle.Mode)
	assert.Equal(t, 5000, cfg.Lifecycle.ExitDelayMs)
	assert.Equal(t, 3, cfg.Polygon.NewsLimit)
	assert.False(t, cfg.Telegram.Enabled)
	assert.False(t, cfg.HTTP.Enabled)
}

func TestLoadMissingAPIKey(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[polygon]
api_key = "from-file"
exchanges = [" xnas ", "XNAS", "arcx"]
subscribe_chunk = 400

[detector]
min_volume = 100000
cooldown_seconds = 60

[lifecycle]
mode = "Reconnect"
max_retries = 5
`)
	t.Setenv("POLYGON_API_KEY", "from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Polygon.APIKey)
	assert.Equal(t, []string{"XNAS", "ARCX"}, cfg.Polygon.Exchanges)
	assert.Equal(t, 400, cfg.Polygon.SubscribeChunk)
	assert.Equal(t, int64(100000), cfg.Detector.MinVolume)
	assert.Equal(t, 60, int(cfg.Cooldown().Seconds()))
	assert.Equal(t, LifecycleReconnect, cfg.Lifecycle.Mode)
	assert.Equal(t, 5, cfg.Lifecycle.MaxRetries)
	assert.True(t, cfg.Telegram.Enabled)
	assert.True(t, cfg.Postgres.Enabled)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadRejectsBadLifecycle(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "k")
	path := writeConfig(t, "[lifecycle]\nmode = \"retry-forever\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lifecycle.mode")
}

func TestLoadRejectsIncompleteBackends(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "k")

	_, err := Load(writeConfig(t, "[kafka]\nenabled = true\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[telegram]\nenabled = true\n"))
	assert.Error(t, err)
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

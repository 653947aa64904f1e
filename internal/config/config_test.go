package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/hydratemate/internal/constants"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultConfigPath, cfg.Storage)
	assert.Equal(t, constants.PlatformDesktop, cfg.Platform)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, constants.DefaultWatchDebounce, cfg.Daemon.WatchDebounce)
}

func TestLoadYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("TEST_DB_DIR", dir)

	content := `
storage: ${TEST_DB_DIR}/water.db
timezone: UTC
platform: ios
log:
  level: info
notifications:
  enabled: false
daemon:
  watch_debounce: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "water.db"), cfg.Storage)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, constants.PlatformIOS, cfg.Platform)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Daemon.WatchDebounce)
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvStorage, "memory://")
	t.Setenv(EnvPlatform, "ANDROID")
	t.Setenv(EnvNotifications, "false")
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9999")
	t.Setenv(EnvSupabaseURL, "https://auth.example.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "memory://", cfg.Storage)
	assert.Equal(t, constants.PlatformAndroid, cfg.Platform)
	assert.False(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9999", cfg.Metrics.Addr)
	assert.Equal(t, "https://auth.example.test", cfg.Auth.URL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("HYDRATEMATE_TIMEZONE=UTC\n"), 0600))
	t.Cleanup(func() { os.Unsetenv(EnvTimezone) })

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("platform", func(t *testing.T) {
		t.Setenv(EnvPlatform, "windows-phone")
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})

	t.Run("timezone", func(t *testing.T) {
		t.Setenv(EnvTimezone, "Mars/Olympus")
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})

	t.Run("notifications flag", func(t *testing.T) {
		t.Setenv(EnvNotifications, "sometimes")
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0600))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Timezone = "UTC"
	cfg.Daemon.WatchDebounce = 3 * time.Second
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "UTC", loaded.Timezone)
	assert.Equal(t, 3*time.Second, loaded.Daemon.WatchDebounce)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "x"), ExpandHome("~/.config/x"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "postgres://u@h/db", ExpandHome("postgres://u@h/db"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.Launch.PollIntervalMs)
	assert.Equal(t, 50, cfg.Launch.MaxPollAttempts)
	assert.Equal(t, 200, cfg.Stabilize.IntervalMs)
	assert.Equal(t, 30, cfg.Stabilize.MaxAttempts)
	assert.Equal(t, 2, cfg.Stabilize.TolerancePx)
	assert.Equal(t, 3, cfg.Stabilize.RequiredMatches)
	assert.Equal(t, 200, cfg.Monitor.IntervalMs)
	assert.Equal(t, 2*time.Second, cfg.Apply.SettleDelay())
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Empty(t, cfg.Validate())
}

func TestInitReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
startup_profile: work
stabilize:
  max_attempts: 10
features:
  disable_wallpaper: true
`), 0o644))
	t.Setenv("DESKORG_MONITOR_INTERVAL_MS", "500")

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.StartupProfile)
	assert.Equal(t, 10, cfg.Stabilize.MaxAttempts)
	assert.Equal(t, 3, cfg.Stabilize.RequiredMatches)
	assert.True(t, cfg.Features.DisableWallpaper)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.Interval())
}

func TestInitMissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := Init(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInitWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := viper.New()
	require.NoError(t, Init(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default().Stabilize, cfg.Stabilize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative settle", func(c *Config) { c.Apply.SettleDelayMs = -1 }, "apply.settle_delay_ms"},
		{"zero attempts", func(c *Config) { c.Stabilize.MaxAttempts = 0 }, "stabilize.max_attempts"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad transport", func(c *Config) { c.Server.Transport = "tcp" }, "server.transport"},
		{"bad port", func(c *Config) { c.Server.Transport = "http"; c.Server.Port = 0 }, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestLoadReturnsValidationErrors(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("monitor.interval_ms", 0)
	_, err := Load(v)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "monitor.interval_ms", verrs[0].Field)
}

func TestResolveProfilesDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	cfg := Default()
	assert.Equal(t, "/cfg/desktop-organizer/profiles", cfg.ResolveProfilesDir())

	cfg.ProfilesDir = "/data/profiles"
	assert.Equal(t, "/data/profiles", cfg.ResolveProfilesDir())
}

// Package config loads desktop-organizer settings from a YAML file and
// DESKORG_* environment variables through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DESKORG_STABILIZE_MAX_ATTEMPTS.
const EnvPrefix = "DESKORG"

// Config represents the complete desktop-organizer configuration
type Config struct {
	// ProfilesDir holds one YAML file per profile. Empty means
	// <config dir>/profiles.
	ProfilesDir string `mapstructure:"profiles_dir"`
	// StartupProfile is applied when `serve` starts (empty = none)
	StartupProfile string `mapstructure:"startup_profile"`

	Logging   LoggingConfig   `mapstructure:"logging"`
	Launch    LaunchConfig    `mapstructure:"launch"`
	Stabilize StabilizeConfig `mapstructure:"stabilize"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Apply     ApplyConfig     `mapstructure:"apply"`
	Features  FeaturesConfig  `mapstructure:"features"`
	Wallpaper WallpaperConfig `mapstructure:"wallpaper"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default: "info")
	Level       string   `mapstructure:"level"`
	Development bool     `mapstructure:"development"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// LaunchConfig controls how long a launch waits for the main window
type LaunchConfig struct {
	PollIntervalMs  int `mapstructure:"poll_interval_ms"`
	MaxPollAttempts int `mapstructure:"max_poll_attempts"`
}

// StabilizeConfig controls the force-until-stable loop
type StabilizeConfig struct {
	IntervalMs      int `mapstructure:"interval_ms"`
	MaxAttempts     int `mapstructure:"max_attempts"`
	TolerancePx     int `mapstructure:"tolerance_px"`
	RequiredMatches int `mapstructure:"required_matches"`
}

// MonitorConfig controls per-process drift tracking
type MonitorConfig struct {
	IntervalMs int `mapstructure:"interval_ms"`
	// ForceWindowMs is how long after stabilization the monitor keeps
	// re-applying the saved geometry instead of accepting drift (0 = off)
	ForceWindowMs int `mapstructure:"force_window_ms"`
}

// ApplyConfig controls the profile applier
type ApplyConfig struct {
	SettleDelayMs int `mapstructure:"settle_delay_ms"`
	// RecenterOffsetPx pins windows larger than the primary display this far
	// from its top-left corner
	RecenterOffsetPx int `mapstructure:"recenter_offset_px"`
	// DesktopSwitchDelayMs is waited after switching virtual desktops
	DesktopSwitchDelayMs int `mapstructure:"desktop_switch_delay_ms"`
}

// FeaturesConfig switches optional collaborators off
type FeaturesConfig struct {
	DisableWallpaper      bool `mapstructure:"disable_wallpaper"`
	DisableVolume         bool `mapstructure:"disable_volume"`
	DisableVirtualDesktop bool `mapstructure:"disable_virtual_desktop"`
	DisableLiveTracking   bool `mapstructure:"disable_live_tracking"`
}

// WallpaperConfig controls the wallpaper collaborator
type WallpaperConfig struct {
	// BlockingProcesses are process names that own the desktop background;
	// while any of them runs, wallpaper changes are refused
	BlockingProcesses []string `mapstructure:"blocking_processes"`
}

// ServerConfig controls `serve`
type ServerConfig struct {
	// Transport is "stdio" or "http"
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
	// MetricsAddr exposes /metrics when non-empty, e.g. ":9464"
	MetricsAddr string `mapstructure:"metrics_addr"`
	CacheTTLMs  int    `mapstructure:"cache_ttl_ms"`
}

// Default returns a Config with the built-in values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:       "info",
			OutputPaths: []string{"stderr"},
		},
		Launch: LaunchConfig{
			PollIntervalMs:  100,
			MaxPollAttempts: 50,
		},
		Stabilize: StabilizeConfig{
			IntervalMs:      200,
			MaxAttempts:     30,
			TolerancePx:     2,
			RequiredMatches: 3,
		},
		Monitor: MonitorConfig{
			IntervalMs:    200,
			ForceWindowMs: 3000,
		},
		Apply: ApplyConfig{
			SettleDelayMs:        2000,
			RecenterOffsetPx:     50,
			DesktopSwitchDelayMs: 800,
		},
		Wallpaper: WallpaperConfig{
			BlockingProcesses: []string{"wallpaper32", "wallpaper64", "wallpaperengine", "linux-wallpaperengine"},
		},
		Server: ServerConfig{
			Transport:  "stdio",
			Port:       8090,
			CacheTTLMs: 1000,
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("profiles_dir", d.ProfilesDir)
	v.SetDefault("startup_profile", d.StartupProfile)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)

	v.SetDefault("launch.poll_interval_ms", d.Launch.PollIntervalMs)
	v.SetDefault("launch.max_poll_attempts", d.Launch.MaxPollAttempts)

	v.SetDefault("stabilize.interval_ms", d.Stabilize.IntervalMs)
	v.SetDefault("stabilize.max_attempts", d.Stabilize.MaxAttempts)
	v.SetDefault("stabilize.tolerance_px", d.Stabilize.TolerancePx)
	v.SetDefault("stabilize.required_matches", d.Stabilize.RequiredMatches)

	v.SetDefault("monitor.interval_ms", d.Monitor.IntervalMs)
	v.SetDefault("monitor.force_window_ms", d.Monitor.ForceWindowMs)

	v.SetDefault("apply.settle_delay_ms", d.Apply.SettleDelayMs)
	v.SetDefault("apply.recenter_offset_px", d.Apply.RecenterOffsetPx)
	v.SetDefault("apply.desktop_switch_delay_ms", d.Apply.DesktopSwitchDelayMs)

	v.SetDefault("features.disable_wallpaper", d.Features.DisableWallpaper)
	v.SetDefault("features.disable_volume", d.Features.DisableVolume)
	v.SetDefault("features.disable_virtual_desktop", d.Features.DisableVirtualDesktop)
	v.SetDefault("features.disable_live_tracking", d.Features.DisableLiveTracking)

	v.SetDefault("wallpaper.blocking_processes", d.Wallpaper.BlockingProcesses)

	v.SetDefault("server.transport", d.Server.Transport)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
	v.SetDefault("server.cache_ttl_ms", d.Server.CacheTTLMs)
}

// Init points v at the config file and environment. An explicit path must
// exist; the default file is optional.
func Init(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "desktop-organizer")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".desktop-organizer"
	}
	return filepath.Join(home, ".config", "desktop-organizer")
}

// ResolveProfilesDir returns ProfilesDir with ~ expanded, defaulting to
// <config dir>/profiles.
func (c *Config) ResolveProfilesDir() string {
	if c.ProfilesDir == "" {
		return filepath.Join(ConfigDir(), "profiles")
	}
	path := c.ProfilesDir
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// PollInterval returns the launch poll interval as a time.Duration
func (c LaunchConfig) PollInterval() time.Duration { return ms(c.PollIntervalMs) }

// Interval returns the stabilization interval as a time.Duration
func (c StabilizeConfig) Interval() time.Duration { return ms(c.IntervalMs) }

// Interval returns the monitor cycle as a time.Duration
func (c MonitorConfig) Interval() time.Duration { return ms(c.IntervalMs) }

// ForceWindow returns the post-stabilization force window as a time.Duration
func (c MonitorConfig) ForceWindow() time.Duration { return ms(c.ForceWindowMs) }

// SettleDelay returns the post-launch settle delay as a time.Duration
func (c ApplyConfig) SettleDelay() time.Duration { return ms(c.SettleDelayMs) }

// DesktopSwitchDelay returns the pause after a virtual desktop switch
func (c ApplyConfig) DesktopSwitchDelay() time.Duration { return ms(c.DesktopSwitchDelayMs) }

// CacheTTL returns the window-list cache TTL as a time.Duration
func (c ServerConfig) CacheTTL() time.Duration { return ms(c.CacheTTLMs) }

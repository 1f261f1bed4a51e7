package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable bound to a key.
const EnvPrefix = "XMOD"

// Config represents the complete xmod configuration
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Clock       ClockConfig       `mapstructure:"clock"`
	Signals     SignalsConfig     `mapstructure:"signals"`
	Walk        WalkConfig        `mapstructure:"walk"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
}

// LogConfig controls the shared event log
type LogConfig struct {
	// Filename is the event log path. Empty disables event logging.
	Filename string `mapstructure:"filename"`
}

// ClockConfig controls the logical clock of the root process
type ClockConfig struct {
	// BaseMs is the offset the root's clock starts at (default: 0)
	BaseMs int64 `mapstructure:"base_ms"`
}

// SignalsConfig controls the cancellation protocol
type SignalsConfig struct {
	// SettleMs is the pause between the status query and the prompt (default: 100)
	SettleMs int `mapstructure:"settle_ms"`
	// TerminateGraceMs bounds the leader's wait for its own terminate (default: 1000)
	TerminateGraceMs int `mapstructure:"terminate_grace_ms"`
	// ConfirmInput is "auto", "stdin" or "tty" (default: "auto")
	ConfirmInput string `mapstructure:"confirm_input"`
}

// WalkConfig controls the traversal
type WalkConfig struct {
	// ThrottleMs pauses after every directory entry (default: 0)
	ThrottleMs int `mapstructure:"throttle_ms"`
}

// DiagnosticsConfig controls the slog diagnostic logger
type DiagnosticsConfig struct {
	// Level is "debug", "info", "warn" or "error" (default: "warn")
	Level string `mapstructure:"level"`
	// File receives diagnostics; empty means stderr
	File string `mapstructure:"file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Filename: "",
		},
		Clock: ClockConfig{
			BaseMs: 0,
		},
		Signals: SignalsConfig{
			SettleMs:         100,
			TerminateGraceMs: 1000,
			ConfirmInput:     "auto",
		},
		Walk: WalkConfig{
			ThrottleMs: 0,
		},
		Diagnostics: DiagnosticsConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// Base returns the root's clock offset as a time.Duration
func (c *ClockConfig) Base() time.Duration {
	return time.Duration(c.BaseMs) * time.Millisecond
}

// Settle returns the settle delay as a time.Duration
func (c *SignalsConfig) Settle() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}

// TerminateGrace returns the terminate grace period as a time.Duration
func (c *SignalsConfig) TerminateGrace() time.Duration {
	return time.Duration(c.TerminateGraceMs) * time.Millisecond
}

// Throttle returns the per-entry pause as a time.Duration (0 means none)
func (c *WalkConfig) Throttle() time.Duration {
	return time.Duration(c.ThrottleMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Event log defaults
	viper.SetDefault("log.filename", defaults.Log.Filename)

	// Clock defaults
	viper.SetDefault("clock.base_ms", defaults.Clock.BaseMs)

	// Signal defaults
	viper.SetDefault("signals.settle_ms", defaults.Signals.SettleMs)
	viper.SetDefault("signals.terminate_grace_ms", defaults.Signals.TerminateGraceMs)
	viper.SetDefault("signals.confirm_input", defaults.Signals.ConfirmInput)

	// Walk defaults
	viper.SetDefault("walk.throttle_ms", defaults.Walk.ThrottleMs)

	// Diagnostics defaults
	viper.SetDefault("diagnostics.level", defaults.Diagnostics.Level)
	viper.SetDefault("diagnostics.file", defaults.Diagnostics.File)
}

// BindEnv binds environment variables to keys. Every key answers to
// XMOD_<KEY> with dots replaced by underscores; the event log and the clock
// also answer to their historical unprefixed names.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("log.filename", "XMOD_LOG_FILENAME", "LOG_FILENAME")
	_ = viper.BindEnv("clock.base_ms", "XMOD_BASE_TIME", "BASE_TIME")
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "xmod")
	}
	// Fall back to ~/.config/xmod
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xmod"
	}
	return filepath.Join(home, ".config", "xmod")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Package config loads spacesim runtime settings.
//
// Settings come, lowest precedence first, from built-in defaults, an
// optional spacesim.yaml (working directory or an explicit path) and
// SPACESIM_* environment variables. Vehicle definitions are not settings;
// they live in CUE files loaded by package vehicle.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys.
const (
	KeyLogLevel = "log_level"
	KeyDBPath   = "db_path"
	KeyRate     = "rate"
	KeyDuration = "duration"
)

// EnvPrefix prefixes environment overrides (SPACESIM_DB_PATH etc).
const EnvPrefix = "SPACESIM"

// Settings holds the resolved runtime settings.
type Settings struct {
	LogLevel string        `mapstructure:"log_level"`
	DBPath   string        `mapstructure:"db_path"`
	Rate     float64       `mapstructure:"rate"`
	Duration time.Duration `mapstructure:"duration"`
}

// Load resolves settings. An empty path searches the working directory for
// spacesim.yaml and tolerates its absence; an explicit path must exist.
func Load(path string) (Settings, error) {
	v := viper.New()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDBPath, "spacesim.db")
	v.SetDefault(KeyRate, 0) // 0: use the vehicle's own clock rate
	v.SetDefault(KeyDuration, "10s")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spacesim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Rate < 0 {
		return fmt.Errorf("%s must be >= 0, got %v", KeyRate, s.Rate)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%s must be >= 0, got %v", KeyDuration, s.Duration)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the slog level for LogLevel, defaulting to Info.
func (s Settings) SlogLevel() slog.Level {
	l, err := ParseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel maps debug, info, warn and error (any case) to slog levels.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%s: unknown level %q", KeyLogLevel, name)
	}
	return l, nil
}

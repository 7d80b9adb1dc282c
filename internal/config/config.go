// Package config loads application configuration from Viper, combining the
// config file, REMIT_ environment variables, and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/remitware/remit/internal/common"
)

// Defaults applied when neither the config file nor the environment sets
// a value.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultOutcomeWindowDays   = 90
)

// Config is the resolved application configuration.
type Config struct {
	DatabasePath        string
	LogLevel            string
	LogFormat           string
	ConfidenceThreshold float64
	OutcomeWindowDays   int
	AutoExecute         bool
}

// Load resolves configuration from Viper. Call after Viper has read the
// config file and bound the environment.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:        viper.GetString("database.path"),
		ConfidenceThreshold: viper.GetFloat64("engine.confidence_threshold"),
		AutoExecute:         viper.GetBool("engine.auto_execute"),
		OutcomeWindowDays:   viper.GetInt("outcomes.window_days"),
		LogLevel:            viper.GetString("logging.level"),
		LogFormat:           viper.GetString("logging.format"),
	}

	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: database.path not set and home directory unavailable", common.ErrMissingConfig)
		}
		cfg.DatabasePath = filepath.Join(home, ".local", "share", "remit", "remit.db")
	} else {
		cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	}

	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("%w: engine.confidence_threshold must be between 0 and 1", common.ErrInvalidConfig)
	}
	if cfg.OutcomeWindowDays == 0 {
		cfg.OutcomeWindowDays = DefaultOutcomeWindowDays
	}
	if cfg.OutcomeWindowDays < 0 {
		return nil, fmt.Errorf("%w: outcomes.window_days must be positive", common.ErrInvalidConfig)
	}

	return cfg, nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

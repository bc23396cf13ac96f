package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override configuration keys.
const EnvPrefix = "YAMLCHECK_"

// Configuration represents the yamlcheck configuration
type Configuration struct {
	ListenAddr     string `koanf:"listen_addr" validate:"required,hostname_port"`
	RulesFile      string `koanf:"rules_file"`
	WatchRules     bool   `koanf:"watch_rules"`
	LogLevel       string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string `koanf:"log_format" validate:"oneof=text json"`
	StateDir       string `koanf:"state_dir" validate:"required"`
	MaxHistory     int    `koanf:"max_history" validate:"min=0,max=10000"` // 0 disables history
	MaxBodyBytes   int64  `koanf:"max_body_bytes" validate:"min=1024"`
	MetricsEnabled bool   `koanf:"metrics_enabled"`
}

// GlobalConfigPath returns ~/.yamlcheck/config.json, or "" when the home directory is unknown.
func GlobalConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".yamlcheck", "config.json")
}

// Load loads configuration from global, local, and environment sources
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	if globalPath := GlobalConfigPath(); globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load global config: %w", err)
			}
		}
	}

	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err == nil {
			if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load local config: %w", err)
			}
		}
	}

	// Environment variables have the highest priority.
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.RulesFile = expandHomePath(cfg.RulesFile)

	return &cfg, nil
}

// HistoryPath returns the validation history file inside the state directory.
func (c *Configuration) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.yaml")
}

// envTransform converts environment variable names to config keys
// Example: YAMLCHECK_MAX_HISTORY -> max_history
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

package shared

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/config"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/logging"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
)

// DefaultConfigPath is the local config file read when --config is not given.
const DefaultConfigPath = ".yamlcheck.json"

// AddPersistentFlags registers the global flags every command reads through LoadRuntime.
func AddPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringP("config", "c", DefaultConfigPath, "Path to config file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "Log format (text, json)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

// Runtime is the loaded configuration and logger for one command invocation.
type Runtime struct {
	Config     *config.Configuration
	ConfigPath string
	Logger     *slog.Logger
}

// LoadRuntime loads configuration, applies flag overrides and builds the logger. Logs go to the
// command's stderr so stdout stays clean for results.
func LoadRuntime(cmd *cobra.Command) (*Runtime, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.LogFormat = format
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	ConfigureColor(cmd.OutOrStdout(), noColor)

	return &Runtime{Config: cfg, ConfigPath: configPath, Logger: logger}, nil
}

// LoadRules loads the rule table named by override, falling back to the configured rules file and
// then to the built-in table.
func (rt *Runtime) LoadRules(override string) (*rules.Table, error) {
	path := rt.Config.RulesFile
	if override != "" {
		path = override
	}
	table, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return table, nil
}

// RulesPath returns the rules file in effect for override, or "" for the built-in table.
func (rt *Runtime) RulesPath(override string) string {
	if override != "" {
		return override
	}
	return rt.Config.RulesFile
}

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a starter configuration file holding every setting at its default.

By default the file is written to the local config path (--config, default
.yamlcheck.json). Use --global to write ~/.yamlcheck/config.json instead.

If the file already exists, it is left unchanged (use --force to overwrite).`,
		Example: `  # Create .yamlcheck.json in the current directory
  yamlcheck init

  # Create the user-level config
  yamlcheck init --global

  # Reset an existing config to defaults
  yamlcheck init --force`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().BoolP("global", "g", false, "Write the user-level config (~/.yamlcheck/config.json)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config with defaults")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	global, _ := cmd.Flags().GetBool("global")
	force, _ := cmd.Flags().GetBool("force")
	noColor, _ := cmd.Flags().GetBool("no-color")
	out := cmd.OutOrStdout()
	shared.ConfigureColor(out, noColor)
	c := shared.NewColors()

	path, _ := cmd.Flags().GetString("config")
	if global {
		path = config.GlobalConfigPath()
		if path == "" {
			return errors.New("cannot determine home directory for the global config")
		}
	}

	exists := fileExists(path)
	if exists && !force {
		fmt.Fprintf(out, "%s %s: exists at %s\n", c.Green("✓"), c.Bold("Config"), c.Dim(path))
		return nil
	}

	if err := writeDefaultConfig(path); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	verb := "created"
	if exists {
		verb = "overwritten"
	}
	fmt.Fprintf(out, "%s %s: %s at %s\n", c.Green("✓"), c.Bold("Config"), verb, c.Dim(path))
	return nil
}

func writeDefaultConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

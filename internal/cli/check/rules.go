package check

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule table",
		Long: `Print the rule table validation would use: the --rules file, else rules_file
from config, else the built-in table.`,
		Example: `  yamlcheck rules
  yamlcheck rules --rules rules.json --json`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().Bool("json", false, "Print as JSON instead of YAML")
	cmd.Flags().String("rules", "", "Rules file (overrides rules_file from config)")
	return cmd
}

func runRules(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	rulesPath, _ := cmd.Flags().GetString("rules")

	rt, err := shared.LoadRuntime(cmd)
	if err != nil {
		return err
	}
	table, err := rt.LoadRules(rulesPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return shared.NewExitError(shared.ExitInvalidArguments)
	}

	out := cmd.OutOrStdout()
	summary := table.Summary()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("encoding rules: %w", err)
		}
		return nil
	}

	source := rt.RulesPath(rulesPath)
	if source == "" {
		source = "built-in"
	}
	fmt.Fprintf(out, "# rules: %s\n", source)
	enc := yamlv3.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	return enc.Close()
}

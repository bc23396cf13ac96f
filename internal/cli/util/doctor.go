package util

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/health"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, rules and state directory",
		Long: `Run the same checks the /health endpoint reports:
  - config files are well-formed JSON
  - config values are valid
  - the rules file loads
  - the state directory is writable`,
		Example: `  yamlcheck doctor
  yamlcheck doctor --json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	rt, err := shared.LoadRuntime(cmd)
	if err != nil {
		return err
	}

	report := health.RunHealthChecks(rt.Config, rt.ConfigPath)
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		fmt.Fprint(out, health.FormatReport(report))
	}

	if !report.Passed {
		return shared.NewExitError(shared.ExitValidationFailed)
	}
	return nil
}

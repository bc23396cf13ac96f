package check

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/locator"
)

func newLocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <file> <path>",
		Short: "Print the line a dotted key path is declared on",
		Long: `Print the 1-based line on which the last segment of a dotted key path is
declared. Numeric segments select sequence items by index.

Returns exit code 1 when the path is not found.`,
		Example: `  yamlcheck locate plan.yaml hardware.gpu
  yamlcheck locate plan.yaml hardware.machines.1.hostname`,
		Args: cobra.ExactArgs(2),
		RunE: runLocate,
	}
	cmd.GroupID = shared.GroupValidation
	return cmd
}

func runLocate(cmd *cobra.Command, args []string) error {
	path, key := args[0], args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to open file %s: %v\n", path, err)
		return shared.NewExitError(shared.ExitInvalidArguments)
	}

	line := locator.FindLine(string(data), key)
	if line == locator.NotFound {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s not found in %s\n", key, path)
		return shared.NewExitError(shared.ExitValidationFailed)
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

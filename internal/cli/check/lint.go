package check

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/yaml"
)

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <file>",
		Short: "Check YAML syntax and indentation",
		Long: `Check a YAML file for syntax errors and common indentation mistakes.

Reports every problem found with its line and column, sorted by line. With
--syntax-only only the YAML parser runs and the first syntax error is reported.
Returns exit code 0 when the file is clean and 1 when problems were found.`,
		Example: `  yamlcheck lint plan.yaml
  yamlcheck lint --json plan.yaml
  yamlcheck lint --syntax-only plan.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runLint,
	}
	cmd.GroupID = shared.GroupValidation
	cmd.Flags().Bool("json", false, "Print problems as JSON")
	cmd.Flags().Bool("syntax-only", false, "Run the YAML parser only, without indentation heuristics")
	return cmd
}

func runLint(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	syntaxOnly, _ := cmd.Flags().GetBool("syntax-only")
	path := args[0]

	rt, err := shared.LoadRuntime(cmd)
	if err != nil {
		return err
	}

	problems, err := lintFile(path, syntaxOnly)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return shared.NewExitError(shared.ExitInvalidArguments)
	}
	rt.Logger.Debug("lint finished", "file", path, "syntax_only", syntaxOnly, "problems", len(problems))

	out := cmd.OutOrStdout()
	if asJSON {
		if problems == nil {
			problems = []*yaml.ValidationError{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(problems); err != nil {
			return fmt.Errorf("encoding problems: %w", err)
		}
	} else {
		c := shared.NewColors()
		if len(problems) == 0 {
			fmt.Fprintf(out, "%s %s is valid YAML\n", c.Green("✓"), path)
		} else {
			fmt.Fprintf(out, "%s %s has %d problem(s):\n", c.Red("✗"), path, len(problems))
			for _, p := range problems {
				fmt.Fprintf(out, "  %s\n", p.Error())
			}
		}
	}

	if len(problems) > 0 {
		return shared.NewExitError(shared.ExitValidationFailed)
	}
	return nil
}

// lintFile returns the problems found in path. An error means the file could not be read.
func lintFile(path string, syntaxOnly bool) ([]*yaml.ValidationError, error) {
	if syntaxOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open file %s: %w", path, err)
		}
		if ve := yaml.ValidateFileWithDetails(path); ve != nil {
			return []*yaml.ValidationError{ve}, nil
		}
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	problems := yaml.Lint(string(data))
	for _, p := range problems {
		p.File = path
	}
	return problems, nil
}

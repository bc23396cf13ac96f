package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/engine"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/history"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/validation"
)

// stdinPath reads the document from standard input.
const stdinPath = "-"

// FileVerdict is the result of validating one file.
type FileVerdict struct {
	File    string          `json:"file"`
	Verdict *engine.Verdict `json:"verdict,omitempty"`
	// ReadError is set when the file could not be read; Verdict is nil then.
	ReadError string `json:"readError,omitempty"`
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate YAML documents against the rule table",
		Long: `Validate one or more YAML documents against the rule table.

Files are validated concurrently. Each file gets exactly one verdict: the first
failing rule, or success. Use "-" to read a document from standard input.

Exit codes:
  0  every document is valid
  1  at least one document failed validation
  3  a file could not be read or the rules could not be loaded`,
		Example: `  yamlcheck validate plan.yaml
  yamlcheck validate --json plans/*.yaml
  cat plan.yaml | yamlcheck validate -`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}
	cmd.GroupID = shared.GroupValidation
	cmd.Flags().Bool("json", false, "Print verdicts as JSON")
	cmd.Flags().String("rules", "", "Rules file (overrides rules_file from config)")
	cmd.Flags().IntP("parallel", "p", 4, "Maximum files validated at once")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	rulesPath, _ := cmd.Flags().GetString("rules")
	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", parallel)
	}

	rt, err := shared.LoadRuntime(cmd)
	if err != nil {
		return err
	}
	table, err := rt.LoadRules(rulesPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return shared.NewExitError(shared.ExitInvalidArguments)
	}

	v := validation.New(table, validation.WithLogger(rt.Logger))
	writer := history.NewWriter(rt.Config.StateDir, rt.Config.MaxHistory, rt.Logger)

	results, err := validateFiles(cmd.Context(), v, writer, args, cmd.InOrStdin(), parallel)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		printVerdicts(cmd.OutOrStdout(), results)
	}

	if code := exitCodeFor(results); code != shared.ExitSuccess {
		return shared.NewExitError(code)
	}
	return nil
}

// validateFiles validates paths with at most parallel files in flight. Results keep the order of
// paths. Standard input is read once however often "-" appears.
func validateFiles(ctx context.Context, v *validation.Validator, writer *history.Writer, paths []string, stdin io.Reader, parallel int) ([]FileVerdict, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]FileVerdict, len(paths))
	readStdin := sync.OnceValues(func() ([]byte, error) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateFile(v, writer, path, readStdin)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validating files: %w", err)
	}
	return results, nil
}

func validateFile(v *validation.Validator, writer *history.Writer, path string, readStdin func() ([]byte, error)) FileVerdict {
	data, err := readInput(path, readStdin)
	if err != nil {
		return FileVerdict{File: path, ReadError: err.Error()}
	}

	start := time.Now()
	verdict := v.ValidateText(data)
	writer.LogVerdict(history.SourceCLI, path, verdict, time.Since(start))
	return FileVerdict{File: path, Verdict: &verdict}
}

func readInput(path string, readStdin func() ([]byte, error)) ([]byte, error) {
	if path == stdinPath {
		return readStdin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func printVerdicts(out io.Writer, results []FileVerdict) {
	c := shared.NewColors()
	for _, r := range results {
		switch {
		case r.ReadError != "":
			fmt.Fprintf(out, "%s %s: %s\n", c.Red("✗"), r.File, r.ReadError)
		case r.Verdict.Valid:
			fmt.Fprintf(out, "%s %s\n", c.Green("✓"), r.File)
		default:
			fmt.Fprintf(out, "%s %s: %s\n", c.Red("✗"), r.File, r.Verdict.Message)
			if r.Verdict.Line > 0 {
				fmt.Fprintf(out, "  %s %s:%d (%s)\n", c.Dim("at"), r.File, r.Verdict.Line, r.Verdict.Key)
			}
		}
	}
}

func exitCodeFor(results []FileVerdict) int {
	code := shared.ExitSuccess
	for _, r := range results {
		if r.ReadError != "" {
			return shared.ExitInvalidArguments
		}
		if !r.Verdict.Valid {
			code = shared.ExitValidationFailed
		}
	}
	return code
}

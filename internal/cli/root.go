// Package cli provides the Cobra-based yamlcheck command line: document validation (validate, lint,
// locate, rules), the HTTP service (serve) and utilities (history, doctor, version).
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/check"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/service"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/util"
)

// NewRootCmd builds the yamlcheck command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "yamlcheck",
		Short: "Rule-driven structural validation for YAML test plans",
		Long: `yamlcheck validates YAML test plans against a rule table.

Documents are checked for required keys (E001), empty values (E002), value
types (E101) and whitelisted values (E102). Failures that point at a single
value report the line it is declared on.`,
		Example: `  # Validate one or more plans
  yamlcheck validate plan.yaml other.yaml

  # Machine-readable verdicts with a custom rule table
  yamlcheck validate --json --rules rules.json plan.yaml

  # Check syntax and indentation only
  yamlcheck lint plan.yaml

  # Run the HTTP API
  yamlcheck serve --addr :8000`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupValidation, Title: "Validation:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupService, Title: "Service:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"})
	rootCmd.SetHelpCommandGroupID(shared.GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(shared.GroupConfiguration)

	shared.AddPersistentFlags(rootCmd)

	check.Register(rootCmd)
	service.Register(rootCmd)
	util.Register(rootCmd)

	return rootCmd
}

// Execute runs the command line with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err != nil && !shared.IsExitError(err) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return shared.ExitCode(err)
}

// Main is the entry point used by cmd/yamlcheck.
func Main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}

// Package check provides the document validation commands: validate, lint, locate and rules.
package check

import (
	"github.com/spf13/cobra"
)

// Register adds all validation commands to the root command.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newLocateCmd())
	rootCmd.AddCommand(newRulesCmd())
}

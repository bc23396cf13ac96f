// Package service provides the serve command, which runs the validation HTTP API.
package service

import (
	"github.com/spf13/cobra"
)

// Register adds the service commands to the root command.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newServeCmd())
}

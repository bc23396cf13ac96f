package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/build"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for yamlcheck",
		Example: `  # Show version info
  yamlcheck version

  # Plain output (for scripts)
  yamlcheck version --plain`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			plain, _ := cmd.Flags().GetBool("plain")
			noColor, _ := cmd.Flags().GetBool("no-color")
			shared.ConfigureColor(cmd.OutOrStdout(), noColor)
			if plain {
				printPlainVersion(cmd.OutOrStdout())
			} else {
				printPrettyVersion(cmd.OutOrStdout())
			}
		},
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().Bool("plain", false, "Plain output without formatting")
	return cmd
}

type versionField struct {
	label string
	value string
}

func versionFields() []versionField {
	return []versionField{
		{"Version", build.Version},
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "yamlcheck %s\n", build.Version)
	fmt.Fprintf(out, "commit: %s\n", build.Commit)
	fmt.Fprintf(out, "built: %s\n", build.BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printPrettyVersion prints the version fields inside a box sized to the terminal.
func printPrettyVersion(out io.Writer) {
	c := shared.NewColors()

	boxWidth := 44
	if termWidth := shared.GetTerminalWidth(); termWidth < 50 {
		boxWidth = termWidth - 6
	}
	inner := boxWidth - 2

	fmt.Fprintln(out)
	fmt.Fprintln(out, c.Cyan("yamlcheck")+" "+c.Dim("rule-driven YAML validation"))
	fmt.Fprintln(out, "╭"+strings.Repeat("─", inner)+"╮")
	for _, f := range versionFields() {
		line := fmt.Sprintf(" %10s  %s", f.label, f.value)
		if pad := inner - len(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		line = strings.Replace(line, f.label, c.Yellow(f.label), 1)
		fmt.Fprintln(out, "│"+line+"│")
	}
	fmt.Fprintln(out, "╰"+strings.Repeat("─", inner)+"╯")
	fmt.Fprintln(out)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

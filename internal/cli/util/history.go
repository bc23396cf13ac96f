package util

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View validation history",
		Long:  `View a log of recent validation runs with timestamp, source, target, verdict and duration.`,
		Example: `  yamlcheck history
  yamlcheck history -n 20 --failed
  yamlcheck history --source api
  yamlcheck history --clear`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	cmd.Flags().Bool("clear", false, "Clear all history")
	cmd.Flags().Bool("failed", false, "Show failed runs only")
	cmd.Flags().String("source", "", "Filter by source (cli, api, upload)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := shared.LoadRuntime(cmd)
	if err != nil {
		return err
	}
	return runHistoryWithStateDir(cmd, rt.Config.StateDir)
}

// runHistoryWithStateDir runs the history command against stateDir.
func runHistoryWithStateDir(cmd *cobra.Command, stateDir string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	failedOnly, _ := cmd.Flags().GetBool("failed")
	sourceFilter, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	if clearFlag {
		if err := history.ClearHistory(stateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := filterEntries(histFile.Entries, sourceFilter, failedOnly, limit)
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), buildEmptyMessage(sourceFilter, failedOnly))
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// buildEmptyMessage creates an appropriate message when no entries match filters.
func buildEmptyMessage(sourceFilter string, failedOnly bool) string {
	switch {
	case sourceFilter != "" && failedOnly:
		return fmt.Sprintf("No failed runs from source '%s'.", sourceFilter)
	case sourceFilter != "":
		return fmt.Sprintf("No matching entries for source '%s'.", sourceFilter)
	case failedOnly:
		return "No failed runs."
	}
	return "No history available."
}

// filterEntries filters entries and keeps the most recent limit of them, oldest first.
func filterEntries(entries []history.HistoryEntry, sourceFilter string, failedOnly bool, limit int) []history.HistoryEntry {
	var result []history.HistoryEntry
	for _, entry := range entries {
		if sourceFilter != "" && entry.Source != sourceFilter {
			continue
		}
		if failedOnly && entry.Success {
			continue
		}
		result = append(result, entry)
	}

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")

		target := entry.Target
		if target == "" {
			target = "-"
		}

		verdict := green(fmt.Sprintf("%-6s", "ok"))
		if !entry.Success {
			verdict = red(fmt.Sprintf("%-6s", entry.Code))
		}

		fmt.Fprintf(out, "%s  %-6s  %s  %-30s  %s\n",
			cyan(timestamp),
			entry.Source,
			verdict,
			target,
			entry.Duration,
		)
		if !entry.Success {
			fmt.Fprintf(out, "    %s%s\n", entry.Message, formatLocation(entry))
		}
	}
}

// formatLocation returns " (key, line N)" for located failures.
func formatLocation(entry history.HistoryEntry) string {
	if entry.Line <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%s, line %d)", entry.Key, entry.Line)
}

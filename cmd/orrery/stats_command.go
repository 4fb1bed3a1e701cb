package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and pass statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Catalog", colorize))
			statuses := make([]string, 0, len(stats.Candidates))
			for status := range stats.Candidates {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			total := 0
			for _, status := range statuses {
				count := stats.Candidates[status]
				total += count
				fmt.Fprintln(out, renderStatusLine(displayStatus(status), statusInfo, fmt.Sprintf("%d", count), colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", total), colorize))

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Passes", colorize))
			passes := stats.Passes
			fmt.Fprintln(out, renderStatusLine("Recorded", statusInfo, fmt.Sprintf("%d", passes.Total), colorize))
			fmt.Fprintln(out, renderStatusLine("Succeeded", statusOK, fmt.Sprintf("%d", passes.Succeeded), colorize))
			failKind := statusInfo
			if passes.Failed > 0 {
				failKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failKind, fmt.Sprintf("%d", passes.Failed), colorize))
			totals := fmt.Sprintf("fetched=%d new=%d confirmed=%d dispatched=%d errors=%d",
				passes.Fetched, passes.New, passes.Confirmed, passes.Dispatched, passes.Errors)
			fmt.Fprintln(out, renderStatusLine("Totals", statusInfo, totals, colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

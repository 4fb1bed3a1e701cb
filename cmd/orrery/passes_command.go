package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPassesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Show the synchronization pass history",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			passes, err := client.Passes(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, passes)
			}
			if len(passes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No passes recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(passes))
			for _, pass := range passes {
				result := "ok"
				if !pass.Success {
					result = "failed"
				}
				rows = append(rows, []string{
					displayTime(pass.StartedAt),
					result,
					displayDuration(pass.DurationSeconds),
					fmt.Sprintf("%d", pass.Counts.Fetched),
					fmt.Sprintf("%d", pass.Counts.New),
					fmt.Sprintf("%d", pass.Counts.Confirmed),
					fmt.Sprintf("%d", pass.Counts.FalsePositives),
					fmt.Sprintf("%d", pass.Counts.Errors),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Result", "Duration", "Fetched", "New", "Confirmed", "False Pos", "Errors"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of passes to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

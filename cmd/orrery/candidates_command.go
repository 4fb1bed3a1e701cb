package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"orrery/internal/api"
	"orrery/internal/control"
)

func newCandidatesCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "candidates [identity]",
		Short: "List catalog records or show one by identity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return showCandidate(cmd, client, args[0], jsonOutput)
			}

			candidates, err := client.Candidates(cmd.Context(), statusFilter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, candidates)
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records in the catalog.")
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for _, candidate := range candidates {
				confidence := "-"
				if candidate.Verdict != nil {
					confidence = displayConfidence(candidate.Verdict.Confidence)
				}
				rows = append(rows, []string{
					candidate.Identity,
					displayStatus(candidate.Status),
					orDash(candidate.AssignedName),
					orDash(candidate.Category),
					confidence,
					displayTime(candidate.SyncedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Identity", "Status", "Designation", "Category", "Confidence", "Synced"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Filter by status (confirmed, candidate, false_positive)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func showCandidate(cmd *cobra.Command, client *control.Client, identity string, jsonOutput bool) error {
	candidate, err := client.Candidate(cmd.Context(), identity)
	if errors.Is(err, control.ErrNotFound) {
		return fmt.Errorf("no record with identity %q", identity)
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, candidate)
	}
	renderCandidate(cmd, candidate)
	return nil
}

func renderCandidate(cmd *cobra.Command, candidate *api.Candidate) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderSectionHeader(candidate.Identity, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", statusInfo, displayStatus(candidate.Status), colorize))
	if candidate.AssignedName != "" {
		fmt.Fprintln(out, renderStatusLine("Designation", statusOK, candidate.AssignedName, colorize))
	}
	if candidate.Category != "" {
		fmt.Fprintln(out, renderStatusLine("Category", statusInfo, candidate.Category, colorize))
	}
	if candidate.Verdict != nil {
		verdictText := fmt.Sprintf("%s (%s)", candidate.Verdict.Label, displayConfidence(candidate.Verdict.Confidence))
		fmt.Fprintln(out, renderStatusLine("Verdict", statusInfo, verdictText, colorize))
		if candidate.Verdict.Explanation != "" {
			fmt.Fprintln(out, renderStatusLine("Explanation", statusInfo, candidate.Verdict.Explanation, colorize))
		}
	}
	source := "archive disposition"
	if candidate.ClassifiedByAutomation {
		source = "automated classification"
	}
	fmt.Fprintln(out, renderStatusLine("Classified By", statusInfo, source, colorize))
	if candidate.SyncedAt != "" {
		fmt.Fprintln(out, renderStatusLine("Synced", statusInfo, displayTime(candidate.SyncedAt), colorize))
	}
	if len(candidate.Fields) > 0 {
		fmt.Fprintln(out, renderStatusLine("Fields", statusInfo, string(candidate.Fields), colorize))
	}
}

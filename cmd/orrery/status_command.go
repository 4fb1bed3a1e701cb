package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orrery/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, status *api.StatusResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
	daemonKind := statusError
	daemonText := "stopped"
	if status.Running {
		daemonKind = statusOK
		daemonText = "running"
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonText, colorize))

	passKind := statusInfo
	passText := "idle"
	if status.PassRunning {
		passKind = statusWarn
		passText = "pass in progress"
	}
	fmt.Fprintln(out, renderStatusLine("Synchronization", passKind, passText, colorize))

	schedKind := statusInfo
	schedText := "disarmed"
	if status.Scheduler.Active {
		schedKind = statusOK
		schedText = fmt.Sprintf("%s (%s)", status.Scheduler.Pattern, status.Scheduler.Timezone)
		if status.Scheduler.NextRunAt != "" {
			schedText += ", next " + displayTime(status.Scheduler.NextRunAt)
		}
	}
	fmt.Fprintln(out, renderStatusLine("Scheduler", schedKind, schedText, colorize))

	if status.DatabasePath != "" {
		fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	}

	if status.LastPass != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderSectionHeader("Last Pass", colorize))
		renderPassSummary(cmd, status.LastPass, colorize)
	}
}

func renderPassSummary(cmd *cobra.Command, pass *api.Pass, colorize bool) {
	out := cmd.OutOrStdout()
	kind := statusOK
	text := "succeeded"
	if !pass.Success {
		kind = statusError
		text = "failed"
		if pass.Message != "" {
			text += ": " + pass.Message
		}
	}
	fmt.Fprintln(out, renderStatusLine("Result", kind, text, colorize))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, displayTime(pass.StartedAt), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, displayDuration(pass.DurationSeconds), colorize))
	counts := fmt.Sprintf("fetched=%d new=%d confirmed=%d falsePositives=%d dispatched=%d errors=%d",
		pass.Counts.Fetched, pass.Counts.New, pass.Counts.Confirmed,
		pass.Counts.FalsePositives, pass.Counts.Dispatched, pass.Counts.Errors)
	fmt.Fprintln(out, renderStatusLine("Counters", statusInfo, counts, colorize))
}

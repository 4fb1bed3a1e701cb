package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orrery/internal/api"
	"orrery/internal/control"
)

func newSchedulerCommand(ctx *commandContext) *cobra.Command {
	schedulerCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control the periodic synchronization trigger",
	}

	schedulerCmd.AddCommand(newSchedulerActionCommand(ctx, "start", "Arm the periodic trigger",
		func(client *control.Client, cmd *cobra.Command) (*api.SchedulerStatus, error) {
			return client.SchedulerStart(cmd.Context())
		}))
	schedulerCmd.AddCommand(newSchedulerActionCommand(ctx, "stop", "Disarm the periodic trigger",
		func(client *control.Client, cmd *cobra.Command) (*api.SchedulerStatus, error) {
			return client.SchedulerStop(cmd.Context())
		}))
	schedulerCmd.AddCommand(newSchedulerActionCommand(ctx, "restart", "Rearm the trigger with the current schedule",
		func(client *control.Client, cmd *cobra.Command) (*api.SchedulerStatus, error) {
			return client.SchedulerRestart(cmd.Context())
		}))
	schedulerCmd.AddCommand(newSchedulerConfigureCommand(ctx))

	return schedulerCmd
}

func newSchedulerActionCommand(ctx *commandContext, use, short string,
	action func(*control.Client, *cobra.Command) (*api.SchedulerStatus, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := action(client, cmd)
			if err != nil {
				return err
			}
			renderSchedulerStatus(cmd, status)
			return nil
		},
	}
}

func newSchedulerConfigureCommand(ctx *commandContext) *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "configure <pattern>",
		Short: "Install a new cron pattern and timezone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.SchedulerConfigure(cmd.Context(), args[0], timezone)
			if err != nil {
				return err
			}
			renderSchedulerStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for the schedule (default UTC)")
	return cmd
}

func renderSchedulerStatus(cmd *cobra.Command, status *api.SchedulerStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	kind := statusInfo
	text := "disarmed"
	if status.Active {
		kind = statusOK
		text = "armed"
	}
	fmt.Fprintln(out, renderStatusLine("Scheduler", kind, text, colorize))
	fmt.Fprintln(out, renderStatusLine("Pattern", statusInfo, orDash(status.Pattern), colorize))
	fmt.Fprintln(out, renderStatusLine("Timezone", statusInfo, orDash(status.Timezone), colorize))
	if status.LastRunAt != "" {
		fmt.Fprintln(out, renderStatusLine("Last Run", statusInfo, displayTime(status.LastRunAt), colorize))
	}
	if status.NextRunAt != "" {
		fmt.Fprintln(out, renderStatusLine("Next Run", statusInfo, displayTime(status.NextRunAt), colorize))
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"orrery/internal/control"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a synchronization pass and wait for it to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			pass, err := client.Sync(cmd.Context())
			if errors.Is(err, control.ErrConflict) {
				return errors.New("a synchronization pass is already running")
			}
			if err != nil && pass == nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, pass)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderSectionHeader("Synchronization Pass", colorize))
			renderPassSummary(cmd, pass, colorize)
			for _, detail := range pass.Details {
				fmt.Fprintln(out, renderStatusLine(detail.Identity, statusWarn, detail.Reason, colorize))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

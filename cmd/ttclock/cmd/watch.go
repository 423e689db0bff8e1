package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nagazul/ttclock/internal/domain/clock"
	"github.com/nagazul/ttclock/internal/service/watch"
)

var (
	// cronExpr drives the watch ticks.
	cronExpr string

	// watchCmd runs the pipeline repeatedly on an embedded schedule, for
	// hosts without a system cron.
	watchCmd = &cobra.Command{
		Use:   "watch [status|in|out|switch|auto-out]",
		Short: "Run a clock command repeatedly on a cron schedule.",
		Long: `Stays in the foreground and fires the given clock command on a cron
schedule. Without a command it fires auto-out, which clocks out exactly
once when the day's required time is done and is harmless the rest of
the day.

A tick that is still busy when the next firing arrives is skipped, so a
slow portal never piles up browser sessions. Stop with SIGINT or SIGTERM.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			command := clock.CommandAutoOut

			if len(args) > 0 {
				var err error

				command, err = clock.ParseCommand(args[0])
				if err != nil {
					return err
				}
			}

			probability, delay, err := parseGate()
			if err != nil {
				return err
			}

			cfg, closeLogs, err := setup(ctx)
			if err != nil {
				return err
			}
			defer closeLogs()

			return watch.Run(ctx, &watch.Options{
				Schedule: cronExpr,
				Tick: func(tickCtx context.Context) error {
					return executeCommand(tickCtx, cfg, command, probability, delay)
				},
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	watchCmd.Flags().StringVar(&cronExpr, "cron", "*/10 * * * *", "cron schedule driving the ticks")
}

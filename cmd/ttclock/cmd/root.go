package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nagazul/ttclock/internal/config"
	"github.com/nagazul/ttclock/internal/domain/clock"
	"github.com/nagazul/ttclock/internal/exitcode"
	"github.com/nagazul/ttclock/internal/lockfile"
	"github.com/nagazul/ttclock/internal/logger"
	"github.com/nagazul/ttclock/internal/notify"
	"github.com/nagazul/ttclock/internal/portal"
	"github.com/nagazul/ttclock/internal/repository/state"
	"github.com/nagazul/ttclock/internal/schedule"
	"github.com/nagazul/ttclock/internal/service/runner"
	"github.com/nagazul/ttclock/internal/version"
)

var (
	// envFile is an explicit environment file path overriding the default chain.
	envFile string
	// ntfyEnabled turns on routine push notifications.
	ntfyEnabled bool
	// quiet silences console output and all notifications, overriding -n.
	quiet bool
	// probabilityArg is the raw -p value; empty means the flag was absent.
	probabilityArg string
	// delayArg is the raw -r value; empty means the flag was absent.
	delayArg string
	// verbosity counts the -v occurrences.
	verbosity int
	// noLock skips the single-instance lock.
	noLock bool

	// rootCmd runs one clock command against the portal.
	rootCmd = &cobra.Command{
		Use:   "ttclock [status|in|out|switch|auto-out]",
		Short: "Clock in and out of the corporate time tracking portal.",
		Long: `Automates the web time tracking portal: signs in with a headless browser,
reads the current clock state and reconciles it with the requested command.

Commands re-running against an already satisfied state do nothing, so a
cron line can fire them repeatedly without double-clocking. auto-out clocks
out only once the day's required time is done. With no command, status is
assumed.

Scheduling flags humanize automated runs: -p gates the invocation on a
probability, -r waits a random delay before acting. Push notifications go
through ntfy and fire only when the observed status actually changed since
the previous invocation.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			command := clock.DefaultCommand

			if len(args) > 0 {
				var err error

				command, err = clock.ParseCommand(args[0])
				if err != nil {
					return err
				}
			}

			return runOnce(ctx, command)
		},
	}
)

// Execute runs the ttclock CLI and exits with the contract code.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(watchCmd)

	err := rootCmd.Execute()

	os.Exit(exitcode.FromError(err))
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()

	flags.BoolVarP(&ntfyEnabled, "ntfy", "n", false, "enable push notifications for status changes")
	flags.BoolVarP(&quiet, "quiet", "q", false, "silence console output and all notifications (overrides -n)")
	flags.StringVarP(&probabilityArg, "probability", "p",
		"", "run with PERCENT probability; use -p=PERCENT, bare -p draws the percentage too")
	flags.StringVarP(&delayArg, "random-delay", "r",
		"", "wait a random MIN[,MAX] minutes before acting; use -r=MIN[,MAX], bare -r means 0,5")
	flags.CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug, -vvv browser protocol)")
	flags.StringVar(&envFile, "env-file", "", "environment file (default ~/"+config.EnvFileName+", then ./"+config.EnvFileName+")")
	flags.BoolVar(&noLock, "no-lock", false, "skip the single-instance lock")

	// Bare -p and -r are meaningful, so their values must be attached
	// with = or glued to the short flag.
	flags.Lookup("probability").NoOptDefVal = schedule.RandomToken
	flags.Lookup("random-delay").NoOptDefVal = schedule.DefaultDelayToken
}

// runOnce executes a single invocation of the pipeline.
func runOnce(ctx context.Context, command clock.Command) error {
	probability, delay, err := parseGate()
	if err != nil {
		return err
	}

	cfg, closeLogs, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeLogs()

	return executeCommand(ctx, cfg, command, probability, delay)
}

// parseGate decodes the scheduling flags.
func parseGate() (schedule.Probability, *schedule.DelayRange, error) {
	probability := schedule.AlwaysRun

	if probabilityArg != "" {
		parsed, err := schedule.ParseProbability(probabilityArg)
		if err != nil {
			return schedule.Probability{}, nil, err
		}

		probability = parsed
	}

	delay, err := schedule.ParseDelayRange(delayArg)
	if err != nil {
		return schedule.Probability{}, nil, err
	}

	return probability, delay, nil
}

// setup loads the environment file chain, pins the working directory and
// configures session logging. The returned closer flushes the log file.
func setup(ctx context.Context) (*config.Config, func(), error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	if cfg.WorkDir != "" {
		if err = os.Chdir(cfg.WorkDir); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", exitcode.ErrWorkingDirectory, err)
		}
	}

	session := logger.NewSession()

	_, closeLogs, err := logger.Configure(logger.Config{
		Session:      session,
		Verbosity:    verbosity,
		Quiet:        quiet,
		FilePath:     cfg.LogFile(),
		FileMaxBytes: cfg.LogMaxBytes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", exitcode.ErrLogDirectory, err)
	}

	logger.DebugKV(ctx, "Environment loaded",
		"env_file", cfg.LoadedFrom,
		"portal", cfg.PortalURL,
		"xid", session.XID)

	return cfg, closeLogs, nil
}

// executeCommand runs the reconciliation pipeline against a real browser
// session. Both one-shot commands and each watch tick come through here,
// so every tick gets a fresh signed-in browser and releases it after.
func executeCommand(
	ctx context.Context,
	cfg *config.Config,
	command clock.Command,
	probability schedule.Probability,
	delay *schedule.DelayRange,
) error {
	session := portal.NewSession(portal.SessionOptions{
		URL:           cfg.PortalURL,
		Username:      cfg.Username,
		Password:      cfg.Password,
		Timeout:       cfg.Timeout,
		Headless:      cfg.Headless,
		ScreenshotDir: cfg.ScreenshotDir,
		Verbosity:     verbosity,
	})
	defer session.Close()

	opts := &runner.Options{
		Command:     command,
		Probability: probability,
		Delay:       delay,
		Scheduler:   schedule.New(),
		Driver:      session,
		States:      state.NewFileRepository(cfg.StateFile),
		Notifier:    buildNotifier(cfg),
		Output:      os.Stdout,
	}

	if !noLock {
		opts.Lock = lockfile.New(cfg.LockFile)
	}

	return runner.Run(ctx, opts)
}

// buildNotifier applies the notification enablement rules. Quiet silences
// everything, even forced failure alerts.
func buildNotifier(cfg *config.Config) notify.Notifier {
	if quiet || !cfg.NotificationsConfigured() {
		return notify.NewSender(nil, false)
	}

	return notify.NewSender(notify.NewClient(cfg.NtfyServer, cfg.NtfyTopic), ntfyEnabled)
}

// Package watch runs the clock pipeline on an embedded cron schedule, for
// hosts without a system scheduler.
package watch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nagazul/ttclock/internal/logger"
)

// DefaultTickTimeout bounds one tick end to end when no limit is given.
// It has to cover browser startup, sign-in and the longest jitter delay.
const DefaultTickTimeout = 10 * time.Minute

// cronParser accepts the standard five-field syntax plus descriptors
// such as @hourly.
//
//nolint:gochecknoglobals // Immutable parser shared by validation and Run.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a cron expression up front, so a bad schedule
// fails the command immediately instead of arming a scheduler that never
// fires.
func ParseSchedule(s string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", s, err)
	}

	return sched, nil
}

// Options controls the watch loop.
type Options struct {
	// Schedule is a five-field cron expression or descriptor.
	Schedule string
	// TickTimeout bounds one tick. Zero means DefaultTickTimeout.
	TickTimeout time.Duration
	// Tick runs one invocation of the pipeline. The context it receives
	// carries the tick sequence number and the timeout.
	Tick func(ctx context.Context) error
}

// Run blocks executing the schedule until the context is canceled, then
// waits for a tick in flight and returns nil: a signal is the normal way
// to stop the daemon, not a failure.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "watch")

	sched, err := ParseSchedule(opts.Schedule)
	if err != nil {
		return err
	}

	job := &ticker{
		base:    ctx,
		tick:    opts.Tick,
		timeout: opts.TickTimeout,
	}
	if job.timeout <= 0 {
		job.timeout = DefaultTickTimeout
	}

	c := cron.New(cron.WithParser(cronParser))
	c.Schedule(sched, job)

	logger.InfoKV(ctx, "Watch mode started",
		"schedule", opts.Schedule,
		"next", sched.Next(time.Now()).Format(time.RFC3339))

	c.Start()

	<-ctx.Done()

	logger.Info(ctx, "Watch mode stopping")

	// Let a tick in flight finish before returning.
	<-c.Stop().Done()

	return nil
}

// ticker is the cron job. Each firing gets a sequence number in its log
// context; a firing that arrives while the previous one still runs is
// skipped, so slow portal sessions never pile up browsers.
type ticker struct {
	base    context.Context //nolint:containedctx // Cron jobs take no arguments, the base context has to ride along.
	tick    func(ctx context.Context) error
	timeout time.Duration

	running atomic.Bool
	seq     atomic.Int64
}

// Run implements cron.Job.
func (t *ticker) Run() {
	if !t.running.CompareAndSwap(false, true) {
		logger.Warn(t.base, "Previous tick still running, skipping this firing")

		return
	}
	defer t.running.Store(false)

	n := t.seq.Add(1)

	ctx := logger.WithKV(t.base, "tick", n)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	logger.Info(ctx, "Tick started")

	if err := t.tick(ctx); err != nil {
		logger.ErrorKV(ctx, "Tick failed", "error", err)

		return
	}

	logger.Info(ctx, "Tick finished")
}

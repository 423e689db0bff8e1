// Package runner executes one clock invocation end to end: probability
// gate, jittered delay, single-instance lock, portal reconciliation,
// change-aware notification and state persistence.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nagazul/ttclock/internal/domain/clock"
	"github.com/nagazul/ttclock/internal/lockfile"
	"github.com/nagazul/ttclock/internal/logger"
	"github.com/nagazul/ttclock/internal/notify"
	"github.com/nagazul/ttclock/internal/portal"
	"github.com/nagazul/ttclock/internal/repository/state"
	"github.com/nagazul/ttclock/internal/schedule"
)

// Locker is the mutual exclusion surface the runner needs.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context)
}

// Options wires one invocation. Collaborators are injected so the whole
// pipeline can be exercised without a browser.
type Options struct {
	// Command is the reconciliation intent.
	Command clock.Command
	// Probability gates whether this invocation runs at all.
	Probability schedule.Probability
	// Delay is the jitter window to wait before acting. Nil means none.
	Delay *schedule.DelayRange
	// Scheduler draws the gate and jitter values. Nil gets a fresh one.
	Scheduler *schedule.Scheduler
	// Driver reads and mutates the remote clock.
	Driver portal.Driver
	// States persists the last observed status between invocations.
	States state.Repository
	// Notifier announces transitions and failures.
	Notifier notify.Notifier
	// Lock serializes concurrent invocations. Nil disables locking.
	Lock Locker
	// Output receives the final snapshot record. Nil discards it.
	Output io.Writer
}

// Run executes the pipeline for one invocation. A probability skip and a
// lock-held skip both return nil: not running is a legitimate outcome for
// a humanized scheduler, not a failure.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithKV(ctx, "command", string(opts.Command))

	skip, err := gate(ctx, opts)
	if err != nil || skip {
		return err
	}

	if opts.Lock != nil {
		if err = opts.Lock.Acquire(ctx); err != nil {
			if errors.Is(err, lockfile.ErrHeld) {
				logger.InfoKV(ctx, "Another invocation is already running, skipping", "detail", err.Error())
				return nil
			}

			return fmt.Errorf("acquire lock: %w", err)
		}

		defer opts.Lock.Release(ctx)
	}

	last := loadLastState(ctx, opts.States)

	current, err := opts.Driver.ReadStatus(ctx)
	if err != nil {
		reportReadFailure(ctx, opts.Notifier, err)

		return fmt.Errorf("read clock status: %w", err)
	}

	logger.InfoKV(ctx, "Read clock status",
		"status", string(current.Status),
		"time_worked", clock.FormatClock(current.TimeWorked),
		"time_left", clock.FormatClock(current.TimeLeft))

	action := clock.Resolve(opts.Command, current)

	result := current

	if action == clock.ActionNone {
		logger.InfoKV(ctx, "No action needed", "status", string(current.Status))
	} else {
		logger.InfoKV(ctx, "Performing action", "action", action.String())

		result, err = opts.Driver.Perform(ctx, action)
		if err != nil {
			reportActionFailure(ctx, opts.Notifier, action, err)

			return fmt.Errorf("perform %s: %w", action, err)
		}

		logger.InfoKV(ctx, "Action performed", "action", action.String(), "status", string(result.Status))
	}

	if clock.ShouldNotify(last, current, result) {
		send(ctx, opts.Notifier, successMessage(action, result), false)
	} else {
		logger.Debug(ctx, "Status unchanged since last run, notification suppressed")
	}

	saveState(ctx, opts.States, result)

	return emitRecord(opts.Output, result)
}

// gate applies the probability check and the jittered delay. It reports
// skip=true when this invocation lost the roll.
func gate(ctx context.Context, opts *Options) (bool, error) {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = schedule.New()
	}

	decision := scheduler.Decide(opts.Probability, opts.Delay)

	if decision.ProbabilityDrawn {
		logger.InfoKV(ctx, "Drew run probability", "probability", decision.Probability)
	}

	if !decision.Run {
		logger.InfoKV(ctx, "Probability gate failed, skipping",
			"roll", decision.Roll,
			"probability", decision.Probability)

		return true, nil
	}

	if decision.Roll > 0 {
		logger.DebugKV(ctx, "Probability gate passed",
			"roll", decision.Roll,
			"probability", decision.Probability)
	}

	if decision.Delay > 0 {
		logger.InfoKV(ctx, "Delaying before action", "delay", decision.Delay.Round(time.Millisecond).String())

		if err := schedule.Wait(ctx, decision.Delay); err != nil {
			logger.WarnKV(ctx, "Delay interrupted", "error", err)

			return false, err
		}
	}

	return false, nil
}

// loadLastState reads the persisted status. Both a missing and a broken
// state file degrade to the default: state problems must never stop a
// clock action.
func loadLastState(ctx context.Context, states state.Repository) clock.LastState {
	if states == nil {
		return clock.DefaultLastState()
	}

	last, err := states.Load(ctx)

	switch {
	case err == nil:
		return last
	case errors.Is(err, state.ErrNotFound):
		logger.Debug(ctx, "No previous state recorded, assuming clocked out")
	default:
		logger.WarnKV(ctx, "Unable to read previous state", "error", err)
	}

	return clock.DefaultLastState()
}

// saveState persists the observed outcome. Failures are logged and
// swallowed for the same reason loads degrade.
func saveState(ctx context.Context, states state.Repository, result clock.Snapshot) {
	if states == nil {
		return
	}

	newState := clock.LastState{Status: result.Status, ObservedAt: result.ObservedAt}
	if err := states.Save(ctx, newState); err != nil {
		logger.WarnKV(ctx, "Unable to persist state", "error", err)
	}
}

// successMessage composes the notification for a completed invocation.
func successMessage(action clock.Action, result clock.Snapshot) notify.Message {
	switch action {
	case clock.ActionClockIn:
		return notify.Message{
			Body: fmt.Sprintf("Successfully clocked in.\nTime worked today: %s\nTime left: %s",
				clock.FormatClock(result.TimeWorked), clock.FormatClock(result.TimeLeft)),
			Tags: []string{"clock", "in", "success"},
		}
	case clock.ActionClockOut:
		return notify.Message{
			Body: fmt.Sprintf("Successfully clocked out.\nTotal time worked today: %s",
				clock.FormatClock(result.TimeWorked)),
			Tags: []string{"clock", "out", "success"},
		}
	default:
		return notify.Message{
			Body: fmt.Sprintf("Status check successful.\nCurrent status: %s\nTime worked: %s\nTime left: %s",
				result.Status, clock.FormatClock(result.TimeWorked), clock.FormatClock(result.TimeLeft)),
			Tags: []string{"time", "check", "success"},
		}
	}
}

func reportReadFailure(ctx context.Context, notifier notify.Notifier, err error) {
	send(ctx, notifier, notify.Message{
		Body:     fmt.Sprintf("Error getting time info: %v", err),
		Priority: notify.PriorityHigh,
		Tags:     []string{"time", "error", causeTag(err)},
	}, true)
}

func reportActionFailure(ctx context.Context, notifier notify.Notifier, action clock.Action, err error) {
	send(ctx, notifier, notify.Message{
		Body:     fmt.Sprintf("Error during %s: %v", action, err),
		Priority: notify.PriorityHigh,
		Tags:     []string{"clock", "error", causeTag(err)},
	}, true)
}

// causeTag maps a driver failure to the extra notification tag.
func causeTag(err error) string {
	switch {
	case portal.IsCause(err, portal.CauseAuth):
		return "login"
	case portal.IsCause(err, portal.CauseNavigationTimeout):
		return "timeout"
	case portal.IsCause(err, portal.CauseElementNotFound):
		return "missing_element"
	case portal.IsCause(err, portal.CauseNetwork):
		return "network"
	case portal.IsCause(err, portal.CauseProtocol):
		return "browser"
	default:
		return "unexpected"
	}
}

func send(ctx context.Context, notifier notify.Notifier, msg notify.Message, force bool) {
	if notifier == nil {
		return
	}

	notifier.Send(ctx, msg, force)
}

// emitRecord prints the machine-readable snapshot of the final state.
func emitRecord(w io.Writer, result clock.Snapshot) error {
	if w == nil {
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if _, err = fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

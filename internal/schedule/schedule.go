package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// rollSides is the range of the gate roll, 1 through 100 inclusive.
const rollSides = 100

// Decision is the computed scheduling outcome for one invocation.
// It is never persisted.
type Decision struct {
	// Run reports whether the gate passed.
	Run bool
	// Probability is the effective percentage the roll was compared against.
	Probability int
	// ProbabilityDrawn marks that the percentage itself was drawn fresh.
	ProbabilityDrawn bool
	// Roll is the gate draw in 1-100, or zero when no gating was needed.
	Roll int
	// Delay is the jittered wait to apply before acting. Zero on a skip.
	Delay time.Duration
}

// Scheduler draws gate and jitter values from its own random source, so
// decisions are reproducible under test.
type Scheduler struct {
	rng *rand.Rand
}

// New returns a Scheduler seeded from the current time.
func New() *Scheduler {
	return WithSource(rand.NewSource(time.Now().UnixNano()))
}

// WithSource returns a Scheduler drawing from the provided source.
func WithSource(src rand.Source) *Scheduler {
	return &Scheduler{rng: rand.New(src)} //nolint:gosec // Humanizing jitter is not security material.
}

// Decide applies the probability gate and, if it passes, draws the
// jittered delay. A fixed probability of 100 runs without rolling at all,
// while the drawn-probability mode always makes two independent draws:
// first the percentage, then the roll compared against it.
func (s *Scheduler) Decide(p Probability, r *DelayRange) Decision {
	d := Decision{Probability: p.Percent}

	if p.Random {
		d.Probability = s.rng.Intn(rollSides + 1)
		d.ProbabilityDrawn = true
	}

	if d.ProbabilityDrawn || d.Probability < rollSides {
		d.Roll = 1 + s.rng.Intn(rollSides)
		d.Run = d.Roll <= d.Probability
	} else {
		d.Run = true
	}

	// A skip never incurs a delay.
	if !d.Run || r == nil {
		return d
	}

	minSecs := r.Min * 60
	maxSecs := r.Max * 60
	secs := minSecs + s.rng.Float64()*(maxSecs-minSecs)
	d.Delay = time.Duration(secs * float64(time.Second))

	return d
}

// Wait blocks for the decided delay, returning early with the context's
// error when the invocation is interrupted.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("delay interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

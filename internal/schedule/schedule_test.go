package schedule

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Scheduler {
	t.Helper()

	return WithSource(rand.NewSource(1))
}

// TestDecideAlwaysRun checks a fixed 100% probability never rolls and
// never skips.
func TestDecideAlwaysRun(t *testing.T) {
	t.Parallel()

	s := seeded(t)

	for i := 0; i < 100; i++ {
		d := s.Decide(AlwaysRun, nil)
		require.True(t, d.Run)
		require.Zero(t, d.Roll)
		require.Zero(t, d.Delay)
	}
}

// TestDecideNeverRun checks a 0% probability always skips.
func TestDecideNeverRun(t *testing.T) {
	t.Parallel()

	s := seeded(t)

	for i := 0; i < 1000; i++ {
		d := s.Decide(Probability{Percent: 0}, &DelayRange{Min: 1, Max: 5})
		require.False(t, d.Run)
		require.Positive(t, d.Roll)
		// A skip never incurs a delay.
		require.Zero(t, d.Delay)
	}
}

// TestDecideRunRate checks the gate's long-run frequency at 50%.
func TestDecideRunRate(t *testing.T) {
	t.Parallel()

	s := seeded(t)

	const trials = 10000

	runs := 0

	for i := 0; i < trials; i++ {
		if s.Decide(Probability{Percent: 50}, nil).Run {
			runs++
		}
	}

	rate := float64(runs) / float64(trials)
	require.InDelta(t, 0.50, rate, 0.03)
}

// TestDecideDrawnProbability checks the two-draw mode: the percentage is
// drawn first, then an independent roll is compared against it.
func TestDecideDrawnProbability(t *testing.T) {
	t.Parallel()

	s := seeded(t)

	for i := 0; i < 1000; i++ {
		d := s.Decide(Probability{Random: true}, nil)
		require.True(t, d.ProbabilityDrawn)
		require.GreaterOrEqual(t, d.Probability, 0)
		require.LessOrEqual(t, d.Probability, 100)
		require.GreaterOrEqual(t, d.Roll, 1)
		require.LessOrEqual(t, d.Roll, 100)
		require.Equal(t, d.Roll <= d.Probability, d.Run)
	}
}

// TestDecideDelayBounds checks the drawn delay stays inside the minute
// range, converted to seconds.
func TestDecideDelayBounds(t *testing.T) {
	t.Parallel()

	s := seeded(t)

	for i := 0; i < 1000; i++ {
		d := s.Decide(AlwaysRun, &DelayRange{Min: 1, Max: 5})
		require.True(t, d.Run)
		require.GreaterOrEqual(t, d.Delay, 60*time.Second)
		require.LessOrEqual(t, d.Delay, 300*time.Second)
	}
}

// TestDecideZeroWidthDelay checks a degenerate range waits exactly that long.
func TestDecideZeroWidthDelay(t *testing.T) {
	t.Parallel()

	s := seeded(t)

	d := s.Decide(AlwaysRun, &DelayRange{Min: 2, Max: 2})
	require.Equal(t, 2*time.Minute, d.Delay)
}

// TestWait checks normal elapse, immediate zero-delay return and
// interruption by context cancellation.
func TestWait(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.NoError(t, Wait(ctx, 0))
	require.NoError(t, Wait(ctx, 5*time.Millisecond))

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	start := time.Now()
	err := Wait(canceled, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestResolve_InOutIdempotent verifies that in/out short-circuit to no action
// when the requested state already holds.
func TestResolve_InOutIdempotent(t *testing.T) {
	t.Parallel()

	in := Snapshot{Status: StatusClockedIn}
	out := Snapshot{Status: StatusClockedOut}

	require.Equal(t, ActionNone, Resolve(CommandIn, in))
	require.Equal(t, ActionClockIn, Resolve(CommandIn, out))
	require.Equal(t, ActionNone, Resolve(CommandOut, out))
	require.Equal(t, ActionClockOut, Resolve(CommandOut, in))
}

// TestResolve_SwitchAlwaysActs verifies switch picks the complement of the
// current status and never short-circuits.
func TestResolve_SwitchAlwaysActs(t *testing.T) {
	t.Parallel()

	require.Equal(t, ActionClockOut, Resolve(CommandSwitch, Snapshot{Status: StatusClockedIn}))
	require.Equal(t, ActionClockIn, Resolve(CommandSwitch, Snapshot{Status: StatusClockedOut}))
}

// TestResolve_StatusNeverActs verifies the read-only command stays read-only.
func TestResolve_StatusNeverActs(t *testing.T) {
	t.Parallel()

	require.Equal(t, ActionNone, Resolve(CommandStatus, Snapshot{Status: StatusClockedIn}))
	require.Equal(t, ActionNone, Resolve(CommandStatus, Snapshot{Status: StatusClockedOut}))
}

// TestResolve_AutoOut verifies auto-out fires only on clocked-in with zero
// time left; zero-after-clockout must not trigger.
func TestResolve_AutoOut(t *testing.T) {
	t.Parallel()

	done := Snapshot{
		Status:     StatusClockedIn,
		TimeWorked: 8 * time.Hour,
		TimeLeft:   0,
	}
	require.Equal(t, ActionClockOut, Resolve(CommandAutoOut, done))

	alreadyOut := Snapshot{
		Status:     StatusClockedOut,
		TimeWorked: 8 * time.Hour,
		TimeLeft:   0,
	}
	require.Equal(t, ActionNone, Resolve(CommandAutoOut, alreadyOut))

	stillWorking := Snapshot{
		Status:     StatusClockedIn,
		TimeWorked: 5 * time.Hour,
		TimeLeft:   3 * time.Hour,
	}
	require.Equal(t, ActionNone, Resolve(CommandAutoOut, stillWorking))
}

// TestShouldNotify_TransitionOnly verifies notification fires exactly on a
// status transition relative to the persisted state.
func TestShouldNotify_TransitionOnly(t *testing.T) {
	t.Parallel()

	lastOut := LastState{Status: StatusClockedOut}
	lastIn := LastState{Status: StatusClockedIn}

	// Clock-in from clocked-out notifies.
	require.True(t, ShouldNotify(lastOut,
		Snapshot{Status: StatusClockedOut},
		Snapshot{Status: StatusClockedIn}))

	// Already clocked in, in requested again: nothing changed, no notify.
	require.False(t, ShouldNotify(lastIn,
		Snapshot{Status: StatusClockedIn},
		Snapshot{Status: StatusClockedIn}))
}

// TestShouldNotify_DriftDetection verifies an out-of-band portal change is
// reported even when the command itself performs no action.
func TestShouldNotify_DriftDetection(t *testing.T) {
	t.Parallel()

	// Previous run saw clocked-out, someone clocked in manually, status
	// command reads the drifted state and acts on nothing.
	last := LastState{Status: StatusClockedOut}
	drifted := Snapshot{Status: StatusClockedIn}

	require.True(t, ShouldNotify(last, drifted, drifted))
}

// TestShouldNotify_DriftNetsBackThroughAction verifies a drift that our own
// action reverses is still reported as a change.
func TestShouldNotify_DriftNetsBackThroughAction(t *testing.T) {
	t.Parallel()

	// Persisted clocked-out, manual clock-in happened, then an out command
	// clocks back out: result equals last, but the drift was observed.
	last := LastState{Status: StatusClockedOut}
	current := Snapshot{Status: StatusClockedIn}
	result := Snapshot{Status: StatusClockedOut}

	require.True(t, ShouldNotify(last, current, result))
}

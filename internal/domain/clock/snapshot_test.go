package clock

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParseStatus verifies recognition of the two portal states and rejection
// of anything else.
func TestParseStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus("Clocked In")
	require.NoError(t, err)
	require.Equal(t, StatusClockedIn, s)

	s, err = ParseStatus("Clocked Out")
	require.NoError(t, err)
	require.Equal(t, StatusClockedOut, s)

	_, err = ParseStatus("Unknown")
	require.Error(t, err)
}

// TestSnapshotMarshalJSON verifies the machine-readable record shape.
func TestSnapshotMarshalJSON(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Status:     StatusClockedIn,
		FirstClock: "09:02",
		TimeWorked: 3*time.Hour + 15*time.Minute + 42*time.Second,
		TimeLeft:   4*time.Hour + 44*time.Minute + 18*time.Second,
		Date:       "2026-08-24",
		ObservedAt: time.Now(),
	}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var record map[string]string
	require.NoError(t, json.Unmarshal(raw, &record))

	require.Equal(t, "Clocked In", record["status"])
	require.Equal(t, "09:02", record["first_clock"])
	require.Equal(t, "03:15:42", record["time_worked"])
	require.Equal(t, "04:44:18", record["time_left"])
	require.Equal(t, "2026-08-24", record["date"])
}

// TestDefaultLastState verifies the assumed state before anything persisted.
func TestDefaultLastState(t *testing.T) {
	t.Parallel()

	last := DefaultLastState()
	require.Equal(t, StatusClockedOut, last.Status)
	require.Equal(t, int64(0), last.ObservedAt.Unix())
}

// TestParseCommand verifies the command set and the default.
func TestParseCommand(t *testing.T) {
	t.Parallel()

	for _, s := range Commands() {
		cmd, err := ParseCommand(s)
		require.NoError(t, err)
		require.Equal(t, Command(s), cmd)
	}

	_, err := ParseCommand("clock-me-in")
	require.Error(t, err)

	require.Equal(t, CommandStatus, DefaultCommand)
}

// TestActionString verifies log names for actions.
func TestActionString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "none", ActionNone.String())
	require.Equal(t, "clock-in", ActionClockIn.String())
	require.Equal(t, "clock-out", ActionClockOut.String())
}

package clock

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status represents the remote clock state exactly as the portal reports it.
type Status string

const (
	// StatusClockedIn means the portal considers the user present.
	StatusClockedIn Status = "Clocked In"
	// StatusClockedOut means the portal considers the user absent.
	StatusClockedOut Status = "Clocked Out"
)

// errUnknownStatus is returned when a portal read yields neither known state.
var errUnknownStatus = errors.New("unknown clock status")

// ParseStatus converts portal text into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusClockedIn:
		return StatusClockedIn, nil
	case StatusClockedOut:
		return StatusClockedOut, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownStatus, s)
	}
}

// Snapshot is an immutable record of the remote system's state at one
// observation. It is created fresh on every portal read and discarded after
// the invocation; the portal remains the sole source of truth.
type Snapshot struct {
	// Status is the clocked-in/out state derived from the portal's buttons.
	Status Status
	// FirstClock is the portal's first-clock-in text for today ("09:02"),
	// empty if the user never clocked in.
	FirstClock string
	// TimeWorked is the total time accounted for today.
	TimeWorked time.Duration
	// TimeLeft is the time remaining to satisfy the day's required hours.
	TimeLeft time.Duration
	// Date is the portal's current date normalized to YYYY-MM-DD.
	Date string
	// ObservedAt is when this snapshot was read.
	ObservedAt time.Time
}

// MarshalJSON renders the snapshot as the machine-readable record printed for
// every command, with durations in the portal's HH:MM:SS shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status     string `json:"status"`
		FirstClock string `json:"first_clock"`
		TimeWorked string `json:"time_worked"`
		TimeLeft   string `json:"time_left"`
		Date       string `json:"date"`
	}{
		Status:     string(s.Status),
		FirstClock: s.FirstClock,
		TimeWorked: FormatClock(s.TimeWorked),
		TimeLeft:   FormatClock(s.TimeLeft),
		Date:       s.Date,
	})
}

// LastState is the most recently observed status, persisted between
// invocations. It exists only to decide whether a notification represents a
// change; the action decision never depends on it.
type LastState struct {
	// Status is the status observed at the end of the previous run.
	Status Status `yaml:"status"`
	// ObservedAt is when that status was observed.
	ObservedAt time.Time `yaml:"observed_at"`
}

// DefaultLastState is the state assumed when nothing has been persisted yet.
func DefaultLastState() LastState {
	return LastState{
		Status:     StatusClockedOut,
		ObservedAt: time.Unix(0, 0).UTC(),
	}
}

package portal

import (
	"context"

	"github.com/nagazul/ttclock/internal/domain/clock"
)

// Driver is the narrow interface the rest of the tool consumes: read the
// remote clock state, or perform one action and return the state observed
// afterwards. Implementations report failures as *Error.
type Driver interface {
	// ReadStatus signs in if needed and returns a fresh snapshot.
	ReadStatus(ctx context.Context) (clock.Snapshot, error)
	// Perform presses the button for the action, waits for the portal to
	// settle and returns the snapshot observed after the press.
	Perform(ctx context.Context, action clock.Action) (clock.Snapshot, error)
}

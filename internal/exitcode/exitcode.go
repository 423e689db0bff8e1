// Package exitcode defines the process exit contract and maps the
// application's typed errors onto it. Schedulers and wrapper scripts key
// off these values, so they are stable.
package exitcode

import (
	"context"
	"errors"

	"github.com/nagazul/ttclock/internal/config"
	"github.com/nagazul/ttclock/internal/schedule"
)

// Exit codes observable by callers. Zero covers both success and a
// deliberate probability-gate skip, which must be indistinguishable
// from "nothing to do".
const (
	OK               = 0
	Failure          = 1
	LogDirectory     = 2
	WorkingDirectory = 3
	Environment      = 4
	Configuration    = 5
	Probability      = 6
	Delay            = 7
	Interrupted      = 130
)

var (
	// ErrLogDirectory marks a failure to create or open the log location.
	ErrLogDirectory = errors.New("log directory unavailable")
	// ErrWorkingDirectory marks a failed working-directory change.
	ErrWorkingDirectory = errors.New("working directory change failed")
	// ErrInterrupted marks termination by signal.
	ErrInterrupted = errors.New("interrupted by signal")
)

// FromError maps an error chain to the exit contract. Anything not
// specifically classified is a plain failure.
func FromError(err error) int {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, context.Canceled), errors.Is(err, ErrInterrupted):
		return Interrupted
	case errors.Is(err, ErrLogDirectory):
		return LogDirectory
	case errors.Is(err, ErrWorkingDirectory):
		return WorkingDirectory
	case errors.Is(err, config.ErrEnvFileInvalid), errors.Is(err, config.ErrInvalidValue):
		return Environment
	case errors.Is(err, config.ErrEnvFileMissing), errors.Is(err, config.ErrMissingCredentials):
		return Configuration
	case errors.Is(err, schedule.ErrInvalidProbability):
		return Probability
	case errors.Is(err, schedule.ErrInvalidDelay):
		return Delay
	default:
		return Failure
	}
}

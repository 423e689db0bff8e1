package exitcode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nagazul/ttclock/internal/config"
	"github.com/nagazul/ttclock/internal/schedule"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "success",
			err:  nil,
			want: OK,
		},
		{
			name: "plain_failure",
			err:  errors.New("portal exploded"),
			want: Failure,
		},
		{
			name: "interrupt",
			err:  fmt.Errorf("delay interrupted: %w", context.Canceled),
			want: Interrupted,
		},
		{
			name: "interrupt_sentinel",
			err:  ErrInterrupted,
			want: Interrupted,
		},
		{
			name: "log_directory",
			err:  fmt.Errorf("%w: %s", ErrLogDirectory, "/var/log/ttclock"),
			want: LogDirectory,
		},
		{
			name: "working_directory",
			err:  fmt.Errorf("%w: no such directory", ErrWorkingDirectory),
			want: WorkingDirectory,
		},
		{
			name: "env_file_invalid",
			err:  fmt.Errorf("load environment: %w", config.ErrEnvFileInvalid),
			want: Environment,
		},
		{
			name: "bad_config_value",
			err:  fmt.Errorf("load environment: %w", config.ErrInvalidValue),
			want: Environment,
		},
		{
			name: "env_file_missing",
			err:  fmt.Errorf("load environment: %w", config.ErrEnvFileMissing),
			want: Configuration,
		},
		{
			name: "missing_credentials",
			err:  fmt.Errorf("load environment: %w", config.ErrMissingCredentials),
			want: Configuration,
		},
		{
			name: "bad_probability",
			err:  fmt.Errorf("parse flags: %w", schedule.ErrInvalidProbability),
			want: Probability,
		},
		{
			name: "bad_delay",
			err:  fmt.Errorf("parse flags: %w", schedule.ErrInvalidDelay),
			want: Delay,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, FromError(tt.err))
		})
	}
}

func TestInterruptWinsOverClassification(t *testing.T) {
	t.Parallel()

	// An invocation killed mid-delay wraps both a domain error and the
	// context cancellation; the interrupt code must win.
	err := fmt.Errorf("%w: %w", ErrLogDirectory, context.Canceled)

	require.Equal(t, Interrupted, FromError(err))
}

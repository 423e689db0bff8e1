package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := newError(CauseAuth, "enter password", errors.New("timeout"))
	require.EqualError(t, err, "portal enter password: auth failure: timeout")

	bare := &Error{Cause: CauseNetwork, Op: "open portal"}
	require.EqualError(t, bare, "portal open portal: network error")
}

func TestErrorUnwrapsToCancellation(t *testing.T) {
	t.Parallel()

	// A cancelled browser step must stay recognizable as an interrupt
	// through the wrapping chain.
	err := fmt.Errorf("run step: %w", newError(CauseElementNotFound, "read clocking table", context.Canceled))

	require.ErrorIs(t, err, context.Canceled)
	require.True(t, IsCause(err, CauseElementNotFound))
}

func TestIsCause(t *testing.T) {
	t.Parallel()

	err := newError(CauseNavigationTimeout, "open portal", errors.New("deadline"))

	require.True(t, IsCause(err, CauseNavigationTimeout))
	require.False(t, IsCause(err, CauseAuth))
	require.False(t, IsCause(errors.New("plain"), CauseNavigationTimeout))
	require.False(t, IsCause(nil, CauseNavigationTimeout))
}

func TestCauseString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cause Cause
		want  string
	}{
		{cause: CauseAuth, want: "auth failure"},
		{cause: CauseNavigationTimeout, want: "navigation timeout"},
		{cause: CauseElementNotFound, want: "element not found"},
		{cause: CauseNetwork, want: "network error"},
		{cause: CauseProtocol, want: "protocol error"},
		{cause: CauseUnknown, want: "unknown"},
		{cause: Cause(99), want: "unknown"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.cause.String())
		})
	}
}

func TestRefineCause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fallback Cause
		err      error
		want     Cause
	}{
		{
			name:     "chrome_network_error",
			fallback: CauseElementNotFound,
			err:      errors.New(`page load error net::ERR_CONNECTION_REFUSED`),
			want:     CauseNetwork,
		},
		{
			name:     "dns_error",
			fallback: CauseAuth,
			err:      errors.New(`page load error net::ERR_NAME_NOT_RESOLVED`),
			want:     CauseNetwork,
		},
		{
			name:     "navigation_deadline",
			fallback: CauseNetwork,
			err:      fmt.Errorf("navigate: %w", context.DeadlineExceeded),
			want:     CauseNavigationTimeout,
		},
		{
			name:     "kept_fallback",
			fallback: CauseAuth,
			err:      errors.New("element is not visible"),
			want:     CauseAuth,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, refineCause(tt.fallback, tt.err))
		})
	}
}

package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseProbability covers the fixed, drawn and rejected forms.
func TestParseProbability(t *testing.T) {
	t.Parallel()

	p, err := ParseProbability("100")
	require.NoError(t, err)
	require.Equal(t, AlwaysRun, p)

	p, err = ParseProbability("0")
	require.NoError(t, err)
	require.Equal(t, Probability{Percent: 0}, p)

	p, err = ParseProbability("75")
	require.NoError(t, err)
	require.Equal(t, Probability{Percent: 75}, p)

	p, err = ParseProbability("random")
	require.NoError(t, err)
	require.True(t, p.Random)

	for _, bad := range []string{"101", "-1", "half", "12.5", ""} {
		_, err = ParseProbability(bad)
		require.ErrorIs(t, err, ErrInvalidProbability, bad)
	}
}

// TestParseDelayRange covers the absent, bare, single and pair forms.
func TestParseDelayRange(t *testing.T) {
	t.Parallel()

	r, err := ParseDelayRange("")
	require.NoError(t, err)
	require.Nil(t, r)

	r, err = ParseDelayRange("default")
	require.NoError(t, err)
	require.Equal(t, &DelayRange{Min: 0, Max: 5}, r)

	// A lone minimum implies minimum+5 as the maximum.
	r, err = ParseDelayRange("3")
	require.NoError(t, err)
	require.Equal(t, &DelayRange{Min: 3, Max: 8}, r)

	// Fractional minutes are allowed.
	r, err = ParseDelayRange("1.5")
	require.NoError(t, err)
	require.Equal(t, &DelayRange{Min: 1.5, Max: 6.5}, r)

	r, err = ParseDelayRange("1,5")
	require.NoError(t, err)
	require.Equal(t, &DelayRange{Min: 1, Max: 5}, r)

	r, err = ParseDelayRange("0.25,0.75")
	require.NoError(t, err)
	require.Equal(t, &DelayRange{Min: 0.25, Max: 0.75}, r)

	for _, bad := range []string{"-1", "5,1", "a,b", "1,2,3", "1,-2", "NaN"} {
		_, err = ParseDelayRange(bad)
		require.ErrorIs(t, err, ErrInvalidDelay, bad)
	}
}

package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidProbability is returned for a probability outside 0-100
	// or not an integer.
	ErrInvalidProbability = errors.New("invalid probability")
	// ErrInvalidDelay is returned for a malformed or inconsistent delay range.
	ErrInvalidDelay = errors.New("invalid delay range")
)

// Flag tokens produced by the bare flag forms. A bare -p asks for a drawn
// probability; a bare -r asks for the default delay window.
const (
	RandomToken       = "random"
	DefaultDelayToken = "default"
)

// Probability is the parsed -p argument. Random means the effective
// percentage is drawn fresh each invocation instead of being fixed.
type Probability struct {
	Random  bool
	Percent int
}

// AlwaysRun is the probability used when -p is absent: no gating at all.
//
//nolint:gochecknoglobals // Value constant, shared by flag defaults and tests.
var AlwaysRun = Probability{Percent: 100}

// ParseProbability parses the -p argument grammar: an integer percentage
// 0-100, or the bare-flag token requesting a drawn probability.
func ParseProbability(s string) (Probability, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, RandomToken) {
		return Probability{Random: true}, nil
	}

	percent, err := strconv.Atoi(s)
	if err != nil || percent < 0 || percent > 100 {
		return Probability{}, fmt.Errorf("%w: %q (want an integer 0-100 or %q)", ErrInvalidProbability, s, RandomToken)
	}

	return Probability{Percent: percent}, nil
}

// DelayRange is a closed interval of minutes to draw the jittered delay from.
type DelayRange struct {
	Min float64
	Max float64
}

// singleValueSpan is added to a lone minimum to form its implied range.
const singleValueSpan = 5.0

// ParseDelayRange parses the -r argument grammar. Absent (empty string)
// means no delay at all. The bare-flag token means the default 0-5 minute
// window. A single value m means m to m+5. A "min,max" pair is used as
// given. Values are minutes and may be fractional.
func ParseDelayRange(s string) (*DelayRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // Absence of the flag legitimately means "no delay".
	}

	if strings.EqualFold(s, DefaultDelayToken) {
		return &DelayRange{Min: 0, Max: singleValueSpan}, nil
	}

	parts := strings.Split(s, ",")

	switch len(parts) {
	case 1:
		minDelay, err := parseMinutes(parts[0])
		if err != nil {
			return nil, err
		}

		return &DelayRange{Min: minDelay, Max: minDelay + singleValueSpan}, nil
	case 2: //nolint:mnd // The min,max pair form.
		minDelay, err := parseMinutes(parts[0])
		if err != nil {
			return nil, err
		}

		maxDelay, err := parseMinutes(parts[1])
		if err != nil {
			return nil, err
		}

		if minDelay > maxDelay {
			return nil, fmt.Errorf("%w: minimum %v exceeds maximum %v", ErrInvalidDelay, minDelay, maxDelay)
		}

		return &DelayRange{Min: minDelay, Max: maxDelay}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want MIN or MIN,MAX)", ErrInvalidDelay, s)
	}
}

func parseMinutes(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q (want a non-negative number of minutes)", ErrInvalidDelay, s)
	}

	return v, nil
}

package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// errBadClockValue is returned when a portal duration cell cannot be parsed.
var errBadClockValue = errors.New("malformed clock value")

// ParseClock converts the portal's "HH:MM:SS" (or "HH:MM") text into a
// duration. Empty input parses as zero, matching a day with no activity.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", errBadClockValue, s)
	}

	var total time.Duration

	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", errBadClockValue, s)
		}

		total += time.Duration(v) * units[i]
	}

	return total, nil
}

// FormatClock renders a duration back into the portal's HH:MM:SS shape.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/nagazul/ttclock/internal/domain/clock"
)

// Row labels of the portal's clocking-info table.
const (
	labelFirstClock = "First clock in"
	labelTimeWorked = "All for today"
	labelTimeLeft   = "Time left"
	labelDate       = "Current Date"
)

// clockButtonCount is the number of buttons expected inside app-clock:
// index 0 clocks in, index 1 clocks out.
const clockButtonCount = 2

// buttonIndexFor maps an action to the portal button that performs it.
func buttonIndexFor(action clock.Action) (int, bool) {
	switch action {
	case clock.ActionClockIn:
		return 0, true
	case clock.ActionClockOut:
		return 1, true
	default:
		return 0, false
	}
}

// statusFromButtons derives the clock state from the disabled attributes:
// the clock-in button is disabled exactly while clocked in.
func statusFromButtons(disabled []bool) (clock.Status, error) {
	if len(disabled) < clockButtonCount {
		return "", newError(CauseElementNotFound, "read clock buttons",
			fmt.Errorf("found %d clock buttons, want %d", len(disabled), clockButtonCount))
	}

	if disabled[0] {
		return clock.StatusClockedIn, nil
	}

	return clock.StatusClockedOut, nil
}

// snapshotFromPage assembles a snapshot from the scraped table rows and the
// disabled states of the clock buttons. Rows the table does not carry leave
// their snapshot fields zero; durations that are present but malformed are
// an error because they indicate the page layout changed under us.
func snapshotFromPage(rows [][]string, buttonsDisabled []bool, observedAt time.Time) (clock.Snapshot, error) {
	status, err := statusFromButtons(buttonsDisabled)
	if err != nil {
		return clock.Snapshot{}, err
	}

	values := make(map[string]string, len(rows))

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		values[strings.TrimSpace(row[0])] = strings.TrimSpace(row[1])
	}

	worked, err := clock.ParseClock(values[labelTimeWorked])
	if err != nil {
		return clock.Snapshot{}, newError(CauseProtocol, "parse time worked", err)
	}

	left, err := clock.ParseClock(values[labelTimeLeft])
	if err != nil {
		return clock.Snapshot{}, newError(CauseProtocol, "parse time left", err)
	}

	return clock.Snapshot{
		Status:     status,
		FirstClock: values[labelFirstClock],
		TimeWorked: worked,
		TimeLeft:   left,
		Date:       normalizeDate(values[labelDate]),
		ObservedAt: observedAt,
	}, nil
}

// normalizeDate converts the portal's DD/MM/YYYY dates to YYYY-MM-DD.
// Anything that does not look like that passes through unchanged.
func normalizeDate(raw string) string {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return raw
	}

	day, month, year := parts[0], parts[1], parts[2]
	if len(day) != 2 || len(month) != 2 || len(year) != 4 {
		return raw
	}

	return fmt.Sprintf("%s-%s-%s", year, month, day)
}

package portal

import (
	"errors"
	"fmt"
)

// Cause classifies a driver failure for logging, notification and retry
// decisions made by the caller.
type Cause int

const (
	// CauseUnknown covers failures with no better classification.
	CauseUnknown Cause = iota
	// CauseAuth marks failures inside the sign-on flow.
	CauseAuth
	// CauseNavigationTimeout marks a page that never finished loading.
	CauseNavigationTimeout
	// CauseElementNotFound marks an expected page element that never appeared.
	CauseElementNotFound
	// CauseNetwork marks connection-level failures reaching the portal.
	CauseNetwork
	// CauseProtocol marks browser or scrape-shape failures, including a
	// page whose structure no longer matches expectations.
	CauseProtocol
)

// String returns the cause label used in logs and notifications.
func (c Cause) String() string {
	switch c {
	case CauseAuth:
		return "auth failure"
	case CauseNavigationTimeout:
		return "navigation timeout"
	case CauseElementNotFound:
		return "element not found"
	case CauseNetwork:
		return "network error"
	case CauseProtocol:
		return "protocol error"
	case CauseUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Error is a typed driver failure. Op names the step that failed.
type Error struct {
	Cause Cause
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("portal %s: %s", e.Op, e.Cause)
	}

	return fmt.Sprintf("portal %s: %s: %v", e.Op, e.Cause, e.Err)
}

// Unwrap exposes the underlying failure for errors.Is chains, so a
// context cancellation inside a browser step still maps to the
// interrupted exit code.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds a typed failure for the given step.
func newError(cause Cause, op string, err error) *Error {
	return &Error{Cause: cause, Op: op, Err: err}
}

// IsCause reports whether err is a driver failure with the given cause.
func IsCause(err error, cause Cause) bool {
	var driverErr *Error
	if !errors.As(err, &driverErr) {
		return false
	}

	return driverErr.Cause == cause
}

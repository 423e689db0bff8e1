package clock

import (
	"errors"
	"fmt"
)

// Command is the caller's intent, not a system state.
type Command string

const (
	// CommandStatus requests a read-only inspection of the remote state.
	CommandStatus Command = "status"
	// CommandIn requests the clocked-in state.
	CommandIn Command = "in"
	// CommandOut requests the clocked-out state.
	CommandOut Command = "out"
	// CommandSwitch requests the complement of whatever the portal reports.
	CommandSwitch Command = "switch"
	// CommandAutoOut requests clock-out only once the required hours are done.
	CommandAutoOut Command = "auto-out"
)

// DefaultCommand is used when no positional command is given.
const DefaultCommand = CommandStatus

// errUnknownCommand is returned for commands outside the known set.
var errUnknownCommand = errors.New("unknown command")

// ParseCommand validates external input against the known command set.
func ParseCommand(s string) (Command, error) {
	switch Command(s) {
	case CommandStatus, CommandIn, CommandOut, CommandSwitch, CommandAutoOut:
		return Command(s), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownCommand, s)
	}
}

// Commands lists every valid command, in help order.
func Commands() []string {
	return []string{
		string(CommandStatus),
		string(CommandIn),
		string(CommandOut),
		string(CommandSwitch),
		string(CommandAutoOut),
	}
}

// Action is what reconciliation decided to perform against the portal.
type Action int

const (
	// ActionNone leaves the remote state untouched.
	ActionNone Action = iota
	// ActionClockIn presses the portal's clock-in button.
	ActionClockIn
	// ActionClockOut presses the portal's clock-out button.
	ActionClockOut
)

// String returns a human-readable action name for logs.
func (a Action) String() string {
	switch a {
	case ActionClockIn:
		return "clock-in"
	case ActionClockOut:
		return "clock-out"
	default:
		return "none"
	}
}

// Target returns the status the portal should report once the action has
// taken effect. ActionNone has no target and returns an empty status.
func (a Action) Target() Status {
	switch a {
	case ActionClockIn:
		return StatusClockedIn
	case ActionClockOut:
		return StatusClockedOut
	default:
		return ""
	}
}

package clock

// Resolve computes the minimal action that satisfies the command given a
// fresh snapshot. Re-running a command whose goal already holds yields
// ActionNone, which is a success, so repeated invocations never press a
// portal button more than once per actual transition.
func Resolve(cmd Command, current Snapshot) Action {
	switch cmd {
	case CommandIn:
		if current.Status == StatusClockedIn {
			return ActionNone
		}

		return ActionClockIn
	case CommandOut:
		if current.Status == StatusClockedOut {
			return ActionNone
		}

		return ActionClockOut
	case CommandSwitch:
		// Switch always acts; there is no already-satisfied short-circuit.
		if current.Status == StatusClockedIn {
			return ActionClockOut
		}

		return ActionClockIn
	case CommandAutoOut:
		// TimeLeft reading zero after a clock-out is not a trigger; the
		// status must still be clocked-in.
		if current.Status == StatusClockedIn && current.TimeLeft == 0 {
			return ActionClockOut
		}

		return ActionNone
	default:
		// CommandStatus and anything unrecognized never mutate remote state.
		return ActionNone
	}
}

// ShouldNotify reports whether this invocation observed a status transition
// worth announcing: either one we caused (result differs from the persisted
// state) or one that happened out-of-band since the previous run (the fresh
// read already differed before any action). The second comparison is what
// lets a plain status command surface manual portal activity as drift.
func ShouldNotify(last LastState, current, result Snapshot) bool {
	return current.Status != last.Status || result.Status != last.Status
}

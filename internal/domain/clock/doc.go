// Package clock contains the core domain types for the time-tracking logic.
//
// It defines Snapshot (the remote clock state at one observation), LastState
// (the durable record of the previous observation), Command (the caller's
// intent) and Action (what actually gets performed), together with the pure
// reconciliation rules that map a command and a fresh snapshot to the minimal
// action and the notification decision. The package performs no I/O, so every
// rule is testable without a browser or filesystem.
package clock

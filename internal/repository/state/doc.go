// Package state persists the last observed clock status between
// invocations.
//
// The FileRepository stores the record as a small YAML file and exposes a
// Repository interface the runner depends on. The record is deliberately
// human-readable so an operator can inspect or reset it by hand.
package state

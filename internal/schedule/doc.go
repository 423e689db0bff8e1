// Package schedule implements the humanizing layer wrapped around every
// invocation: a probability gate deciding whether to run at all, and a
// jittered delay desynchronizing invocations that cron fires at identical
// times. Both are computed from explicit parsed arguments, never from raw
// flag strings, and the decision itself is pure so it can be tested
// without clocks or sleeps.
package schedule

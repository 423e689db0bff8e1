// Package version exposes ttclock build metadata.
//
// Version, Commit and BuildTime are injected via ldflags and default to
// sensible values for local builds. Short and Full render the version
// string for CLI output and the startup log line.
package version

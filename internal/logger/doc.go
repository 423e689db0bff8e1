// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger plus per-invocation configuration,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - the session identity (correlation id, pid, host, user) stamped on
//     every line,
//   - a size-bounded rotating file sink with single-generation retention,
//   - level configuration and parsing utilities.
//
// All services accept a context and extract the logger from it, enabling
// scoped, structured logging throughout the codebase. Lines follow the
// wrapper-script format the log consumers already parse:
//
//	[XID:8a1f02cd PID:4242] 2026-08-24T17:45:02.123+0200 [INFO ] [host] [user] - message key=value
package logger

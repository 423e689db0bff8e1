// Package config loads portal credentials and tool settings from an
// environment file, with the process environment as fallback for values
// the file does not define.
//
// Files are resolved in order: an explicit --env-file path, ~/.ttclock.env,
// then ./.ttclock.env. The first match wins and its values override the
// process environment, matching how the credentials were always supplied.
package config

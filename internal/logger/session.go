package logger

import (
	"crypto/md5" //nolint:gosec // Correlation ids are not security material.
	"encoding/hex"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"
)

// EnvXID is the environment variable carrying an inherited correlation id,
// letting nested or chained invocations share one identifier.
const EnvXID = "XID"

// xidLength is the number of hex digits in a generated correlation id.
const xidLength = 8

// Session identifies one invocation. Its fields are stamped on every log
// line so overlapping cron runs can be told apart in a shared log file.
type Session struct {
	// XID is the short correlation id for this invocation.
	XID string
	// PID is the process id.
	PID int
	// Hostname is the short machine name.
	Hostname string
	// Username is the system user running the invocation.
	Username string
}

// NewSession gathers the invocation identity. Lookups are best-effort:
// logging identity must never prevent the action itself.
func NewSession() Session {
	return Session{
		XID:      ResolveXID(),
		PID:      os.Getpid(),
		Hostname: shortHostname(),
		Username: currentUsername(),
	}
}

// ResolveXID returns the correlation id inherited from the environment, or
// derives a fresh short id by hashing the current time.
func ResolveXID() string {
	if xid := strings.TrimSpace(os.Getenv(EnvXID)); xid != "" {
		return xid
	}

	sum := md5.Sum([]byte(strconv.FormatInt(time.Now().UnixNano(), 10))) //nolint:gosec // Not security material.

	return hex.EncodeToString(sum[:])[:xidLength]
}

// shortHostname returns the machine name up to the first dot.
func shortHostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		host, _, _ := strings.Cut(h, ".")
		return host
	}

	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}

	host, _, _ := strings.Cut(h, ".")

	return host
}

// currentUsername returns the system user, preferring the USER variable so
// sudo and cron environments report the intended identity.
func currentUsername() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}

	u, err := user.Current()
	if err != nil {
		return "unknown"
	}

	return u.Username
}

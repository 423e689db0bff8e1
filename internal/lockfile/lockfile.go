// Package lockfile serializes invocations against the same portal account
// on one host. Overlapping cron entries otherwise race the portal with the
// switch command; holding a pid file for the duration of the browser
// session turns the overlap into a clean skip.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/nagazul/ttclock/internal/logger"
)

// ErrHeld is returned when a live invocation already holds the lock.
var ErrHeld = errors.New("another invocation holds the lock")

// lockPermissions keeps the pid file private to the owning user.
const lockPermissions = 0o600

// acquireAttempts bounds the create/reclaim loop.
const acquireAttempts = 2

// Lock is a pid-file lock. The file holds the owner's pid so a crashed
// invocation can be detected and its lock reclaimed.
type Lock struct {
	path     string
	acquired bool
}

// New returns an unacquired lock at the provided path.
func New(path string) *Lock {
	return &Lock{path: filepath.Clean(path)}
}

// Acquire takes the lock, reclaiming it when the recorded holder is no
// longer running. A live holder is reported as ErrHeld so the caller can
// skip cleanly instead of racing the portal.
func (l *Lock) Acquire(ctx context.Context) error {
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockPermissions)
		if err == nil {
			return l.write(file)
		}

		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create lock file: %w", err)
		}

		holder, readErr := l.holderPID()
		if readErr == nil && processAlive(holder) {
			return fmt.Errorf("%w: pid %d at %s", ErrHeld, holder, l.path)
		}

		logger.WarnKV(ctx, "Removing stale lock file", "path", l.path, "holder_pid", holder)

		if err = os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale lock file: %w", err)
		}
	}

	return fmt.Errorf("%w: could not reclaim %s", ErrHeld, l.path)
}

// Release removes the lock if this process still owns it.
func (l *Lock) Release(ctx context.Context) {
	if !l.acquired {
		return
	}

	l.acquired = false

	if holder, err := l.holderPID(); err == nil && holder != os.Getpid() {
		logger.WarnKV(ctx, "Lock file no longer ours, leaving it", "path", l.path, "holder_pid", holder)
		return
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove lock file", "path", l.path, "error", err)
	}
}

func (l *Lock) write(file *os.File) error {
	_, err := fmt.Fprintf(file, "%d\n", os.Getpid())
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		// Do not leave a half-written lock behind.
		_ = os.Remove(l.path) //nolint:errcheck // Removal is best-effort on the error path.

		return fmt.Errorf("write lock file: %w", err)
	}

	l.acquired = true

	return nil
}

// holderPID reads the pid recorded in the lock file.
func (l *Lock) holderPID() (int, error) {
	contents, err := os.ReadFile(l.path)
	if err != nil {
		return 0, fmt.Errorf("read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("lock file %s does not contain a pid", l.path)
	}

	return pid, nil
}

// processAlive reports whether a process with the pid currently exists.
// Lookup errors count as alive so a lock is never stolen on uncertainty.
func processAlive(pid int) bool {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return true
	}

	return process != nil
}

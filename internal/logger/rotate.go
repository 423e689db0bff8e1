package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File permissions for the log directory and log files.
const (
	logDirPerm  = 0o755
	logFilePerm = 0o644
)

// rotatedSuffix is appended to the previous generation on rotation.
const rotatedSuffix = ".old"

// RotatingFile is a zapcore.WriteSyncer that keeps a single previous
// generation. When the active file would exceed maxBytes, it is renamed to
// "<path>.old" (replacing any earlier one) and a fresh file is started.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	size     int64
	file     *os.File
}

// NewRotatingFile opens (or creates) the log file at path, creating parent
// directories as needed. A maxBytes of zero or less disables rotation.
func NewRotatingFile(path string, maxBytes int64) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	r := &RotatingFile{
		path:     path,
		maxBytes: maxBytes,
	}

	if err := r.open(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *RotatingFile) open() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return fmt.Errorf("open log file %q: %w", r.path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck,gosec // Already failing, nothing useful to do with a close error.

		return fmt.Errorf("stat log file %q: %w", r.path, err)
	}

	r.file = file
	r.size = info.Size()

	return nil
}

// Write appends p, rotating first if the write would cross the size limit.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxBytes > 0 && r.size+int64(len(p)) > r.maxBytes && r.size > 0 {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)

	if err != nil {
		return n, fmt.Errorf("write log file %q: %w", r.path, err)
	}

	return n, nil
}

// rotate must be called with the mutex held.
func (r *RotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close log file %q: %w", r.path, err)
	}

	if err := os.Rename(r.path, r.path+rotatedSuffix); err != nil {
		return fmt.Errorf("rotate log file %q: %w", r.path, err)
	}

	return r.open()
}

// Sync flushes the active file to stable storage.
func (r *RotatingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("sync log file %q: %w", r.path, err)
	}

	return nil
}

// Close releases the underlying file handle.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close log file %q: %w", r.path, err)
	}

	return nil
}

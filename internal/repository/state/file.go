package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nagazul/ttclock/internal/domain/clock"
)

// Repository defines persistence operations for the last observed status.
type Repository interface {
	Load(ctx context.Context) (clock.LastState, error)
	Save(ctx context.Context, last clock.LastState) error
}

// statePermissions keeps the record private to the owning user.
const statePermissions = 0o600

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// FileRepository persists the last observed status to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the record from disk. A missing file is reported as
// ErrNotFound so the caller can substitute the default state.
func (r *FileRepository) Load(_ context.Context) (clock.LastState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return clock.LastState{}, ErrNotFound
		}

		return clock.LastState{}, fmt.Errorf("read state file: %w", err)
	}

	var last clock.LastState
	if err = yaml.Unmarshal(contents, &last); err != nil {
		return clock.LastState{}, fmt.Errorf("decode state file: %w", err)
	}

	return last, nil
}

// Save writes the record to disk, creating the parent directory if needed.
func (r *FileRepository) Save(_ context.Context, last clock.LastState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(last)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	if err = os.WriteFile(r.path, data, statePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nagazul/ttclock/internal/domain/clock"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns an equal record.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.yaml")
	repo := NewFileRepository(file)

	want := clock.LastState{
		Status:     clock.StatusClockedIn,
		ObservedAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want.Status, got.Status)
	require.Equal(t, want.ObservedAt.Unix(), got.ObservedAt.Unix())

	// The record stays private to the owning user.
	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(statePermissions), info.Mode().Perm())
}

// TestFileRepository_CreatesParentDirectory ensures Save works into a fresh directory.
func TestFileRepository_CreatesParentDirectory(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "nested", "dir", "state.yaml")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), clock.DefaultLastState()))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, clock.StatusClockedOut, got.Status)
}

// TestFileRepository_OverwritesPrevious ensures the newest observation wins.
func TestFileRepository_OverwritesPrevious(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.yaml")
	repo := NewFileRepository(file)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, clock.LastState{Status: clock.StatusClockedIn, ObservedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, clock.LastState{Status: clock.StatusClockedOut, ObservedAt: time.Now()}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, clock.StatusClockedOut, got.Status)
}

// TestFileRepository_RejectsGarbage ensures a corrupt file errors rather
// than silently resetting.
func TestFileRepository_RejectsGarbage(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(file, []byte("status: [unclosed"), 0o600))

	repo := NewFileRepository(file)

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

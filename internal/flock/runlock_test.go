//go:build unix

package flock_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/wsforge/wsforge/internal/errors"
	"github.com/wsforge/wsforge/internal/flock"
)

func TestRunLock(t *testing.T) {
	t.Parallel()

	t.Run("acquires and releases", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".wsforge.lock")

		lock, err := flock.Acquire(path)
		require.NoError(t, err)
		assert.Equal(t, path, lock.Path())
		require.NoError(t, lock.Release())
	})

	t.Run("second acquire fails while held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".wsforge.lock")

		first, err := flock.Acquire(path)
		require.NoError(t, err)
		defer func() { require.NoError(t, first.Release()) }()

		_, err = flock.Acquire(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, wserrors.ErrRunLocked)
	})

	t.Run("reacquire after release", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".wsforge.lock")

		first, err := flock.Acquire(path)
		require.NoError(t, err)
		require.NoError(t, first.Release())

		second, err := flock.Acquire(path)
		require.NoError(t, err)
		require.NoError(t, second.Release())
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".wsforge.lock")

		lock, err := flock.Acquire(path)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
		require.NoError(t, lock.Release())
	})
}

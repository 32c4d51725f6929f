// Package flock provides cross-platform file locking utilities.
//
// The parent workspace working tree has a single writer: the provisioning
// run itself. RunLock enforces that rule with an exclusive, non-blocking
// lock file at the workspace root so two runs (or two operators) cannot
// interleave scaffold deletes and submodule registrations.
package flock

import (
	"fmt"
	"os"

	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// RunLock holds an exclusive lock file for the duration of a provisioning run.
type RunLock struct {
	file *os.File
	path string
}

// Acquire opens (creating if needed) the lock file at path and takes an
// exclusive non-blocking lock on it. Returns ErrRunLocked if another
// process already holds it.
func Acquire(path string) (*RunLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- path is the workspace lock file
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := Exclusive(f.Fd()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", wserrors.ErrRunLocked, path)
	}

	return &RunLock{file: f, path: path}, nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. Safe to call once.
// The lock file itself is left in place; it is ignored by version control.
func (l *RunLock) Release() error {
	if l.file == nil {
		return nil
	}
	unlockErr := Unlock(l.file.Fd())
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("failed to release lock: %w", unlockErr)
	}
	return closeErr
}

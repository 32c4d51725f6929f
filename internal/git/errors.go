// Package git provides version-control operations for wsforge.
// This file provides error sentinel re-exports from internal/errors.
package git

import (
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// ErrGitOperation is re-exported from internal/errors for convenience.
// Use errors.Is(err, ErrGitOperation) to check for git operation failures.
var ErrGitOperation = wserrors.ErrGitOperation

// ErrNotGitRepo is re-exported from internal/errors for convenience.
// Returned when the path is not a git repository.
var ErrNotGitRepo = wserrors.ErrNotGitRepo

// ErrPushDiverged is re-exported from internal/errors for convenience.
// Returned when a push is rejected because the remote history diverged.
var ErrPushDiverged = wserrors.ErrPushDiverged

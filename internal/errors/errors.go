// Package errors provides centralized error handling for wsforge.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrPrecondition indicates an environment precondition failed
	// (missing tool, unauthenticated session, unreachable daemon).
	// Preconditions are fatal: nothing downstream can succeed.
	ErrPrecondition = errors.New("precondition failed")

	// ErrMissingRequiredTools indicates required tools are missing or outdated.
	ErrMissingRequiredTools = errors.New("required tools are missing or outdated")

	// ErrDaemonNotRunning indicates the container daemon did not come up
	// within the bounded polling window.
	ErrDaemonNotRunning = errors.New("container daemon not running")

	// ErrAuthRequired indicates the hosting service session is not authenticated.
	ErrAuthRequired = errors.New("hosting authentication required")

	// ErrNamespaceAccess indicates the authenticated identity cannot access
	// the target namespace.
	ErrNamespaceAccess = errors.New("namespace access denied")

	// ErrScaffold indicates a component scaffold could not be generated.
	// Scaffold errors are component-local and do not halt the run.
	ErrScaffold = errors.New("scaffold generation failed")

	// ErrScaffoldAmbiguous indicates the component directory exists, is
	// non-empty, and is not a recognized scaffold. Overwriting is refused.
	ErrScaffoldAmbiguous = errors.New("directory is not a recognized scaffold")

	// ErrBuildCheckFailed indicates the scaffold's build check failed.
	// Non-fatal: the component is still published so it can be fixed later.
	ErrBuildCheckFailed = errors.New("scaffold build check failed")

	// ErrGitOperation indicates that a git command failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrPushDiverged indicates the remote rejected a push because its
	// history has diverged. Never retried, never force-pushed.
	ErrPushDiverged = errors.New("push rejected: remote history diverged")

	// ErrPushAuthFailed indicates that git push failed due to authentication.
	ErrPushAuthFailed = errors.New("push authentication failed")

	// ErrPushNetworkFailed indicates that git push failed due to network
	// issues after exhausting retries.
	ErrPushNetworkFailed = errors.New("push network failed")

	// ErrRepoCreateDenied indicates remote repository creation failed due to
	// insufficient permissions (distinct from "already exists").
	ErrRepoCreateDenied = errors.New("repository creation denied")

	// ErrHostingOperation indicates a hosting service operation failed.
	ErrHostingOperation = errors.New("hosting operation failed")

	// ErrRateLimited indicates the hosting API rate limit was exceeded.
	ErrRateLimited = errors.New("hosting API rate limited")

	// ErrLink indicates sub-repository registration failed.
	ErrLink = errors.New("sub-repository link failed")

	// ErrUnpushedRevision indicates an attempt to link a revision that was
	// never confirmed pushed. Publish-before-link is mandatory.
	ErrUnpushedRevision = errors.New("revision not present on remote")

	// ErrAssemble indicates the parent workspace could not be committed
	// or published. Fatal for the whole run.
	ErrAssemble = errors.New("workspace assembly failed")

	// ErrInvalidTransition indicates an attempt to make an invalid
	// component state transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrRunLocked indicates another provisioning run holds the workspace lock.
	ErrRunLocked = errors.New("workspace is locked by another run")

	// ErrInterrupted indicates the run was stopped at a transition boundary
	// after an interrupt signal.
	ErrInterrupted = errors.New("run interrupted")

	// ErrConfigNotFound indicates the manifest file was not found.
	ErrConfigNotFound = errors.New("manifest file not found")

	// ErrConfigInvalid indicates the manifest failed validation.
	ErrConfigInvalid = errors.New("invalid manifest")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrCommandNotConfigured indicates that a mock command was not configured in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrUnknownTemplate indicates the component references a scaffold
	// template that has no registered engine.
	ErrUnknownTemplate = errors.New("unknown scaffold template")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the force flag.
	ErrNonInteractiveMode = errors.New("use --force in non-interactive mode")

	// ErrOperationCanceled indicates the user declined a confirmation prompt.
	ErrOperationCanceled = errors.New("operation canceled by user")

	// ErrProvisionIncomplete indicates one or more components did not reach
	// the linked state. The run exits non-zero but completed components stay.
	ErrProvisionIncomplete = errors.New("provisioning incomplete")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}

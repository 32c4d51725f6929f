// Package git provides version-control operations for wsforge.
// This file implements the PushService for pushing commits with retry.
package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/ctxutil"
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// PushErrorType classifies push failures for appropriate handling.
type PushErrorType int

const (
	// PushErrorNone indicates no error occurred.
	PushErrorNone PushErrorType = iota
	// PushErrorAuth indicates authentication failed - don't retry.
	PushErrorAuth
	// PushErrorNetwork indicates a network issue - retry with backoff.
	PushErrorNetwork
	// PushErrorTimeout indicates a timeout - retry with backoff.
	PushErrorTimeout
	// PushErrorDiverged indicates the remote has commits the local history
	// doesn't - fatal, requires operator intervention, never force-pushed.
	PushErrorDiverged
	// PushErrorOther indicates an unknown error - don't retry.
	PushErrorOther
)

// String returns a string representation of the error type.
func (t PushErrorType) String() string {
	switch t {
	case PushErrorNone:
		return "none"
	case PushErrorAuth:
		return "auth"
	case PushErrorNetwork:
		return "network"
	case PushErrorTimeout:
		return "timeout"
	case PushErrorDiverged:
		return "diverged"
	case PushErrorOther:
		return "other"
	}
	return "other"
}

// PushOptions configures the push operation.
type PushOptions struct {
	// Remote is the remote to push to (default: "origin").
	Remote string
	// Branch is the branch to push.
	Branch string
	// SetUpstream sets the upstream tracking reference if true.
	SetUpstream bool
}

// PushResult contains the outcome of a push operation.
type PushResult struct {
	// Success indicates whether the push succeeded.
	Success bool
	// ErrorType classifies the error if push failed.
	ErrorType PushErrorType
	// Attempts is the number of push attempts made.
	Attempts int
	// FinalErr is the final error if push failed.
	FinalErr error
}

// PushService provides high-level push operations with retry.
type PushService interface {
	// Push pushes commits to the remote repository with retry logic.
	// Transient failures are retried with bounded backoff; diverged and
	// auth failures are returned immediately.
	Push(ctx context.Context, opts PushOptions) (*PushResult, error)
}

// Compile-time interface check.
var _ PushService = (*PushRunner)(nil)

// PushRunner implements PushService using the git Runner.
type PushRunner struct {
	runner Runner
	logger zerolog.Logger
	config RetryConfig
}

// PushRunnerOption configures a PushRunner.
type PushRunnerOption func(*PushRunner)

// NewPushRunner creates a PushRunner with the given git runner.
func NewPushRunner(runner Runner, opts ...PushRunnerOption) *PushRunner {
	pr := &PushRunner{
		runner: runner,
		logger: zerolog.Nop(),
		config: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

// WithPushLogger sets the logger for push operations.
func WithPushLogger(logger zerolog.Logger) PushRunnerOption {
	return func(pr *PushRunner) {
		pr.logger = logger
	}
}

// WithPushRetryConfig sets custom retry configuration.
func WithPushRetryConfig(config RetryConfig) PushRunnerOption {
	return func(pr *PushRunner) {
		pr.config = config
	}
}

// Push pushes commits to the remote repository with retry logic.
func (p *PushRunner) Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if opts.Remote == "" {
		opts.Remote = constants.DefaultRemote
	}
	if opts.Branch == "" {
		return nil, fmt.Errorf("branch name cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	op := &SimpleRetryOperation[pushAttemptResult]{
		AttemptFunc: func(ctx context.Context, attempt int) (pushAttemptResult, bool, error) {
			result := p.attemptPush(ctx, opts, attempt)
			return result, result.success, result.err
		},
		ShouldRetryFunc: func(err error) bool {
			errType := ClassifyPushError(err)
			return errType == PushErrorNetwork || errType == PushErrorTimeout
		},
		OnRetryWaitFunc: func(attempt int, delay time.Duration) {
			p.logger.Info().
				Int("next_attempt", attempt+1).
				Dur("delay", delay).
				Msg("retrying push")
		},
	}

	attemptResult, attempts, err := ExecuteWithRetry(ctx, p.config, op)

	result := &PushResult{Attempts: attempts}
	if err == nil && attemptResult.success {
		result.Success = true
		p.logger.Info().
			Int("attempts", attempts).
			Str("remote", opts.Remote).
			Str("branch", opts.Branch).
			Msg("push succeeded")
		return result, nil
	}

	// Handle context cancellation directly without wrapping.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result.ErrorType = attemptResult.errType
	result.FinalErr = attemptResult.err

	return result, p.buildFinalError(result)
}

// pushAttemptResult holds the result of a single push attempt.
type pushAttemptResult struct {
	success bool
	errType PushErrorType
	err     error
}

// attemptPush performs a single push attempt.
func (p *PushRunner) attemptPush(ctx context.Context, opts PushOptions, attempt int) pushAttemptResult {
	p.logger.Info().
		Int("attempt", attempt).
		Str("remote", opts.Remote).
		Str("branch", opts.Branch).
		Bool("set_upstream", opts.SetUpstream).
		Msg("pushing to remote")

	err := p.runner.Push(ctx, opts.Remote, opts.Branch, opts.SetUpstream)
	if err == nil {
		return pushAttemptResult{success: true}
	}

	errType := ClassifyPushError(err)
	p.logger.Warn().
		Err(err).
		Int("attempt", attempt).
		Str("error_type", errType.String()).
		Msg("push failed")

	return pushAttemptResult{success: false, errType: errType, err: err}
}

// buildFinalError builds the appropriate error based on the error type.
// Only called when retry logic exhausts or a non-retryable error occurs.
func (p *PushRunner) buildFinalError(result *PushResult) error {
	switch result.ErrorType {
	case PushErrorNone:
		return nil
	case PushErrorAuth:
		return fmt.Errorf("authentication failed: %w", wserrors.ErrPushAuthFailed)
	case PushErrorNetwork, PushErrorTimeout:
		return fmt.Errorf("push failed after %d attempts: %w", result.Attempts, wserrors.ErrPushNetworkFailed)
	case PushErrorDiverged:
		return fmt.Errorf("%w: %v", wserrors.ErrPushDiverged, result.FinalErr)
	case PushErrorOther:
		return fmt.Errorf("failed to push: %w", result.FinalErr)
	}
	return fmt.Errorf("failed to push: %w", result.FinalErr)
}

// ClassifyPushError classifies a push error for retry handling.
// Uses shared pattern matchers from error_classifier.go.
func ClassifyPushError(err error) PushErrorType {
	if err == nil {
		return PushErrorNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return PushErrorTimeout
	}

	errStr := err.Error()

	// Auth before diverged: "permission denied" rejections carry the word
	// "rejected" in some transports.
	if MatchesAuthError(errStr) {
		return PushErrorAuth
	}
	if MatchesNetworkError(errStr) {
		return PushErrorNetwork
	}
	if MatchesDivergedError(errStr) {
		return PushErrorDiverged
	}

	return PushErrorOther
}

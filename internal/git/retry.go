// Package git provides version-control operations for wsforge.
// This file implements shared retry logic for remote operations.
package git

import (
	"context"
	"time"

	"github.com/wsforge/wsforge/internal/constants"
)

// RetryConfig configures retry behavior for remote operations.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (default: 3).
	MaxAttempts int
	// InitialDelay is the initial delay between retries (default: 2s).
	InitialDelay time.Duration
	// MaxDelay is the maximum delay cap (default: 30s).
	MaxDelay time.Duration
	// Multiplier is the delay multiplier per attempt (default: 2.0).
	Multiplier float64
}

// DefaultRetryConfig returns the default retry configuration for push operations.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  constants.MaxPushAttempts,
		InitialDelay: constants.InitialPushBackoff,
		MaxDelay:     constants.MaxPushBackoff,
		Multiplier:   2.0,
	}
}

// RetryableOperation defines the interface for operations that can be retried.
// Implementations provide the attempt logic and retry decision making.
type RetryableOperation[R any] interface {
	// Attempt performs a single attempt and returns the result.
	// success indicates if the attempt succeeded.
	Attempt(ctx context.Context, attempt int) (result R, success bool, err error)

	// ShouldRetry returns true if the operation should be retried given the error.
	ShouldRetry(err error) bool

	// OnRetryWait is called before waiting for the next retry (optional logging/progress).
	OnRetryWait(attempt int, delay time.Duration)
}

// ExecuteWithRetry executes an operation with bounded exponential backoff.
// Returns the result, total attempts made, and any final error. Retrying
// must fail loudly rather than loop forever: attempts are capped by the
// config and the context is honored while waiting.
func ExecuteWithRetry[R any](
	ctx context.Context,
	config RetryConfig,
	op RetryableOperation[R],
) (result R, attempts int, finalErr error) {
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		attempts = attempt

		res, success, err := op.Attempt(ctx, attempt)
		if success {
			return res, attempts, nil
		}

		// Store both the result and error from the failed attempt
		result = res
		finalErr = err

		if !op.ShouldRetry(err) {
			break
		}

		// Wait before retrying (unless this is the last attempt)
		if attempt < config.MaxAttempts {
			op.OnRetryWait(attempt, delay)

			select {
			case <-ctx.Done():
				return result, attempts, ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * config.Multiplier)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return result, attempts, finalErr
}

// SimpleRetryOperation provides a func-based implementation for common cases.
type SimpleRetryOperation[R any] struct {
	AttemptFunc     func(ctx context.Context, attempt int) (R, bool, error)
	ShouldRetryFunc func(err error) bool
	OnRetryWaitFunc func(attempt int, delay time.Duration)
}

// Attempt implements RetryableOperation.
func (s *SimpleRetryOperation[R]) Attempt(ctx context.Context, attempt int) (R, bool, error) {
	return s.AttemptFunc(ctx, attempt)
}

// ShouldRetry implements RetryableOperation.
func (s *SimpleRetryOperation[R]) ShouldRetry(err error) bool {
	if s.ShouldRetryFunc == nil {
		return false
	}
	return s.ShouldRetryFunc(err)
}

// OnRetryWait implements RetryableOperation.
func (s *SimpleRetryOperation[R]) OnRetryWait(attempt int, delay time.Duration) {
	if s.OnRetryWaitFunc != nil {
		s.OnRetryWaitFunc(attempt, delay)
	}
}

// Compile-time interface check.
var _ RetryableOperation[any] = (*SimpleRetryOperation[any])(nil)

package git

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsforge/wsforge/internal/constants"
)

var errRetryTest = errors.New("transient failure")

func TestDefaultRetryConfigUsesSharedLimits(t *testing.T) {
	t.Parallel()

	cfg := DefaultRetryConfig()
	assert.Equal(t, constants.MaxPushAttempts, cfg.MaxAttempts)
	assert.Equal(t, constants.InitialPushBackoff, cfg.InitialDelay)
	assert.Equal(t, constants.MaxPushBackoff, cfg.MaxDelay)
}

func TestExecuteWithRetrySucceedsEventually(t *testing.T) {
	t.Parallel()

	calls := 0
	op := &SimpleRetryOperation[string]{
		AttemptFunc: func(_ context.Context, _ int) (string, bool, error) {
			calls++
			if calls < 3 {
				return "", false, errRetryTest
			}
			return "done", true, nil
		},
		ShouldRetryFunc: func(error) bool { return true },
	}

	result, attempts, err := ExecuteWithRetry(context.Background(), fastRetryConfig(), op)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetryStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	calls := 0
	op := &SimpleRetryOperation[string]{
		AttemptFunc: func(_ context.Context, _ int) (string, bool, error) {
			calls++
			return "", false, errRetryTest
		},
		ShouldRetryFunc: func(error) bool { return false },
	}

	_, attempts, err := ExecuteWithRetry(context.Background(), fastRetryConfig(), op)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	op := &SimpleRetryOperation[string]{
		AttemptFunc: func(_ context.Context, _ int) (string, bool, error) {
			return "", false, errRetryTest
		},
		ShouldRetryFunc: func(error) bool { return true },
	}

	_, attempts, err := ExecuteWithRetry(context.Background(), fastRetryConfig(), op)
	assert.ErrorIs(t, err, errRetryTest)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetryHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	op := &SimpleRetryOperation[string]{
		AttemptFunc: func(_ context.Context, _ int) (string, bool, error) {
			cancel()
			return "", false, errRetryTest
		},
		ShouldRetryFunc: func(error) bool { return true },
	}

	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}
	_, attempts, err := ExecuteWithRetry(ctx, cfg, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Positive(t, cfg.InitialDelay)
	assert.GreaterOrEqual(t, cfg.MaxDelay, cfg.InitialDelay)
}

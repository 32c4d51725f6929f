package preflight

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// DaemonChecker verifies the container daemon is reachable, starting it
// where the platform supports a best-effort launch.
type DaemonChecker struct {
	executor CommandExecutor
	logger   zerolog.Logger
	interval time.Duration
	attempts int
}

// DaemonCheckerOption configures a DaemonChecker.
type DaemonCheckerOption func(*DaemonChecker)

// NewDaemonChecker creates a DaemonChecker with the default executor.
func NewDaemonChecker(opts ...DaemonCheckerOption) *DaemonChecker {
	c := &DaemonChecker{
		executor: &DefaultCommandExecutor{},
		logger:   zerolog.Nop(),
		interval: constants.DaemonPollInterval,
		attempts: constants.DaemonPollMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithDaemonExecutor sets a custom command executor (for testing).
func WithDaemonExecutor(executor CommandExecutor) DaemonCheckerOption {
	return func(c *DaemonChecker) {
		c.executor = executor
	}
}

// WithDaemonLogger sets the logger for daemon checks.
func WithDaemonLogger(logger zerolog.Logger) DaemonCheckerOption {
	return func(c *DaemonChecker) {
		c.logger = logger
	}
}

// WithDaemonPolling overrides the poll interval and attempt bound.
func WithDaemonPolling(interval time.Duration, attempts int) DaemonCheckerOption {
	return func(c *DaemonChecker) {
		c.interval = interval
		c.attempts = attempts
	}
}

// Ensure verifies the daemon responds, attempting a platform launch and
// polling until it comes up or the attempt bound is exhausted. Polling is
// bounded so a daemon that never starts fails the run instead of hanging it.
func (c *DaemonChecker) Ensure(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if c.isRunning(ctx) {
		return nil
	}

	c.tryStart(ctx)

	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.interval):
		}

		if c.isRunning(ctx) {
			c.logger.Info().
				Int("attempt", attempt).
				Msg("container daemon is up")
			return nil
		}

		c.logger.Debug().
			Int("attempt", attempt).
			Int("max_attempts", c.attempts).
			Msg("waiting for container daemon")
	}

	return fmt.Errorf("container daemon did not respond after %d attempts: %w",
		c.attempts, wserrors.ErrDaemonNotRunning)
}

// isRunning probes the daemon with docker info.
func (c *DaemonChecker) isRunning(ctx context.Context) bool {
	_, err := c.executor.Run(ctx, constants.ToolDocker, "info")
	return err == nil
}

// tryStart makes a best-effort attempt to launch the daemon. Only macOS
// exposes a user-level launcher; elsewhere the daemon is a system service
// the user must start themselves.
func (c *DaemonChecker) tryStart(ctx context.Context) {
	if runtime.GOOS != "darwin" {
		c.logger.Debug().
			Str("goos", runtime.GOOS).
			Msg("no daemon launcher on this platform")
		return
	}

	c.logger.Info().Msg("attempting to start Docker Desktop")
	if _, err := c.executor.Run(ctx, "open", "-a", "Docker"); err != nil {
		c.logger.Warn().Err(err).Msg("could not launch Docker Desktop")
	}
}

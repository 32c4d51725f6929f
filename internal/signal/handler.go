// Package signal provides interrupt handling for wsforge runs.
//
// A provisioning run has no safe mid-transition cancellation point: stopping
// in the middle of a push or a scaffold delete leaves a component in an
// ambiguous state that only the resume logic can repair. The handler
// therefore records the first SIGINT/SIGTERM and lets the engine stop at the
// next state transition boundary. A second signal force-cancels the context
// for operators who accept the ambiguity.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages deferred interruption for a provisioning run.
type Handler struct {
	ctx         context.Context //nolint:containedctx // intentional: handler manages context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{} // signals listen() to exit cleanly
	once        sync.Once
	stopOnce    sync.Once
	sigChan     chan os.Signal
}

// NewHandler creates a signal handler that listens for SIGINT and SIGTERM.
// The first signal closes the Interrupted channel; the second cancels the
// context.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	ctx = h.Context()
//
//	// between component transitions:
//	select {
//	case <-h.Interrupted():
//	    // stop cleanly at the boundary
//	default:
//	}
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffer of 1 ensures signal.Notify doesn't drop signals if handler is busy.
		// See: https://pkg.go.dev/os/signal#Notify
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the handler's context. It is only canceled by a second
// signal or by Stop; a single interrupt leaves in-flight operations running.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when the first signal is received.
// The engine polls it between component state transitions.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// WasInterrupted reports whether an interrupt signal has been received.
func (h *Handler) WasInterrupted() bool {
	select {
	case <-h.interrupted:
		return true
	default:
		return false
	}
}

// Stop cleans up the signal handler and stops listening for signals.
// Always call this when done to prevent resource leaks.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done) // Signal listen() to exit before closing sigChan
		h.cancel()
	})
}

// listen waits for signals until Stop is called. The first signal marks the
// run interrupted; any further signal cancels the context immediately.
func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-h.sigChan:
			if !ok {
				return
			}
			first := false
			h.once.Do(func() {
				close(h.interrupted)
				first = true
			})
			if !first {
				h.cancel()
			}
		}
	}
}

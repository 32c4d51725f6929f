// Package link replaces published scaffolds with pinned sub-repositories.
package link

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/ctxutil"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
	"github.com/wsforge/wsforge/internal/git"
)

// registrationAttempts bounds submodule registration retries. The scaffold
// is gone after the delete, so registration gets a second chance from the
// remote before the run fails.
const registrationAttempts = 2

// Linker converts published component directories into sub-repository
// links in the parent workspace.
//
// Link is the only destructive step in provisioning. It refuses to delete
// anything until the remote provably holds the pushed revision: once the
// local directory is gone, the remote is the sole source of truth.
type Linker struct {
	runner git.Runner
	root   string
	logger zerolog.Logger
}

// LinkerOption configures a Linker.
type LinkerOption func(*Linker)

// NewLinker creates a Linker over the parent workspace repository.
func NewLinker(root string, runner git.Runner, opts ...LinkerOption) *Linker {
	l := &Linker{
		runner: runner,
		root:   root,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithLinkLogger sets the logger for link operations.
func WithLinkLogger(logger zerolog.Logger) LinkerOption {
	return func(l *Linker) {
		l.logger = logger
	}
}

// Link deletes the local scaffold and registers the remote as a
// sub-repository at the same path. If registration fails after the
// delete it is re-attempted from the remote; local content is never
// reconstructed.
func (l *Linker) Link(ctx context.Context, handle *domain.RemoteRepositoryHandle, spec domain.ComponentSpec) (*domain.SubRepositoryLink, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	log := l.logger.With().Str("component", spec.Name).Str("path", spec.Path).Logger()

	if err := l.verifyPushed(ctx, handle, spec); err != nil {
		return nil, err
	}

	dir := filepath.Join(l.root, spec.Path)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("component %s: removing scaffold: %w: %w", spec.Name, wserrors.ErrLink, err)
	}
	log.Info().Msg("scaffold directory removed, registering sub-repository")

	if err := l.register(ctx, handle, spec); err != nil {
		return nil, err
	}

	pin, err := l.pinnedRevision(ctx, spec)
	if err != nil {
		return nil, err
	}

	log.Info().Str("revision", pin).Msg("component linked")

	return &domain.SubRepositoryLink{
		Path:           spec.Path,
		RemoteURL:      handle.CloneURL,
		PinnedRevision: pin,
	}, nil
}

// verifyPushed confirms the remote head carries the revision the publisher
// reported. Deleting before this holds would destroy the only copy.
func (l *Linker) verifyPushed(ctx context.Context, handle *domain.RemoteRepositoryHandle, spec domain.ComponentSpec) error {
	if handle.PushedRevision == "" {
		return fmt.Errorf("component %s has no pushed revision: %w", spec.Name, wserrors.ErrUnpushedRevision)
	}

	remoteHead, err := l.runner.LsRemoteHead(ctx, handle.CloneURL, constants.DefaultBranch)
	if err != nil {
		return fmt.Errorf("component %s: reading remote head: %w", spec.Name, err)
	}
	if remoteHead != handle.PushedRevision {
		return fmt.Errorf("component %s: remote head %s does not match pushed revision %s: %w",
			spec.Name, remoteHead, handle.PushedRevision, wserrors.ErrUnpushedRevision)
	}
	return nil
}

// register adds the submodule, re-attempting from the remote on failure.
func (l *Linker) register(ctx context.Context, handle *domain.RemoteRepositoryHandle, spec domain.ComponentSpec) error {
	var lastErr error
	for attempt := 1; attempt <= registrationAttempts; attempt++ {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		lastErr = l.runner.SubmoduleAdd(ctx, handle.CloneURL, spec.Path)
		if lastErr == nil {
			return nil
		}

		l.logger.Warn().
			Err(lastErr).
			Str("component", spec.Name).
			Int("attempt", attempt).
			Msg("sub-repository registration failed")

		// A partial clone from the failed attempt blocks the retry.
		_ = os.RemoveAll(filepath.Join(l.root, spec.Path))
	}
	return fmt.Errorf("component %s: registering sub-repository: %w: %w", spec.Name, wserrors.ErrLink, lastErr)
}

// pinnedRevision reads back the recorded pin for the component path.
func (l *Linker) pinnedRevision(ctx context.Context, spec domain.ComponentSpec) (string, error) {
	entries, err := l.runner.SubmoduleStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("component %s: %w", spec.Name, err)
	}
	for _, entry := range entries {
		if entry.Path == spec.Path && entry.HasPin() {
			return entry.Revision, nil
		}
	}
	return "", fmt.Errorf("component %s: no pin recorded at %s: %w", spec.Name, spec.Path, wserrors.ErrLink)
}

// Package provision orchestrates the end-to-end workspace provisioning run:
// preflight verification, the per-component scaffold/publish/link pipeline,
// and final workspace assembly.
package provision

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/ctxutil"
	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/git"
	"github.com/wsforge/wsforge/internal/hosting"
	"github.com/wsforge/wsforge/internal/scaffold"
)

// RepoChecker is the subset of the hosting provider state detection needs.
type RepoChecker interface {
	RepoExists(ctx context.Context, fullName string) (bool, error)
}

// Detector determines how far a component progressed in an earlier run by
// inspecting durable evidence: the parent's sub-repository registrations,
// the remote repository, and the local scaffold directory. Nothing else is
// consulted; there is no state file to drift out of sync.
type Detector struct {
	root    string
	runner  git.Runner
	checker RepoChecker
	logger  zerolog.Logger
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// NewDetector creates a Detector over the parent workspace repository.
func NewDetector(root string, runner git.Runner, checker RepoChecker, opts ...DetectorOption) *Detector {
	d := &Detector{
		root:    root,
		runner:  runner,
		checker: checker,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithDetectorLogger sets the logger for state detection.
func WithDetectorLogger(logger zerolog.Logger) DetectorOption {
	return func(d *Detector) {
		d.logger = logger
	}
}

// Detect returns the component's current state. For states past scaffolding
// it also returns a remote handle carrying the evidence: the pinned revision
// for a linked component, the remote head for a published one.
func (d *Detector) Detect(ctx context.Context, spec domain.ComponentSpec, namespace string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return domain.StateUnscaffolded, nil, err
	}

	fullName := spec.FullRepo(namespace)
	cloneURL := hosting.CloneURL(fullName)

	if d.runner.IsRepo(ctx) {
		entries, err := d.runner.SubmoduleStatus(ctx)
		if err != nil {
			return domain.StateUnscaffolded, nil, fmt.Errorf("component %s: reading sub-repository state: %w", spec.Name, err)
		}
		for _, entry := range entries {
			if entry.Path == spec.Path && entry.HasPin() {
				return domain.StateLinked, &domain.RemoteRepositoryHandle{
					FullName:       fullName,
					CloneURL:       cloneURL,
					Status:         domain.CreationAlreadyExists,
					PushedRevision: entry.Revision,
				}, nil
			}
		}
	}

	exists, err := d.checker.RepoExists(ctx, fullName)
	if err != nil {
		return domain.StateUnscaffolded, nil, fmt.Errorf("component %s: checking remote: %w", spec.Name, err)
	}
	if exists {
		head, err := d.runner.LsRemoteHead(ctx, cloneURL, constants.DefaultBranch)
		if err != nil {
			return domain.StateUnscaffolded, nil, fmt.Errorf("component %s: reading remote head: %w", spec.Name, err)
		}
		// An empty remote means creation succeeded but the push never
		// landed, so the component is at most scaffolded.
		if head != "" {
			return domain.StatePublished, &domain.RemoteRepositoryHandle{
				FullName:       fullName,
				CloneURL:       cloneURL,
				Status:         domain.CreationAlreadyExists,
				PushedRevision: head,
			}, nil
		}
	}

	if scaffold.Recognized(filepath.Join(d.root, spec.Path), spec.Template) {
		return domain.StateScaffolded, nil, nil
	}

	return domain.StateUnscaffolded, nil, nil
}

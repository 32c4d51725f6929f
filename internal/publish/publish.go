// Package publish turns a scaffolded component into a pushed remote repository.
package publish

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/ctxutil"
	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/git"
	"github.com/wsforge/wsforge/internal/hosting"
)

// RunnerFactory builds a git runner bound to a working directory.
type RunnerFactory func(workDir string) (git.Runner, error)

// PusherFactory builds a push service over a git runner.
type PusherFactory func(runner git.Runner) git.PushService

// Publisher publishes scaffolded components to the hosting service.
//
// The ordering inside Publish is load-bearing: the remote repository must
// exist before any push is attempted, and the pushed revision is recorded
// on the handle so the linker can verify it before deleting local state.
type Publisher struct {
	provider  hosting.Provider
	newRunner RunnerFactory
	newPusher PusherFactory
	logger    zerolog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// NewPublisher creates a Publisher over the hosting provider.
func NewPublisher(provider hosting.Provider, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		provider: provider,
		newRunner: func(workDir string) (git.Runner, error) {
			return git.NewRunner(workDir)
		},
		newPusher: func(runner git.Runner) git.PushService {
			return git.NewPushRunner(runner)
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithPublishLogger sets the logger for publish operations.
func WithPublishLogger(logger zerolog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
		p.newPusher = func(runner git.Runner) git.PushService {
			return git.NewPushRunner(runner, git.WithPushLogger(logger))
		}
	}
}

// WithRunnerFactory overrides git runner construction (for testing).
func WithRunnerFactory(f RunnerFactory) PublisherOption {
	return func(p *Publisher) {
		p.newRunner = f
	}
}

// WithPusherFactory overrides push service construction (for testing).
func WithPusherFactory(f PusherFactory) PublisherOption {
	return func(p *Publisher) {
		p.newPusher = f
	}
}

// Publish creates the remote repository, commits the scaffold and pushes
// it. Every step tolerates prior partial completion: an existing remote,
// an initialized repository or an empty commit are all resume states, not
// errors.
func (p *Publisher) Publish(ctx context.Context, result *domain.ScaffoldResult, spec domain.ComponentSpec, namespace string) (*domain.RemoteRepositoryHandle, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	log := p.logger.With().Str("component", spec.Name).Logger()

	// Remote creation strictly precedes push.
	handle, err := p.provider.CreateRepo(ctx, hosting.CreateRepoOptions{
		Namespace:   namespace,
		Name:        spec.RepoName(),
		Visibility:  spec.Visibility,
		Description: spec.Description,
	})
	if err != nil {
		return nil, err
	}

	runner, err := p.newRunner(result.Path)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}

	if !runner.IsRepo(ctx) {
		if err := runner.Init(ctx, constants.DefaultBranch); err != nil {
			return nil, fmt.Errorf("component %s: %w", spec.Name, err)
		}
		log.Info().Msg("initialized component repository")
	}

	if err := runner.AddAll(ctx); err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}
	if err := runner.Commit(ctx, constants.InitialCommitMessage); err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}

	if err := runner.SetBranch(ctx, constants.DefaultBranch); err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}
	if err := runner.SetRemote(ctx, constants.DefaultRemote, handle.CloneURL); err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}

	pusher := p.newPusher(runner)
	if _, err := pusher.Push(ctx, git.PushOptions{
		Remote:      constants.DefaultRemote,
		Branch:      constants.DefaultBranch,
		SetUpstream: true,
	}); err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}

	revision, err := runner.HeadRevision(ctx)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Name, err)
	}
	handle.PushedRevision = revision

	log.Info().
		Str("repo", handle.FullName).
		Str("revision", revision).
		Str("status", string(handle.Status)).
		Msg("component published")

	return handle, nil
}

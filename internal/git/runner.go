// Package git provides version-control operations for wsforge.
// This file defines the Runner interface for git CLI operations.
package git

import "context"

// Runner defines the version-control operations the provisioning pipeline
// needs. All operations run in the runner's working directory and use
// context for cancellation.
type Runner interface {
	// IsRepo reports whether the working directory is inside a git repository.
	IsRepo(ctx context.Context) bool

	// Init initializes a repository with the given initial branch name.
	// Idempotent: initializing an existing repository is not an error.
	Init(ctx context.Context, initialBranch string) error

	// AddAll stages all changes in the working tree.
	AddAll(ctx context.Context) error

	// Commit creates a commit with the given message. A commit with nothing
	// staged is a no-op success, not an error: re-running the orchestrator
	// against already-committed content must not fail.
	Commit(ctx context.Context, message string) error

	// HasCommits reports whether the repository has at least one commit.
	HasCommits(ctx context.Context) (bool, error)

	// SetBranch renames the current branch to the canonical name.
	SetBranch(ctx context.Context, name string) error

	// SetRemote configures the named remote to point at url, adding it if
	// absent and updating the URL if it already exists.
	SetRemote(ctx context.Context, name, url string) error

	// Push pushes commits to the remote repository.
	// If setUpstream is true, sets the upstream tracking reference.
	Push(ctx context.Context, remote, branch string, setUpstream bool) error

	// HeadRevision returns the commit hash of HEAD.
	HeadRevision(ctx context.Context) (string, error)

	// LsRemoteHead returns the commit hash the remote's branch points at,
	// or empty if the branch does not exist on the remote.
	LsRemoteHead(ctx context.Context, url, branch string) (string, error)

	// SubmoduleAdd registers the remote at path as a sub-repository,
	// cloning its current head into the path and recording the pin.
	SubmoduleAdd(ctx context.Context, url, path string) error

	// SubmoduleStatus returns the registered sub-repositories and their pins.
	SubmoduleStatus(ctx context.Context) ([]SubmoduleEntry, error)
}

// Package git provides version-control operations for wsforge.
// This file implements the CLIRunner which wraps git CLI commands.
package git

import (
	"fmt"
	"strings"

	"context"

	"github.com/wsforge/wsforge/internal/ctxutil"
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// CLIRunner implements Runner using the git CLI.
//
// Unlike most git tooling, the constructor does not require the directory to
// already be a repository: the publisher initializes scaffold directories
// that start as plain trees.
type CLIRunner struct {
	workDir string // Working directory for git commands
}

// Compile-time interface check.
var _ Runner = (*CLIRunner)(nil)

// NewRunner creates a new CLIRunner for the given working directory.
func NewRunner(workDir string) (*CLIRunner, error) {
	if workDir == "" {
		return nil, fmt.Errorf("work directory cannot be empty: %w", wserrors.ErrEmptyValue)
	}
	return &CLIRunner{workDir: workDir}, nil
}

// IsRepo reports whether the working directory is inside a git repository.
func (r *CLIRunner) IsRepo(ctx context.Context) bool {
	_, err := r.runGitCommand(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// Init initializes a repository with the given initial branch name.
func (r *CLIRunner) Init(ctx context.Context, initialBranch string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	args := []string{"init"}
	if initialBranch != "" {
		args = append(args, "--initial-branch", initialBranch)
	}

	// git init on an existing repository reinitializes harmlessly.
	_, err := r.runGitCommand(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to init repository: %w", err)
	}

	return nil
}

// AddAll stages all changes in the working tree.
func (r *CLIRunner) AddAll(ctx context.Context) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	_, err := r.runGitCommand(ctx, "add", "-A")
	if err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}

	return nil
}

// Commit creates a commit with the given message.
// A commit with nothing staged is treated as a no-op success.
func (r *CLIRunner) Commit(ctx context.Context, message string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if message == "" {
		return fmt.Errorf("commit message cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	// Use --cleanup=strip to handle formatting (removes trailing whitespace, leading/trailing blank lines)
	_, err := r.runGitCommand(ctx, "commit", "-m", message, "--cleanup=strip")
	if err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "nothing to commit") ||
			strings.Contains(errStr, "nothing added to commit") ||
			strings.Contains(errStr, "no changes added to commit") {
			return nil
		}
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// HasCommits reports whether the repository has at least one commit.
func (r *CLIRunner) HasCommits(ctx context.Context) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	_, err := r.runGitCommand(ctx, "rev-parse", "--verify", "HEAD")
	if err != nil {
		errStr := strings.ToLower(err.Error())
		// An unborn branch has no HEAD to verify, which is the expected
		// state of a freshly initialized scaffold.
		if strings.Contains(errStr, "needed a single revision") ||
			strings.Contains(errStr, "unknown revision") ||
			strings.Contains(errStr, "not a valid ref") ||
			strings.Contains(errStr, "ambiguous argument") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check for commits: %w", err)
	}
	return true, nil
}

// SetBranch renames the current branch to the canonical name.
func (r *CLIRunner) SetBranch(ctx context.Context, name string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if name == "" {
		return fmt.Errorf("branch name cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	_, err := r.runGitCommand(ctx, "branch", "-M", name)
	if err != nil {
		return fmt.Errorf("failed to set branch %q: %w", name, err)
	}

	return nil
}

// SetRemote configures the named remote to point at url.
func (r *CLIRunner) SetRemote(ctx context.Context, name, url string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if name == "" || url == "" {
		return fmt.Errorf("remote name and url cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	_, err := r.runGitCommand(ctx, "remote", "add", name, url)
	if err == nil {
		return nil
	}

	// Remote already configured from a previous run: update its URL so a
	// manifest change to the namespace is picked up on re-run.
	if strings.Contains(strings.ToLower(err.Error()), "already exists") {
		if _, setErr := r.runGitCommand(ctx, "remote", "set-url", name, url); setErr != nil {
			return fmt.Errorf("failed to update remote %q: %w", name, setErr)
		}
		return nil
	}

	return fmt.Errorf("failed to add remote %q: %w", name, err)
}

// Push pushes commits to the remote repository.
func (r *CLIRunner) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	args := []string{"push"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	args = append(args, remote, branch)

	_, err := r.runGitCommand(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}

	return nil
}

// HeadRevision returns the commit hash of HEAD.
func (r *CLIRunner) HeadRevision(ctx context.Context) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.runGitCommand(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return output, nil
}

// LsRemoteHead returns the commit hash the remote's branch points at.
// Returns empty with nil error when the branch does not exist on the remote.
func (r *CLIRunner) LsRemoteHead(ctx context.Context, url, branch string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.runGitCommand(ctx, "ls-remote", url, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("failed to query remote %s: %w", url, err)
	}
	if output == "" {
		return "", nil
	}

	// Format: "<sha>\trefs/heads/<branch>"
	fields := strings.Fields(output)
	return fields[0], nil
}

// SubmoduleAdd registers the remote at path as a sub-repository.
func (r *CLIRunner) SubmoduleAdd(ctx context.Context, url, path string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if url == "" || path == "" {
		return fmt.Errorf("submodule url and path cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	_, err := r.runGitCommand(ctx, "submodule", "add", url, path)
	if err != nil {
		// A path already registered in .gitmodules from a prior run is the
		// resume case, not a failure.
		if strings.Contains(strings.ToLower(err.Error()), "already exists in the index") {
			return nil
		}
		return fmt.Errorf("failed to add submodule at %s: %w", path, err)
	}

	return nil
}

// SubmoduleStatus returns the registered sub-repositories and their pins.
func (r *CLIRunner) SubmoduleStatus(ctx context.Context) ([]SubmoduleEntry, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	output, err := r.runGitCommand(ctx, "submodule", "status")
	if err != nil {
		return nil, fmt.Errorf("failed to get submodule status: %w", err)
	}

	return parseSubmoduleStatus(output), nil
}

// runGitCommand executes a git command and returns its output.
// This is a convenience wrapper around RunCommand that uses the runner's workDir.
func (r *CLIRunner) runGitCommand(ctx context.Context, args ...string) (string, error) {
	return RunCommand(ctx, r.workDir, args...)
}

// parseSubmoduleStatus parses git submodule status output.
//
// Each line is "<prefix><sha> <path> (<describe>)" where prefix is ' '
// (in sync), '-' (not initialized), '+' (checked-out commit differs) or
// 'U' (merge conflicts).
func parseSubmoduleStatus(output string) []SubmoduleEntry {
	var entries []SubmoduleEntry

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		prefix := byte(' ')
		if line[0] == '-' || line[0] == '+' || line[0] == 'U' {
			prefix = line[0]
			line = line[1:]
		} else if line[0] == ' ' {
			line = line[1:]
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		entries = append(entries, SubmoduleEntry{
			Path:        fields[1],
			Revision:    fields[0],
			Initialized: prefix != '-',
			Modified:    prefix == '+',
		})
	}

	return entries
}

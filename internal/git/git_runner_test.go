package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmoduleStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   []SubmoduleEntry
	}{
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
		{
			name:   "initialized and clean",
			output: " 1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b services/api (heads/main)",
			want: []SubmoduleEntry{
				{Path: "services/api", Revision: "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b", Initialized: true},
			},
		},
		{
			name:   "not initialized",
			output: "-1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b apps/web",
			want: []SubmoduleEntry{
				{Path: "apps/web", Revision: "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b"},
			},
		},
		{
			name:   "modified checkout",
			output: "+1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b apps/web (heads/main)",
			want: []SubmoduleEntry{
				{Path: "apps/web", Revision: "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b", Initialized: true, Modified: true},
			},
		},
		{
			name: "multiple entries",
			output: " aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa services/api (heads/main)\n" +
				"-bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb apps/web\n",
			want: []SubmoduleEntry{
				{Path: "services/api", Revision: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Initialized: true},
				{Path: "apps/web", Revision: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseSubmoduleStatus(tt.output))
		})
	}
}

func TestSubmoduleEntryHasPin(t *testing.T) {
	t.Parallel()

	assert.True(t, SubmoduleEntry{Revision: "abc123"}.HasPin())
	assert.False(t, SubmoduleEntry{}.HasPin())
}

// requireGit skips the test when the git binary is unavailable.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// newTestRepo initializes a git repository in a temp dir with identity
// configured so commits work in bare CI environments.
func newTestRepo(t *testing.T) (*CLIRunner, string) {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	runner, err := NewRunner(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, runner.Init(ctx, "main"))

	_, err = RunCommand(ctx, dir, "config", "user.email", "test@example.com")
	require.NoError(t, err)
	_, err = RunCommand(ctx, dir, "config", "user.name", "Test User")
	require.NoError(t, err)

	return runner, dir
}

func TestCLIRunnerInitAndIsRepo(t *testing.T) {
	requireGit(t)
	t.Parallel()

	dir := t.TempDir()
	runner, err := NewRunner(dir)
	require.NoError(t, err)

	ctx := context.Background()
	assert.False(t, runner.IsRepo(ctx))

	require.NoError(t, runner.Init(ctx, "main"))
	assert.True(t, runner.IsRepo(ctx))

	// Re-init is idempotent.
	require.NoError(t, runner.Init(ctx, "main"))
}

func TestCLIRunnerCommitLifecycle(t *testing.T) {
	t.Parallel()

	runner, dir := newTestRepo(t)
	ctx := context.Background()

	has, err := runner.HasCommits(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o600))
	require.NoError(t, runner.AddAll(ctx))
	require.NoError(t, runner.Commit(ctx, "initial commit"))

	has, err = runner.HasCommits(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	rev, err := runner.HeadRevision(ctx)
	require.NoError(t, err)
	assert.Len(t, rev, 40)

	// Committing with nothing staged is a no-op, not an error.
	require.NoError(t, runner.AddAll(ctx))
	require.NoError(t, runner.Commit(ctx, "empty"))

	rev2, err := runner.HeadRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, rev, rev2)
}

func TestCLIRunnerSetRemoteIdempotent(t *testing.T) {
	t.Parallel()

	runner, dir := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, runner.SetRemote(ctx, "origin", "https://example.com/one.git"))
	// Second call updates the URL instead of failing.
	require.NoError(t, runner.SetRemote(ctx, "origin", "https://example.com/two.git"))

	out, err := RunCommand(ctx, dir, "remote", "get-url", "origin")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com/two.git")
}

func TestCLIRunnerSetBranch(t *testing.T) {
	t.Parallel()

	runner, dir := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0o600))
	require.NoError(t, runner.AddAll(ctx))
	require.NoError(t, runner.Commit(ctx, "initial commit"))

	require.NoError(t, runner.SetBranch(ctx, "main"))

	out, err := RunCommand(ctx, dir, "branch", "--show-current")
	require.NoError(t, err)
	assert.Contains(t, out, "main")
}

package provision

import (
	"context"

	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/git"
	"github.com/wsforge/wsforge/internal/preflight"
)

// mockGitRunner implements git.Runner with overridable behavior.
type mockGitRunner struct {
	IsRepoFunc          func(ctx context.Context) bool
	InitFunc            func(ctx context.Context, initialBranch string) error
	AddAllFunc          func(ctx context.Context) error
	CommitFunc          func(ctx context.Context, message string) error
	HasCommitsFunc      func(ctx context.Context) (bool, error)
	SetBranchFunc       func(ctx context.Context, name string) error
	SetRemoteFunc       func(ctx context.Context, name, url string) error
	PushFunc            func(ctx context.Context, remote, branch string, setUpstream bool) error
	HeadRevisionFunc    func(ctx context.Context) (string, error)
	LsRemoteHeadFunc    func(ctx context.Context, url, branch string) (string, error)
	SubmoduleAddFunc    func(ctx context.Context, url, path string) error
	SubmoduleStatusFunc func(ctx context.Context) ([]git.SubmoduleEntry, error)

	commits []string
	inits   []string
}

func (m *mockGitRunner) IsRepo(ctx context.Context) bool {
	if m.IsRepoFunc != nil {
		return m.IsRepoFunc(ctx)
	}
	return true
}

func (m *mockGitRunner) Init(ctx context.Context, initialBranch string) error {
	m.inits = append(m.inits, initialBranch)
	if m.InitFunc != nil {
		return m.InitFunc(ctx, initialBranch)
	}
	return nil
}

func (m *mockGitRunner) AddAll(ctx context.Context) error {
	if m.AddAllFunc != nil {
		return m.AddAllFunc(ctx)
	}
	return nil
}

func (m *mockGitRunner) Commit(ctx context.Context, message string) error {
	m.commits = append(m.commits, message)
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, message)
	}
	return nil
}

func (m *mockGitRunner) HasCommits(ctx context.Context) (bool, error) {
	if m.HasCommitsFunc != nil {
		return m.HasCommitsFunc(ctx)
	}
	return true, nil
}

func (m *mockGitRunner) SetBranch(ctx context.Context, name string) error {
	if m.SetBranchFunc != nil {
		return m.SetBranchFunc(ctx, name)
	}
	return nil
}

func (m *mockGitRunner) SetRemote(ctx context.Context, name, url string) error {
	if m.SetRemoteFunc != nil {
		return m.SetRemoteFunc(ctx, name, url)
	}
	return nil
}

func (m *mockGitRunner) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, remote, branch, setUpstream)
	}
	return nil
}

func (m *mockGitRunner) HeadRevision(ctx context.Context) (string, error) {
	if m.HeadRevisionFunc != nil {
		return m.HeadRevisionFunc(ctx)
	}
	return "0000000000000000000000000000000000000000", nil
}

func (m *mockGitRunner) LsRemoteHead(ctx context.Context, url, branch string) (string, error) {
	if m.LsRemoteHeadFunc != nil {
		return m.LsRemoteHeadFunc(ctx, url, branch)
	}
	return "", nil
}

func (m *mockGitRunner) SubmoduleAdd(ctx context.Context, url, path string) error {
	if m.SubmoduleAddFunc != nil {
		return m.SubmoduleAddFunc(ctx, url, path)
	}
	return nil
}

func (m *mockGitRunner) SubmoduleStatus(ctx context.Context) ([]git.SubmoduleEntry, error) {
	if m.SubmoduleStatusFunc != nil {
		return m.SubmoduleStatusFunc(ctx)
	}
	return nil, nil
}

// mockRepoChecker implements RepoChecker.
type mockRepoChecker struct {
	RepoExistsFunc func(ctx context.Context, fullName string) (bool, error)
	queries        []string
}

func (m *mockRepoChecker) RepoExists(ctx context.Context, fullName string) (bool, error) {
	m.queries = append(m.queries, fullName)
	if m.RepoExistsFunc != nil {
		return m.RepoExistsFunc(ctx, fullName)
	}
	return false, nil
}

// mockVerifier implements PreflightVerifier.
type mockVerifier struct {
	VerifyFunc func(ctx context.Context, namespace string) (*preflight.Report, error)
	calls      int
}

func (m *mockVerifier) Verify(ctx context.Context, namespace string) (*preflight.Report, error) {
	m.calls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, namespace)
	}
	return &preflight.Report{}, nil
}

// mockDetector implements StateDetector.
type mockDetector struct {
	DetectFunc func(ctx context.Context, spec domain.ComponentSpec, namespace string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error)
}

func (m *mockDetector) Detect(ctx context.Context, spec domain.ComponentSpec, namespace string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, spec, namespace)
	}
	return domain.StateUnscaffolded, nil, nil
}

// mockGenerator implements ScaffoldGenerator.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, spec domain.ComponentSpec) (*domain.ScaffoldResult, error)
	calls        []string
}

func (m *mockGenerator) Generate(ctx context.Context, spec domain.ComponentSpec) (*domain.ScaffoldResult, error) {
	m.calls = append(m.calls, spec.Name)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, spec)
	}
	return &domain.ScaffoldResult{Path: "/tmp/" + spec.Path, BuildCheckPassed: true}, nil
}

// mockPublisher implements ComponentPublisher.
type mockPublisher struct {
	PublishFunc func(ctx context.Context, result *domain.ScaffoldResult, spec domain.ComponentSpec, namespace string) (*domain.RemoteRepositoryHandle, error)
	calls       []string
}

func (m *mockPublisher) Publish(ctx context.Context, result *domain.ScaffoldResult, spec domain.ComponentSpec, namespace string) (*domain.RemoteRepositoryHandle, error) {
	m.calls = append(m.calls, spec.Name)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, result, spec, namespace)
	}
	full := spec.FullRepo(namespace)
	return &domain.RemoteRepositoryHandle{
		FullName:       full,
		CloneURL:       "https://github.com/" + full + ".git",
		Status:         domain.CreationCreated,
		PushedRevision: "feedface0000000000000000000000000000beef",
	}, nil
}

// mockLinker implements ComponentLinker.
type mockLinker struct {
	LinkFunc func(ctx context.Context, handle *domain.RemoteRepositoryHandle, spec domain.ComponentSpec) (*domain.SubRepositoryLink, error)
	handles  []*domain.RemoteRepositoryHandle
}

func (m *mockLinker) Link(ctx context.Context, handle *domain.RemoteRepositoryHandle, spec domain.ComponentSpec) (*domain.SubRepositoryLink, error) {
	m.handles = append(m.handles, handle)
	if m.LinkFunc != nil {
		return m.LinkFunc(ctx, handle, spec)
	}
	return &domain.SubRepositoryLink{
		Path:           spec.Path,
		RemoteURL:      handle.CloneURL,
		PinnedRevision: handle.PushedRevision,
	}, nil
}

// mockAssembler implements WorkspaceAssembler.
type mockAssembler struct {
	AssembleFunc func(ctx context.Context, manifest *domain.WorkspaceManifest, provisioned []domain.ComponentSpec) (*AssembleResult, error)
	provisioned  [][]domain.ComponentSpec
}

func (m *mockAssembler) Assemble(ctx context.Context, manifest *domain.WorkspaceManifest, provisioned []domain.ComponentSpec) (*AssembleResult, error) {
	m.provisioned = append(m.provisioned, provisioned)
	if m.AssembleFunc != nil {
		return m.AssembleFunc(ctx, manifest, provisioned)
	}
	return &AssembleResult{
		Parent: &domain.RemoteRepositoryHandle{FullName: manifest.Namespace + "/" + manifest.Workspace},
	}, nil
}

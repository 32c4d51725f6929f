package provision

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
	"github.com/wsforge/wsforge/internal/flock"
	"github.com/wsforge/wsforge/internal/preflight"
)

func testManifest() *domain.WorkspaceManifest {
	return &domain.WorkspaceManifest{
		Workspace: "devstack",
		Namespace: "acme",
		Components: []domain.ComponentSpec{
			{Name: "web", Path: "apps/web", Template: "vite", Visibility: "private"},
			{Name: "api", Path: "apps/api", Template: "fastapi", Visibility: "private"},
		},
	}
}

type engineFixture struct {
	runner    *mockGitRunner
	verifier  *mockVerifier
	detector  *mockDetector
	generator *mockGenerator
	publisher *mockPublisher
	linker    *mockLinker
	assembler *mockAssembler
	root      string
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	return &engineFixture{
		runner:    &mockGitRunner{},
		verifier:  &mockVerifier{},
		detector:  &mockDetector{},
		generator: &mockGenerator{},
		publisher: &mockPublisher{},
		linker:    &mockLinker{},
		assembler: &mockAssembler{},
		root:      t.TempDir(),
	}
}

func (f *engineFixture) engine(opts ...EngineOption) *Engine {
	deps := Deps{
		Verifier:  f.verifier,
		Detector:  f.detector,
		Generator: f.generator,
		Publisher: f.publisher,
		Linker:    f.linker,
		Assembler: f.assembler,
	}
	return NewEngine(f.root, f.runner, deps, opts...)
}

func TestEngineProvisionsAllComponents(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)

	require.Len(t, summary.Components, 2)
	for _, outcome := range summary.Components {
		assert.Equal(t, domain.StateUnscaffolded, outcome.StartState)
		assert.Equal(t, domain.StateLinked, outcome.FinalState)
		assert.False(t, outcome.Failed())
		assert.NotEmpty(t, outcome.PinnedRevision)
	}

	assert.Equal(t, []string{"web", "api"}, f.generator.calls)
	assert.Equal(t, []string{"web", "api"}, f.publisher.calls)
	require.Len(t, f.assembler.provisioned, 1)
	assert.Len(t, f.assembler.provisioned[0], 2)
	assert.True(t, summary.Complete())
	assert.NotNil(t, summary.Parent)
}

func TestEngineInitializesParentRepoOnFirstRun(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.runner.IsRepoFunc = func(_ context.Context) bool { return false }
	e := f.engine()

	_, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)
	assert.Equal(t, []string{constants.DefaultBranch}, f.runner.inits)
}

func TestEngineSkipsLinkedComponent(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.detector.DetectFunc = func(_ context.Context, spec domain.ComponentSpec, namespace string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return domain.StateLinked, &domain.RemoteRepositoryHandle{
				FullName:       spec.FullRepo(namespace),
				PushedRevision: "abc123abc123abc123abc123abc123abc123abc1",
			}, nil
		}
		return domain.StateUnscaffolded, nil, nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)

	web := summary.Components[0]
	assert.True(t, web.Skipped)
	assert.Equal(t, "already provisioned", web.SkipReason)
	assert.Equal(t, domain.StateLinked, web.FinalState)

	assert.Equal(t, []string{"api"}, f.generator.calls, "a linked component is never re-scaffolded")
	assert.Equal(t, []string{"api"}, f.publisher.calls)
	require.Len(t, f.assembler.provisioned, 1)
	assert.Len(t, f.assembler.provisioned[0], 2, "a previously linked component still counts as provisioned")
}

func TestEngineResumesPublishedComponentAtLink(t *testing.T) {
	t.Parallel()

	detected := &domain.RemoteRepositoryHandle{
		FullName:       "acme/web",
		CloneURL:       "https://github.com/acme/web.git",
		Status:         domain.CreationAlreadyExists,
		PushedRevision: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
	}

	f := newEngineFixture(t)
	f.detector.DetectFunc = func(_ context.Context, spec domain.ComponentSpec, _ string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return domain.StatePublished, detected, nil
		}
		return domain.StateUnscaffolded, nil, nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)

	assert.Equal(t, []string{"api"}, f.generator.calls)
	assert.Equal(t, []string{"api"}, f.publisher.calls)
	require.Len(t, f.linker.handles, 2)
	assert.Same(t, detected, f.linker.handles[0], "link resumes from the detected remote evidence")
	assert.Equal(t, domain.StateLinked, summary.Components[0].FinalState)
}

func TestEngineResumesScaffoldedComponentAtPublish(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.detector.DetectFunc = func(_ context.Context, spec domain.ComponentSpec, _ string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return domain.StateScaffolded, nil, nil
		}
		return domain.StateUnscaffolded, nil, nil
	}

	var published *domain.ScaffoldResult
	f.publisher.PublishFunc = func(_ context.Context, result *domain.ScaffoldResult, spec domain.ComponentSpec, namespace string) (*domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			published = result
		}
		full := spec.FullRepo(namespace)
		return &domain.RemoteRepositoryHandle{
			FullName:       full,
			CloneURL:       "https://github.com/" + full + ".git",
			Status:         domain.CreationCreated,
			PushedRevision: "feedface0000000000000000000000000000beef",
		}, nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)

	// The existing scaffold directory is reused, never regenerated.
	assert.Equal(t, []string{"api"}, f.generator.calls)
	assert.Equal(t, []string{"web", "api"}, f.publisher.calls)
	require.NotNil(t, published)
	assert.Equal(t, filepath.Join(f.root, "apps/web"), published.Path)
	assert.Equal(t, domain.StateScaffolded, summary.Components[0].StartState)
	assert.Equal(t, domain.StateLinked, summary.Components[0].FinalState)
	assert.NotEmpty(t, summary.Components[0].PinnedRevision)
}

func TestEngineIsolatesComponentFailure(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.generator.GenerateFunc = func(_ context.Context, spec domain.ComponentSpec) (*domain.ScaffoldResult, error) {
		if spec.Name == "web" {
			return nil, fmt.Errorf("component web: %w", wserrors.ErrScaffold)
		}
		return &domain.ScaffoldResult{Path: "/tmp/" + spec.Path, BuildCheckPassed: true}, nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrProvisionIncomplete)
	assert.Contains(t, err.Error(), "web")

	require.Len(t, summary.Components, 2)
	assert.True(t, summary.Components[0].Failed())
	assert.ErrorIs(t, summary.Components[0].Err, wserrors.ErrScaffold)
	assert.Equal(t, domain.StateLinked, summary.Components[1].FinalState, "one broken scaffold does not strand the rest")

	require.Len(t, f.assembler.provisioned, 1)
	require.Len(t, f.assembler.provisioned[0], 1)
	assert.Equal(t, "api", f.assembler.provisioned[0][0].Name)
}

func TestEnginePreflightFailureAbortsBeforeMutation(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.verifier.VerifyFunc = func(_ context.Context, _ string) (*preflight.Report, error) {
		report := &preflight.Report{
			Checks: []preflight.CheckResult{{Check: preflight.CheckDaemon, Passed: false, Detail: "daemon down"}},
		}
		return report, fmt.Errorf("%w: daemon down", wserrors.ErrPrecondition)
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrPrecondition)

	assert.NotNil(t, summary.Preflight)
	assert.Empty(t, summary.Components)
	assert.Empty(t, f.generator.calls)
	assert.Empty(t, f.publisher.calls)
	assert.Empty(t, f.runner.inits)
}

func TestEngineSkipPreflight(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	e := f.engine(WithSkipPreflight(true))

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)
	assert.Zero(t, f.verifier.calls)
	assert.Nil(t, summary.Preflight)
}

func TestEngineDryRunPlansWithoutMutating(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.runner.IsRepoFunc = func(_ context.Context) bool { return false }
	e := f.engine(WithDryRun(true))

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	require.Len(t, summary.Components, 2)
	assert.Equal(t, []string{"scaffold", "publish", "link"}, summary.Components[0].Planned)

	assert.Empty(t, f.generator.calls)
	assert.Empty(t, f.publisher.calls)
	assert.Empty(t, f.linker.handles)
	assert.Empty(t, f.assembler.provisioned, "dry run never assembles")
	assert.Empty(t, f.runner.inits, "dry run never initializes the parent repository")
}

func TestEngineDryRunPlansFromDetectedState(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.detector.DetectFunc = func(_ context.Context, spec domain.ComponentSpec, _ string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return domain.StatePublished, &domain.RemoteRepositoryHandle{FullName: "acme/web"}, nil
		}
		return domain.StateScaffolded, nil, nil
	}
	e := f.engine(WithDryRun(true))

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)
	assert.Equal(t, []string{"link"}, summary.Components[0].Planned)
	assert.Equal(t, []string{"publish", "link"}, summary.Components[1].Planned)
}

func TestEngineInterruptStopsAtComponentBoundary(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	interrupts := 0
	e := f.engine(WithInterruptCheck(func() bool {
		interrupts++
		// The first component's boundary checks pass; the interrupt lands
		// before the second component starts.
		return interrupts > 3
	}))

	summary, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrInterrupted)

	require.Len(t, summary.Components, 2)
	assert.Equal(t, domain.StateLinked, summary.Components[0].FinalState)
	assert.True(t, summary.Components[1].Skipped)
	assert.Equal(t, "interrupted", summary.Components[1].SkipReason)
	assert.Equal(t, []string{"web"}, f.generator.calls)
	assert.Empty(t, f.assembler.provisioned, "an interrupted run does not assemble")
}

func TestEngineDivergedPushForceAdoptsRemote(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.publisher.PublishFunc = func(_ context.Context, _ *domain.ScaffoldResult, spec domain.ComponentSpec, _ string) (*domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return nil, fmt.Errorf("component web: %w", wserrors.ErrPushDiverged)
		}
		return &domain.RemoteRepositoryHandle{
			FullName:       "acme/api",
			CloneURL:       "https://github.com/acme/api.git",
			PushedRevision: "feedface0000000000000000000000000000beef",
		}, nil
	}
	f.runner.LsRemoteHeadFunc = func(_ context.Context, url, _ string) (string, error) {
		assert.Equal(t, "https://github.com/acme/web.git", url)
		return "cafecafecafecafecafecafecafecafecafecafe", nil
	}
	e := f.engine(WithForce(true))

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)

	web := summary.Components[0]
	assert.Equal(t, domain.StateLinked, web.FinalState)
	require.Len(t, f.linker.handles, 2)
	assert.Equal(t, "cafecafecafecafecafecafecafecafecafecafe", f.linker.handles[0].PushedRevision,
		"the adopted remote head becomes the pinned revision")
}

func TestEngineDivergedPushWithoutConsentFails(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.publisher.PublishFunc = func(_ context.Context, _ *domain.ScaffoldResult, spec domain.ComponentSpec, _ string) (*domain.RemoteRepositoryHandle, error) {
		return nil, fmt.Errorf("component %s: %w", spec.Name, wserrors.ErrPushDiverged)
	}
	f.runner.LsRemoteHeadFunc = func(_ context.Context, _, _ string) (string, error) {
		return "cafecafecafecafecafecafecafecafecafecafe", nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrProvisionIncomplete)

	for _, outcome := range summary.Components {
		assert.ErrorIs(t, outcome.Err, wserrors.ErrPushDiverged)
		assert.Contains(t, outcome.Err.Error(), "--force")
		assert.Equal(t, domain.StateScaffolded, outcome.FinalState, "a diverged remote is never force-pushed")
	}
	assert.Empty(t, f.linker.handles)
}

func TestEngineDivergedPushConfirmDeclined(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.publisher.PublishFunc = func(_ context.Context, _ *domain.ScaffoldResult, spec domain.ComponentSpec, _ string) (*domain.RemoteRepositoryHandle, error) {
		return nil, fmt.Errorf("component %s: %w", spec.Name, wserrors.ErrPushDiverged)
	}
	f.runner.LsRemoteHeadFunc = func(_ context.Context, _, _ string) (string, error) {
		return "cafecafecafecafecafecafecafecafecafecafe", nil
	}

	var prompts []string
	e := f.engine(WithConfirm(func(_ context.Context, prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return false, nil
	}))

	_, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrProvisionIncomplete)
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "acme/web")
	assert.Empty(t, f.linker.handles)
}

func TestEngineDivergedPushConfirmAccepted(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.publisher.PublishFunc = func(_ context.Context, _ *domain.ScaffoldResult, spec domain.ComponentSpec, _ string) (*domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return nil, fmt.Errorf("component web: %w", wserrors.ErrPushDiverged)
		}
		return &domain.RemoteRepositoryHandle{
			FullName:       "acme/api",
			CloneURL:       "https://github.com/acme/api.git",
			PushedRevision: "feedface0000000000000000000000000000beef",
		}, nil
	}
	f.runner.LsRemoteHeadFunc = func(_ context.Context, _, _ string) (string, error) {
		return "cafecafecafecafecafecafecafecafecafecafe", nil
	}
	e := f.engine(WithConfirm(func(_ context.Context, _ string) (bool, error) {
		return true, nil
	}))

	summary, err := e.Run(context.Background(), testManifest())
	require.NoError(t, err)
	assert.Equal(t, domain.StateLinked, summary.Components[0].FinalState)
}

func TestEngineRefusesConcurrentRun(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	held, err := flock.Acquire(filepath.Join(f.root, constants.LockFileName))
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	e := f.engine()
	_, err = e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrRunLocked)
	assert.Zero(t, f.verifier.calls)
}

func TestEngineAssemblyWarningsSurface(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.assembler.AssembleFunc = func(_ context.Context, manifest *domain.WorkspaceManifest, _ []domain.ComponentSpec) (*AssembleResult, error) {
		return &AssembleResult{
			Parent:   &domain.RemoteRepositoryHandle{FullName: manifest.Namespace + "/" + manifest.Workspace},
			Warnings: []string{"component web has no pinned revision at apps/web"},
		}, nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrProvisionIncomplete)
	assert.Len(t, summary.Warnings, 1)
	assert.False(t, summary.Complete())
}

func TestEngineAssemblyFailure(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.assembler.AssembleFunc = func(_ context.Context, _ *domain.WorkspaceManifest, _ []domain.ComponentSpec) (*AssembleResult, error) {
		return nil, fmt.Errorf("committing workspace: %w", wserrors.ErrAssemble)
	}
	e := f.engine()

	_, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrAssemble)
}

func TestEngineDetectFailureIsComponentLocal(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.detector.DetectFunc = func(_ context.Context, spec domain.ComponentSpec, _ string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error) {
		if spec.Name == "web" {
			return domain.StateUnscaffolded, nil, errors.New("component web: checking remote: gh: connection refused")
		}
		return domain.StateUnscaffolded, nil, nil
	}
	e := f.engine()

	summary, err := e.Run(context.Background(), testManifest())
	require.ErrorIs(t, err, wserrors.ErrProvisionIncomplete)
	assert.True(t, summary.Components[0].Failed())
	assert.Equal(t, domain.StateLinked, summary.Components[1].FinalState)
}

func TestEngineCancellationStopsRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	f := newEngineFixture(t)
	f.generator.GenerateFunc = func(genCtx context.Context, spec domain.ComponentSpec) (*domain.ScaffoldResult, error) {
		cancel()
		return nil, genCtx.Err()
	}
	e := f.engine()

	summary, err := e.Run(ctx, testManifest())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"web"}, f.generator.calls, "cancellation stops the run, not just the component")
	require.Len(t, summary.Components, 2)
	assert.True(t, summary.Components[1].Skipped)
}

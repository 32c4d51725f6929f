package provision

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/clock"
	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
	"github.com/wsforge/wsforge/internal/flock"
	"github.com/wsforge/wsforge/internal/git"
	"github.com/wsforge/wsforge/internal/hosting"
	"github.com/wsforge/wsforge/internal/preflight"
)

// PreflightVerifier verifies environment preconditions before any mutation.
type PreflightVerifier interface {
	Verify(ctx context.Context, namespace string) (*preflight.Report, error)
}

// StateDetector determines a component's current provisioning state.
type StateDetector interface {
	Detect(ctx context.Context, spec domain.ComponentSpec, namespace string) (domain.ComponentState, *domain.RemoteRepositoryHandle, error)
}

// ScaffoldGenerator materializes a component's local directory tree.
type ScaffoldGenerator interface {
	Generate(ctx context.Context, spec domain.ComponentSpec) (*domain.ScaffoldResult, error)
}

// ComponentPublisher publishes a scaffold to a remote repository.
type ComponentPublisher = ParentPublisher

// ComponentLinker replaces a scaffold directory with a pinned sub-repository.
type ComponentLinker interface {
	Link(ctx context.Context, handle *domain.RemoteRepositoryHandle, spec domain.ComponentSpec) (*domain.SubRepositoryLink, error)
}

// WorkspaceAssembler finalizes and publishes the parent workspace.
type WorkspaceAssembler interface {
	Assemble(ctx context.Context, manifest *domain.WorkspaceManifest, provisioned []domain.ComponentSpec) (*AssembleResult, error)
}

// ConfirmFunc asks the operator a yes/no question. Implementations are
// interactive; non-interactive runs leave it nil and rely on force mode.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Deps bundles the collaborators an Engine orchestrates.
type Deps struct {
	Verifier  PreflightVerifier
	Detector  StateDetector
	Generator ScaffoldGenerator
	Publisher ComponentPublisher
	Linker    ComponentLinker
	Assembler WorkspaceAssembler
}

// Engine drives a provisioning run end to end. Components run strictly in
// manifest order; a component failure is recorded and the run moves on to
// the next component, so one broken scaffold does not strand the rest of
// the workspace.
type Engine struct {
	root        string
	runner      git.Runner
	deps        Deps
	clk         clock.Clock
	logger      zerolog.Logger
	confirm     ConfirmFunc
	interrupted func() bool
	runID       string

	dryRun        bool
	skipPreflight bool
	force         bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// NewEngine creates an Engine rooted at the workspace directory.
func NewEngine(root string, runner git.Runner, deps Deps, opts ...EngineOption) *Engine {
	e := &Engine{
		root:        root,
		runner:      runner,
		deps:        deps,
		clk:         clock.RealClock{},
		logger:      zerolog.Nop(),
		interrupted: func() bool { return false },
		runID:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithEngineLogger sets the logger for the run.
func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEngineClock overrides the clock (for testing).
func WithEngineClock(clk clock.Clock) EngineOption {
	return func(e *Engine) {
		e.clk = clk
	}
}

// WithRunID sets the run correlation ID instead of generating one.
func WithRunID(id string) EngineOption {
	return func(e *Engine) {
		e.runID = id
	}
}

// WithDryRun plans the run without mutating anything.
func WithDryRun(dryRun bool) EngineOption {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithSkipPreflight skips environment verification.
func WithSkipPreflight(skip bool) EngineOption {
	return func(e *Engine) {
		e.skipPreflight = skip
	}
}

// WithForce answers recovery prompts affirmatively without asking.
func WithForce(force bool) EngineOption {
	return func(e *Engine) {
		e.force = force
	}
}

// WithConfirm sets the interactive confirmation prompt.
func WithConfirm(confirm ConfirmFunc) EngineOption {
	return func(e *Engine) {
		e.confirm = confirm
	}
}

// WithInterruptCheck sets the function polled at transition boundaries to
// honor a pending interrupt without abandoning an in-flight operation.
func WithInterruptCheck(check func() bool) EngineOption {
	return func(e *Engine) {
		e.interrupted = check
	}
}

// Run executes the provisioning run and always returns a summary, even on
// failure, so the caller can render what happened. The error is non-nil
// when the run did not fully provision the workspace.
func (e *Engine) Run(ctx context.Context, manifest *domain.WorkspaceManifest) (*Summary, error) {
	summary := &Summary{
		Workspace: manifest.Workspace,
		Namespace: manifest.Namespace,
		RunID:     e.runID,
		DryRun:    e.dryRun,
		StartedAt: e.clk.Now(),
	}
	defer func() { summary.FinishedAt = e.clk.Now() }()

	log := e.logger.With().Str("run_id", e.runID).Logger()
	log.Info().
		Str("workspace", manifest.Workspace).
		Str("namespace", manifest.Namespace).
		Int("components", len(manifest.Components)).
		Bool("dry_run", e.dryRun).
		Msg("starting provisioning run")

	lock, err := flock.Acquire(filepath.Join(e.root, constants.LockFileName))
	if err != nil {
		return summary, err
	}
	defer func() { _ = lock.Release() }()

	if !e.skipPreflight {
		report, verifyErr := e.deps.Verifier.Verify(ctx, manifest.Namespace)
		summary.Preflight = report
		if verifyErr != nil {
			log.Error().Err(verifyErr).Msg("preflight verification failed, nothing was mutated")
			return summary, verifyErr
		}
	}

	if !e.dryRun {
		if err := e.ensureParentRepo(ctx); err != nil {
			return summary, err
		}
	}

	interrupted := e.runComponents(ctx, manifest, summary, log)

	if interrupted {
		return summary, wserrors.ErrInterrupted
	}
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}

	if e.dryRun {
		return summary, nil
	}

	if err := e.assemble(ctx, manifest, summary); err != nil {
		return summary, err
	}

	if failed := summary.FailedComponents(); len(failed) > 0 || len(summary.Warnings) > 0 {
		names := make([]string, 0, len(failed))
		for _, o := range failed {
			names = append(names, o.Name)
		}
		if len(names) > 0 {
			return summary, fmt.Errorf("%w: failed components: %s", wserrors.ErrProvisionIncomplete, strings.Join(names, ", "))
		}
		return summary, fmt.Errorf("%w: %s", wserrors.ErrProvisionIncomplete, strings.Join(summary.Warnings, "; "))
	}

	log.Info().Msg("provisioning run complete")
	return summary, nil
}

// runComponents executes the per-component pipeline in manifest order.
// Returns true when a pending interrupt stopped the run early.
func (e *Engine) runComponents(ctx context.Context, manifest *domain.WorkspaceManifest, summary *Summary, log zerolog.Logger) bool {
	for _, spec := range manifest.Components {
		if e.interrupted() {
			log.Warn().Str("component", spec.Name).Msg("interrupt pending, remaining components skipped")
			e.markRemaining(manifest, summary)
			return true
		}

		outcome := e.provisionComponent(ctx, spec, manifest.Namespace, log)
		summary.Components = append(summary.Components, outcome)

		if outcome.Failed() {
			log.Error().
				Err(outcome.Err).
				Str("component", spec.Name).
				Str("state", string(outcome.FinalState)).
				Msg("component failed, continuing with remaining components")
			if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
				e.markRemaining(manifest, summary)
				return false
			}
		}
	}
	return false
}

// markRemaining records skipped outcomes for components the run never reached.
func (e *Engine) markRemaining(manifest *domain.WorkspaceManifest, summary *Summary) {
	for _, spec := range manifest.Components[len(summary.Components):] {
		summary.Components = append(summary.Components, ComponentOutcome{
			Name:       spec.Name,
			Path:       spec.Path,
			Template:   spec.Template,
			Skipped:    true,
			SkipReason: "interrupted",
		})
	}
}

// provisionComponent advances one component from its detected state to
// linked, validating every transition against the state machine.
func (e *Engine) provisionComponent(ctx context.Context, spec domain.ComponentSpec, namespace string, log zerolog.Logger) ComponentOutcome {
	outcome := ComponentOutcome{
		Name:     spec.Name,
		Path:     spec.Path,
		Template: spec.Template,
	}

	state, handle, err := e.deps.Detector.Detect(ctx, spec, namespace)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.StartState = state
	outcome.FinalState = state
	if handle != nil {
		outcome.Repo = handle.FullName
	}

	clog := log.With().Str("component", spec.Name).Str("detected_state", string(state)).Logger()

	if domain.IsTerminalState(state) {
		clog.Info().Msg("component already provisioned")
		outcome.Skipped = true
		outcome.SkipReason = "already provisioned"
		outcome.BuildCheckPassed = true
		outcome.PinnedRevision = handle.PushedRevision
		return outcome
	}

	if e.dryRun {
		outcome.Planned = plannedTransitions(state)
		clog.Info().Strs("planned", outcome.Planned).Msg("dry run, no changes made")
		return outcome
	}

	e.advanceComponent(ctx, spec, namespace, handle, &outcome, clog)
	return outcome
}

// advanceComponent walks the component through its remaining transitions.
func (e *Engine) advanceComponent(ctx context.Context, spec domain.ComponentSpec, namespace string, handle *domain.RemoteRepositoryHandle, outcome *ComponentOutcome, log zerolog.Logger) {
	var result *domain.ScaffoldResult

	if outcome.FinalState == domain.StateUnscaffolded {
		r, err := e.deps.Generator.Generate(ctx, spec)
		if err != nil {
			outcome.Err = err
			return
		}
		result = r
		outcome.BuildCheckPassed = r.BuildCheckPassed
		outcome.BuildCheckOutput = r.BuildCheckOutput
		if err := e.advance(outcome, domain.StateScaffolded); err != nil {
			outcome.Err = err
			return
		}
	}

	if outcome.FinalState == domain.StateScaffolded {
		if e.interrupted() {
			outcome.Err = wserrors.ErrInterrupted
			return
		}
		if result == nil {
			// Resuming a detected scaffold: the directory already exists,
			// only its path is needed downstream.
			result = &domain.ScaffoldResult{Path: filepath.Join(e.root, spec.Path), BuildCheckPassed: true}
			outcome.BuildCheckPassed = true
		}
		h, err := e.deps.Publisher.Publish(ctx, result, spec, namespace)
		if err != nil {
			h, err = e.recoverDiverged(ctx, spec, namespace, err, log)
			if err != nil {
				outcome.Err = err
				return
			}
		}
		handle = h
		outcome.Repo = handle.FullName
		if err := e.advance(outcome, domain.StatePublished); err != nil {
			outcome.Err = err
			return
		}
	}

	if outcome.FinalState == domain.StatePublished {
		if e.interrupted() {
			outcome.Err = wserrors.ErrInterrupted
			return
		}
		link, err := e.deps.Linker.Link(ctx, handle, spec)
		if err != nil {
			outcome.Err = err
			return
		}
		outcome.PinnedRevision = link.PinnedRevision
		if err := e.advance(outcome, domain.StateLinked); err != nil {
			outcome.Err = err
			return
		}
		log.Info().Str("revision", link.PinnedRevision).Msg("component provisioned")
	}
}

// advance moves the outcome to the next state after machine validation.
func (e *Engine) advance(outcome *ComponentOutcome, to domain.ComponentState) error {
	if err := domain.ValidateTransition(outcome.FinalState, to); err != nil {
		return err
	}
	outcome.FinalState = to
	return nil
}

// recoverDiverged handles a push rejected because the remote holds history
// the local scaffold does not. The remote is never force-pushed; with the
// operator's consent the run adopts the remote content and proceeds to
// link from it.
func (e *Engine) recoverDiverged(ctx context.Context, spec domain.ComponentSpec, namespace string, pushErr error, log zerolog.Logger) (*domain.RemoteRepositoryHandle, error) {
	if !errors.Is(pushErr, wserrors.ErrPushDiverged) {
		return nil, pushErr
	}

	fullName := spec.FullRepo(namespace)
	cloneURL := hosting.CloneURL(fullName)

	head, err := e.runner.LsRemoteHead(ctx, cloneURL, constants.DefaultBranch)
	if err != nil || head == "" {
		return nil, pushErr
	}

	adopt := e.force
	if !adopt && e.confirm != nil {
		prompt := fmt.Sprintf("Remote %s already holds different history. Adopt the remote content and discard the local scaffold?", fullName)
		adopt, err = e.confirm(ctx, prompt)
		if err != nil {
			return nil, err
		}
	}
	if !adopt {
		return nil, fmt.Errorf("component %s: remote %s holds history the local scaffold does not; re-run with --force to adopt the remote content, or reconcile %s manually: %w",
			spec.Name, fullName, cloneURL, pushErr)
	}

	log.Warn().Str("repo", fullName).Str("revision", head).Msg("adopting diverged remote content")
	return &domain.RemoteRepositoryHandle{
		FullName:       fullName,
		CloneURL:       cloneURL,
		Status:         domain.CreationAlreadyExists,
		PushedRevision: head,
	}, nil
}

// assemble finalizes the workspace over the components that linked.
func (e *Engine) assemble(ctx context.Context, manifest *domain.WorkspaceManifest, summary *Summary) error {
	provisioned := make([]domain.ComponentSpec, 0, len(manifest.Components))
	for i, spec := range manifest.Components {
		if i < len(summary.Components) && summary.Components[i].FinalState == domain.StateLinked {
			provisioned = append(provisioned, spec)
		}
	}

	result, err := e.deps.Assembler.Assemble(ctx, manifest, provisioned)
	if err != nil {
		return err
	}
	summary.Parent = result.Parent
	summary.Warnings = result.Warnings
	return nil
}

// ensureParentRepo initializes the workspace repository on first run.
func (e *Engine) ensureParentRepo(ctx context.Context) error {
	if e.runner.IsRepo(ctx) {
		return nil
	}
	if err := e.runner.Init(ctx, constants.DefaultBranch); err != nil {
		return fmt.Errorf("initializing workspace repository: %w", err)
	}
	e.logger.Info().Str("root", e.root).Msg("initialized workspace repository")
	return nil
}

// plannedTransitions lists the remaining pipeline stages from a state.
func plannedTransitions(state domain.ComponentState) []string {
	labels := map[domain.ComponentState]string{
		domain.StateScaffolded: "scaffold",
		domain.StatePublished:  "publish",
		domain.StateLinked:     "link",
	}

	var planned []string
	transitions := domain.ValidTransitions()
	for {
		next := transitions[state]
		if len(next) == 0 {
			return planned
		}
		state = next[0]
		planned = append(planned, labels[state])
	}
}

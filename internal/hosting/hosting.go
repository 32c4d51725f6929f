// Package hosting provides remote repository operations via the gh CLI.
package hosting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/ctxutil"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
	"github.com/wsforge/wsforge/internal/git"
)

// HostErrorType classifies gh CLI failures for appropriate handling.
type HostErrorType int

const (
	// HostErrorNone indicates no error occurred.
	HostErrorNone HostErrorType = iota
	// HostErrorAuth indicates authentication failed - don't retry.
	HostErrorAuth
	// HostErrorPermission indicates the caller lacks rights - don't retry.
	HostErrorPermission
	// HostErrorRateLimit indicates rate limited - retry with backoff.
	HostErrorRateLimit
	// HostErrorNetwork indicates a network issue - retry with backoff.
	HostErrorNetwork
	// HostErrorNotFound indicates resource not found - don't retry.
	HostErrorNotFound
	// HostErrorOther indicates an unknown error - don't retry.
	HostErrorOther
)

// String returns a string representation of the error type.
func (t HostErrorType) String() string {
	switch t {
	case HostErrorNone:
		return "none"
	case HostErrorAuth:
		return "auth"
	case HostErrorPermission:
		return "permission"
	case HostErrorRateLimit:
		return "rate_limit"
	case HostErrorNetwork:
		return "network"
	case HostErrorNotFound:
		return "not_found"
	case HostErrorOther:
		return "other"
	}
	return "other"
}

// CreateRepoOptions configures remote repository creation.
type CreateRepoOptions struct {
	// Namespace is the account or organization owning the repository (required).
	Namespace string
	// Name is the repository name (required).
	Name string
	// Visibility is "private" or "public" (default: "private").
	Visibility string
	// Description is the repository description shown on the hosting service.
	Description string
}

// FullName returns the namespace/name identifier.
func (o CreateRepoOptions) FullName() string {
	return o.Namespace + "/" + o.Name
}

// Provider defines operations against the remote hosting service.
type Provider interface {
	// CreateRepo creates a remote repository. A repository that already
	// exists under the same name is reported as such, not as a failure.
	CreateRepo(ctx context.Context, opts CreateRepoOptions) (*domain.RemoteRepositoryHandle, error)

	// RepoExists reports whether the named repository exists and is visible
	// to the authenticated user.
	RepoExists(ctx context.Context, fullName string) (bool, error)

	// CheckAuth verifies the gh CLI holds valid credentials.
	CheckAuth(ctx context.Context) error

	// CheckNamespaceAccess verifies the authenticated user can create
	// repositories under the given namespace.
	CheckNamespaceAccess(ctx context.Context, namespace string) error
}

// Compile-time interface check.
var _ Provider = (*CLIProvider)(nil)

// CLIProvider implements Provider using the gh CLI.
type CLIProvider struct {
	workDir string
	logger  zerolog.Logger
	config  git.RetryConfig
	cmdExec CommandExecutor
}

// CommandExecutor executes shell commands. Used for testing.
type CommandExecutor interface {
	// Execute runs a command and returns its combined output.
	Execute(ctx context.Context, workDir, name string, args ...string) ([]byte, error)
}

// CLIProviderOption configures a CLIProvider.
type CLIProviderOption func(*CLIProvider)

// NewCLIProvider creates a CLIProvider with the given options.
func NewCLIProvider(workDir string, opts ...CLIProviderOption) *CLIProvider {
	p := &CLIProvider{
		workDir: workDir,
		logger:  zerolog.Nop(),
		config:  git.DefaultRetryConfig(),
		cmdExec: &defaultCommandExecutor{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithHostLogger sets the logger for hosting operations.
func WithHostLogger(logger zerolog.Logger) CLIProviderOption {
	return func(p *CLIProvider) {
		p.logger = logger
	}
}

// WithHostRetryConfig sets custom retry configuration.
func WithHostRetryConfig(config git.RetryConfig) CLIProviderOption {
	return func(p *CLIProvider) {
		p.config = config
	}
}

// WithHostCommandExecutor sets a custom command executor (for testing).
func WithHostCommandExecutor(exec CommandExecutor) CLIProviderOption {
	return func(p *CLIProvider) {
		p.cmdExec = exec
	}
}

// CreateRepo creates a remote repository via gh CLI with retry logic.
//
// Creation against an existing repository of the same name succeeds with
// CreationAlreadyExists so that interrupted runs can resume, while a
// permission rejection surfaces as ErrRepoCreateDenied. The two cases are
// distinguished by the gh error text, never conflated.
func (p *CLIProvider) CreateRepo(ctx context.Context, opts CreateRepoOptions) (*domain.RemoteRepositoryHandle, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if err := validateCreateOptions(&opts); err != nil {
		return nil, err
	}

	op := &git.SimpleRetryOperation[*domain.RemoteRepositoryHandle]{
		AttemptFunc: func(ctx context.Context, attempt int) (*domain.RemoteRepositoryHandle, bool, error) {
			handle, err := p.attemptCreateRepo(ctx, opts, attempt)
			return handle, err == nil, err
		},
		ShouldRetryFunc: func(err error) bool {
			return shouldRetryHost(ClassifyHostError(err))
		},
		OnRetryWaitFunc: func(attempt int, delay time.Duration) {
			p.logger.Info().
				Int("next_attempt", attempt+1).
				Dur("delay", delay).
				Msg("retrying repository creation")
		},
	}

	handle, attempts, err := git.ExecuteWithRetry(ctx, p.config, op)
	if err == nil {
		return handle, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, buildCreateFinalError(opts.FullName(), attempts, err)
}

// attemptCreateRepo performs a single repository creation attempt.
func (p *CLIProvider) attemptCreateRepo(ctx context.Context, opts CreateRepoOptions, attempt int) (*domain.RemoteRepositoryHandle, error) {
	fullName := opts.FullName()
	p.logger.Info().
		Int("attempt", attempt).
		Str("repo", fullName).
		Str("visibility", opts.Visibility).
		Msg("creating remote repository")

	args := []string{"repo", "create", fullName, "--" + opts.Visibility}
	if opts.Description != "" {
		args = append(args, "--description", opts.Description)
	}

	_, err := p.cmdExec.Execute(ctx, p.workDir, "gh", args...)
	if err != nil {
		if isAlreadyExistsError(err) {
			p.logger.Info().
				Str("repo", fullName).
				Msg("remote repository already exists, resuming")
			return &domain.RemoteRepositoryHandle{
				FullName: fullName,
				CloneURL: CloneURL(fullName),
				Status:   domain.CreationAlreadyExists,
			}, nil
		}
		errType := ClassifyHostError(err)
		p.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("error_type", errType.String()).
			Msg("repository creation failed")
		return nil, err
	}

	p.logger.Info().
		Str("repo", fullName).
		Msg("remote repository created")

	return &domain.RemoteRepositoryHandle{
		FullName: fullName,
		CloneURL: CloneURL(fullName),
		Status:   domain.CreationCreated,
	}, nil
}

// RepoExists reports whether the repository is visible to the current user.
func (p *CLIProvider) RepoExists(ctx context.Context, fullName string) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	if fullName == "" {
		return false, fmt.Errorf("repository name cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	_, err := p.cmdExec.Execute(ctx, p.workDir, "gh", "repo", "view", fullName, "--json", "name")
	if err == nil {
		return true, nil
	}

	switch ClassifyHostError(err) {
	case HostErrorNotFound:
		return false, nil
	case HostErrorAuth:
		return false, fmt.Errorf("checking %s: %w", fullName, wserrors.ErrAuthRequired)
	default:
		return false, fmt.Errorf("checking %s: %w", fullName, err)
	}
}

// CheckAuth verifies the gh CLI holds valid credentials.
func (p *CLIProvider) CheckAuth(ctx context.Context) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	_, err := p.cmdExec.Execute(ctx, p.workDir, "gh", "auth", "status")
	if err != nil {
		p.logger.Warn().Err(err).Msg("gh authentication check failed")
		return fmt.Errorf("gh is not authenticated, run 'gh auth login': %w", wserrors.ErrAuthRequired)
	}
	return nil
}

// CheckNamespaceAccess verifies the user can create repositories under the
// namespace. A namespace matching the authenticated login always passes;
// anything else must be an organization the user belongs to.
func (p *CLIProvider) CheckNamespaceAccess(ctx context.Context, namespace string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if namespace == "" {
		return fmt.Errorf("namespace cannot be empty: %w", wserrors.ErrEmptyValue)
	}

	login, err := p.currentLogin(ctx)
	if err != nil {
		return err
	}
	if strings.EqualFold(login, namespace) {
		return nil
	}

	_, err = p.cmdExec.Execute(ctx, p.workDir, "gh", "api", "orgs/"+namespace)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("namespace", namespace).
			Msg("namespace access check failed")
		return fmt.Errorf("no access to namespace %q: %w", namespace, wserrors.ErrNamespaceAccess)
	}
	return nil
}

// currentLogin returns the authenticated user's login.
func (p *CLIProvider) currentLogin(ctx context.Context) (string, error) {
	output, err := p.cmdExec.Execute(ctx, p.workDir, "gh", "api", "user", "--jq", ".login")
	if err != nil {
		return "", fmt.Errorf("resolving authenticated user: %w", wserrors.ErrAuthRequired)
	}
	return strings.TrimSpace(string(output)), nil
}

// CloneURL returns the HTTPS clone URL for a namespace/name identifier.
func CloneURL(fullName string) string {
	return "https://github.com/" + fullName + ".git"
}

// validateCreateOptions validates creation options and sets defaults.
func validateCreateOptions(opts *CreateRepoOptions) error {
	if opts.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty: %w", wserrors.ErrEmptyValue)
	}
	if opts.Name == "" {
		return fmt.Errorf("repository name cannot be empty: %w", wserrors.ErrEmptyValue)
	}
	if opts.Visibility == "" {
		opts.Visibility = "private"
	}
	if opts.Visibility != "private" && opts.Visibility != "public" {
		return fmt.Errorf("invalid visibility %q: %w", opts.Visibility, wserrors.ErrConfigInvalid)
	}
	return nil
}

// shouldRetryHost determines if the error type is retryable.
func shouldRetryHost(errType HostErrorType) bool {
	return errType == HostErrorNetwork || errType == HostErrorRateLimit
}

// buildCreateFinalError maps a classified creation failure to a sentinel.
func buildCreateFinalError(fullName string, attempts int, err error) error {
	switch ClassifyHostError(err) {
	case HostErrorAuth:
		return fmt.Errorf("creating %s: %w", fullName, wserrors.ErrAuthRequired)
	case HostErrorPermission:
		return fmt.Errorf("creating %s: %w", fullName, wserrors.ErrRepoCreateDenied)
	case HostErrorRateLimit:
		return fmt.Errorf("creating %s: rate limited after %d attempts: %w", fullName, attempts, wserrors.ErrRateLimited)
	case HostErrorNetwork:
		return fmt.Errorf("creating %s: network error after %d attempts: %w", fullName, attempts, err)
	default:
		return fmt.Errorf("creating %s: %w", fullName, err)
	}
}

// ClassifyHostError classifies a gh CLI error for retry handling.
func ClassifyHostError(err error) HostErrorType {
	if err == nil {
		return HostErrorNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return HostErrorNetwork
	}

	errStr := strings.ToLower(err.Error())

	if isRateLimitError(errStr) {
		return HostErrorRateLimit
	}
	if isPermissionError(errStr) {
		return HostErrorPermission
	}
	if isAuthError(errStr) {
		return HostErrorAuth
	}
	if git.MatchesNetworkError(errStr) {
		return HostErrorNetwork
	}
	if git.MatchesNotFoundError(errStr) {
		return HostErrorNotFound
	}

	return HostErrorOther
}

// isAlreadyExistsError checks if creation failed because the repository
// already exists under the target namespace.
func isAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"name already exists",
		"already exists on this account",
		"already exists",
	}
	for _, pattern := range patterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// isRateLimitError checks if the error indicates a rate limit.
func isRateLimitError(errStr string) bool {
	patterns := []string{
		"rate limit exceeded",
		"api rate limit",
		"secondary rate limit",
		"abuse detection",
		"too many requests",
	}
	for _, pattern := range patterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// isPermissionError checks if the error indicates missing create rights.
func isPermissionError(errStr string) bool {
	patterns := []string{
		"permission denied",
		"forbidden",
		"http 403",
		"insufficient permission",
		"organization has disabled",
		"does not have permission",
	}
	for _, pattern := range patterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// isAuthError checks if the error indicates an authentication failure.
func isAuthError(errStr string) bool {
	patterns := []string{
		"authentication required",
		"bad credentials",
		"not logged into",
		"must be authenticated",
		"gh auth login",
		"invalid token",
		"token expired",
		"http 401",
	}
	for _, pattern := range patterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// defaultCommandExecutor is the default implementation using exec.Command.
// Unit tests mock the CommandExecutor interface to avoid external dependencies.
type defaultCommandExecutor struct{}

// Execute runs a command using the standard exec package.
func (e *defaultCommandExecutor) Execute(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s failed [%s]: %w", name, strings.TrimSpace(stderr.String()), wserrors.ErrHostingOperation)
		}
		return nil, fmt.Errorf("%s failed: %w", name, wserrors.ErrHostingOperation)
	}

	return stdout.Bytes(), nil
}

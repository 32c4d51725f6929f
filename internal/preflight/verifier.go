package preflight

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// AuthChecker verifies hosting credentials and namespace rights.
// Satisfied by hosting.Provider.
type AuthChecker interface {
	CheckAuth(ctx context.Context) error
	CheckNamespaceAccess(ctx context.Context, namespace string) error
}

// Check identifies a single precondition in a report.
type Check string

// Precondition checks.
const (
	CheckTools     Check = "tools"
	CheckDaemon    Check = "daemon"
	CheckAuth      Check = "auth"
	CheckNamespace Check = "namespace"
)

// CheckResult records the outcome of a single precondition check.
type CheckResult struct {
	// Check identifies which precondition was verified.
	Check Check `json:"check"`

	// Passed indicates whether the precondition held.
	Passed bool `json:"passed"`

	// Detail carries a human-readable explanation on failure.
	Detail string `json:"detail,omitempty"`
}

// Report aggregates all precondition outcomes. Every check runs even after
// a failure so the user sees the complete picture in one pass.
type Report struct {
	// Tools holds the per-tool detection results.
	Tools *ToolDetectionResult `json:"tools"`

	// Checks holds the outcome of each precondition in check order.
	Checks []CheckResult `json:"checks"`
}

// Passed reports whether every precondition held.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// FailedChecks returns the checks that did not pass.
func (r *Report) FailedChecks() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Verifier runs all environment precondition checks.
type Verifier struct {
	detector ToolDetector
	daemon   *DaemonChecker
	auth     AuthChecker
	logger   zerolog.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// NewVerifier creates a Verifier from its collaborators.
func NewVerifier(detector ToolDetector, daemon *DaemonChecker, auth AuthChecker, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		detector: detector,
		daemon:   daemon,
		auth:     auth,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// WithVerifierLogger sets the logger for precondition checks.
func WithVerifierLogger(logger zerolog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// Verify runs every precondition check and returns the full report. A
// failed precondition returns ErrPrecondition alongside the report; the
// caller decides whether to abort (provisioning) or display (doctor).
func (v *Verifier) Verify(ctx context.Context, namespace string) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	report := &Report{}

	v.verifyTools(ctx, report)
	v.verifyDaemon(ctx, report)
	authOK := v.verifyAuth(ctx, report)
	v.verifyNamespace(ctx, report, namespace, authOK)

	if !report.Passed() {
		return report, fmt.Errorf("%d precondition check(s) failed: %w",
			len(report.FailedChecks()), wserrors.ErrPrecondition)
	}

	v.logger.Info().Msg("all preconditions satisfied")
	return report, nil
}

func (v *Verifier) verifyTools(ctx context.Context, report *Report) {
	result, err := v.detector.Detect(ctx)
	if err != nil {
		report.Checks = append(report.Checks, CheckResult{
			Check:  CheckTools,
			Detail: fmt.Sprintf("tool detection failed: %v", err),
		})
		return
	}

	report.Tools = result
	check := CheckResult{Check: CheckTools, Passed: !result.HasMissingRequired}
	if result.HasMissingRequired {
		check.Detail = FormatMissingToolsError(result.MissingRequiredTools())
		v.logger.Warn().
			Int("missing", len(result.MissingRequiredTools())).
			Msg("required tools missing or outdated")
	}
	report.Checks = append(report.Checks, check)
}

func (v *Verifier) verifyDaemon(ctx context.Context, report *Report) {
	check := CheckResult{Check: CheckDaemon, Passed: true}
	if err := v.daemon.Ensure(ctx); err != nil {
		check.Passed = false
		check.Detail = err.Error()
		v.logger.Warn().Err(err).Msg("container daemon unavailable")
	}
	report.Checks = append(report.Checks, check)
}

func (v *Verifier) verifyAuth(ctx context.Context, report *Report) bool {
	check := CheckResult{Check: CheckAuth, Passed: true}
	if err := v.auth.CheckAuth(ctx); err != nil {
		check.Passed = false
		check.Detail = err.Error()
		v.logger.Warn().Err(err).Msg("hosting authentication check failed")
	}
	report.Checks = append(report.Checks, check)
	return check.Passed
}

func (v *Verifier) verifyNamespace(ctx context.Context, report *Report, namespace string, authOK bool) {
	check := CheckResult{Check: CheckNamespace, Passed: true}
	switch {
	case namespace == "":
		// Doctor runs without a manifest; there is no namespace to verify.
		check.Detail = "skipped: no manifest"
	case !authOK:
		// Without credentials the namespace check cannot say anything useful.
		check.Passed = false
		check.Detail = "skipped: not authenticated"
	default:
		if err := v.auth.CheckNamespaceAccess(ctx, namespace); err != nil {
			check.Passed = false
			check.Detail = err.Error()
			v.logger.Warn().
				Err(err).
				Str("namespace", namespace).
				Msg("namespace access check failed")
		}
	}
	report.Checks = append(report.Checks, check)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wsforge/wsforge/internal/config"
	"github.com/wsforge/wsforge/internal/hosting"
	"github.com/wsforge/wsforge/internal/preflight"
	"github.com/wsforge/wsforge/internal/tui"
)

// AddDoctorCommand registers the doctor command on the root command.
func AddDoctorCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newDoctorCmd(flags))
}

// newDoctorCmd creates the doctor command.
func newDoctorCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment without provisioning anything",
		Long: `Run every environment precondition check and report the results:
required tools and versions, the container daemon, hosting authentication
and namespace access. Nothing is mutated.

Exits non-zero when a precondition fails, so doctor is scriptable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
}

// runDoctor executes all preflight checks and renders the full report.
func runDoctor(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)

	// The namespace check needs the manifest; doctor still works without
	// one, the namespace check is reported as skipped.
	namespace := ""
	if manifest, err := config.Load(ctx, flags.Manifest); err == nil {
		namespace = manifest.Namespace
	}

	provider := hosting.NewCLIProvider(".", hosting.WithHostLogger(logger))
	verifier := preflight.NewVerifier(
		preflight.NewToolDetector(),
		preflight.NewDaemonChecker(preflight.WithDaemonLogger(logger)),
		provider,
		preflight.WithVerifierLogger(logger),
	)

	report, verifyErr := verifier.Verify(ctx, namespace)
	if report == nil {
		return verifyErr
	}

	if flags.Output == OutputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
		return verifyErr
	}

	tui.CheckNoColor()
	if err := tui.RenderPreflightReport(w, report); err != nil {
		return err
	}
	return verifyErr
}

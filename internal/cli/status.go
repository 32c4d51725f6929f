package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/git"
	"github.com/wsforge/wsforge/internal/hosting"
	"github.com/wsforge/wsforge/internal/provision"
)

// AddStatusCommand registers the status command on the root command.
func AddStatusCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newStatusCmd(flags))
}

// newStatusCmd creates the status command.
func newStatusCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show each component's provisioning state",
		Long: `Inspect the workspace and report how far each component progressed:
whether it is scaffolded locally, published to its remote repository, or
linked into the parent workspace. Nothing is mutated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
}

// stateDescriptions explain each detected state in the status output.
var stateDescriptions = map[domain.ComponentState]string{ //nolint:gochecknoglobals // display table
	domain.StateUnscaffolded: "not yet provisioned",
	domain.StateScaffolded:   "scaffolded, awaiting publish",
	domain.StatePublished:    "published, awaiting link",
	domain.StateLinked:       "provisioned",
}

// runStatus detects and reports every component's state without mutating.
func runStatus(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)

	manifest, root, err := loadManifest(ctx, flags.Manifest)
	if err != nil {
		return err
	}

	runner, err := git.NewRunner(root)
	if err != nil {
		return err
	}

	provider := hosting.NewCLIProvider(root, hosting.WithHostLogger(logger))
	detector := provision.NewDetector(root, runner, provider, provision.WithDetectorLogger(logger))

	summary := &provision.Summary{
		Workspace: manifest.Workspace,
		Namespace: manifest.Namespace,
	}

	for _, spec := range manifest.Components {
		state, handle, detectErr := detector.Detect(ctx, spec, manifest.Namespace)
		outcome := provision.ComponentOutcome{
			Name:       spec.Name,
			Path:       spec.Path,
			Template:   spec.Template,
			StartState: state,
			FinalState: state,
			Skipped:    true,
			SkipReason: stateDescriptions[state],
			Err:        detectErr,
		}
		if handle != nil {
			outcome.Repo = handle.FullName
			if state == domain.StateLinked {
				outcome.PinnedRevision = handle.PushedRevision
			}
		}
		summary.Components = append(summary.Components, outcome)
	}

	return renderSummary(w, flags.Output, summary)
}

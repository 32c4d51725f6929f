package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wsforge/wsforge/internal/config"
	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/git"
	"github.com/wsforge/wsforge/internal/hosting"
	"github.com/wsforge/wsforge/internal/link"
	"github.com/wsforge/wsforge/internal/preflight"
	"github.com/wsforge/wsforge/internal/provision"
	"github.com/wsforge/wsforge/internal/publish"
	"github.com/wsforge/wsforge/internal/scaffold"
	"github.com/wsforge/wsforge/internal/signal"
	"github.com/wsforge/wsforge/internal/tui"
)

// AddUpCommand registers the up command on the root command.
func AddUpCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newUpCmd(flags))
}

// upOptions contains all options for the up command.
type upOptions struct {
	dryRun        bool
	skipPreflight bool
	force         bool
}

// newUpCmd creates the up command.
func newUpCmd(flags *GlobalFlags) *cobra.Command {
	var opts upOptions

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the workspace described by the manifest",
		Long: `Provision the workspace in a single run: verify the environment,
scaffold each component, publish it to its own remote repository, link it
into the parent workspace as a pinned submodule, and publish the parent.

Re-running after a failure resumes where the previous run stopped.

Examples:
  wsforge up
  wsforge up --manifest ./devstack/wsforge.yaml
  wsforge up --dry-run
  wsforge up --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUp(cmd.Context(), cmd.OutOrStdout(), flags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show what would be provisioned without making changes")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "skip environment verification")
	cmd.Flags().BoolVar(&opts.force, "force", false, "resolve recovery prompts without asking (adopt diverged remotes)")

	return cmd
}

// runUp loads the manifest, wires the pipeline and executes the run.
func runUp(ctx context.Context, w io.Writer, flags *GlobalFlags, opts upOptions) error {
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

	handler := signal.NewHandler(ctx)
	defer handler.Stop()

	engine, err := buildEngine(root, runner, manifest, logger, flags, opts, handler)
	if err != nil {
		return err
	}

	summary, runErr := engine.Run(handler.Context(), manifest)
	if renderErr := renderSummary(w, flags.Output, summary); renderErr != nil {
		return renderErr
	}
	return runErr
}

// buildEngine wires the provisioning pipeline around the manifest root.
func buildEngine(root string, runner git.Runner, manifest *domain.WorkspaceManifest, logger zerolog.Logger, flags *GlobalFlags, opts upOptions, handler *signal.Handler) (*provision.Engine, error) {
	provider := hosting.NewCLIProvider(root, hosting.WithHostLogger(logger))

	verifier := preflight.NewVerifier(
		preflight.NewToolDetector(),
		preflight.NewDaemonChecker(preflight.WithDaemonLogger(logger)),
		provider,
		preflight.WithVerifierLogger(logger),
	)

	deps := provision.Deps{
		Verifier:  verifier,
		Detector:  provision.NewDetector(root, runner, provider, provision.WithDetectorLogger(logger)),
		Generator: scaffold.NewGenerator(root, scaffold.WithGeneratorLogger(logger)),
		Publisher: publish.NewPublisher(provider, publish.WithPublishLogger(logger)),
		Linker:    link.NewLinker(root, runner, link.WithLinkLogger(logger)),
		Assembler: provision.NewAssembler(root, runner,
			publish.NewPublisher(provider, publish.WithPublishLogger(logger)),
			provision.WithAssemblerLogger(logger)),
	}

	engineOpts := []provision.EngineOption{
		provision.WithEngineLogger(logger),
		provision.WithDryRun(opts.dryRun),
		provision.WithSkipPreflight(opts.skipPreflight),
		provision.WithForce(opts.force),
		provision.WithInterruptCheck(handler.WasInterrupted),
	}
	if !opts.force {
		engineOpts = append(engineOpts, provision.WithConfirm(Confirm))
	}

	return provision.NewEngine(root, runner, deps, engineOpts...), nil
}

// loadManifest resolves the manifest path and loads it. The workspace root
// is the manifest's directory.
func loadManifest(ctx context.Context, path string) (*domain.WorkspaceManifest, string, error) {
	manifest, err := config.Load(ctx, path)
	if err != nil {
		return nil, "", err
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return nil, "", absErr
		}
		root = filepath.Dir(abs)
	}
	return manifest, root, nil
}

// renderSummary writes the run summary in the selected output format.
func renderSummary(w io.Writer, format string, summary *provision.Summary) error {
	if summary == nil {
		return nil
	}

	if format == OutputJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tui.CheckNoColor()
	return tui.NewSummaryRenderer().Render(w, summary)
}

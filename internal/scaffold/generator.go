package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/ctxutil"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// Generator scaffolds components into the workspace tree.
type Generator struct {
	root    string
	engines map[string]TemplateEngine
	logger  zerolog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// NewGenerator creates a Generator rooted at the workspace directory.
func NewGenerator(root string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		root:    root,
		engines: Engines(&ExecCommandRunner{}),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithGeneratorLogger sets the logger for scaffold operations.
func WithGeneratorLogger(logger zerolog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithGeneratorEngines overrides the template engines (for testing).
func WithGeneratorEngines(engines map[string]TemplateEngine) GeneratorOption {
	return func(g *Generator) {
		g.engines = engines
	}
}

// Generate scaffolds one component. Re-running against a directory this
// tool previously scaffolded resumes instead of failing; a non-empty
// directory it does not recognize is refused rather than overwritten.
// A failing build check is recorded on the result, not returned as an
// error, so the component still publishes and the scaffold can be fixed
// in its own repository later.
func (g *Generator) Generate(ctx context.Context, spec domain.ComponentSpec) (*domain.ScaffoldResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	engine, err := EngineFor(g.engines, spec.Template)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(g.root, spec.Path)
	state, err := inspectDir(dir, spec.Template)
	if err != nil {
		return nil, err
	}

	log := g.logger.With().Str("component", spec.Name).Str("template", spec.Template).Logger()

	if state == dirRecognized {
		log.Info().Str("path", spec.Path).Msg("recognized existing scaffold, resuming")
	} else {
		if err := g.runInit(ctx, engine, dir, spec); err != nil {
			return nil, err
		}
	}

	files, err := g.applyOverlay(engine, dir)
	if err != nil {
		return nil, err
	}

	if err := writeMarker(dir, spec.Template); err != nil {
		return nil, err
	}

	result := &domain.ScaffoldResult{
		Path:  dir,
		Files: files,
	}

	g.runBuildCheck(ctx, engine, dir, result, log)
	return result, nil
}

// Recognized reports whether dir holds a scaffold this tool previously
// produced from the given template. Absent and empty directories are not
// recognized; foreign content is not an error here, just not recognized.
func Recognized(dir, template string) bool {
	state, err := inspectDir(dir, template)
	return err == nil && state == dirRecognized
}

// dirState classifies the target directory before scaffolding.
type dirState int

const (
	dirAbsent dirState = iota
	dirEmpty
	dirRecognized
)

// inspectDir classifies the target directory. An unrecognized non-empty
// directory is an error: overwriting user content is never acceptable.
func inspectDir(dir, template string) (dirState, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return dirAbsent, nil
		}
		return dirAbsent, fmt.Errorf("inspecting %s: %w: %w", dir, wserrors.ErrScaffold, err)
	}

	if len(entries) == 0 {
		return dirEmpty, nil
	}

	marker, err := os.ReadFile(filepath.Join(dir, constants.ScaffoldMarkerFileName)) //#nosec G304 -- path is derived from the manifest
	if err != nil {
		return dirAbsent, fmt.Errorf("directory %s is non-empty and not a recognized scaffold: %w",
			dir, wserrors.ErrScaffoldAmbiguous)
	}

	recorded := strings.TrimSpace(string(marker))
	if recorded != template {
		return dirAbsent, fmt.Errorf("directory %s was scaffolded from template %q, manifest wants %q: %w",
			dir, recorded, template, wserrors.ErrScaffoldAmbiguous)
	}

	return dirRecognized, nil
}

// runInit invokes the external scaffold tool with a bounded timeout.
func (g *Generator) runInit(ctx context.Context, engine TemplateEngine, dir string, spec domain.ComponentSpec) error {
	parentDir := filepath.Dir(dir)
	if err := os.MkdirAll(parentDir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w: %w", parentDir, wserrors.ErrScaffold, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, constants.ScaffoldInitTimeout)
	defer cancel()

	g.logger.Info().
		Str("component", spec.Name).
		Str("template", spec.Template).
		Str("path", spec.Path).
		Msg("scaffolding component")

	if err := engine.InitProject(initCtx, parentDir, filepath.Base(dir)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("component %s: %w: %w", spec.Name, wserrors.ErrScaffold, err)
	}
	return nil
}

// applyOverlay writes the canonical files over the generated scaffold.
func (g *Generator) applyOverlay(engine TemplateEngine, dir string) ([]string, error) {
	var written []string
	for _, f := range engine.Overlay() {
		content, err := templatesFS.ReadFile(f.src)
		if err != nil {
			return nil, fmt.Errorf("reading embedded %s: %w: %w", f.src, wserrors.ErrScaffold, err)
		}

		dest := filepath.Join(dir, f.dest)
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return nil, fmt.Errorf("creating %s: %w: %w", filepath.Dir(dest), wserrors.ErrScaffold, err)
		}
		if err := os.WriteFile(dest, content, 0o600); err != nil {
			return nil, fmt.Errorf("writing %s: %w: %w", dest, wserrors.ErrScaffold, err)
		}
		written = append(written, f.dest)
	}
	return written, nil
}

// writeMarker records which template produced this directory so a later
// run can tell a resumable scaffold from foreign content.
func writeMarker(dir, template string) error {
	marker := filepath.Join(dir, constants.ScaffoldMarkerFileName)
	if err := os.WriteFile(marker, []byte(template+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing scaffold marker: %w: %w", wserrors.ErrScaffold, err)
	}
	return nil
}

// runBuildCheck records the build check outcome on the result.
func (g *Generator) runBuildCheck(ctx context.Context, engine TemplateEngine, dir string, result *domain.ScaffoldResult, log zerolog.Logger) {
	checkCtx, cancel := context.WithTimeout(ctx, constants.BuildCheckTimeout)
	defer cancel()

	output, err := engine.BuildCheck(checkCtx, dir)
	result.BuildCheckOutput = output
	if err != nil {
		result.BuildCheckPassed = false
		result.BuildCheckOutput = fmt.Sprintf("%v\n%s", err, output)
		log.Warn().Err(err).Msg("build check failed, continuing")
		return
	}
	result.BuildCheckPassed = true
	log.Info().Msg("build check passed")
}

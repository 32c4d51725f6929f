package scaffold

import (
	"context"
	"fmt"

	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// Template identifiers accepted in the workspace manifest.
const (
	TemplateVite    = "vite"
	TemplateFastAPI = "fastapi"
)

// TemplateEngine drives one external scaffolding tool.
type TemplateEngine interface {
	// Name returns the template identifier.
	Name() string

	// InitProject invokes the external tool to scaffold dirName under
	// parentDir.
	InitProject(ctx context.Context, parentDir, dirName string) error

	// BuildCheck runs a local build or compile check inside dir and
	// returns the tool output.
	BuildCheck(ctx context.Context, dir string) (string, error)

	// Overlay returns the canonical files written after InitProject.
	Overlay() []overlayFile
}

// Engines returns the template engines keyed by identifier.
func Engines(runner CommandRunner) map[string]TemplateEngine {
	return map[string]TemplateEngine{
		TemplateVite:    &ViteEngine{runner: runner},
		TemplateFastAPI: &FastAPIEngine{runner: runner},
	}
}

// EngineFor resolves a template identifier to its engine.
func EngineFor(engines map[string]TemplateEngine, template string) (TemplateEngine, error) {
	engine, ok := engines[template]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", template, wserrors.ErrUnknownTemplate)
	}
	return engine, nil
}

// ViteEngine scaffolds the desktop client with npm create vite.
type ViteEngine struct {
	runner CommandRunner
}

// Name returns the template identifier.
func (e *ViteEngine) Name() string { return TemplateVite }

// InitProject runs npm create vite with the react-ts starter.
func (e *ViteEngine) InitProject(ctx context.Context, parentDir, dirName string) error {
	_, err := e.runner.Run(ctx, parentDir, "npm", "create", "vite@latest", dirName, "--", "--template", "react-ts")
	if err != nil {
		return fmt.Errorf("vite scaffold: %w", err)
	}
	return nil
}

// BuildCheck installs dependencies and runs the production build.
func (e *ViteEngine) BuildCheck(ctx context.Context, dir string) (string, error) {
	installOut, err := e.runner.Run(ctx, dir, "npm", "install")
	if err != nil {
		return installOut, fmt.Errorf("npm install: %w", err)
	}
	buildOut, err := e.runner.Run(ctx, dir, "npm", "run", "build")
	if err != nil {
		return buildOut, fmt.Errorf("npm run build: %w", err)
	}
	return buildOut, nil
}

// Overlay returns the canonical client files.
func (e *ViteEngine) Overlay() []overlayFile { return viteOverlay() }

// FastAPIEngine scaffolds the backend service with uv.
type FastAPIEngine struct {
	runner CommandRunner
}

// Name returns the template identifier.
func (e *FastAPIEngine) Name() string { return TemplateFastAPI }

// InitProject runs uv init to create the project skeleton.
func (e *FastAPIEngine) InitProject(ctx context.Context, parentDir, dirName string) error {
	_, err := e.runner.Run(ctx, parentDir, "uv", "init", "--no-readme", dirName)
	if err != nil {
		return fmt.Errorf("uv scaffold: %w", err)
	}
	return nil
}

// BuildCheck compiles the application package. Syntax errors in the
// scaffold surface here without needing the full dependency set.
func (e *FastAPIEngine) BuildCheck(ctx context.Context, dir string) (string, error) {
	out, err := e.runner.Run(ctx, dir, "uv", "run", "python", "-m", "compileall", "-q", "app")
	if err != nil {
		return out, fmt.Errorf("compileall: %w", err)
	}
	return out, nil
}

// Overlay returns the canonical backend files.
func (e *FastAPIEngine) Overlay() []overlayFile { return fastapiOverlay() }

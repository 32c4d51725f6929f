package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/ctxutil"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
	"github.com/wsforge/wsforge/internal/git"
)

// ParentPublisher publishes the parent workspace repository using the same
// create-then-push protocol as component publishing.
type ParentPublisher interface {
	Publish(ctx context.Context, result *domain.ScaffoldResult, spec domain.ComponentSpec, namespace string) (*domain.RemoteRepositoryHandle, error)
}

// AssembleResult is the outcome of workspace assembly.
type AssembleResult struct {
	// Parent is the published parent repository handle.
	Parent *domain.RemoteRepositoryHandle

	// Warnings lists components the committed parent does not pin. The
	// workspace still publishes; the findings surface in the summary.
	Warnings []string
}

// Assembler finalizes the parent workspace: it generates the workspace
// files, commits everything including the sub-repository pins, publishes
// the parent and verifies each provisioned component is actually pinned.
type Assembler struct {
	root      string
	runner    git.Runner
	publisher ParentPublisher
	logger    zerolog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// NewAssembler creates an Assembler over the parent repository.
func NewAssembler(root string, runner git.Runner, publisher ParentPublisher, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		root:      root,
		runner:    runner,
		publisher: publisher,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithAssemblerLogger sets the logger for assembly operations.
func WithAssemblerLogger(logger zerolog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// Assemble writes the workspace files, commits the workspace state and
// publishes the parent repository. provisioned lists the components that
// reached the linked state this run or earlier; each one is verified to
// have a pin in the committed parent.
func (a *Assembler) Assemble(ctx context.Context, manifest *domain.WorkspaceManifest, provisioned []domain.ComponentSpec) (*AssembleResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if err := a.writeWorkspaceFiles(manifest); err != nil {
		return nil, err
	}

	// The commit captures the generated files and the sub-repository pins
	// the linker staged. Committing with nothing staged is a no-op, so an
	// idempotent re-run passes through here cleanly.
	if err := a.runner.AddAll(ctx); err != nil {
		return nil, fmt.Errorf("staging workspace: %w: %w", wserrors.ErrAssemble, err)
	}
	if err := a.runner.Commit(ctx, constants.WorkspaceCommitMessage); err != nil {
		return nil, fmt.Errorf("committing workspace: %w: %w", wserrors.ErrAssemble, err)
	}

	handle, err := a.publisher.Publish(ctx, &domain.ScaffoldResult{Path: a.root}, domain.ComponentSpec{
		Name:        manifest.Workspace,
		Visibility:  "private",
		Description: "Provisioned workspace",
	}, manifest.Namespace)
	if err != nil {
		return nil, fmt.Errorf("publishing workspace: %w: %w", wserrors.ErrAssemble, err)
	}

	warnings, err := a.verifyPins(ctx, provisioned)
	if err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("repo", handle.FullName).
		Int("components", len(provisioned)).
		Int("warnings", len(warnings)).
		Msg("workspace assembled")

	return &AssembleResult{Parent: handle, Warnings: warnings}, nil
}

// verifyPins confirms every provisioned component has a non-empty pin in
// the parent. A missing pin is a warning, not an error: the workspace has
// already published and the operator fixes the pin with a re-run.
func (a *Assembler) verifyPins(ctx context.Context, provisioned []domain.ComponentSpec) ([]string, error) {
	entries, err := a.runner.SubmoduleStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying sub-repositories: %w: %w", wserrors.ErrAssemble, err)
	}

	pins := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.HasPin() {
			pins[entry.Path] = entry.Revision
		}
	}

	var warnings []string
	for _, spec := range provisioned {
		if _, ok := pins[spec.Path]; !ok {
			warnings = append(warnings, fmt.Sprintf("component %s has no pinned revision at %s", spec.Name, spec.Path))
		}
	}
	return warnings, nil
}

// writeWorkspaceFiles renders the compose file, README and assistant
// instructions. Content is deterministic, so rewriting on a re-run either
// changes nothing or repairs a hand-damaged file.
func (a *Assembler) writeWorkspaceFiles(manifest *domain.WorkspaceManifest) error {
	files := map[string]*template.Template{
		constants.ComposeFileName:   composeTemplate,
		"README.md":                 readmeTemplate,
		constants.AssistantFileName: assistantTemplate,
	}

	for name, tmpl := range files {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, manifest); err != nil {
			return fmt.Errorf("rendering %s: %w: %w", name, wserrors.ErrAssemble, err)
		}
		dest := filepath.Join(a.root, name)
		if err := os.WriteFile(dest, buf.Bytes(), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w: %w", name, wserrors.ErrAssemble, err)
		}
	}
	return nil
}

// servicePort maps a template to the port its dev server listens on.
func servicePort(template string) string {
	switch template {
	case "vite":
		return "5173"
	case "fastapi":
		return "8000"
	default:
		return ""
	}
}

//nolint:gochecknoglobals // parsed once at startup
var composeTemplate = template.Must(template.New("compose").Funcs(template.FuncMap{
	"port": servicePort,
}).Parse(`services:
{{- range .Components}}
  {{.Name}}:
    build: ./{{.Path}}
{{- with port .Template}}
    ports:
      - "{{.}}:{{.}}"
{{- end}}
{{- end}}
`))

//nolint:gochecknoglobals // parsed once at startup
var readmeTemplate = template.Must(template.New("readme").Parse(`# {{.Workspace}}

Multi-repository workspace managed by wsforge.

## Components

| Component | Path | Template |
|-----------|------|----------|
{{- range .Components}}
| {{.Name}} | {{.Path}} | {{.Template}} |
{{- end}}

## Working with this workspace

Each component lives in its own repository and is mounted here as a git
submodule pinned to a specific revision. Clone with:

` + "```" + `
git clone --recurse-submodules <workspace-url>
` + "```" + `

To pick up newer component revisions, update the pins and commit:

` + "```" + `
git submodule update --remote
git add .
git commit -m "Update component pins"
` + "```" + `
`))

//nolint:gochecknoglobals // parsed once at startup
var assistantTemplate = template.Must(template.New("assistant").Parse(`# {{.Workspace}}

This workspace is a collection of independently versioned repositories
mounted as git submodules. Keep these rules in mind:

- Each component under its manifest path is a separate repository with its
  own history. Commit and push component changes inside the component
  directory, then update the pin in the workspace root.
- Never commit directly to a component from the workspace root.
- The file docker-compose.yml wires the components together for local
  development.

## Components
{{range .Components}}
- {{.Name}} ({{.Template}}) at {{.Path}}
{{- end}}
`))

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// Normalize fills manifest defaults: repository name falls back to the
// component name, path to the component name, visibility to private.
func Normalize(m *domain.WorkspaceManifest) {
	for i := range m.Components {
		c := &m.Components[i]
		if c.Path == "" {
			c.Path = c.Name
		}
		if c.Visibility == "" {
			c.Visibility = "private"
		}
	}
}

// Validate checks the manifest for structural problems. All problems are
// collected, but the first one is returned so the error stays actionable.
func Validate(m *domain.WorkspaceManifest) error {
	if m.Workspace == "" {
		return invalid("workspace name is required")
	}
	if m.Namespace == "" {
		return invalid("namespace is required")
	}
	if len(m.Components) == 0 {
		return invalid("at least one component is required")
	}

	seenNames := make(map[string]bool, len(m.Components))
	seenPaths := make(map[string]bool, len(m.Components))
	seenRepos := make(map[string]bool, len(m.Components))

	for i, c := range m.Components {
		if c.Name == "" {
			return invalid(fmt.Sprintf("component %d: name is required", i))
		}
		if c.Template == "" {
			return invalid(fmt.Sprintf("component %q: template is required", c.Name))
		}
		if err := validatePath(c.Name, c.Path); err != nil {
			return err
		}
		if c.Visibility != "private" && c.Visibility != "public" {
			return invalid(fmt.Sprintf("component %q: visibility must be private or public, got %q", c.Name, c.Visibility))
		}

		if seenNames[c.Name] {
			return invalid(fmt.Sprintf("duplicate component name %q", c.Name))
		}
		seenNames[c.Name] = true

		cleanPath := filepath.Clean(c.Path)
		if seenPaths[cleanPath] {
			return invalid(fmt.Sprintf("duplicate component path %q", c.Path))
		}
		seenPaths[cleanPath] = true

		if seenRepos[c.RepoName()] {
			return invalid(fmt.Sprintf("duplicate repository name %q", c.RepoName()))
		}
		seenRepos[c.RepoName()] = true
	}

	return nil
}

// validatePath rejects paths that escape or alias the workspace root.
func validatePath(name, path string) error {
	if path == "" {
		return invalid(fmt.Sprintf("component %q: path is required", name))
	}
	if filepath.IsAbs(path) {
		return invalid(fmt.Sprintf("component %q: path must be relative, got %q", name, path))
	}
	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, "..") {
		return invalid(fmt.Sprintf("component %q: path %q escapes the workspace root", name, path))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, wserrors.ErrConfigInvalid)
}

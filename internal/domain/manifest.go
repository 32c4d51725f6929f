// Package domain provides shared domain types for the wsforge provisioning system.
package domain

// WorkspaceManifest is the root entity of a provisioning run. It is created
// once at invocation start from the manifest file and is immutable for the
// run's duration.
//
// Example YAML representation:
//
//	workspace: devstack
//	namespace: org-x
//	components:
//	  - name: alpha
//	    path: apps/alpha
//	    template: vite
//	    repo: alpha
//	    visibility: private
type WorkspaceManifest struct {
	// Workspace is the parent workspace name, used as the parent
	// repository name on the hosting service.
	Workspace string `yaml:"workspace" mapstructure:"workspace"`

	// Namespace is the hosting organization all repositories are created in.
	Namespace string `yaml:"namespace" mapstructure:"namespace"`

	// Components is the ordered list of provisionable units. Order is
	// execution order; components never run concurrently.
	Components []ComponentSpec `yaml:"components" mapstructure:"components"`
}

// ComponentSpec describes one provisionable unit. Read-only after creation.
type ComponentSpec struct {
	// Name is the logical component name.
	Name string `yaml:"name" mapstructure:"name"`

	// Path is the component directory relative to the workspace root.
	// It is also the submodule mount path.
	Path string `yaml:"path" mapstructure:"path"`

	// Template identifies the scaffold template engine (e.g. "vite", "fastapi").
	Template string `yaml:"template" mapstructure:"template"`

	// Repo is the desired remote repository name. Defaults to Name.
	Repo string `yaml:"repo" mapstructure:"repo"`

	// Visibility is the remote repository visibility ("private" or "public").
	Visibility string `yaml:"visibility" mapstructure:"visibility"`

	// Description is the remote repository description.
	Description string `yaml:"description" mapstructure:"description"`
}

// RepoName returns the remote repository name, falling back to the
// component name when the manifest does not set one explicitly.
func (c ComponentSpec) RepoName() string {
	if c.Repo != "" {
		return c.Repo
	}
	return c.Name
}

// FullRepo returns the fully qualified namespace/name identifier for the
// component's repository within the given namespace.
func (c ComponentSpec) FullRepo(namespace string) string {
	return namespace + "/" + c.RepoName()
}

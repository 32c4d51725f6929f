package domain

// ComponentState is a component's position in the provisioning state machine.
// Transitions are strictly forward; there is no unlink or unpublish.
type ComponentState string

// Component states, in transition order.
const (
	// StateUnscaffolded means no recognized local scaffold, no remote, no link.
	StateUnscaffolded ComponentState = "unscaffolded"

	// StateScaffolded means a recognized scaffold directory exists locally
	// but its content has not been confirmed pushed.
	StateScaffolded ComponentState = "scaffolded"

	// StatePublished means the component's commit is confirmed on the remote
	// but the parent does not yet reference it as a sub-repository.
	StatePublished ComponentState = "published"

	// StateLinked means the parent workspace references the component as a
	// pinned sub-repository. Terminal.
	StateLinked ComponentState = "linked"
)

// CreationStatus reports how remote repository creation concluded.
type CreationStatus string

// Creation statuses.
const (
	// CreationCreated means the repository was created by this run.
	CreationCreated CreationStatus = "created"

	// CreationAlreadyExists means a repository of the same name already
	// existed. Treated as success: remote creation is idempotent so two
	// runs racing on the same namespace both succeed.
	CreationAlreadyExists CreationStatus = "already-exists"

	// CreationFailed means the repository could not be created.
	CreationFailed CreationStatus = "failed"
)

// ScaffoldResult is the materialized local directory tree for a component.
// It is consumed, and its directory destroyed, by the linker after the
// publisher confirms the push.
type ScaffoldResult struct {
	// Path is the absolute path of the scaffold directory.
	Path string

	// Files are the workspace-relative paths of the overlay files wsforge
	// wrote over the template engine's output.
	Files []string

	// BuildCheckPassed reports the local build/compile check outcome.
	BuildCheckPassed bool

	// BuildCheckOutput holds trailing build output when the check failed,
	// surfaced in the final summary.
	BuildCheckOutput string
}

// RemoteRepositoryHandle represents a hosted repository. It persists for the
// lifetime of the workspace; wsforge never deletes remotes.
type RemoteRepositoryHandle struct {
	// FullName is the fully qualified namespace/name identifier.
	FullName string

	// CloneURL is the HTTPS clone URL.
	CloneURL string

	// Status reports how creation concluded.
	Status CreationStatus

	// PushedRevision is the commit confirmed pushed to the remote head.
	// Empty until the publisher's push returns success.
	PushedRevision string
}

// SubRepositoryLink is the parent workspace's record of a component. The
// parent repository's own history is the durable store for this entity.
type SubRepositoryLink struct {
	// Path is the submodule mount path relative to the workspace root.
	Path string

	// RemoteURL is the linked repository's clone URL.
	RemoteURL string

	// PinnedRevision is the commit the parent currently references.
	PinnedRevision string
}

package provision

import (
	"encoding/json"
	"time"

	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/preflight"
)

// ComponentOutcome records what happened to one component during a run.
type ComponentOutcome struct {
	// Name is the component's logical name.
	Name string `json:"name"`

	// Path is the component's workspace-relative directory.
	Path string `json:"path"`

	// Template is the scaffold template the component uses.
	Template string `json:"template"`

	// StartState is the state detected before any work.
	StartState domain.ComponentState `json:"start_state"`

	// FinalState is the state after the run, equal to StartState when
	// nothing advanced.
	FinalState domain.ComponentState `json:"final_state"`

	// Skipped is true when the component needed no work or the run was
	// interrupted before it started.
	Skipped bool `json:"skipped"`

	// SkipReason explains a skip ("already provisioned", "interrupted").
	SkipReason string `json:"skip_reason,omitempty"`

	// Planned lists the transitions a dry run would perform.
	Planned []string `json:"planned,omitempty"`

	// Repo is the fully qualified remote repository name once known.
	Repo string `json:"repo,omitempty"`

	// PinnedRevision is the commit the parent references after linking.
	PinnedRevision string `json:"pinned_revision,omitempty"`

	// BuildCheckPassed reports the scaffold build check, when one ran.
	BuildCheckPassed bool `json:"build_check_passed"`

	// BuildCheckOutput holds trailing build output for a failed check.
	BuildCheckOutput string `json:"build_check_output,omitempty"`

	// Err is the failure that stopped this component, nil on success.
	Err error `json:"-"`

	// Error is Err's message for serialized output.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the component stopped on an error.
func (o *ComponentOutcome) Failed() bool {
	return o.Err != nil
}

// Summary is the complete record of a provisioning run.
type Summary struct {
	// Workspace is the parent workspace name.
	Workspace string `json:"workspace"`

	// Namespace is the hosting namespace all repositories live in.
	Namespace string `json:"namespace"`

	// RunID correlates log lines with this run.
	RunID string `json:"run_id"`

	// DryRun is true when no mutations were performed.
	DryRun bool `json:"dry_run"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Preflight is the environment verification report, nil when skipped.
	Preflight *preflight.Report `json:"preflight,omitempty"`

	// Components holds one outcome per manifest component, in manifest order.
	Components []ComponentOutcome `json:"components"`

	// Parent is the published parent repository handle, nil before assembly.
	Parent *domain.RemoteRepositoryHandle `json:"parent,omitempty"`

	// Warnings lists post-assembly verification findings, such as a
	// component the parent does not reference.
	Warnings []string `json:"warnings,omitempty"`
}

// FailedComponents returns the outcomes that stopped on an error.
func (s *Summary) FailedComponents() []ComponentOutcome {
	var failed []ComponentOutcome
	for _, o := range s.Components {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Complete reports whether every component reached the linked state.
func (s *Summary) Complete() bool {
	for _, o := range s.Components {
		if o.FinalState != domain.StateLinked {
			return false
		}
	}
	return len(s.Warnings) == 0
}

// MarshalJSON fills the Error fields from Err before serializing.
func (s *Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	clone := alias(*s)
	clone.Components = make([]ComponentOutcome, len(s.Components))
	copy(clone.Components, s.Components)
	for i := range clone.Components {
		if clone.Components[i].Err != nil {
			clone.Components[i].Error = clone.Components[i].Err.Error()
		}
	}
	return json.Marshal(clone)
}

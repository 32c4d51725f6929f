package domain

import (
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// ValidTransitions returns the allowed component state transitions. The
// machine is strictly forward: a linked component never returns to an
// earlier state, and no transition skips a stage.
func ValidTransitions() map[ComponentState][]ComponentState {
	return map[ComponentState][]ComponentState{
		StateUnscaffolded: {StateScaffolded},
		StateScaffolded:   {StatePublished},
		StatePublished:    {StateLinked},
		StateLinked:       {}, // terminal
	}
}

// IsTerminalState reports whether no further transitions are possible
// from the given state.
func IsTerminalState(state ComponentState) bool {
	transitions, exists := ValidTransitions()[state]
	return exists && len(transitions) == 0
}

// ValidateTransition checks whether moving from one component state to
// another is allowed.
func ValidateTransition(from, to ComponentState) error {
	validTargets, exists := ValidTransitions()[from]
	if !exists {
		return wserrors.Wrapf(wserrors.ErrInvalidTransition, "unknown state %q", from)
	}

	for _, target := range validTargets {
		if target == to {
			return nil
		}
	}

	return wserrors.Wrapf(wserrors.ErrInvalidTransition, "cannot transition from %q to %q", from, to)
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// terminalCheck allows tests to override terminal detection.
//
//nolint:gochecknoglobals // required for test injection
var terminalCheck = isTerminal

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm asks the operator a yes/no question. In a non-interactive
// session it returns ErrNonInteractiveMode so the caller surfaces the
// --force remedy instead of hanging on a prompt nobody sees.
func Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !terminalCheck() {
		return false, fmt.Errorf("cannot prompt for %q: %w", prompt, wserrors.ErrNonInteractiveMode)
	}

	var proceed bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&proceed).
		Run()
	if err != nil {
		return false, err
	}

	return proceed, nil
}

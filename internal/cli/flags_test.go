package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	wserrors "github.com/wsforge/wsforge/internal/errors"
)

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat(OutputText))
	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: ExitSuccess},
		{name: "generic error", err: errors.New("boom"), want: ExitError},
		{name: "precondition failure", err: wserrors.ErrPrecondition, want: ExitError},
		{name: "incomplete provisioning", err: wserrors.ErrProvisionIncomplete, want: ExitError},
		{name: "exit code 2 wrapper", err: wserrors.NewExitCode2Error(errors.New("bad arg")), want: ExitInvalidInput},
		{name: "invalid output format", err: fmt.Errorf("wrap: %w", wserrors.ErrInvalidOutputFormat), want: ExitInvalidInput},
		{name: "invalid manifest", err: fmt.Errorf("wrap: %w", wserrors.ErrConfigInvalid), want: ExitInvalidInput},
		{name: "missing manifest", err: fmt.Errorf("wrap: %w", wserrors.ErrConfigNotFound), want: ExitInvalidInput},
		{name: "cobra unknown flag", err: errors.New("unknown flag: --bogus"), want: ExitInvalidInput},
		{name: "cobra unknown command", err: errors.New(`unknown command "provision" for "wsforge"`), want: ExitInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

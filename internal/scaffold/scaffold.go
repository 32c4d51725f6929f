// Package scaffold creates component directory trees from templates.
package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes external scaffold tooling. Abstracted for testing.
type CommandRunner interface {
	// Run executes a command in dir and returns its combined output.
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecCommandRunner implements CommandRunner using os/exec.
type ExecCommandRunner struct{}

// Run executes a command and returns its combined output.
func (e *ExecCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = dir
	cmd.Stdin = nil

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	if err != nil {
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		return output, fmt.Errorf("%s %s failed: %s: %w", name, strings.Join(args, " "), firstLine(output), err)
	}
	return output, nil
}

// firstLine trims output to its first non-empty line for error messages.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return "(no output)"
}

package tui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/wsforge/wsforge/internal/domain"
	"github.com/wsforge/wsforge/internal/preflight"
	"github.com/wsforge/wsforge/internal/provision"
)

// SummaryRenderer writes a provisioning run summary as a styled table.
type SummaryRenderer struct {
	styles *OutputStyles
	width  int
}

// SummaryRendererOption configures a SummaryRenderer.
type SummaryRendererOption func(*SummaryRenderer)

// WithRenderWidth forces a terminal width (useful for testing).
func WithRenderWidth(width int) SummaryRendererOption {
	return func(r *SummaryRenderer) {
		r.width = width
	}
}

// NewSummaryRenderer creates a renderer using the detected terminal width.
func NewSummaryRenderer(opts ...SummaryRendererOption) *SummaryRenderer {
	r := &SummaryRenderer{
		styles: NewOutputStyles(),
		width:  DetectTerminalWidth(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the summary table and any warnings.
func (r *SummaryRenderer) Render(w io.Writer, s *provision.Summary) error {
	title := fmt.Sprintf("Workspace %s (%s)", s.Workspace, s.Namespace)
	if s.DryRun {
		title += " " + r.styles.Dim.Render("[dry run]")
	}
	if _, err := fmt.Fprintln(w, r.styles.Header.Render(title)); err != nil {
		return err
	}

	if len(s.Components) == 0 {
		_, err := fmt.Fprintln(w, r.styles.Dim.Render("no components"))
		return err
	}

	widths := r.columnWidths(s)
	headers := []string{"COMPONENT", "TEMPLATE", "STATE", "RESULT"}
	headerParts := make([]string, len(headers))
	for i, h := range headers {
		headerParts[i] = r.styles.Header.Render(padRight(h, widths[i]))
	}
	if _, err := fmt.Fprintln(w, strings.Join(headerParts, "  ")); err != nil {
		return err
	}

	for i := range s.Components {
		if err := r.renderRow(w, &s.Components[i], widths); err != nil {
			return err
		}
	}

	if s.Parent != nil {
		line := fmt.Sprintf("workspace repository: %s", s.Parent.FullName)
		if _, err := fmt.Fprintln(w, r.styles.Info.Render(line)); err != nil {
			return err
		}
	}
	for _, warning := range s.Warnings {
		if _, err := fmt.Fprintln(w, r.styles.Warning.Render("⚠ "+warning)); err != nil {
			return err
		}
	}
	return nil
}

// renderRow writes one component row plus an indented build check note
// when the scaffold's check failed.
func (r *SummaryRenderer) renderRow(w io.Writer, o *provision.ComponentOutcome, widths []int) error {
	stateCell := r.stateCell(o.FinalState, widths[2])

	cells := []string{
		padRight(truncate(o.Name, widths[0]), widths[0]),
		padRight(truncate(o.Template, widths[1]), widths[1]),
		stateCell,
		r.resultCell(o),
	}
	if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
		return err
	}

	if !o.Skipped && !o.Failed() && !o.BuildCheckPassed && o.FinalState == domain.StateLinked {
		note := "  build check failed; fix in the component repository"
		if _, err := fmt.Fprintln(w, r.styles.Warning.Render(note)); err != nil {
			return err
		}
	}
	return nil
}

// stateCell renders the state with icon and color, padded to width.
func (r *SummaryRenderer) stateCell(state domain.ComponentState, width int) string {
	icon := StateIcon(state)
	style := lipgloss.NewStyle().Foreground(StateColors()[state])
	plain := icon + " " + string(state)
	styled := icon + " " + style.Render(string(state))

	plainWidth := utf8.RuneCountInString(plain)
	if plainWidth >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-plainWidth)
}

// resultCell summarizes what happened to the component.
func (r *SummaryRenderer) resultCell(o *provision.ComponentOutcome) string {
	switch {
	case o.Failed():
		return r.styles.Error.Render("✗ " + firstLine(o.Err.Error()))
	case len(o.Planned) > 0:
		return r.styles.Dim.Render("would " + strings.Join(o.Planned, ", "))
	case o.Skipped:
		return r.styles.Dim.Render(o.SkipReason)
	case o.PinnedRevision != "":
		return r.styles.Success.Render("pinned " + shortRevision(o.PinnedRevision))
	default:
		return r.styles.Dim.Render("no change")
	}
}

// columnWidths sizes the first three columns from content; the result
// column takes the rest of the line.
func (r *SummaryRenderer) columnWidths(s *provision.Summary) []int {
	widths := []int{len("COMPONENT"), len("TEMPLATE"), len("STATE") + 2, 0}
	for _, o := range s.Components {
		if n := utf8.RuneCountInString(o.Name); n > widths[0] {
			widths[0] = n
		}
		if n := utf8.RuneCountInString(o.Template); n > widths[1] {
			widths[1] = n
		}
		if n := utf8.RuneCountInString(string(o.FinalState)) + 2; n > widths[2] {
			widths[2] = n
		}
	}

	// Constrain the name column so the result column keeps room.
	const maxNameWidth = 30
	if widths[0] > maxNameWidth {
		widths[0] = maxNameWidth
	}
	return widths
}

// RenderPreflightReport writes the environment verification report.
func RenderPreflightReport(w io.Writer, report *preflight.Report) error {
	styles := NewOutputStyles()

	if report.Tools != nil {
		nameWidth := len("TOOL")
		for _, tool := range report.Tools.Tools {
			if n := utf8.RuneCountInString(tool.Name); n > nameWidth {
				nameWidth = n
			}
		}

		header := styles.Header.Render(padRight("TOOL", nameWidth) + "  " + padRight("VERSION", 12) + "  STATUS")
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}

		for _, tool := range report.Tools.Tools {
			if err := renderToolRow(w, styles, tool, nameWidth); err != nil {
				return err
			}
		}
	}

	for _, check := range report.Checks {
		var line string
		if check.Passed {
			line = styles.Success.Render("✓") + " " + string(check.Check)
		} else {
			line = styles.Error.Render("✗") + " " + string(check.Check) + ": " + check.Detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderToolRow(w io.Writer, styles *OutputStyles, tool preflight.Tool, nameWidth int) error {
	version := tool.CurrentVersion
	if version == "" {
		version = "-"
	}

	var status string
	switch tool.Status {
	case preflight.ToolStatusInstalled:
		status = styles.Success.Render("✓ installed")
	case preflight.ToolStatusOutdated:
		status = styles.Warning.Render("⚠ outdated, need >= " + tool.MinVersion)
	case preflight.ToolStatusMissing:
		status = styles.Error.Render("✗ missing")
		if tool.InstallHint != "" {
			status += styles.Dim.Render("  (" + tool.InstallHint + ")")
		}
	default:
		status = "?"
	}

	_, err := fmt.Fprintln(w, padRight(tool.Name, nameWidth)+"  "+padRight(version, 12)+"  "+status)
	return err
}

// firstLine trims an error message to its first line for table display.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// shortRevision abbreviates a commit hash for display.
func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

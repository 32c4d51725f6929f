// Package tui provides terminal output components for wsforge.
//
// All colors use AdaptiveColor for light/dark terminal support, and every
// status display keeps triple redundancy: icon + color + text, so output
// stays readable with NO_COLOR set.
package tui

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/wsforge/wsforge/internal/domain"
)

//nolint:gochecknoglobals // package-level styling API
var (
	// ColorPrimary is blue, used for active states and primary values.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for success states.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for states needing attention.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for failed states.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text and skipped items.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies faint formatting.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
}

// NewOutputStyles creates common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
	}
}

// CheckNoColor respects the NO_COLOR environment variable. Call at the
// start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb, following https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// StateColors returns the semantic color for each component state.
func StateColors() map[domain.ComponentState]lipgloss.AdaptiveColor {
	return map[domain.ComponentState]lipgloss.AdaptiveColor{
		domain.StateUnscaffolded: {Light: "#585858", Dark: "#6C6C6C"}, // Gray
		domain.StateScaffolded:   {Light: "#0087AF", Dark: "#00D7FF"}, // Blue
		domain.StatePublished:    {Light: "#D7AF00", Dark: "#FFD700"}, // Yellow
		domain.StateLinked:       {Light: "#00875F", Dark: "#00FF87"}, // Green
	}
}

// StateIcon returns the icon for a component state.
func StateIcon(state domain.ComponentState) string {
	icons := map[domain.ComponentState]string{
		domain.StateUnscaffolded: "○",
		domain.StateScaffolded:   "◐",
		domain.StatePublished:    "●",
		domain.StateLinked:       "✓",
	}
	if icon, ok := icons[state]; ok {
		return icon
	}
	return "?"
}

// DetectTerminalWidth returns the current terminal width, or 80 when
// detection fails.
func DetectTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}

// padRight pads a string with spaces to the target visible width.
func padRight(s string, width int) string {
	count := utf8.RuneCountInString(s)
	if count >= width {
		return s
	}
	return s + strings.Repeat(" ", width-count)
}

// truncate shortens a string to maxLen runes, ending with an ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen || maxLen < 2 {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

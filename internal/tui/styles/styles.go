package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/nowsync/internal/core"
)

// Colors adapt to the terminal background unless a theme is forced.
var (
	Primary   = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#7C3AED"} // Purple
	Secondary = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"} // Green
	Accent    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"} // Amber

	Success = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"}
	Warning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	Error   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"}

	Border    = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
	Text      = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	TextMuted = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	TextDim   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Secondary)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	Failure = lipgloss.NewStyle().
		Foreground(Error)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)
)

// ApplyTheme forces the light or dark palette. "auto" keeps lipgloss's
// background detection.
func ApplyTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// Panel returns the bordered panel style.
func Panel(active bool) lipgloss.Style {
	if active {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, active bool) string {
	style := Label
	if active {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	if width < 0 {
		width = 0
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// SourceIcon returns an icon for the kind of application playing.
func SourceIcon(kind core.SourceKind) string {
	switch kind {
	case core.SourceMusic, core.SourceSpotify:
		return "🎵"
	case core.SourceBrowser:
		return "🌐"
	case core.SourceVideo:
		return "🎬"
	default:
		return "🎧"
	}
}

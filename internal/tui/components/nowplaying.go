package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/nowsync/internal/client"
	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/tui/styles"
)

// NowPlaying displays the current item and the helper's health.
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel as of now.
func (n *NowPlaying) Render(state *core.NowPlayingState, status client.Status, now time.Time, width, height int) string {
	streaming := status.Phase == client.PhaseStreaming
	title := styles.PanelTitle("Now Playing", streaming)

	var content string
	if !state.HasTrack() {
		content = styles.Muted.Render("Nothing playing")
	} else {
		content = n.renderTrack(state, now, width-4)
	}

	panel := styles.Panel(streaming).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
		"",
		n.renderHealth(status, now),
	))
}

func (n *NowPlaying) renderTrack(state *core.NowPlayingState, now time.Time, width int) string {
	icon := styles.StatusIcon(state.IsPlaying)
	title := styles.Title.Width(max(width-4, 1)).Render(state.Title)

	artist := styles.Subtitle.Render(state.Artist)
	album := styles.Dim.Render(state.Album)

	// Leave room for the times on either side.
	progressWidth := max(width-14, 10)
	progressBar := styles.ProgressBar(state.ProgressPercent(now), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		FormatSeconds(state.Position(now)), progressBar, FormatSeconds(state.Duration))

	lines := []string{
		icon + " " + title,
		"  " + artist,
		"  " + album,
		"",
		progress,
		"",
	}

	if state.SourceAppID != "" {
		source := core.LookupSource(state.SourceAppID)
		info := fmt.Sprintf("%s %s", styles.SourceIcon(source.Kind), source.Name)
		if state.HasArtwork() {
			info += "  🖼 " + humanize.Bytes(uint64(len(state.Artwork)))
		}
		lines = append(lines, styles.Muted.Render(info))
	}

	lines = append(lines, n.renderControls(state))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (n *NowPlaying) renderControls(state *core.NowPlayingState) string {
	controls := styles.Dim.Render("⏮ ")

	if state.IsPlaying {
		controls += styles.Playing.Render("⏸")
	} else {
		controls += styles.Paused.Render("▶")
	}

	controls += styles.Dim.Render(" ⏭")

	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Render(controls)
}

func (n *NowPlaying) renderHealth(status client.Status, now time.Time) string {
	if !status.HelperRunning {
		msg := "helper stopped"
		if status.LastExit != "" {
			msg += ": " + status.LastExit
		}
		if !status.LastExitAt.IsZero() {
			msg += " (" + humanize.RelTime(status.LastExitAt, now, "ago", "from now") + ")"
		}
		return styles.Failure.Render(msg)
	}

	info := fmt.Sprintf("helper pid %d", status.Pid)
	if status.Restarts > 0 {
		info += fmt.Sprintf("  restarts %d", status.Restarts)
	}
	if status.Malformed > 0 || status.Dropped > 0 {
		info += fmt.Sprintf("  malformed %d  dropped %d", status.Malformed, status.Dropped)
	}
	return styles.Dim.Render(info)
}

// FormatSeconds renders a duration in seconds as m:ss.
func FormatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}

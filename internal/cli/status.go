package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/nowplaying"
	"github.com/tessro/nowsync/internal/stream"
)

var statusCopy bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is playing now",
	Long:  `Asks the helper once for the current now-playing item and prints it.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusCopy, "copy", false, "copy \"Artist - Title\" to the clipboard")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out, err := newDispatcher().Get(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get now playing: %w", err)
	}

	rec, ok := stream.DecodeSnapshot(out)
	if !ok {
		return fmt.Errorf("helper returned unreadable output: %s", TruncateString(strings.TrimSpace(string(out)), 80))
	}

	now := time.Now()
	state := snapshotState(rec, now)

	if statusCopy && state.HasTrack() {
		if err := clipboard.WriteAll(shareLine(&state)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}

	if JSONOutput() {
		return outputStatusJSON(&state, now)
	}
	outputStatusText(&state, now)
	return nil
}

// snapshotState builds the state described by a one-shot snapshot. There is no
// earlier position to compare against, so a reported elapsed time is taken
// as is.
func snapshotState(rec stream.Record, now time.Time) core.NowPlayingState {
	var st core.NowPlayingState
	if rec.Payload.IsZero() {
		return st
	}
	nowplaying.Apply(rec, &st, now)
	if e := rec.Payload.ElapsedTime; e.Set {
		st.ElapsedTime = e.Value
		st.ElapsedAt = now
	}
	return st
}

func shareLine(s *core.NowPlayingState) string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Artist + " - " + s.Title
}

func outputStatusJSON(s *core.NowPlayingState, now time.Time) error {
	if !s.HasTrack() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"playing": false,
			"message": "Nothing playing",
		})
	}

	source := core.LookupSource(s.SourceAppID)
	return json.NewEncoder(os.Stdout).Encode(map[string]any{
		"title":            s.Title,
		"artist":           s.Artist,
		"album":            s.Album,
		"is_playing":       s.IsPlaying,
		"duration":         s.Duration,
		"elapsed_time":     s.Position(now),
		"progress_percent": s.ProgressPercent(now),
		"source":           source,
		"has_artwork":      s.HasArtwork(),
		"artwork_bytes":    len(s.Artwork),
		"copied":           statusCopy,
	})
}

func outputStatusText(s *core.NowPlayingState, now time.Time) {
	if !s.HasTrack() {
		fmt.Println("Nothing playing")
		return
	}

	playIcon := "▶"
	if !s.IsPlaying {
		playIcon = "⏸"
	}

	fmt.Printf("%s %s\n", playIcon, s.Title)
	byline := s.Artist
	if s.Album != "" {
		byline += " — " + s.Album
	}
	if byline != "" {
		fmt.Printf("  %s\n", byline)
	}

	if s.Duration > 0 {
		fmt.Printf("  %s %s / %s\n",
			FormatProgress(int(s.Position(now)), int(s.Duration), 30),
			FormatDuration(int(s.Position(now))),
			FormatDuration(int(s.Duration)))
	}

	if s.SourceAppID != "" {
		source := core.LookupSource(s.SourceAppID)
		line := "  📱 " + source.Name
		if s.HasArtwork() {
			line += fmt.Sprintf(" (artwork %s)", humanize.Bytes(uint64(len(s.Artwork))))
		}
		fmt.Println(line)
	}

	if statusCopy {
		fmt.Println("  📋 Copied to clipboard")
	}
}

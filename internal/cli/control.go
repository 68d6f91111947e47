package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/core"
)

type controlSpec struct {
	cmd     core.Command
	use     string
	aliases []string
	short   string
	status  string
	message string
}

var controls = []controlSpec{
	{core.CommandPlay, "play", []string{"resume"}, "Resume playback", "playing", "▶ Playing"},
	{core.CommandPause, "pause", nil, "Pause playback", "paused", "⏸ Paused"},
	{core.CommandToggle, "toggle", []string{"play-pause"}, "Toggle play/pause", "toggled", "⏯ Toggled"},
	{core.CommandNext, "next", []string{"skip"}, "Skip to next track", "skipped", "⏭ Skipped to next track"},
	{core.CommandPrevious, "prev", []string{"previous"}, "Go to previous track", "previous", "⏮ Previous track"},
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current track",
	Long: `Move the playback position of the current item.

The position may be given in seconds, as m:ss, or as a Go duration.

Examples:
  nowsync seek 90
  nowsync seek 1:30
  nowsync seek 1m30s`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

func init() {
	for _, spec := range controls {
		rootCmd.AddCommand(newControlCmd(spec))
	}
	rootCmd.AddCommand(seekCmd)
}

func newControlCmd(spec controlSpec) *cobra.Command {
	return &cobra.Command{
		Use:     spec.use,
		Aliases: spec.aliases,
		Short:   spec.short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newDispatcher().Send(cmd.Context(), spec.cmd); err != nil {
				return fmt.Errorf("failed to %s: %w", spec.cmd, err)
			}

			if JSONOutput() {
				_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": spec.status})
			} else {
				fmt.Println(spec.message)
			}
			return nil
		},
	}
}

func runSeek(cmd *cobra.Command, args []string) error {
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	if err := newDispatcher().Seek(cmd.Context(), position); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":   "seeked",
			"position": position.Seconds(),
		})
	} else {
		fmt.Printf("⏩ Seeked to %s\n", FormatDuration(int(position.Seconds())))
	}
	return nil
}

// parsePosition accepts seconds ("90", "12.5"), m:ss or h:mm:ss ("1:30"),
// or a Go duration ("1m30s").
func parsePosition(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("position must not be negative: %s", s)
		}
		return secondsToDuration(s, secs)
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("invalid position: %s", s)
		}
		var total float64
		for _, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("invalid position: %s", s)
			}
			total = total*60 + v
		}
		return secondsToDuration(s, total)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid position: %s", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("position must not be negative: %s", s)
	}
	return d, nil
}

// maxSeconds is the largest position a time.Duration can hold.
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func secondsToDuration(s string, secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs >= maxSeconds {
		return 0, fmt.Errorf("invalid position: %s", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/tui"
)

var tuiRefresh int

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard shows the current item, its progress and the helper's health,
updated live from the stream helper.

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Space        Play/Pause
  n            Next track
  p            Previous track
  ←/→          Seek back/forward 10s
  r            Refresh`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "progress redraw interval in milliseconds (default: tui.refresh_interval)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	refresh := cfg.TUI.RefreshInterval
	if tuiRefresh > 0 {
		refresh = tuiRefresh
	}

	// Console logging would draw over the dashboard.
	if cfg.Log.File == "" {
		log = zerolog.Nop()
	}

	c, err := startClient(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return tui.Run(c, time.Duration(refresh)*time.Millisecond, cfg.TUI.Theme)
}

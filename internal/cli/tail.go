package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow now-playing changes in real-time",
	Long: `Run the stream helper and print now-playing changes as they happen.

Events tracked:
  - Track changes (new item started)
  - Track completions and skips
  - Pause/Resume and seeks
  - Source application and artwork changes
  - Helper exits and restarts`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	emoji := cfg.Tail.Emoji && !tailNoEmoji
	timestamp := cfg.Tail.Timestamp || tailTimestamp
	format := cfg.Tail.Format
	if cmd.Flags().Changed("format") {
		format = tailFormat
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(emoji),
		tail.WithTimestamp(timestamp),
		tail.WithTemplate(format),
	)

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := startClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	watcher := tail.NewWatcher(c)

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	enc := json.NewEncoder(os.Stdout)
	for event := range watcher.Events() {
		if JSONOutput() {
			if err := enc.Encode(tail.Data(event)); err != nil {
				return err
			}
			continue
		}
		fmt.Println(formatter.Format(event))
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

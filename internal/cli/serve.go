package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/nowsync/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve now-playing state over HTTP and WebSocket",
	Long: `Run the stream helper and expose it to other programs.

Endpoints:
  GET  /api/nowplaying          current state as JSON
  GET  /api/artwork             artwork bytes (404 when absent)
  POST /api/control/{command}   play, pause, toggle, next, previous, refresh, seek?position=<s>
  GET  /ws                      live updates; accepts {"command": ...} frames`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := startClient(ctx)
	if err != nil {
		return err
	}

	srv := server.New(addr, c, log, cfg.Server.AllowedOrigins...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return c.Close()
	})

	return g.Wait()
}

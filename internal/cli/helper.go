package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/tessro/nowsync/internal/client"
	"github.com/tessro/nowsync/internal/config"
	"github.com/tessro/nowsync/internal/helper"
)

var helperFlags struct {
	interpreter string
	script      string
	framework   string
	debounceMs  int
	restart     string
}

// addHelperFlags registers overrides for the [helper] config section.
func addHelperFlags(fs *pflag.FlagSet) {
	fs.StringVar(&helperFlags.interpreter, "interpreter", "", "helper interpreter (overrides helper.interpreter)")
	fs.StringVar(&helperFlags.script, "script", "", "adapter script (overrides helper.script)")
	fs.StringVar(&helperFlags.framework, "framework", "", "adapter framework (overrides helper.framework)")
	fs.IntVar(&helperFlags.debounceMs, "debounce", 0, "stream debounce in milliseconds (overrides helper.debounce_ms)")
	fs.StringVar(&helperFlags.restart, "restart", "", "helper restart policy: always or never (overrides helper.restart)")
}

// applyHelperFlags copies explicitly set flags over the loaded config.
func applyHelperFlags(fs *pflag.FlagSet, hc *config.HelperConfig) {
	if fs.Changed("interpreter") {
		hc.Interpreter = helperFlags.interpreter
	}
	if fs.Changed("script") {
		hc.Script = helperFlags.script
	}
	if fs.Changed("framework") {
		hc.Framework = helperFlags.framework
	}
	if fs.Changed("debounce") {
		hc.DebounceMs = helperFlags.debounceMs
	}
	if fs.Changed("restart") {
		hc.Restart = helperFlags.restart
	}
}

// clientOptions builds client options from the helper config.
func clientOptions(hc config.HelperConfig) (client.Options, error) {
	policy, err := client.ParseRestartPolicy(hc.Restart)
	if err != nil {
		return client.Options{}, err
	}
	return client.Options{
		Adapter:           hc.HelperAdapter(),
		Debounce:          hc.Debounce(),
		MaxLineBytes:      hc.MaxLineBytes,
		CommandTimeout:    hc.CommandTimeout(),
		StopTimeout:       hc.StopTimeout(),
		Restart:           policy,
		RestartMaxBackoff: hc.RestartMaxBackoff(),
		Logger:            log,
	}, nil
}

// startClient launches the stream helper for long-running commands.
func startClient(ctx context.Context) (*client.Client, error) {
	opts, err := clientOptions(cfg.Helper)
	if err != nil {
		return nil, err
	}
	c, err := client.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start now-playing client: %w", err)
	}
	return c, nil
}

// newDispatcher returns a dispatcher for one-shot commands.
func newDispatcher() *helper.Dispatcher {
	return helper.NewDispatcher(cfg.Helper.HelperAdapter(), helper.DispatcherOptions{
		Timeout: cfg.Helper.CommandTimeout(),
		Logger:  log,
	})
}

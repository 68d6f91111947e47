package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/config"
	nserrors "github.com/tessro/nowsync/internal/errors"
	"github.com/tessro/nowsync/internal/logging"
)

// optionalConfig marks commands that run on defaults when the named config
// file does not exist yet.
const optionalConfig = "optional-config"

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg      *config.Config
	log      = zerolog.Nop()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "nowsync",
	Short: "Follow and control the system's now-playing media",
	Long: `nowsync mirrors the now-playing state reported by the MediaRemote adapter
helper and sends playback commands back through it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		return initLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.nowsyncrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	addHelperFlags(rootCmd.PersistentFlags())
}

func initConfig(cmd *cobra.Command) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if !errors.Is(err, nserrors.ErrConfigNotFound) || cmd.Annotations[optionalConfig] == "" {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = config.Default()
	}

	applyHelperFlags(cmd.Flags(), &cfg.Helper)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", nserrors.ErrInvalidConfig, err)
	}

	return nil
}

func initLogging() error {
	logger, closer, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return fmt.Errorf("%w: %w", nserrors.ErrInvalidConfig, err)
	}
	log = logger
	closeLog = closer
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, nserrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

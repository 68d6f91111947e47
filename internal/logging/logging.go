// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/nowsync/internal/config"
)

// New returns a logger configured by cfg. Without a log file, output is a
// human-readable console stream on stderr. With one, JSON lines are appended
// to the file. verbose forces debug level.
//
// The returned close function releases the log file, if any.
func New(cfg config.LogConfig, verbose bool) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), noop, err
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	var w io.Writer
	closer := noop
	if cfg.File != "" {
		path := config.ExpandPath(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = f.Close
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closer, nil
}

// ParseLevel maps a configured level name onto a zerolog level. Empty means
// info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch s {
	case "":
		return zerolog.InfoLevel, nil
	case "debug", "info", "warn", "error":
		return zerolog.ParseLevel(s)
	}
	return zerolog.NoLevel, fmt.Errorf("invalid log level: %s", s)
}

func noop() error { return nil }

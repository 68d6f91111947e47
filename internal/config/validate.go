package config

import (
	"errors"
	"fmt"
	"net"
	"path"
	"strings"
	"text/template"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Helper.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("helper: %w", err))
	}
	if err := c.Tail.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tail: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks HelperConfig for errors.
func (c *HelperConfig) Validate() error {
	var errs []error
	if c.DebounceMs < 0 {
		errs = append(errs, errors.New("debounce_ms must be non-negative"))
	}
	if c.MaxLineBytes < 0 {
		errs = append(errs, errors.New("max_line_bytes must be non-negative"))
	}
	if c.CommandTimeoutMs < 0 {
		errs = append(errs, errors.New("command_timeout_ms must be non-negative"))
	}
	if c.StopTimeoutMs < 0 {
		errs = append(errs, errors.New("stop_timeout_ms must be non-negative"))
	}
	if c.RestartMaxBackoffMs < 0 {
		errs = append(errs, errors.New("restart_max_backoff_ms must be non-negative"))
	}
	switch c.Restart {
	case "", "always", "never":
		// valid
	default:
		errs = append(errs, fmt.Errorf("invalid restart policy: %s (must be always or never)", c.Restart))
	}
	return errors.Join(errs...)
}

// Validate checks TailConfig for errors.
func (c *TailConfig) Validate() error {
	if c.Format == "" {
		return nil
	}
	if _, err := template.New("tail").Parse(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Addr); err != nil {
			return fmt.Errorf("invalid addr: %w", err)
		}
	}
	for _, pattern := range c.AllowedOrigins {
		if strings.TrimSpace(pattern) == "" {
			return errors.New("allowed_origins must not contain empty patterns")
		}
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid allowed origin %q: %w", pattern, err)
		}
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}

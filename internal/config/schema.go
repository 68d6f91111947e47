package config

import (
	"time"

	"github.com/tessro/nowsync/internal/helper"
)

// Config is the root configuration structure.
type Config struct {
	Helper HelperConfig `toml:"helper" json:"helper"`
	Tail   TailConfig   `toml:"tail" json:"tail"`
	TUI    TUIConfig    `toml:"tui" json:"tui"`
	Server ServerConfig `toml:"server" json:"server"`
	Log    LogConfig    `toml:"log" json:"log"`
}

// HelperConfig locates and tunes the MediaRemote adapter helper.
type HelperConfig struct {
	Interpreter         string `toml:"interpreter" json:"interpreter"`
	Script              string `toml:"script" json:"script"`
	Framework           string `toml:"framework" json:"framework"`
	DebounceMs          int    `toml:"debounce_ms" json:"debounce_ms"`
	MaxLineBytes        int    `toml:"max_line_bytes" json:"max_line_bytes"`
	CommandTimeoutMs    int    `toml:"command_timeout_ms" json:"command_timeout_ms"`
	StopTimeoutMs       int    `toml:"stop_timeout_ms" json:"stop_timeout_ms"`
	Restart             string `toml:"restart" json:"restart"`
	RestartMaxBackoffMs int    `toml:"restart_max_backoff_ms" json:"restart_max_backoff_ms"`
}

// Debounce returns the stream debounce interval.
func (c HelperConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// CommandTimeout returns the bound on a one-shot helper invocation.
func (c HelperConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMs) * time.Millisecond
}

// StopTimeout returns how long to wait for the helper after SIGTERM.
func (c HelperConfig) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMs) * time.Millisecond
}

// RestartMaxBackoff returns the cap on the relaunch delay.
func (c HelperConfig) RestartMaxBackoff() time.Duration {
	return time.Duration(c.RestartMaxBackoffMs) * time.Millisecond
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Emoji     bool   `toml:"emoji" json:"emoji"`
	Timestamp bool   `toml:"timestamp" json:"timestamp"`
	Format    string `toml:"format" json:"format"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme" json:"theme"`
	RefreshInterval int    `toml:"refresh_interval" json:"refresh_interval"`
}

// ServerConfig holds settings for the HTTP and WebSocket bridge.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
	// AllowedOrigins are origin host patterns, in path.Match syntax, whose
	// pages may connect and send commands. A pattern containing "://" is
	// matched against scheme://host. Empty allows the bridge's own origin only.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

// HelperAdapter returns the helper invocation with ~ expanded in every path.
func (c HelperConfig) HelperAdapter() helper.Adapter {
	return helper.Adapter{
		Interpreter: ExpandPath(c.Interpreter),
		Script:      ExpandPath(c.Script),
		Framework:   ExpandPath(c.Framework),
	}
}

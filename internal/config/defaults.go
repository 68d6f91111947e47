package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Helper: HelperConfig{
			Interpreter:         "/usr/bin/perl",
			Script:              "~/.local/share/nowsync/mediaremote-adapter.pl",
			Framework:           "~/.local/share/nowsync/MediaRemoteAdapter.framework",
			DebounceMs:          50,
			MaxLineBytes:        4 << 20,
			CommandTimeoutMs:    5000,
			StopTimeoutMs:       3000,
			Restart:             "always",
			RestartMaxBackoffMs: 30000,
		},
		Tail: TailConfig{
			Emoji: true,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 500,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7390",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Helper
	if c.Helper.Interpreter == "" {
		c.Helper.Interpreter = d.Helper.Interpreter
	}
	if c.Helper.Script == "" {
		c.Helper.Script = d.Helper.Script
	}
	if c.Helper.Framework == "" {
		c.Helper.Framework = d.Helper.Framework
	}
	if c.Helper.DebounceMs == 0 {
		c.Helper.DebounceMs = d.Helper.DebounceMs
	}
	if c.Helper.MaxLineBytes == 0 {
		c.Helper.MaxLineBytes = d.Helper.MaxLineBytes
	}
	if c.Helper.CommandTimeoutMs == 0 {
		c.Helper.CommandTimeoutMs = d.Helper.CommandTimeoutMs
	}
	if c.Helper.StopTimeoutMs == 0 {
		c.Helper.StopTimeoutMs = d.Helper.StopTimeoutMs
	}
	if c.Helper.Restart == "" {
		c.Helper.Restart = d.Helper.Restart
	}
	if c.Helper.RestartMaxBackoffMs == 0 {
		c.Helper.RestartMaxBackoffMs = d.Helper.RestartMaxBackoffMs
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

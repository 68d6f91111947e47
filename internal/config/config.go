package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	nserrors "github.com/tessro/nowsync/internal/errors"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.nowsyncrc, $XDG_CONFIG_HOME/nowsync/config.toml, ~/.config/nowsync/config.toml
func Load() (*Config, error) {
	return load(FindConfigFile())
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", nserrors.ErrConfigNotFound, path)
	}
	return load(path)
}

func load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", nserrors.ErrInvalidConfig, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%w: %s: unknown keys %s", nserrors.ErrInvalidConfig, path, strings.Join(keys, ", "))
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// FindConfigFile returns the first existing config file path, or "".
func FindConfigFile() string {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where a new config file is created.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nowsyncrc"
	}
	return filepath.Join(home, ".nowsyncrc")
}

func searchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	paths := []string{
		filepath.Join(home, ".nowsyncrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return append(paths, filepath.Join(xdgConfig, "nowsync", "config.toml"))
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Helper
	if v := os.Getenv("NOWSYNC_HELPER_INTERPRETER"); v != "" {
		cfg.Helper.Interpreter = v
	}
	if v := os.Getenv("NOWSYNC_HELPER_SCRIPT"); v != "" {
		cfg.Helper.Script = v
	}
	if v := os.Getenv("NOWSYNC_HELPER_FRAMEWORK"); v != "" {
		cfg.Helper.Framework = v
	}
	envInt("NOWSYNC_HELPER_DEBOUNCE_MS", &cfg.Helper.DebounceMs)
	envInt("NOWSYNC_HELPER_COMMAND_TIMEOUT_MS", &cfg.Helper.CommandTimeoutMs)
	if v := os.Getenv("NOWSYNC_HELPER_RESTART"); v != "" {
		cfg.Helper.Restart = v
	}

	// TUI
	if v := os.Getenv("NOWSYNC_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	envInt("NOWSYNC_TUI_REFRESH_INTERVAL", &cfg.TUI.RefreshInterval)

	// Server
	if v := os.Getenv("NOWSYNC_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("NOWSYNC_SERVER_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	// Log
	if v := os.Getenv("NOWSYNC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NOWSYNC_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

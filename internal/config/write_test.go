package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	nserrors "github.com/tessro/nowsync/internal/errors"
)

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Helper.Restart = "never"
	cfg.Server.Addr = "127.0.0.1:9000"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# nowsync configuration") {
		t.Errorf("saved file lacks header:\n%s", data)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got.Helper.Restart != "never" || got.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestSet(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.toml", `
[helper]
interpreter = "/opt/homebrew/bin/perl"
`)

	steps := []struct {
		key, value string
	}{
		{"helper.debounce_ms", "120"},
		{"tail.timestamp", "true"},
		{"server.addr", "0.0.0.0:7390"},
		{"server.allowed_origins", "dash.local:*, https://*.example.com,"},
	}
	for _, s := range steps {
		if err := Set(path, s.key, s.value); err != nil {
			t.Fatalf("Set(%s) error = %v", s.key, err)
		}
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Helper.Interpreter != "/opt/homebrew/bin/perl" {
		t.Errorf("Interpreter = %q, existing value not kept", cfg.Helper.Interpreter)
	}
	if cfg.Helper.DebounceMs != 120 || !cfg.Tail.Timestamp || cfg.Server.Addr != "0.0.0.0:7390" {
		t.Errorf("Set values not applied: %+v", cfg)
	}
	if origins := cfg.Server.AllowedOrigins; len(origins) != 2 || origins[0] != "dash.local:*" || origins[1] != "https://*.example.com" {
		t.Errorf("AllowedOrigins = %q", origins)
	}
}

func TestSet_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", "")

	tests := []struct {
		name  string
		path  string
		key   string
		value string
		want  error
	}{
		{"unknown key", path, "helper.colour", "x", nserrors.ErrInvalidConfig},
		{"not an integer", path, "helper.debounce_ms", "fast", nserrors.ErrInvalidConfig},
		{"not a bool", path, "tail.emoji", "maybe", nserrors.ErrInvalidConfig},
		{"fails validation", path, "helper.restart", "sometimes", nserrors.ErrInvalidConfig},
		{"missing file", filepath.Join(dir, "absent.toml"), "tui.theme", "dark", nserrors.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set(tt.path, tt.key, tt.value)
			if !nserrors.Is(err, tt.want) {
				t.Errorf("Set() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) == 0 || keys[0] != "helper.command_timeout_ms" {
		t.Errorf("Keys() = %v, want sorted list", keys)
	}
}

func TestHelperAdapter(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := HelperConfig{Interpreter: "/usr/bin/perl", Script: "~/adapter.pl", Framework: "~/Adapter.framework"}
	a := cfg.HelperAdapter()
	if a.Interpreter != "/usr/bin/perl" {
		t.Errorf("Interpreter = %q", a.Interpreter)
	}
	if a.Script != filepath.Join(home, "adapter.pl") || a.Framework != filepath.Join(home, "Adapter.framework") {
		t.Errorf("paths not expanded: %+v", a)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	nserrors "github.com/tessro/nowsync/internal/errors"
)

const header = "# nowsync configuration\n# https://github.com/tessro/nowsync\n\n"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindList
)

// settable lists the keys accepted by Set and how their values are typed.
var settable = map[string]valueKind{
	"helper.interpreter":            kindString,
	"helper.script":                 kindString,
	"helper.framework":              kindString,
	"helper.debounce_ms":            kindInt,
	"helper.max_line_bytes":         kindInt,
	"helper.command_timeout_ms":     kindInt,
	"helper.stop_timeout_ms":        kindInt,
	"helper.restart":                kindString,
	"helper.restart_max_backoff_ms": kindInt,
	"tail.emoji":                    kindBool,
	"tail.timestamp":                kindBool,
	"tail.format":                   kindString,
	"tui.theme":                     kindString,
	"tui.refresh_interval":          kindInt,
	"server.addr":                   kindString,
	"server.allowed_origins":        kindList,
	"log.level":                     kindString,
	"log.file":                      kindString,
}

// Keys returns the keys accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes cfg to path as TOML, creating parent directories as needed.
func Save(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}

// Set updates a single section.key in the file at path, leaving every other
// value as written. The result is validated before it is saved.
func Set(path, key, value string) error {
	kind, ok := settable[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", nserrors.ErrInvalidConfig, key)
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", nserrors.ErrConfigNotFound, path)
		}
		return fmt.Errorf("%w: %s: %w", nserrors.ErrInvalidConfig, path, err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	typed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", nserrors.ErrInvalidConfig, key, err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	if err := validateRaw(raw); err != nil {
		return err
	}
	return Save(path, raw)
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer")
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("value must be true or false")
		}
		return b, nil
	case kindList:
		return splitList(value), nil
	default:
		return value, nil
	}
}

// splitList parses a comma-separated value, ignoring blank entries.
func splitList(value string) []string {
	items := []string{}
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// validateRaw round-trips raw through the typed schema.
func validateRaw(raw map[string]any) error {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return fmt.Errorf("%w: %w", nserrors.ErrInvalidConfig, err)
	}
	cfg := &Config{}
	if _, err := toml.Decode(buf.String(), cfg); err != nil {
		return fmt.Errorf("%w: %w", nserrors.ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", nserrors.ErrInvalidConfig, err)
	}
	return nil
}

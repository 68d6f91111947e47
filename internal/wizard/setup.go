// Package wizard implements the interactive helper setup form.
package wizard

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/tessro/nowsync/internal/config"
)

const (
	scriptName    = "mediaremote-adapter.pl"
	frameworkName = "MediaRemoteAdapter.framework"
)

// IsTerminal returns true if stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// SearchDirs returns the directories probed for an installed adapter, in
// order of preference.
func SearchDirs(home string) []string {
	dirs := []string{
		filepath.Join(home, ".local", "share", "nowsync"),
		filepath.Join(home, ".local", "share", "mediaremote-adapter"),
		"/opt/homebrew/share/mediaremote-adapter",
		"/usr/local/share/mediaremote-adapter",
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dirs = append([]string{filepath.Join(xdg, "nowsync")}, dirs...)
	}
	return dirs
}

// Detect fills in any helper path it can find on disk. Paths that already
// point at something that exists are left alone.
func Detect(cfg config.HelperConfig, dirs []string) config.HelperConfig {
	if ValidateFile(config.ExpandPath(cfg.Interpreter)) != nil {
		if perl, err := exec.LookPath("perl"); err == nil {
			cfg.Interpreter = perl
		}
	}
	for _, dir := range dirs {
		script := filepath.Join(dir, scriptName)
		framework := filepath.Join(dir, frameworkName)
		if ValidateFile(config.ExpandPath(cfg.Script)) != nil && ValidateFile(script) == nil {
			cfg.Script = script
		}
		if ValidateDir(config.ExpandPath(cfg.Framework)) != nil && ValidateDir(framework) == nil {
			cfg.Framework = framework
		}
	}
	return cfg
}

// ValidateFile checks that path names an existing regular file.
func ValidateFile(path string) error {
	info, err := os.Stat(config.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("%s does not exist", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// ValidateDir checks that path names an existing directory.
func ValidateDir(path string) error {
	info, err := os.Stat(config.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("%s does not exist", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// ErrNotInteractive is returned when setup runs without a terminal.
var ErrNotInteractive = errors.New("setup needs an interactive terminal")

// Run prompts for the helper settings, starting from cfg with detected
// paths filled in, and returns the edited settings.
func Run(cfg config.HelperConfig) (config.HelperConfig, error) {
	if !IsTerminal() {
		return cfg, ErrNotInteractive
	}

	home, _ := os.UserHomeDir()
	cfg = Detect(cfg, SearchDirs(home))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Interpreter").
				Description("Perl binary that runs the adapter script").
				Value(&cfg.Interpreter).
				Validate(ValidateFile),
			huh.NewInput().
				Title("Adapter script").
				Description("Path to "+scriptName).
				Value(&cfg.Script).
				Validate(ValidateFile),
			huh.NewInput().
				Title("Adapter framework").
				Description("Path to "+frameworkName).
				Value(&cfg.Framework).
				Validate(ValidateDir),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Restart policy").
				Description("What to do when the helper exits on its own").
				Options(
					huh.NewOption("Relaunch with backoff", "always"),
					huh.NewOption("Leave it stopped", "never"),
				).
				Value(&cfg.Restart),
		),
	)

	if err := form.Run(); err != nil {
		return cfg, fmt.Errorf("setup cancelled: %w", err)
	}
	return cfg, nil
}

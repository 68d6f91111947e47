package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrHelperNotFound = errors.New("media helper not found")
	ErrLaunchFailed   = errors.New("media helper launch failed")
	ErrAlreadyRunning = errors.New("media helper already running")
	ErrCommandFailed  = errors.New("media helper command failed")
	ErrTimeout        = errors.New("media helper timed out")
	ErrClosed         = errors.New("client closed")
	ErrUnknownCommand = errors.New("unknown command")
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// NowsyncError wraps an error with a user-friendly suggestion.
type NowsyncError struct {
	Err        error
	Suggestion string
}

func (e *NowsyncError) Error() string {
	return e.Err.Error()
}

func (e *NowsyncError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &NowsyncError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// CommandError describes a helper invocation that exited unsuccessfully.
type CommandError struct {
	Mode     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("helper %s exited with code %d", strings.TrimSpace(e.Mode+" "+strings.Join(e.Args, " ")), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// Is reports whether target matches one of the sentinel errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a NowsyncError with suggestion
	var nsErr *NowsyncError
	if errors.As(err, &nsErr) && nsErr.Suggestion != "" {
		return nsErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrHelperNotFound) {
		return "Install mediaremote-adapter and set helper.script and helper.framework, or run 'nowsync setup'"
	}

	if errors.Is(err, ErrLaunchFailed) || strings.Contains(errStr, "executable file not found") {
		return "Check that helper.interpreter points to a working perl binary"
	}

	if errors.Is(err, ErrTimeout) || strings.Contains(errStr, "deadline exceeded") {
		return "The media helper did not answer in time. Raise helper.command_timeout_ms or check the helper"
	}

	if errors.Is(err, ErrCommandFailed) {
		return "Make sure a media application is open and has an active now-playing session"
	}

	if errors.Is(err, ErrUnknownCommand) {
		return "Valid commands are play, pause, toggle, next and previous"
	}

	if errors.Is(err, ErrConfigNotFound) {
		return "Run 'nowsync config init' to create a configuration file"
	}

	if errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'nowsync config show' to inspect the effective configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

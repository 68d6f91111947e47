// Package helper runs the MediaRemote adapter helper, both as a long-lived
// stream and as one-shot command invocations.
package helper

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	nserrors "github.com/tessro/nowsync/internal/errors"
)

// Helper modes.
const (
	ModeStream = "stream"
	ModeSend   = "send"
	ModeGet    = "get"
	ModeSeek   = "seek"
)

// DefaultDebounce is passed to the stream mode when none is configured.
const DefaultDebounce = 50 * time.Millisecond

// Adapter locates the helper: an interpreter running a script that loads a
// private framework. Every invocation has the shape
//
//	<interpreter> <script> <framework> <mode> [args...]
type Adapter struct {
	Interpreter string
	Script      string
	Framework   string
}

// Verify checks that the interpreter, script and framework all exist.
func (a Adapter) Verify() error {
	if a.Interpreter == "" {
		return fmt.Errorf("%w: no interpreter configured", nserrors.ErrHelperNotFound)
	}
	if _, err := exec.LookPath(a.Interpreter); err != nil {
		return fmt.Errorf("%w: interpreter %s: %w", nserrors.ErrHelperNotFound, a.Interpreter, err)
	}
	if a.Script == "" {
		return fmt.Errorf("%w: no script configured", nserrors.ErrHelperNotFound)
	}
	if _, err := os.Stat(a.Script); err != nil {
		return fmt.Errorf("%w: script: %w", nserrors.ErrHelperNotFound, err)
	}
	if a.Framework == "" {
		return fmt.Errorf("%w: no framework configured", nserrors.ErrHelperNotFound)
	}
	if _, err := os.Stat(a.Framework); err != nil {
		return fmt.Errorf("%w: framework: %w", nserrors.ErrHelperNotFound, err)
	}
	return nil
}

// Args returns the interpreter arguments for mode.
func (a Adapter) Args(mode string, args ...string) []string {
	out := make([]string, 0, 3+len(args))
	out = append(out, a.Script, a.Framework, mode)
	return append(out, args...)
}

// StreamArgs returns the arguments for the long-lived stream mode.
func (a Adapter) StreamArgs(debounce time.Duration) []string {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return a.Args(ModeStream, "--debounce="+strconv.FormatInt(debounce.Milliseconds(), 10))
}

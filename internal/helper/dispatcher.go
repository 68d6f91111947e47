package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/nowsync/internal/core"
	nserrors "github.com/tessro/nowsync/internal/errors"
)

// DefaultCommandTimeout bounds a single one-shot helper invocation.
const DefaultCommandTimeout = 5 * time.Second

// Result is the outcome of a process that ran to completion.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a process and waits for it. A process that starts and
// exits, with any exit code, yields a Result and a nil error. Errors are
// reserved for processes that could not be started or were cut short by ctx.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (Result, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, err
	}
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Timeout time.Duration
	Runner  Runner
	Logger  zerolog.Logger
}

// Dispatcher issues one-shot helper invocations. Invocations share no state;
// each spawns, waits and is discarded.
type Dispatcher struct {
	adapter Adapter
	timeout time.Duration
	runner  Runner
	verify  bool
	log     zerolog.Logger
}

// NewDispatcher creates a dispatcher for adapter.
func NewDispatcher(adapter Adapter, opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		adapter: adapter,
		timeout: opts.Timeout,
		runner:  opts.Runner,
		log:     opts.Logger.With().Str("component", "dispatcher").Logger(),
	}
	if d.timeout <= 0 {
		d.timeout = DefaultCommandTimeout
	}
	if d.runner == nil {
		// Injected runners own their environment.
		d.runner = ExecRunner{}
		d.verify = true
	}
	return d
}

// Run invokes the helper in mode with args and waits for it to exit. It
// returns the helper's stdout. A non-zero exit yields a *errors.CommandError.
func (d *Dispatcher) Run(ctx context.Context, mode string, args ...string) ([]byte, error) {
	if d.verify {
		if err := d.adapter.Verify(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	res, err := d.runner.Run(ctx, d.adapter.Interpreter, d.adapter.Args(mode, args...))
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("helper %s after %s: %w", mode, d.timeout, nserrors.ErrTimeout)
		}
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("helper %s: %w", mode, err)
		}
		return nil, fmt.Errorf("%w: %w", nserrors.ErrLaunchFailed, err)
	}

	d.log.Debug().
		Str("mode", mode).
		Strs("args", args).
		Int("exit_code", res.ExitCode).
		Dur("took", elapsed).
		Msg("helper command finished")

	if res.ExitCode != 0 {
		return res.Stdout, &nserrors.CommandError{
			Mode:     mode,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
		}
	}
	return res.Stdout, nil
}

// Send issues a MediaRemote command.
func (d *Dispatcher) Send(ctx context.Context, cmd core.Command) error {
	_, err := d.Run(ctx, ModeSend, cmd.Code())
	return err
}

// Seek moves playback to position.
func (d *Dispatcher) Seek(ctx context.Context, position time.Duration) error {
	if position < 0 {
		position = 0
	}
	_, err := d.Run(ctx, ModeSeek, strconv.FormatInt(position.Microseconds(), 10))
	return err
}

// Get returns the helper's one-shot now-playing output.
func (d *Dispatcher) Get(ctx context.Context) ([]byte, error) {
	return d.Run(ctx, ModeGet)
}

// Dispatch sends cmd and logs, rather than returns, any failure.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd core.Command) {
	if err := d.Send(ctx, cmd); err != nil {
		d.log.Warn().Err(err).Str("command", cmd.String()).Msg("command failed")
	}
}

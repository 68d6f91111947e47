package helper

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	nserrors "github.com/tessro/nowsync/internal/errors"
)

// DefaultStopTimeout is how long Stop waits after SIGTERM before killing.
const DefaultStopTimeout = 3 * time.Second

const readBufferSize = 64 << 10

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	Debounce    time.Duration
	StopTimeout time.Duration
	Logger      zerolog.Logger
}

// Supervisor owns the long-running stream helper. At most one helper process
// is alive per Supervisor.
type Supervisor struct {
	adapter Adapter
	opts    SupervisorOptions
	log     zerolog.Logger

	// lifecycle serializes Start and Stop; mu guards h only, so accessors
	// never wait on a process teardown.
	lifecycle sync.Mutex
	mu        sync.Mutex
	h         *handle
}

// handle is one launched helper process. It is never reused after Stop.
type handle struct {
	cmd  *exec.Cmd
	pipe *os.File

	// onChunk is swapped to nil to detach the reader before termination.
	onChunk atomic.Pointer[func([]byte)]
	stopped atomic.Bool

	done chan struct{}
	err  error // valid once done is closed

	wg conc.WaitGroup
}

// NewSupervisor creates a supervisor for adapter.
func NewSupervisor(adapter Adapter, opts SupervisorOptions) *Supervisor {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	return &Supervisor{
		adapter: adapter,
		opts:    opts,
		log:     opts.Logger.With().Str("component", "supervisor").Logger(),
	}
}

// Start launches the helper in stream mode. Combined stdout and stderr are
// read on a background goroutine and each chunk is handed to onChunk as a
// private copy. Start does not retry.
func (s *Supervisor) Start(onChunk func([]byte)) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	prev := s.h
	s.mu.Unlock()

	if prev != nil {
		select {
		case <-prev.done:
			// The previous helper exited on its own; reap it before relaunching.
			s.setHandle(nil)
			s.release(prev)
		default:
			return nserrors.ErrAlreadyRunning
		}
	}

	if err := s.adapter.Verify(); err != nil {
		return err
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("%w: %w", nserrors.ErrLaunchFailed, err)
	}

	cmd := exec.Command(s.adapter.Interpreter, s.adapter.StreamArgs(s.opts.Debounce)...)
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return fmt.Errorf("%w: %w", nserrors.ErrLaunchFailed, err)
	}
	// The child holds its own copy of the write end.
	_ = w.Close()

	h := &handle{cmd: cmd, pipe: r, done: make(chan struct{})}
	if onChunk != nil {
		h.onChunk.Store(&onChunk)
	}
	h.wg.Go(h.read)
	h.wg.Go(func() { s.wait(h) })
	s.setHandle(h)

	s.log.Info().Int("pid", cmd.Process.Pid).Msg("helper started")
	return nil
}

func (h *handle) read() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := h.pipe.Read(buf)
		if n > 0 {
			if fn := h.onChunk.Load(); fn != nil {
				(*fn)(bytes.Clone(buf[:n]))
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Supervisor) wait(h *handle) {
	h.err = h.cmd.Wait()
	close(h.done)

	if h.stopped.Load() {
		return
	}
	ev := s.log.Warn().Int("pid", h.cmd.Process.Pid)
	if code := h.cmd.ProcessState.ExitCode(); code >= 0 {
		ev = ev.Int("exit_code", code)
	}
	ev.Err(h.err).Msg("helper exited unexpectedly")
}

// Stop detaches the output handler, asks the helper to terminate, waits for
// it to exit and releases the pipe. A helper that ignores SIGTERM for longer
// than the stop timeout is killed. Stop is idempotent.
func (s *Supervisor) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	h := s.h
	s.h = nil
	s.mu.Unlock()

	if h == nil {
		return nil
	}

	h.onChunk.Store(nil)
	h.stopped.Store(true)

	select {
	case <-h.done:
	default:
		if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			_ = h.cmd.Process.Kill()
		}
		timer := time.NewTimer(s.opts.StopTimeout)
		select {
		case <-h.done:
			timer.Stop()
		case <-timer.C:
			s.log.Warn().Int("pid", h.cmd.Process.Pid).Msg("helper ignored SIGTERM, killing")
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	}

	s.release(h)
	s.log.Info().Int("pid", h.cmd.Process.Pid).Msg("helper stopped")
	return nil
}

func (s *Supervisor) setHandle(h *handle) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

func (s *Supervisor) release(h *handle) {
	_ = h.pipe.Close()
	h.wg.Wait()
}

// Running reports whether a helper process is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return false
	}
	select {
	case <-s.h.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current helper exits. It returns
// nil when no helper has been started.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return nil
	}
	return s.h.done
}

// Err returns the exit error of the current helper once it has exited.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return nil
	}
	select {
	case <-s.h.done:
		return s.h.err
	default:
		return nil
	}
}

// Pid returns the current helper's process id, or 0.
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return 0
	}
	return s.h.cmd.Process.Pid
}

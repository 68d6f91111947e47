// Package client provides the now-playing client: it keeps the stream helper
// running, reconciles its records into a single state and issues playback
// commands.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/tessro/nowsync/internal/core"
	nserrors "github.com/tessro/nowsync/internal/errors"
	"github.com/tessro/nowsync/internal/helper"
	"github.com/tessro/nowsync/internal/nowplaying"
	"github.com/tessro/nowsync/internal/stream"
)

const recordBuffer = 64

var errClosing = errors.New("client closing")

// Phase is the client's lifecycle state.
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseStreaming
)

func (p Phase) String() string {
	if p == PhaseStreaming {
		return "streaming"
	}
	return "inactive"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "streaming":
		*p = PhaseStreaming
	case "inactive":
		*p = PhaseInactive
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Status reports the health of the client and its helper.
type Status struct {
	Phase         Phase     `json:"phase"`
	HelperRunning bool      `json:"helper_running"`
	Pid           int       `json:"pid,omitempty"`
	Restarts      int       `json:"restarts"`
	LastExit      string    `json:"last_exit,omitempty"`
	LastExitAt    time.Time `json:"last_exit_at,omitempty"`
	Dropped       int       `json:"dropped"`
	Malformed     int       `json:"malformed"`
	Pending       int       `json:"pending"`
}

// pending is a record waiting for the run loop. A refresh record carries the
// stream sequence observed when its request started.
type pending struct {
	rec     stream.Record
	refresh bool
	seq     uint64
}

// Options configures a Client.
type Options struct {
	Adapter        helper.Adapter
	Debounce       time.Duration
	MaxLineBytes   int
	CommandTimeout time.Duration
	StopTimeout    time.Duration

	Restart            RestartPolicy
	RestartBaseBackoff time.Duration
	RestartMaxBackoff  time.Duration

	// Runner overrides how one-shot commands are executed.
	Runner helper.Runner
	Logger zerolog.Logger
}

// Client is the now-playing client. It implements core.Controller.
//
// One goroutine owns the reconciled state. Helper output is framed and
// decoded on the supervisor's reader goroutine and handed over through a
// channel; readers get copies of the last published snapshot.
type Client struct {
	opts Options
	log  zerolog.Logger

	sup    *helper.Supervisor
	disp   *helper.Dispatcher
	framer *stream.Framer

	records chan pending
	quit    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      conc.WaitGroup

	lifeMu    sync.Mutex
	closing   bool
	closeOnce sync.Once
	closeErr  error

	mu     sync.RWMutex
	state  core.NowPlayingState
	status Status

	dropped   atomic.Int64
	malformed atomic.Int64
	buffered  atomic.Int64
	streamSeq atomic.Uint64

	subMu  sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

var _ core.Controller = (*Client)(nil)

// New starts the stream helper and returns a running client. If the helper
// cannot be launched, New returns the error and no client.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Restart == "" {
		opts.Restart = RestartAlways
	}
	if opts.RestartBaseBackoff <= 0 {
		opts.RestartBaseBackoff = DefaultBaseBackoff
	}
	if opts.RestartMaxBackoff <= 0 {
		opts.RestartMaxBackoff = DefaultMaxBackoff
	}

	log := opts.Logger.With().Str("component", "client").Logger()
	c := &Client{
		opts: opts,
		log:  log,
		sup: helper.NewSupervisor(opts.Adapter, helper.SupervisorOptions{
			Debounce:    opts.Debounce,
			StopTimeout: opts.StopTimeout,
			Logger:      opts.Logger,
		}),
		disp: helper.NewDispatcher(opts.Adapter, helper.DispatcherOptions{
			Timeout: opts.CommandTimeout,
			Runner:  opts.Runner,
			Logger:  opts.Logger,
		}),
		framer:  stream.NewFramer(opts.MaxLineBytes),
		records: make(chan pending, recordBuffer),
		quit:    make(chan struct{}),
		subs:    make(map[*subscriber]struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))

	if err := c.sup.Start(c.onChunk); err != nil {
		c.cancel()
		return nil, fmt.Errorf("start helper: %w", err)
	}

	c.status.Phase = PhaseStreaming
	c.wg.Go(c.run)
	c.wg.Go(c.watch)
	c.wg.Go(func() { c.Refresh(c.ctx) })

	log.Debug().Str("restart", string(opts.Restart)).Msg("client started")
	return c, nil
}

// onChunk runs on the supervisor's reader goroutine.
func (c *Client) onChunk(chunk []byte) {
	for _, line := range c.framer.Feed(chunk) {
		rec, ok := stream.Decode(line)
		if !ok {
			c.malformed.Add(1)
			c.log.Debug().Str("line", abbreviate(line, 120)).Msg("ignoring non-record output")
			continue
		}
		c.streamSeq.Add(1)
		if !c.enqueue(pending{rec: rec}) {
			return
		}
	}
	c.dropped.Store(int64(c.framer.Dropped()))
	c.buffered.Store(int64(c.framer.Pending()))
}

func (c *Client) enqueue(p pending) bool {
	select {
	case c.records <- p:
		return true
	case <-c.quit:
		return false
	}
}

// run is the only goroutine that mutates the reconciled state.
func (c *Client) run() {
	var st core.NowPlayingState
	for {
		select {
		case <-c.quit:
			return
		case p := <-c.records:
			if p.refresh && c.streamSeq.Load() != p.seq {
				// The stream has spoken since the request started.
				c.log.Debug().Msg("discarding stale refresh")
				continue
			}
			rec := p.rec
			changed := nowplaying.Apply(rec, &st, time.Now())
			if changed == nowplaying.ChangeNone {
				continue
			}

			c.mu.Lock()
			c.state = st.Clone()
			c.mu.Unlock()

			c.log.Debug().Stringer("changed", changed).Bool("diff", rec.Diff).Msg("state updated")
			c.notify(changed)
		}
	}
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() core.NowPlayingState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Status returns the client's health.
func (c *Client) Status() Status {
	c.mu.RLock()
	st := c.status
	c.mu.RUnlock()

	st.HelperRunning = c.sup.Running()
	st.Pid = c.sup.Pid()
	st.Dropped = int(c.dropped.Load())
	st.Malformed = int(c.malformed.Load())
	st.Pending = int(c.buffered.Load())
	return st
}

// Phase returns the lifecycle state.
func (c *Client) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.Phase
}

// Play resumes playback.
func (c *Client) Play(ctx context.Context) { c.dispatch(ctx, core.CommandPlay) }

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) { c.dispatch(ctx, core.CommandPause) }

// Toggle toggles between playing and paused.
func (c *Client) Toggle(ctx context.Context) { c.dispatch(ctx, core.CommandToggle) }

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) { c.dispatch(ctx, core.CommandNext) }

// Previous returns to the previous track.
func (c *Client) Previous(ctx context.Context) { c.dispatch(ctx, core.CommandPrevious) }

func (c *Client) dispatch(ctx context.Context, cmd core.Command) {
	if err := c.Execute(ctx, cmd); err != nil {
		c.log.Warn().Err(err).Str("command", cmd.String()).Msg("command failed")
	}
}

// Execute sends cmd and waits for the helper to accept it. Unlike the
// individual controls it reports failure to the caller.
func (c *Client) Execute(ctx context.Context, cmd core.Command) error {
	if c.isClosed() {
		return nserrors.ErrClosed
	}
	return c.disp.Send(ctx, cmd)
}

// Seek moves playback to position. Failures are logged.
func (c *Client) Seek(ctx context.Context, position time.Duration) {
	if err := c.SeekTo(ctx, position); err != nil {
		c.log.Warn().Err(err).Dur("position", position).Msg("seek failed")
	}
}

// SeekTo is Seek with the error returned.
func (c *Client) SeekTo(ctx context.Context, position time.Duration) error {
	if c.isClosed() {
		return nserrors.ErrClosed
	}
	return c.disp.Seek(ctx, position)
}

// Refresh asks the helper for the complete current state and reconciles it
// as a full record. The result is discarded if a stream record arrives while
// the request is in flight. Failures are logged.
func (c *Client) Refresh(ctx context.Context) {
	if c.isClosed() {
		return
	}
	seq := c.streamSeq.Load()
	out, err := c.disp.Get(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("refresh failed")
		}
		return
	}
	rec, ok := stream.DecodeSnapshot(out)
	if !ok {
		c.log.Debug().Str("output", abbreviate(string(out), 120)).Msg("unrecognized refresh output")
		return
	}
	c.enqueue(pending{rec: rec, refresh: true, seq: seq})
}

// Close stops the helper and the client. Subscriber channels are closed.
// Close is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.lifeMu.Lock()
		c.closing = true
		c.lifeMu.Unlock()

		c.cancel()
		c.closeErr = c.sup.Stop()
		close(c.quit)
		c.wg.Wait()

		c.mu.Lock()
		c.status.Phase = PhaseInactive
		c.mu.Unlock()

		c.closeSubscribers()
		c.log.Debug().Msg("client closed")
	})
	return c.closeErr
}

func (c *Client) isClosed() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.closing
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

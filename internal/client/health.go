package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tessro/nowsync/internal/nowplaying"
)

// RestartPolicy decides what happens when the stream helper exits on its own.
type RestartPolicy string

const (
	// RestartAlways relaunches the helper with exponential backoff.
	RestartAlways RestartPolicy = "always"
	// RestartNever leaves the client streaming stale state after an exit.
	RestartNever RestartPolicy = "never"
)

// ParseRestartPolicy validates a policy name. Empty selects RestartAlways.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch RestartPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RestartAlways:
		return RestartAlways, nil
	case RestartNever:
		return RestartNever, nil
	}
	return "", fmt.Errorf("unknown restart policy %q (want always or never)", s)
}

const (
	// DefaultBaseBackoff is the delay before the first relaunch.
	DefaultBaseBackoff = time.Second
	// DefaultMaxBackoff caps the delay between relaunches.
	DefaultMaxBackoff = 30 * time.Second

	// A helper that stays up this long is considered healthy again.
	stableUptime = 10 * time.Second
)

// Backoff returns the delay before relaunch attempt number failures+1:
// base doubled once per previous failure, never more than limit.
func Backoff(failures int, base, limit time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// watch follows the helper's lifetime and applies the restart policy.
func (c *Client) watch() {
	failures := 0
	for {
		startedAt := time.Now()
		select {
		case <-c.quit:
			return
		case <-c.sup.Done():
		}
		if c.isClosed() {
			return
		}

		c.recordExit(c.sup.Err())

		if c.opts.Restart == RestartNever {
			<-c.quit
			return
		}
		if time.Since(startedAt) >= stableUptime {
			failures = 0
		}

		for {
			delay := Backoff(failures, c.opts.RestartBaseBackoff, c.opts.RestartMaxBackoff)
			failures++

			c.log.Info().Dur("delay", delay).Int("attempt", failures).Msg("relaunching helper")
			select {
			case <-c.quit:
				return
			case <-time.After(delay):
			}

			err := c.relaunch()
			if err == nil {
				break
			}
			if errors.Is(err, errClosing) {
				return
			}
			c.log.Warn().Err(err).Msg("helper relaunch failed")
		}
	}
}

func (c *Client) relaunch() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.closing {
		return errClosing
	}

	// A partial line from the previous process must not prefix the new output.
	c.framer.Reset()
	c.buffered.Store(0)
	if err := c.sup.Start(c.onChunk); err != nil {
		return err
	}

	c.mu.Lock()
	c.status.Restarts++
	restarts := c.status.Restarts
	c.mu.Unlock()

	c.log.Info().Int("restarts", restarts).Int("pid", c.sup.Pid()).Msg("helper relaunched")
	c.notify(nowplaying.ChangeHealth)
	return nil
}

func (c *Client) recordExit(err error) {
	msg := "exited"
	if err != nil {
		msg = err.Error()
	}

	c.mu.Lock()
	c.status.LastExit = msg
	c.status.LastExitAt = time.Now()
	c.mu.Unlock()

	c.log.Warn().Str("policy", string(c.opts.Restart)).Str("exit", msg).Msg("helper stream ended")
	c.notify(nowplaying.ChangeHealth)
}

package client

import (
	"sync"

	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/nowplaying"
)

// Update is delivered to subscribers after every observable change.
// State is shared between subscribers and must be treated as read-only.
type Update struct {
	State   core.NowPlayingState
	Changed nowplaying.Change
	Status  Status
}

// subscriber holds at most one undelivered update. A newer update replaces
// it, with the change masks merged, so a slow reader skips intermediate
// states but never misses which attributes changed.
type subscriber struct {
	mu     sync.Mutex
	ch     chan Update
	closed bool
}

func (s *subscriber) deliver(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case old := <-s.ch:
		u.Changed |= old.Changed
	default:
	}
	// Only deliver sends, under mu, so the slot is free here.
	s.ch <- u
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Subscribe registers an observer. The returned function unsubscribes and
// closes the channel; the channel is also closed when the client closes.
func (c *Client) Subscribe() (<-chan Update, func()) {
	s := &subscriber{ch: make(chan Update, 1)}

	c.subMu.Lock()
	if c.closed {
		c.subMu.Unlock()
		s.close()
		return s.ch, func() {}
	}
	c.subs[s] = struct{}{}
	c.subMu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, s)
			c.subMu.Unlock()
			s.close()
		})
	}
}

func (c *Client) notify(changed nowplaying.Change) {
	u := Update{State: c.Snapshot(), Changed: changed, Status: c.Status()}

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for s := range c.subs {
		s.deliver(u)
	}
}

func (c *Client) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.closed = true
	for s := range c.subs {
		s.close()
	}
	c.subs = nil
}

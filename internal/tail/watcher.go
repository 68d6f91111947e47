package tail

import (
	"context"
	"time"

	"github.com/tessro/nowsync/internal/client"
	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/nowplaying"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventSeek
	EventSourceChange
	EventArtworkChange
	EventHelperExit
	EventHelperRestart
)

// Event represents a now-playing state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.NowPlayingState
	Current   *core.NowPlayingState
	Status    client.Status
}

// Source is what a Watcher observes. *client.Client implements it.
type Source interface {
	Snapshot() core.NowPlayingState
	Subscribe() (<-chan client.Update, func())
}

// Watcher turns client updates into playback events.
type Watcher struct {
	source Source
	events chan Event
	done   chan struct{}
	now    func() time.Time
}

// NewWatcher creates a new state watcher.
func NewWatcher(source Source) *Watcher {
	return &Watcher{
		source: source,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start follows updates until ctx is cancelled, Stop is called or the source
// closes. The current track, if any, is reported first.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.events)

	updates, unsubscribe := w.source.Subscribe()
	defer unsubscribe()

	prev := w.source.Snapshot()
	var prevStatus client.Status
	if prev.HasTrack() {
		curr := prev
		w.emit(Event{Type: EventTrackChange, Timestamp: w.now(), Current: &curr})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			for _, e := range diffStates(prev, u, prevStatus, w.now()) {
				w.emit(e)
			}
			prev = u.State
			prevStatus = u.Status
		}
	}
}

func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	default:
		// Drop event if channel is full
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diffStates compares two states and returns detected events.
func diffStates(prevState core.NowPlayingState, u client.Update, prevStatus client.Status, now time.Time) []Event {
	prev := &prevState
	curr := &u.State
	var events []Event

	add := func(t EventType) {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr, Status: u.Status})
	}

	// Helper health
	if u.Changed.Has(nowplaying.ChangeHealth) {
		if !u.Status.LastExitAt.IsZero() && !u.Status.LastExitAt.Equal(prevStatus.LastExitAt) {
			add(EventHelperExit)
		}
		if u.Status.Restarts > prevStatus.Restarts {
			add(EventHelperRestart)
		}
	}

	changedTrack := trackChanged(prev, curr)
	if changedTrack && curr.HasTrack() {
		eventType := EventTrackChange

		// Check if it was a completion vs skip
		if prev.HasTrack() && wasCompleted(prev, now) {
			eventType = EventTrackComplete
		} else if prev.HasTrack() {
			eventType = EventTrackSkip
		}
		add(eventType)
		if eventType != EventTrackChange {
			// Announce the new track as well.
			add(EventTrackChange)
		}
	}

	if prev.SourceAppID != curr.SourceAppID && curr.SourceAppID != "" {
		add(EventSourceChange)
	}

	// Pause/Resume detection
	if prev.IsPlaying && !curr.IsPlaying {
		add(EventPause)
	} else if !prev.IsPlaying && curr.IsPlaying {
		add(EventResume)
	}

	if !changedTrack && u.Changed.Has(nowplaying.ChangeElapsed) {
		add(EventSeek)
	}
	if !changedTrack && u.Changed.Has(nowplaying.ChangeArtwork) && curr.HasArtwork() {
		add(EventArtworkChange)
	}

	return events
}

// trackChanged returns true if the track identity changed.
func trackChanged(prev, curr *core.NowPlayingState) bool {
	return prev.Identity().Fingerprint() != curr.Identity().Fingerprint()
}

// wasCompleted returns true if the track likely completed naturally.
func wasCompleted(state *core.NowPlayingState, now time.Time) bool {
	if state.Duration == 0 {
		return false
	}
	// Consider completed if progress is >= 95% of duration
	return state.Position(now) >= state.Duration*0.95
}

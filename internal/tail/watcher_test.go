package tail

import (
	"context"
	"testing"
	"time"

	"github.com/tessro/nowsync/internal/client"
	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/nowplaying"
)

type fakeSource struct {
	snapshot core.NowPlayingState
	updates  chan client.Update
}

func (f *fakeSource) Snapshot() core.NowPlayingState { return f.snapshot }

func (f *fakeSource) Subscribe() (<-chan client.Update, func()) {
	return f.updates, func() {}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func sameTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDiffStates(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	song := core.NowPlayingState{Title: "Song", Artist: "Band", SourceAppID: "com.apple.Music", IsPlaying: true, Duration: 200, ElapsedTime: 20, ElapsedAt: now}

	tests := []struct {
		name       string
		prev       core.NowPlayingState
		update     func(s core.NowPlayingState) client.Update
		prevStatus client.Status
		want       []EventType
	}{
		{
			name: "pause",
			prev: song,
			update: func(s core.NowPlayingState) client.Update {
				s.IsPlaying = false
				return client.Update{State: s, Changed: nowplaying.ChangePlaying}
			},
			want: []EventType{EventPause},
		},
		{
			name: "resume",
			prev: func() core.NowPlayingState { s := song; s.IsPlaying = false; return s }(),
			update: func(s core.NowPlayingState) client.Update {
				s.IsPlaying = true
				return client.Update{State: s, Changed: nowplaying.ChangePlaying}
			},
			want: []EventType{EventResume},
		},
		{
			name: "skip",
			prev: song,
			update: func(s core.NowPlayingState) client.Update {
				s.Title = "Next"
				return client.Update{State: s, Changed: nowplaying.ChangeTitle}
			},
			want: []EventType{EventTrackSkip, EventTrackChange},
		},
		{
			name: "complete",
			prev: func() core.NowPlayingState { s := song; s.ElapsedTime = 199; return s }(),
			update: func(s core.NowPlayingState) client.Update {
				s.Title = "Next"
				s.ElapsedTime = 0
				return client.Update{State: s, Changed: nowplaying.ChangeTitle | nowplaying.ChangeElapsed}
			},
			want: []EventType{EventTrackComplete, EventTrackChange},
		},
		{
			name: "first track",
			prev: core.NowPlayingState{},
			update: func(core.NowPlayingState) client.Update {
				return client.Update{State: song, Changed: nowplaying.ChangeTrack | nowplaying.ChangePlaying}
			},
			want: []EventType{EventTrackChange, EventSourceChange, EventResume},
		},
		{
			name: "seek",
			prev: song,
			update: func(s core.NowPlayingState) client.Update {
				s.ElapsedTime = 120
				return client.Update{State: s, Changed: nowplaying.ChangeElapsed}
			},
			want: []EventType{EventSeek},
		},
		{
			name: "artwork",
			prev: song,
			update: func(s core.NowPlayingState) client.Update {
				s.Artwork = []byte{1}
				return client.Update{State: s, Changed: nowplaying.ChangeArtwork}
			},
			want: []EventType{EventArtworkChange},
		},
		{
			name: "helper exit then restart",
			prev: song,
			update: func(s core.NowPlayingState) client.Update {
				return client.Update{State: s, Changed: nowplaying.ChangeHealth, Status: client.Status{Restarts: 1, LastExit: "exit status 1", LastExitAt: now}}
			},
			want: []EventType{EventHelperExit, EventHelperRestart},
		},
		{
			name:       "restart only",
			prev:       song,
			prevStatus: client.Status{LastExitAt: now},
			update: func(s core.NowPlayingState) client.Update {
				return client.Update{State: s, Changed: nowplaying.ChangeHealth, Status: client.Status{Restarts: 1, LastExitAt: now}}
			},
			want: []EventType{EventHelperRestart},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eventTypes(diffStates(tt.prev, tt.update(tt.prev), tt.prevStatus, now))
			if !sameTypes(got, tt.want) {
				t.Errorf("diffStates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatcher_Start(t *testing.T) {
	src := &fakeSource{
		snapshot: core.NowPlayingState{Title: "Song", Artist: "Band", IsPlaying: true},
		updates:  make(chan client.Update, 1),
	}
	w := NewWatcher(src)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()

	next := func() Event {
		t.Helper()
		select {
		case e := <-w.Events():
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("no event")
			return Event{}
		}
	}

	if e := next(); e.Type != EventTrackChange || e.Current.Title != "Song" {
		t.Errorf("initial event = %v %+v", e.Type, e.Current)
	}

	paused := src.snapshot
	paused.IsPlaying = false
	src.updates <- client.Update{State: paused, Changed: nowplaying.ChangePlaying}
	if e := next(); e.Type != EventPause {
		t.Errorf("event = %v, want pause", e.Type)
	}

	close(src.updates)
	if err := <-errCh; err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel not closed")
	}
}

func TestWatcher_Cancel(t *testing.T) {
	src := &fakeSource{updates: make(chan client.Update)}
	w := NewWatcher(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Start(ctx); err != context.Canceled {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}

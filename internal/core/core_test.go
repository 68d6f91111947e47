package core

import (
	"testing"
	"time"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
		ok   bool
	}{
		{"play", CommandPlay, true},
		{"Pause", CommandPause, true},
		{"toggle", CommandToggle, true},
		{"play-pause", CommandToggle, true},
		{"next", CommandNext, true},
		{"prev", CommandPrevious, true},
		{" previous ", CommandPrevious, true},
		{"stop", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCommand_String(t *testing.T) {
	for _, c := range []Command{CommandPlay, CommandPause, CommandToggle, CommandNext, CommandPrevious} {
		parsed, ok := ParseCommand(c.String())
		if !ok || parsed != c {
			t.Errorf("ParseCommand(%q) = %v, want %v", c.String(), parsed, c)
		}
	}
	if CommandNext.Code() != "4" {
		t.Errorf("CommandNext.Code() = %q, want 4", CommandNext.Code())
	}
	if Command(9).String() != "command(9)" {
		t.Errorf("Command(9).String() = %q", Command(9).String())
	}
}

func TestNowPlayingState_Position(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state NowPlayingState
		now   time.Time
		want  float64
	}{
		{"paused", NowPlayingState{ElapsedTime: 30, ElapsedAt: at, Duration: 100}, at.Add(10 * time.Second), 30},
		{"playing", NowPlayingState{IsPlaying: true, ElapsedTime: 30, ElapsedAt: at, Duration: 100}, at.Add(10 * time.Second), 40},
		{"clamped to duration", NowPlayingState{IsPlaying: true, ElapsedTime: 95, ElapsedAt: at, Duration: 100}, at.Add(10 * time.Second), 100},
		{"no anchor", NowPlayingState{IsPlaying: true, ElapsedTime: 5}, at, 5},
		{"unknown duration", NowPlayingState{IsPlaying: true, ElapsedTime: 5, ElapsedAt: at}, at.Add(time.Second), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Position(tt.now); got != tt.want {
				t.Errorf("Position() = %v, want %v", got, tt.want)
			}
		})
	}

	s := NowPlayingState{ElapsedTime: 25, Duration: 100}
	if got := s.ProgressPercent(at); got != 25 {
		t.Errorf("ProgressPercent() = %v, want 25", got)
	}
}

func TestNowPlayingState_Clone(t *testing.T) {
	s := NowPlayingState{Title: "A", Artwork: []byte{1, 2, 3}}
	dup := s.Clone()
	dup.Artwork[0] = 9

	if s.Artwork[0] != 1 {
		t.Error("Clone() shares artwork with the original")
	}
	if !dup.HasArtwork() || !dup.HasTrack() {
		t.Error("clone lost fields")
	}
}

func TestTrackIdentity_Fingerprint(t *testing.T) {
	a := TrackIdentity{Title: "Song", Artist: "Band", Source: "com.apple.Music"}
	b := a
	c := a
	c.Title = "Other"

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal identities hash differently")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different identities hash the same")
	}
	if !(TrackIdentity{}).IsZero() || a.IsZero() {
		t.Error("IsZero() wrong")
	}

	s := NowPlayingState{Title: "Song", Artist: "Band", SourceAppID: "com.apple.Music", ElapsedTime: 12}
	if s.Identity() != a {
		t.Errorf("Identity() = %+v, want %+v", s.Identity(), a)
	}
}

func TestLookupSource(t *testing.T) {
	tests := []struct {
		appID string
		name  string
		kind  SourceKind
	}{
		{"com.spotify.client", "Spotify", SourceSpotify},
		{"com.apple.Music", "Music", SourceMusic},
		{"com.example.Player", "Player", SourceOther},
		{"standalone", "standalone", SourceOther},
	}

	for _, tt := range tests {
		s := LookupSource(tt.appID)
		if s.Name != tt.name || s.Kind != tt.kind || s.AppID != tt.appID {
			t.Errorf("LookupSource(%q) = %+v", tt.appID, s)
		}
	}
	if LookupSource("") != (Source{}) {
		t.Error("LookupSource(\"\") should be zero")
	}
}

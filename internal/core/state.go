package core

import (
	"bytes"
	"time"
)

// NowPlayingState represents the current now-playing information reported by
// the media helper.
type NowPlayingState struct {
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	IsPlaying   bool      `json:"is_playing"`
	Artwork     []byte    `json:"artwork,omitempty"`
	Duration    float64   `json:"duration"`
	ElapsedTime float64   `json:"elapsed_time"`
	ElapsedAt   time.Time `json:"elapsed_at"`
	SourceAppID string    `json:"source_app_id"`
}

// HasTrack returns true if there is an active track.
func (s *NowPlayingState) HasTrack() bool {
	return s != nil && (s.Title != "" || s.Artist != "")
}

// HasArtwork returns true if artwork bytes are present.
func (s *NowPlayingState) HasArtwork() bool {
	return s != nil && len(s.Artwork) > 0
}

// Position returns the playback position in seconds at now. While playing the
// last reported elapsed time is advanced by the wall-clock time since it was
// accepted, clamped to the duration.
func (s *NowPlayingState) Position(now time.Time) float64 {
	if s == nil {
		return 0
	}
	pos := s.ElapsedTime
	if s.IsPlaying && !s.ElapsedAt.IsZero() && now.After(s.ElapsedAt) {
		pos += now.Sub(s.ElapsedAt).Seconds()
	}
	if s.Duration > 0 && pos > s.Duration {
		pos = s.Duration
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *NowPlayingState) ProgressPercent(now time.Time) float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	return s.Position(now) / s.Duration * 100
}

// Clone returns a deep copy of the state.
func (s NowPlayingState) Clone() NowPlayingState {
	dup := s
	if s.Artwork != nil {
		dup.Artwork = bytes.Clone(s.Artwork)
	}
	return dup
}

// Identity returns the fields that identify the current track.
func (s *NowPlayingState) Identity() TrackIdentity {
	if s == nil {
		return TrackIdentity{}
	}
	return TrackIdentity{
		Title:  s.Title,
		Artist: s.Artist,
		Album:  s.Album,
		Source: s.SourceAppID,
	}
}

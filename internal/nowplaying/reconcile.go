// Package nowplaying merges decoded helper records into the now-playing state.
package nowplaying

import (
	"bytes"
	"math"
	"time"

	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/stream"
)

// ElapsedThreshold is the smallest jump in reported elapsed time, in seconds,
// that is written to the state. Smaller drifts are ordinary playback progress
// and would only cause churn.
const ElapsedThreshold = 1.0

// Apply merges rec into st and returns the attributes whose value changed.
//
// A field present in the record is assigned. A field absent from a full
// record is reset to its zero value, while one absent from a diff record is
// left as it was.
func Apply(rec stream.Record, st *core.NowPlayingState, now time.Time) Change {
	p := rec.Payload
	full := !rec.Diff
	var changed Change

	if title, ok := resolve(p.Title, full); ok && title != st.Title {
		st.Title = title
		changed |= ChangeTitle
	}
	if artist, ok := resolve(p.Artist, full); ok && artist != st.Artist {
		st.Artist = artist
		changed |= ChangeArtist
	}
	if album, ok := resolve(p.Album, full); ok && album != st.Album {
		st.Album = album
		changed |= ChangeAlbum
	}
	if source, ok := resolve(p.SourceAppID, full); ok && source != st.SourceAppID {
		st.SourceAppID = source
		changed |= ChangeSource
	}
	if duration, ok := resolve(p.Duration, full); ok && duration != st.Duration {
		st.Duration = duration
		changed |= ChangeDuration
	}
	if art, ok := resolve(p.Artwork, full); ok && !bytes.Equal(art, st.Artwork) {
		st.Artwork = bytes.Clone(art)
		changed |= ChangeArtwork
	}

	if playing, ok := resolve(p.Playing, full); ok && playing != st.IsPlaying {
		if !playing && !p.ElapsedTime.Set && !st.ElapsedAt.IsZero() {
			// Freeze the extrapolated position at the pause.
			st.ElapsedTime = st.Position(now)
		}
		st.IsPlaying = playing
		if !st.ElapsedAt.IsZero() {
			st.ElapsedAt = now
		}
		changed |= ChangePlaying
	}

	switch {
	case p.ElapsedTime.Set:
		if math.Abs(p.ElapsedTime.Value-st.ElapsedTime) > ElapsedThreshold {
			st.ElapsedTime = p.ElapsedTime.Value
			st.ElapsedAt = now
			changed |= ChangeElapsed
		} else if st.ElapsedAt.IsZero() {
			// Anchor extrapolation without moving the reported position.
			st.ElapsedAt = now
		}
	case full:
		if st.ElapsedTime != 0 {
			changed |= ChangeElapsed
		}
		st.ElapsedTime = 0
		st.ElapsedAt = time.Time{}
	}

	return changed
}

// resolve returns the value to assign for f, or false when the current value
// should be kept.
func resolve[T any](f stream.Field[T], full bool) (T, bool) {
	if f.Set {
		return f.Value, true
	}
	var zero T
	return zero, full
}

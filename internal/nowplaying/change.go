package nowplaying

import "strings"

// Change is a bitmask of the state attributes touched by an update.
type Change uint16

const (
	ChangeTitle Change = 1 << iota
	ChangeArtist
	ChangeAlbum
	ChangePlaying
	ChangeArtwork
	ChangeDuration
	ChangeElapsed
	ChangeSource
	ChangeHealth

	// ChangeNone means the update left the state untouched.
	ChangeNone Change = 0
)

// ChangeTrack covers the attributes that identify a track.
const ChangeTrack = ChangeTitle | ChangeArtist | ChangeAlbum | ChangeSource

var changeNames = []struct {
	bit  Change
	name string
}{
	{ChangeTitle, "title"},
	{ChangeArtist, "artist"},
	{ChangeAlbum, "album"},
	{ChangePlaying, "playing"},
	{ChangeArtwork, "artwork"},
	{ChangeDuration, "duration"},
	{ChangeElapsed, "elapsed"},
	{ChangeSource, "source"},
	{ChangeHealth, "health"},
}

// Has reports whether any of the bits in mask are set.
func (c Change) Has(mask Change) bool {
	return c&mask != 0
}

func (c Change) String() string {
	if c == ChangeNone {
		return "none"
	}
	var parts []string
	for _, n := range changeNames {
		if c.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

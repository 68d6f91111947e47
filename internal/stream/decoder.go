package stream

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Wire keys emitted by the adapter inside "payload".
const (
	keyTitle        = "title"
	keyArtist       = "artist"
	keyAlbum        = "album"
	keyPlaying      = "playing"
	keyDuration     = "duration"
	keyElapsedTime  = "elapsedTime"
	keyArtworkData  = "artworkData"
	keyBundleID     = "bundleIdentifier"
	keyParentBundle = "parentApplicationBundleIdentifier"
)

// Field is an attribute that may or may not be present in a record.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a present field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Get returns the value and whether it was present.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set
}

// Payload is the typed form of a record's payload object. Every attribute
// carries its own presence bit so diff and full records can be told apart
// per field.
type Payload struct {
	Title       Field[string]
	Artist      Field[string]
	Album       Field[string]
	Playing     Field[bool]
	Duration    Field[float64]
	ElapsedTime Field[float64]
	Artwork     Field[[]byte]
	SourceAppID Field[string]
}

// IsZero reports whether no attribute is present.
func (p Payload) IsZero() bool {
	return !p.Title.Set && !p.Artist.Set && !p.Album.Set && !p.Playing.Set &&
		!p.Duration.Set && !p.ElapsedTime.Set && !p.Artwork.Set && !p.SourceAppID.Set
}

// Record is one decoded line of the helper's stream.
type Record struct {
	Diff    bool
	Payload Payload
}

// Decode parses a stream line of the form {"diff": bool, "payload": {...}}.
// It reports false for anything that is not an object carrying a payload
// object; such lines are expected around helper startup and shutdown.
func Decode(line string) (Record, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &envelope); err != nil || envelope == nil {
		return Record{}, false
	}

	raw, ok := envelope["payload"]
	if !ok {
		return Record{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Record{}, false
	}

	diff, _ := lookup[bool](envelope, "diff")
	return Record{Diff: diff, Payload: decodePayload(fields)}, true
}

// DecodeSnapshot parses the output of the helper's one-shot get mode. The
// output is either a stream envelope, a bare payload object, or null when
// nothing is playing. The result is always treated as a full record.
func DecodeSnapshot(out []byte) (Record, bool) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 || isNull(trimmed) {
		return Record{}, true
	}

	if rec, ok := Decode(string(trimmed)); ok {
		rec.Diff = false
		return rec, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return Record{}, false
	}
	return Record{Payload: decodePayload(fields)}, true
}

func decodePayload(fields map[string]json.RawMessage) Payload {
	var p Payload

	// An empty title carries no information, same as a missing one.
	if title, ok := lookup[string](fields, keyTitle); ok && title != "" {
		p.Title = Some(title)
	}
	if artist, ok := lookup[string](fields, keyArtist); ok {
		p.Artist = Some(artist)
	}
	if album, ok := lookup[string](fields, keyAlbum); ok {
		p.Album = Some(album)
	}
	if playing, ok := lookup[bool](fields, keyPlaying); ok {
		p.Playing = Some(playing)
	}
	if duration, ok := lookup[float64](fields, keyDuration); ok {
		p.Duration = Some(nonNegative(duration))
	}
	if elapsed, ok := lookup[float64](fields, keyElapsedTime); ok {
		p.ElapsedTime = Some(nonNegative(elapsed))
	}
	if encoded, ok := lookup[string](fields, keyArtworkData); ok {
		p.Artwork = Some(decodeArtwork(encoded))
	}

	if id, ok := lookup[string](fields, keyParentBundle); ok {
		p.SourceAppID = Some(id)
	} else if id, ok := lookup[string](fields, keyBundleID); ok {
		p.SourceAppID = Some(id)
	}

	return p
}

// lookup decodes fields[key] as T. Missing keys, JSON null and values of the
// wrong type all count as absent.
func lookup[T any](fields map[string]json.RawMessage, key string) (T, bool) {
	var v T
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// decodeArtwork returns nil when the data is empty or not valid base64.
func decodeArtwork(encoded string) []byte {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return data
	}
	if data, err := base64.RawStdEncoding.DecodeString(encoded); err == nil {
		return data
	}
	return nil
}

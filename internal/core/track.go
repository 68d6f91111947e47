package core

import "github.com/mitchellh/hashstructure/v2"

// TrackIdentity is the subset of now-playing fields that distinguishes one
// track from another. Playback position and artwork are deliberately absent.
type TrackIdentity struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Source string `json:"source"`
}

// IsZero returns true if no identifying field is set.
func (t TrackIdentity) IsZero() bool {
	return t == TrackIdentity{}
}

// Fingerprint returns a stable hash of the identity.
func (t TrackIdentity) Fingerprint() uint64 {
	h, err := hashstructure.Hash(t, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

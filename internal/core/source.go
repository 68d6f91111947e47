package core

import "strings"

// SourceKind indicates the kind of application producing media.
type SourceKind string

const (
	SourceMusic   SourceKind = "music"
	SourceSpotify SourceKind = "spotify"
	SourceBrowser SourceKind = "browser"
	SourceVideo   SourceKind = "video"
	SourceOther   SourceKind = "other"
)

// Source describes the application that produces the now-playing item.
type Source struct {
	AppID string     `json:"app_id"`
	Name  string     `json:"name"`
	Kind  SourceKind `json:"kind"`
}

var knownSources = map[string]Source{
	"com.apple.Music":            {Name: "Music", Kind: SourceMusic},
	"com.apple.iTunes":           {Name: "iTunes", Kind: SourceMusic},
	"com.apple.podcasts":         {Name: "Podcasts", Kind: SourceMusic},
	"com.spotify.client":         {Name: "Spotify", Kind: SourceSpotify},
	"com.apple.Safari":           {Name: "Safari", Kind: SourceBrowser},
	"com.google.Chrome":          {Name: "Chrome", Kind: SourceBrowser},
	"org.mozilla.firefox":        {Name: "Firefox", Kind: SourceBrowser},
	"company.thebrowser.Browser": {Name: "Arc", Kind: SourceBrowser},
	"com.colliderli.iina":        {Name: "IINA", Kind: SourceVideo},
	"org.videolan.vlc":           {Name: "VLC", Kind: SourceVideo},
}

// LookupSource resolves an application bundle identifier to a Source. Unknown
// identifiers fall back to the last dotted component as the display name.
func LookupSource(appID string) Source {
	if appID == "" {
		return Source{}
	}
	if s, ok := knownSources[appID]; ok {
		s.AppID = appID
		return s
	}
	name := appID
	if i := strings.LastIndex(appID, "."); i >= 0 && i < len(appID)-1 {
		name = appID[i+1:]
	}
	return Source{AppID: appID, Name: name, Kind: SourceOther}
}

package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/nowsync/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template. Templates see the fields of
// TemplateData.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, f.eventDescription(e))

	return strings.Join(parts, " ")
}

// TemplateData is the value a custom format template is executed against.
type TemplateData struct {
	Type      string    `json:"type"`
	Emoji     string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"-"`
	Title     string    `json:"title,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Album     string    `json:"album,omitempty"`
	Source    string    `json:"source,omitempty"`
	Playing   bool      `json:"playing"`
	Position  string    `json:"position,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Restarts  int       `json:"restarts,omitempty"`
}

// Data returns the template view of e.
func Data(e Event) TemplateData {
	data := TemplateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Restarts:  e.Status.Restarts,
	}

	if s := e.Current; s != nil {
		data.Title = s.Title
		data.Artist = s.Artist
		data.Album = s.Album
		data.Source = core.LookupSource(s.SourceAppID).Name
		data.Playing = s.IsPlaying
		if s.Duration > 0 {
			data.Duration = FormatSeconds(s.Duration)
		}
		if s.HasTrack() {
			data.Position = FormatSeconds(s.Position(e.Timestamp))
		}
	}
	return data
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	var buf bytes.Buffer
	if err := f.template.Execute(&buf, Data(e)); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventTrackChange:
		if e.Current != nil && e.Current.HasTrack() {
			return "Now playing: " + trackLabel(e.Current)
		}
		return "Track changed"

	case EventTrackComplete:
		if e.Previous != nil && e.Previous.HasTrack() {
			return "Finished: " + trackLabel(e.Previous)
		}
		return "Track completed"

	case EventTrackSkip:
		if e.Previous != nil && e.Previous.HasTrack() {
			return "Skipped: " + trackLabel(e.Previous)
		}
		return "Track skipped"

	case EventPause:
		return "Paused"

	case EventResume:
		return "Resumed"

	case EventSeek:
		if e.Current != nil {
			return "Seeked to " + FormatSeconds(e.Current.ElapsedTime)
		}
		return "Seeked"

	case EventSourceChange:
		if e.Current != nil {
			return "Source: " + core.LookupSource(e.Current.SourceAppID).Name
		}
		return "Source changed"

	case EventArtworkChange:
		return "Artwork updated"

	case EventHelperExit:
		if e.Status.LastExit != "" {
			return "Helper exited: " + e.Status.LastExit
		}
		return "Helper exited"

	case EventHelperRestart:
		return fmt.Sprintf("Helper restarted (%d)", e.Status.Restarts)

	default:
		return "Unknown event"
	}
}

func trackLabel(s *core.NowPlayingState) string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Artist + " - " + s.Title
}

// FormatSeconds formats seconds as m:ss or h:mm:ss.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventTrackChange:
		return "🎵"
	case EventTrackComplete:
		return "✅"
	case EventTrackSkip:
		return "⏭️"
	case EventPause:
		return "⏸️"
	case EventResume:
		return "▶️"
	case EventSeek:
		return "⏩"
	case EventSourceChange:
		return "📱"
	case EventArtworkChange:
		return "🖼️"
	case EventHelperExit:
		return "⚠️"
	case EventHelperRestart:
		return "🔄"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventTrackChange:
		return "track_change"
	case EventTrackComplete:
		return "track_complete"
	case EventTrackSkip:
		return "track_skip"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventSeek:
		return "seek"
	case EventSourceChange:
		return "source_change"
	case EventArtworkChange:
		return "artwork_change"
	case EventHelperExit:
		return "helper_exit"
	case EventHelperRestart:
		return "helper_restart"
	default:
		return "unknown"
	}
}

// String returns the event type name.
func (t EventType) String() string {
	return eventTypeName(t)
}

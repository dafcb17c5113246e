package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/cadence/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	showLyrics    bool
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

// WithLyrics enables lyric line output.
func WithLyrics(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showLyrics = enabled
	}
}

// WithTemplate sets a custom format template. An invalid template is
// ignored; check it first with ValidateTemplate.
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

// ValidateTemplate reports whether tmpl parses.
func ValidateTemplate(tmpl string) error {
	if tmpl == "" {
		return nil
	}
	_, err := template.New("format").Parse(tmpl)
	return err
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:  true,
		showLyrics: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Wants reports whether the formatter prints events of type t.
func (f *Formatter) Wants(t EventType) bool {
	switch t {
	case EventLyricLine, EventLyricsLoaded:
		return f.showLyrics
	}
	return true
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

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

func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}
	if v := e.Current; v != nil {
		data.Title = v.Title
		data.Artist = v.Artist
		data.Volume = v.Volume
		data.Position = core.FormatClock(v.Position)
		data.Duration = core.FormatClock(v.Duration)
		data.Line = v.Line()
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Title     string
	Artist    string
	Volume    int
	Position  string
	Duration  string
	Line      string
}

func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventTrackChange:
		if v := e.Current; v != nil && v.Title != "" {
			desc := fmt.Sprintf("Now playing: %s", trackLabel(v))
			if v.Duration > 0 {
				desc += fmt.Sprintf(" (%s)", core.FormatClock(v.Duration))
			}
			return desc
		}
		return "Track changed"

	case EventTrackComplete:
		if v := e.Previous; v != nil && v.Title != "" {
			return fmt.Sprintf("Finished: %s", trackLabel(v))
		}
		return "Track completed"

	case EventTrackSkip:
		if v := e.Previous; v != nil && v.Title != "" {
			return fmt.Sprintf("Skipped: %s at %s", trackLabel(v), core.FormatClock(v.Position))
		}
		return "Track skipped"

	case EventPause:
		if v := e.Current; v != nil {
			return fmt.Sprintf("Paused at %s", core.FormatClock(v.Position))
		}
		return "Paused"

	case EventResume:
		return "Resumed"

	case EventVolumeChange:
		if e.Current != nil {
			return fmt.Sprintf("Volume: %d%%", e.Current.Volume)
		}
		return "Volume changed"

	case EventSeek:
		if v := e.Current; v != nil {
			return fmt.Sprintf("Seek: %s / %s", core.FormatClock(v.Position), core.FormatClock(v.Duration))
		}
		return "Seek"

	case EventLyricsLoaded:
		if e.Current != nil {
			return fmt.Sprintf("Lyrics: %d lines", len(e.Current.Lines))
		}
		return "Lyrics loaded"

	case EventLyricLine:
		if e.Current != nil {
			return e.Current.Line()
		}
		return ""

	default:
		return "Unknown event"
	}
}

func trackLabel(v *View) string {
	if v.Artist == "" {
		return v.Title
	}
	return v.Artist + " - " + v.Title
}

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
	case EventVolumeChange:
		return "🔊"
	case EventSeek:
		return "⏩"
	case EventLyricsLoaded:
		return "📜"
	case EventLyricLine:
		return "🎤"
	default:
		return "❓"
	}
}

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
	case EventVolumeChange:
		return "volume_change"
	case EventSeek:
		return "seek"
	case EventLyricsLoaded:
		return "lyrics_loaded"
	case EventLyricLine:
		return "lyric_line"
	default:
		return "unknown"
	}
}

package core

import (
	"strings"
	"time"
)

// Source indicates where a track's audio comes from.
type Source string

const (
	SourceFile   Source = "file"
	SourceStream Source = "stream"
)

// Track represents a playable audio track.
//
// Tracks are treated as immutable values. A track change replaces the whole
// Track; use WithDuration to derive a copy once the backend knows the length.
type Track struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artists  []string      `json:"artists"`
	Album    string        `json:"album"`
	ArtRef   string        `json:"art_ref,omitempty"`
	Duration time.Duration `json:"duration"`
	Source   Source        `json:"source"`
}

// Artist returns the artist list joined for display.
func (t Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// DisplayTitle returns the title, or a placeholder when the track has none.
func (t Track) DisplayTitle() string {
	if t.Title == "" {
		return "Unknown"
	}
	return t.Title
}

// DurationSeconds returns the track length in seconds.
func (t Track) DurationSeconds() float64 {
	if t.Duration < 0 {
		return 0
	}
	return t.Duration.Seconds()
}

// WithDuration returns a copy of the track with the given duration.
func (t Track) WithDuration(d time.Duration) Track {
	if d < 0 {
		d = 0
	}
	out := t
	out.Artists = append([]string(nil), t.Artists...)
	out.Duration = d
	return out
}

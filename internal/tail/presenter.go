// Package tail turns engine output into a stream of discrete playback events
// for line-oriented consoles.
package tail

import (
	"time"

	"github.com/tessro/cadence/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventVolumeChange
	EventLyricsLoaded
	EventLyricLine
	EventSeek
)

// String returns the snake_case event name used in JSON and templates.
func (t EventType) String() string {
	return eventTypeName(t)
}

// View is what the presenter has been told so far.
type View struct {
	Title     string
	Artist    string
	Position  float64
	Duration  float64
	Paused    bool
	Volume    int
	Lines     []core.LyricLine
	Highlight int
}

// Line returns the highlighted lyric text, or "" when no line is active.
func (v *View) Line() string {
	if v == nil || v.Highlight < 0 || v.Highlight >= len(v.Lines) {
		return ""
	}
	return v.Lines[v.Highlight].Text
}

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *View
	Current   *View
}

// Presenter implements core.Presenter and emits events on a channel. Events
// are dropped when the channel is full so the engine never blocks on output.
type Presenter struct {
	events  chan Event
	view    View
	started bool
	now     func() time.Time

	// ended is set when the position snaps back to zero from the end of the
	// track. settling suppresses pause noise until the next track ticks.
	ended    bool
	settling bool
}

// NewPresenter creates a presenter with the given event buffer size.
func NewPresenter(buffer int) *Presenter {
	if buffer <= 0 {
		buffer = 16
	}
	return &Presenter{
		events: make(chan Event, buffer),
		view:   View{Highlight: core.NoLyricLine},
		now:    time.Now,
	}
}

// Events returns the channel of playback events.
func (p *Presenter) Events() <-chan Event {
	return p.events
}

// ShowPosition implements core.Presenter.
func (p *Presenter) ShowPosition(seconds float64) {
	prev := p.view
	p.view.Position = seconds
	if seconds > 0 {
		p.settling = false
	}
	if seconds == 0 && wasCompleted(&prev) {
		p.ended = true
		p.settling = true
		return
	}
	// Only jumps are interesting; steady ticks are not events.
	if d := seconds - prev.Position; p.started && (d > 2 || d < -0.5) {
		p.emit(EventSeek, &prev)
	}
}

// ShowDuration implements core.Presenter.
func (p *Presenter) ShowDuration(seconds float64) {
	p.view.Duration = seconds
}

// ShowTrackMeta implements core.Presenter.
func (p *Presenter) ShowTrackMeta(title, artist string) {
	prev := p.view
	p.view.Title = title
	p.view.Artist = artist
	p.view.Position = 0
	if title == "" && artist == "" {
		return
	}
	if !p.started {
		p.started = true
		p.settling = true
		p.emit(EventTrackChange, nil)
		return
	}

	if prev.Title != "" {
		kind := EventTrackSkip
		if p.ended || wasCompleted(&prev) {
			kind = EventTrackComplete
		}
		p.emit(kind, &prev)
	}
	p.ended = false
	p.settling = true
	p.emit(EventTrackChange, &prev)
}

// ShowPausedState implements core.Presenter.
func (p *Presenter) ShowPausedState(paused bool) {
	prev := p.view
	p.view.Paused = paused
	if prev.Paused == paused || p.view.Title == "" || p.settling {
		return
	}
	if paused {
		p.emit(EventPause, &prev)
	} else {
		p.emit(EventResume, &prev)
	}
}

// ShowVolume implements core.Presenter.
func (p *Presenter) ShowVolume(percent int) {
	prev := p.view
	p.view.Volume = percent
	if p.started && prev.Volume != percent {
		p.emit(EventVolumeChange, &prev)
	}
}

// ShowLyrics implements core.Presenter.
func (p *Presenter) ShowLyrics(lines []core.LyricLine) {
	p.view.Lines = lines
	p.view.Highlight = core.NoLyricLine
	if len(lines) > 0 {
		p.emit(EventLyricsLoaded, nil)
	}
}

// HighlightLyricLine implements core.Presenter.
func (p *Presenter) HighlightLyricLine(index int) {
	p.view.Highlight = index
	if index != core.NoLyricLine && p.view.Line() != "" {
		p.emit(EventLyricLine, nil)
	}
}

func (p *Presenter) emit(t EventType, prev *View) {
	cur := p.view
	e := Event{Type: t, Timestamp: p.now(), Previous: prev, Current: &cur}
	select {
	case p.events <- e:
	default:
		// Drop event if channel is full
	}
}

// wasCompleted returns true if the track likely completed naturally.
func wasCompleted(v *View) bool {
	if v.Duration == 0 {
		return false
	}
	return v.Position >= v.Duration*0.95
}

package engine

import (
	"math"

	"github.com/tessro/cadence/internal/core"
)

// StateListener is notified after each model mutation.
type StateListener interface {
	TrackChanged(state core.PlaybackState)
	PositionChanged(seconds float64)
	PausedChanged(paused bool)
	VolumeChanged(percent int)
}

// Model is the authoritative playback state. It is owned by the loop
// goroutine and must only be mutated from there.
type Model struct {
	state    *core.PlaybackState
	listener StateListener
}

// NewModel creates a model with no track loaded.
func NewModel(volume int, listener StateListener) *Model {
	return &Model{
		state:    &core.PlaybackState{Paused: true, Volume: ClampVolume(volume)},
		listener: listener,
	}
}

// State returns a copy of the current state.
func (m *Model) State() core.PlaybackState {
	return *m.state
}

// Duration returns the current track length in seconds.
func (m *Model) Duration() float64 {
	return m.state.Duration()
}

// SetTrack replaces the state wholesale for a new track. Position resets to
// zero and the paused flag clears; volume carries over.
func (m *Model) SetTrack(track core.Track) {
	t := track.WithDuration(track.Duration)
	m.state = &core.PlaybackState{
		Track:    &t,
		Position: 0,
		Paused:   false,
		Volume:   m.state.Volume,
	}
	m.listener.TrackChanged(*m.state)
}

// SetPosition updates the elapsed position, clamped to the track bounds.
func (m *Model) SetPosition(seconds float64) {
	pos := ClampPosition(seconds, m.state.Duration())
	m.state.Position = pos
	m.listener.PositionChanged(pos)
}

// SetPaused updates the paused flag.
func (m *Model) SetPaused(paused bool) {
	if m.state.Paused == paused {
		return
	}
	m.state.Paused = paused
	m.listener.PausedChanged(paused)
}

// SetVolume updates the volume, clamped to [0, 100].
func (m *Model) SetVolume(percent int) {
	v := ClampVolume(percent)
	if m.state.Volume == v {
		return
	}
	m.state.Volume = v
	m.listener.VolumeChanged(v)
}

// ClampPosition bounds seconds to [0, duration]. A zero duration means the
// length is unknown and only the lower bound applies.
func ClampPosition(seconds, duration float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	if duration > 0 && seconds > duration {
		return duration
	}
	return seconds
}

// ClampVolume bounds a volume to [0, 100].
func ClampVolume(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

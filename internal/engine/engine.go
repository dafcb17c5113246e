// Package engine keeps playback state, the seek control, and the lyric
// highlight consistent while transport events arrive from a backend worker.
//
// All state lives on the goroutine running the engine's loop.Guard. Every
// exported method may be called from any goroutine; it marshals onto the loop
// and returns without waiting, except Snapshot, which waits for a copy.
package engine

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/loop"
)

// Transport is the part of a playback backend the engine sends requests to.
type Transport interface {
	RequestPlay(track core.Track)
	RequestPause(paused bool)
	RequestSeek(seconds float64)
	RequestVolume(percent int)
}

// Status is a point-in-time copy of the engine state.
type Status struct {
	State      core.PlaybackState `json:"state"`
	Drag       DragState          `json:"drag"`
	Shown      float64            `json:"shown"`
	Highlight  int                `json:"highlight"`
	LyricLines int                `json:"lyric_lines"`
	Generation uint64             `json:"generation"`
}

// Engine wires the state model, drag controller and lyric orchestrator.
type Engine struct {
	guard     *loop.Guard
	transport Transport
	presenter core.Presenter
	log       zerolog.Logger
	volume    int

	model     *Model
	drag      *DragController
	orch      *Orchestrator
	highlight int

	initialized bool
	onTrack     []func(core.Track)
	onEnd       []func(core.PlaybackState)
	onVolume    []func(int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithVolume sets the volume reported before the backend reports one.
func WithVolume(percent int) Option {
	return func(e *Engine) {
		e.volume = percent
	}
}

// WithTrackListener registers fn to run on the loop after each track change.
func WithTrackListener(fn func(core.Track)) Option {
	return func(e *Engine) {
		e.onTrack = append(e.onTrack, fn)
	}
}

// WithEndListener registers fn to run on the loop when a track ends. It
// receives the state as it was just before the end was applied.
func WithEndListener(fn func(core.PlaybackState)) Option {
	return func(e *Engine) {
		e.onEnd = append(e.onEnd, fn)
	}
}

// WithVolumeListener registers fn to run on the loop after each user volume
// change, with the clamped value. Volumes reported by the backend are not
// passed on.
func WithVolumeListener(fn func(int)) Option {
	return func(e *Engine) {
		e.onVolume = append(e.onVolume, fn)
	}
}

// New creates an engine. The guard's Run must be started by the caller;
// catalog may be nil, in which case no lyrics are ever loaded.
func New(guard *loop.Guard, transport Transport, catalog core.LyricCatalog, presenter core.Presenter, opts ...Option) *Engine {
	e := &Engine{
		guard:     guard,
		transport: transport,
		presenter: presenter,
		log:       zerolog.Nop(),
		volume:    100,
		highlight: core.NoLyricLine,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.presenter == nil {
		e.presenter = MultiPresenter()
	}

	e.model = NewModel(e.volume, e)
	e.drag = NewDragController(e.presenter.ShowPosition, e.commitSeek)
	e.orch = NewOrchestrator(guard, catalog, e.drag, e.lyricsLoaded, e.log)
	return e
}

// Initialize pushes the current state to the presenter and the starting
// volume to the backend. Only the first call has an effect.
func (e *Engine) Initialize() {
	e.guard.Submit(func() {
		if e.initialized {
			return
		}
		e.initialized = true

		st := e.model.State()
		if st.Track != nil {
			e.presenter.ShowTrackMeta(st.Track.DisplayTitle(), st.Track.Artist())
		} else {
			e.presenter.ShowTrackMeta("", "")
		}
		e.presenter.ShowDuration(st.Duration())
		e.presenter.ShowPausedState(st.Paused)
		e.presenter.ShowVolume(st.Volume)
		e.presenter.ShowLyrics(e.orch.Timeline().Lines())
		e.drag.Forward(st.Position)
		e.presenter.HighlightLyricLine(e.highlight)
		e.transport.RequestVolume(st.Volume)
	})
}

// Close abandons any in-flight lyric request.
func (e *Engine) Close() {
	e.guard.Submit(e.orch.Stop)
}

// Snapshot returns a copy of the engine state, taken on the loop.
func (e *Engine) Snapshot(ctx context.Context) (Status, error) {
	var s Status
	err := e.guard.Call(ctx, func() {
		s = Status{
			State:      e.model.State(),
			Drag:       e.drag.State(),
			Shown:      e.drag.Shown(),
			Highlight:  e.highlight,
			LyricLines: e.orch.Timeline().Len(),
			Generation: e.orch.Generation(),
		}
	})
	return s, err
}

// Lyrics returns a copy of the installed lyric lines.
func (e *Engine) Lyrics(ctx context.Context) ([]core.LyricLine, error) {
	var lines []core.LyricLine
	err := e.guard.Call(ctx, func() {
		lines = e.orch.Timeline().Lines()
	})
	return lines, err
}

// Backend events. These are the entry points for the backend worker.

// OnPositionTick reports the backend's playback position.
func (e *Engine) OnPositionTick(seconds float64) {
	e.guard.Submit(func() {
		e.model.SetPosition(seconds)
	})
}

// OnTrackChanged reports that the backend started a new track.
func (e *Engine) OnTrackChanged(track core.Track) {
	e.guard.Submit(func() {
		e.model.SetTrack(track)
	})
}

// OnPausedChanged reports a pause or resume.
func (e *Engine) OnPausedChanged(paused bool) {
	e.guard.Submit(func() {
		e.model.SetPaused(paused)
	})
}

// OnVolumeChanged reports the backend volume.
func (e *Engine) OnVolumeChanged(percent int) {
	e.guard.Submit(func() {
		e.model.SetVolume(percent)
	})
}

// OnTrackEnded reports that the current track played to the end.
func (e *Engine) OnTrackEnded() {
	e.guard.Submit(func() {
		prev := e.model.State()
		e.model.SetPosition(0)
		e.model.SetPaused(true)
		for _, fn := range e.onEnd {
			fn(prev)
		}
	})
}

// Presentation input.

// UserDragStart opens a drag session on the seek control.
func (e *Engine) UserDragStart() {
	e.guard.Submit(func() {
		if !e.drag.Start() {
			e.log.Debug().Msg("drag start ignored: drag already in progress")
		}
	})
}

// UserDragMove updates the value under the user's pointer.
func (e *Engine) UserDragMove(seconds float64) {
	e.guard.Submit(func() {
		v := ClampPosition(seconds, e.model.Duration())
		if !e.drag.Move(v) {
			e.log.Debug().Float64("value", seconds).Msg("drag move ignored: no drag in progress")
		}
	})
}

// UserDragRelease ends the drag and seeks to the last moved value.
func (e *Engine) UserDragRelease() {
	e.guard.Submit(func() {
		if !e.drag.Release() {
			e.log.Debug().Msg("drag release ignored: no drag in progress")
		}
	})
}

// UserDragCancel abandons the drag without seeking.
func (e *Engine) UserDragCancel() {
	e.guard.Submit(func() {
		if !e.drag.Cancel(e.model.State().Position) {
			e.log.Debug().Msg("drag cancel ignored: no drag in progress")
		}
	})
}

// UserSeek seeks directly, without a drag session.
func (e *Engine) UserSeek(seconds float64) {
	e.guard.Submit(func() {
		if e.drag.Dragging() {
			e.log.Debug().Float64("value", seconds).Msg("seek ignored: drag in progress")
			return
		}
		e.commitSeek(ClampPosition(seconds, e.model.Duration()))
	})
}

// UserRequestsTrackSwitch asks the backend to play track. The engine state
// changes once the backend reports the switch.
func (e *Engine) UserRequestsTrackSwitch(track core.Track) {
	e.guard.Submit(func() {
		e.transport.RequestPlay(track)
	})
}

// UserSetVolume sets the volume locally and on the backend.
func (e *Engine) UserSetVolume(percent int) {
	e.guard.Submit(func() {
		e.model.SetVolume(percent)
		v := e.model.State().Volume
		e.transport.RequestVolume(v)
		for _, fn := range e.onVolume {
			fn(v)
		}
	})
}

// UserTogglePause asks the backend to pause or resume.
func (e *Engine) UserTogglePause() {
	e.guard.Submit(func() {
		st := e.model.State()
		if !st.HasTrack() {
			e.log.Debug().Msg("pause toggle ignored: no track")
			return
		}
		e.transport.RequestPause(!st.Paused)
	})
}

// StateListener implementation; runs on the loop.

// TrackChanged implements StateListener.
func (e *Engine) TrackChanged(st core.PlaybackState) {
	e.orch.Switch(*st.Track)

	e.presenter.ShowTrackMeta(st.Track.DisplayTitle(), st.Track.Artist())
	e.presenter.ShowDuration(st.Duration())
	e.presenter.ShowPausedState(st.Paused)
	e.presenter.ShowLyrics(nil)
	e.drag.Forward(st.Position)
	e.setHighlight(core.NoLyricLine)

	e.log.Info().
		Str("track", st.Track.ID).
		Str("title", st.Track.Title).
		Float64("duration", st.Duration()).
		Msg("track changed")

	for _, fn := range e.onTrack {
		fn(*st.Track)
	}
}

// PositionChanged implements StateListener.
func (e *Engine) PositionChanged(seconds float64) {
	e.drag.Forward(seconds)
	e.updateHighlight(seconds)
}

// PausedChanged implements StateListener.
func (e *Engine) PausedChanged(paused bool) {
	e.presenter.ShowPausedState(paused)
}

// VolumeChanged implements StateListener.
func (e *Engine) VolumeChanged(percent int) {
	e.presenter.ShowVolume(percent)
}

func (e *Engine) commitSeek(seconds float64) {
	e.model.SetPosition(seconds)
	e.transport.RequestSeek(e.model.State().Position)
}

func (e *Engine) lyricsLoaded(tl *Timeline) {
	e.presenter.ShowLyrics(tl.Lines())
	e.highlight = core.NoLyricLine
	if tl.Len() > 0 {
		e.updateHighlight(e.model.State().Position)
		return
	}
	e.presenter.HighlightLyricLine(core.NoLyricLine)
}

func (e *Engine) updateHighlight(seconds float64) {
	tl := e.orch.Timeline()
	if last, ok := tl.LastQueried(); ok && seconds < last {
		tl.Reset()
	}
	idx, ok := tl.ActiveIndex(seconds)
	if !ok {
		idx = core.NoLyricLine
	}
	e.setHighlight(idx)
}

func (e *Engine) setHighlight(idx int) {
	if idx == e.highlight {
		return
	}
	e.highlight = idx
	e.presenter.HighlightLyricLine(idx)
}

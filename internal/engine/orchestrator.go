package engine

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/loop"
)

// Orchestrator owns the current lyric timeline and replaces it on every
// track switch. Lyric requests run off the loop; their results re-enter
// through the guard and are dropped if another switch happened meanwhile.
type Orchestrator struct {
	guard    *loop.Guard
	catalog  core.LyricCatalog
	drag     *DragController
	onLoad   func(*Timeline)
	log      zerolog.Logger
	base     context.Context
	stop     context.CancelFunc
	timeline *Timeline
	gen      uint64
	cancel   context.CancelFunc
}

// NewOrchestrator creates an orchestrator. onLoad runs on the loop goroutine
// whenever a fetched timeline is installed.
func NewOrchestrator(guard *loop.Guard, catalog core.LyricCatalog, drag *DragController, onLoad func(*Timeline), log zerolog.Logger) *Orchestrator {
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		guard:    guard,
		catalog:  catalog,
		drag:     drag,
		onLoad:   onLoad,
		log:      log,
		base:     base,
		stop:     stop,
		timeline: EmptyTimeline(),
	}
}

// Timeline returns the installed timeline.
func (o *Orchestrator) Timeline() *Timeline {
	return o.timeline
}

// Generation returns the number of switches so far.
func (o *Orchestrator) Generation() uint64 {
	return o.gen
}

// Switch starts the lyric load for a new track. Any earlier request becomes
// stale, the installed timeline is emptied until the new lines arrive, and a
// drag in progress is dropped.
func (o *Orchestrator) Switch(track core.Track) {
	o.gen++
	gen := o.gen
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	o.timeline = EmptyTimeline()

	if o.catalog != nil {
		ctx, cancel := context.WithCancel(o.base)
		o.cancel = cancel
		go func() {
			lines, err := o.catalog.FetchLyrics(ctx, track)
			o.guard.Submit(func() {
				o.complete(gen, track, lines, err)
			})
		}()
	}

	o.drag.Reset()
}

// Stop cancels any in-flight request. Results that still arrive are dropped.
func (o *Orchestrator) Stop() {
	o.gen++
	o.stop()
}

func (o *Orchestrator) complete(gen uint64, track core.Track, lines []core.LyricLine, err error) {
	if gen != o.gen {
		o.log.Debug().
			Str("track", track.ID).
			Uint64("generation", gen).
			Uint64("current", o.gen).
			Msg("discarding stale lyrics")
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	switch {
	case errors.Is(err, errors.ErrLyricsNotFound):
		o.log.Debug().Str("track", track.ID).Msg("no lyrics for track")
		lines = nil
	case err != nil:
		o.log.Warn().Err(err).Str("track", track.ID).Msg("lyrics unavailable")
		lines = nil
	}

	o.timeline = NewTimeline(lines)
	o.log.Debug().Str("track", track.ID).Int("lines", o.timeline.Len()).Msg("lyrics installed")
	o.onLoad(o.timeline)
}

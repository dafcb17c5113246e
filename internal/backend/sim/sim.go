// Package sim is a playback backend that plays nothing. A worker goroutine
// advances a virtual position on a ticker and reports it like a real
// backend would.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

const requestQueueSize = 128

type state struct {
	track   *core.Track
	pos     float64
	paused  bool
	volume  int
	playing bool
}

// Backend is a simulated playback backend.
type Backend struct {
	tick time.Duration
	rate float64
	log  zerolog.Logger

	reqs   chan func(*state, core.EventSink)
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithTickInterval sets how often the position is reported.
func WithTickInterval(d time.Duration) Option {
	return func(b *Backend) {
		b.tick = d
	}
}

// WithRate makes virtual time run faster than wall time.
func WithRate(r float64) Option {
	return func(b *Backend) {
		b.rate = r
	}
}

// WithLogger sets the backend logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// New creates a simulated backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		tick: 250 * time.Millisecond,
		rate: 1,
		log:  zerolog.Nop(),
		reqs: make(chan func(*state, core.EventSink), requestQueueSize),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start implements core.Backend.
func (b *Backend) Start(ctx context.Context, sink core.EventSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.ErrBackendClosed
	}
	if b.done != nil {
		return errors.New("sim backend already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.run(ctx, sink)
	return nil
}

func (b *Backend) run(ctx context.Context, sink core.EventSink) {
	defer close(b.done)

	st := &state{paused: true, volume: 100}
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		// Only the ticker advances the clock; a seek moves pos, not last.
		case req := <-b.reqs:
			req(st, sink)

		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds() * b.rate
			last = now
			if !st.playing || st.paused {
				continue
			}

			st.pos += elapsed
			if d := st.track.DurationSeconds(); d > 0 && st.pos >= d {
				st.pos = d
				st.playing = false
				st.paused = true
				sink.OnPositionTick(d)
				b.log.Debug().Str("track", st.track.ID).Msg("sim track ended")
				sink.OnTrackEnded()
				continue
			}
			sink.OnPositionTick(st.pos)
		}
	}
}

func (b *Backend) enqueue(req func(*state, core.EventSink)) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		b.log.Debug().Err(errors.ErrBackendClosed).Msg("dropping sim request")
		return
	}
	select {
	case b.reqs <- req:
	default:
		b.log.Warn().Msg("sim request queue full, dropping")
	}
}

// RequestPlay implements core.Backend.
func (b *Backend) RequestPlay(track core.Track) {
	b.enqueue(func(st *state, sink core.EventSink) {
		st.track = &track
		st.pos = 0
		st.playing = true
		sink.OnTrackChanged(track)
		if st.paused {
			st.paused = false
			sink.OnPausedChanged(false)
		}
	})
}

// RequestPause implements core.Backend.
func (b *Backend) RequestPause(paused bool) {
	b.enqueue(func(st *state, sink core.EventSink) {
		if st.track == nil || st.paused == paused {
			return
		}
		st.paused = paused
		if !paused && !st.playing {
			// resume after the end restarts the track
			st.pos = 0
			st.playing = true
		}
		sink.OnPausedChanged(paused)
	})
}

// RequestSeek implements core.Backend.
func (b *Backend) RequestSeek(seconds float64) {
	b.enqueue(func(st *state, sink core.EventSink) {
		if st.track == nil {
			return
		}
		if seconds < 0 {
			seconds = 0
		}
		if d := st.track.DurationSeconds(); d > 0 && seconds > d {
			seconds = d
		}
		st.pos = seconds
		sink.OnPositionTick(seconds)
	})
}

// RequestVolume implements core.Backend.
func (b *Backend) RequestVolume(percent int) {
	b.enqueue(func(st *state, sink core.EventSink) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if st.volume == percent {
			return
		}
		st.volume = percent
		sink.OnVolumeChanged(percent)
	})
}

// Close implements core.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.closed = true
	b.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

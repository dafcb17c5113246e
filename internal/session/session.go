// Package session runs a playback session: one engine, one backend, a queue
// that advances when tracks end, and an optional play history.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine"
	"github.com/tessro/cadence/internal/loop"
)

// History records played tracks and where to resume them.
type History interface {
	AddToHistory(track core.Track) error
	UpdateResume(trackID string, position float64) error
	Resume(trackID string) (float64, bool, error)
}

// Preferences remembers settings the user changes during playback.
type Preferences interface {
	SaveVolume(percent int) error
}

// Session owns the loop goroutine shared by the engine and the queue.
type Session struct {
	guard   *loop.Guard
	engine  *engine.Engine
	backend core.Backend
	log     zerolog.Logger

	history History
	prefs   Preferences
	resume  bool
	writes  chan func()
	wg      sync.WaitGroup

	// loop-owned
	queue   core.Queue
	current *core.Track
}

// Option configures a Session.
type Option func(*Session)

// WithHistory records every started track in h.
func WithHistory(h History) Option {
	return func(s *Session) {
		s.history = h
	}
}

// WithPreferences saves each volume the user picks to p.
func WithPreferences(p Preferences) Option {
	return func(s *Session) {
		s.prefs = p
	}
}

// WithResume seeks each track to its stored resume position when it starts.
func WithResume(enabled bool) Option {
	return func(s *Session) {
		s.resume = enabled
	}
}

// WithRepeat sets the initial repeat mode.
func WithRepeat(mode core.RepeatMode) Option {
	return func(s *Session) {
		s.queue.Repeat = mode
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// New creates a session. engineOpts are passed through to the engine.
func New(backend core.Backend, catalog core.LyricCatalog, presenter core.Presenter, opts []Option, engineOpts ...engine.Option) *Session {
	s := &Session{
		backend: backend,
		log:     zerolog.Nop(),
		writes:  make(chan func(), 64),
		queue:   core.Queue{Repeat: core.RepeatOff},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.guard = loop.New(loop.WithLogger(s.log))
	engineOpts = append([]engine.Option{
		engine.WithLogger(s.log),
		engine.WithTrackListener(s.trackStarted),
		engine.WithEndListener(s.trackEnded),
	}, engineOpts...)
	if s.prefs != nil {
		engineOpts = append(engineOpts, engine.WithVolumeListener(s.volumeChanged))
	}
	s.engine = engine.New(s.guard, backend, catalog, presenter, engineOpts...)
	return s
}

// Engine returns the session's engine, for presentation input.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Run starts the backend and runs the loop until ctx is cancelled. The
// current position is saved to the history before Run returns.
func (s *Session) Run(ctx context.Context) error {
	if err := s.backend.Start(ctx, s.engine); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.writeHistory()

	// The loop outlives ctx by one operation so the final state is saved
	// from the loop goroutine.
	loopCtx, stop := context.WithCancel(context.Background())
	go func() {
		<-ctx.Done()
		s.guard.Submit(func() {
			s.saveResume()
			s.engine.Close()
		})
		stop()
	}()

	s.engine.Initialize()
	err := s.guard.Run(loopCtx)

	close(s.writes)
	s.wg.Wait()

	if cerr := s.backend.Close(); cerr != nil {
		s.log.Warn().Err(cerr).Msg("backend close failed")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Play replaces the queue with tracks and starts playing tracks[start].
func (s *Session) Play(tracks []core.Track, start int) {
	s.guard.Submit(func() {
		s.queue.Tracks = append([]core.Track(nil), tracks...)
		s.queue.CurrentIndex = start
		if t := s.queue.Current(); t != nil {
			s.engine.UserRequestsTrackSwitch(*t)
		}
	})
}

// Next skips to the next queued track.
func (s *Session) Next() {
	s.guard.Submit(func() {
		if t := s.queue.Next(); t != nil {
			s.saveResume()
			s.engine.UserRequestsTrackSwitch(*t)
		}
	})
}

// Prev skips to the previous queued track.
func (s *Session) Prev() {
	s.guard.Submit(func() {
		if t := s.queue.Prev(); t != nil {
			s.saveResume()
			s.engine.UserRequestsTrackSwitch(*t)
		}
	})
}

// SetRepeat changes the repeat mode.
func (s *Session) SetRepeat(mode core.RepeatMode) {
	s.guard.Submit(func() {
		s.queue.Repeat = mode
	})
}

// Queue returns a copy of the queue.
func (s *Session) Queue(ctx context.Context) (core.Queue, error) {
	var q core.Queue
	err := s.guard.Call(ctx, func() {
		q = core.Queue{
			Tracks:       append([]core.Track(nil), s.queue.Tracks...),
			CurrentIndex: s.queue.CurrentIndex,
			Repeat:       s.queue.Repeat,
		}
	})
	return q, err
}

func (s *Session) trackStarted(t core.Track) {
	s.current = &t
	for i := range s.queue.Tracks {
		if s.queue.Tracks[i].ID == t.ID {
			s.queue.CurrentIndex = i
			break
		}
	}

	if s.history == nil {
		return
	}
	s.write(func() {
		if s.resume {
			s.lookupResume(t.ID)
		}
		if err := s.history.AddToHistory(t); err != nil {
			s.log.Warn().Err(err).Str("track", t.ID).Msg("failed to record history")
		}
	})
}

// lookupResume reads the stored position of id on the writer goroutine and
// seeks there from the loop, unless another track has started meanwhile.
func (s *Session) lookupResume(id string) {
	pos, ok, err := s.history.Resume(id)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("track", id).Msg("failed to read resume position")
		return
	case !ok || pos <= 0:
		return
	}
	s.guard.Submit(func() {
		if s.current == nil || s.current.ID != id {
			return
		}
		s.log.Debug().Str("track", id).Float64("position", pos).Msg("resuming")
		s.engine.UserSeek(pos)
	})
}

func (s *Session) trackEnded(prev core.PlaybackState) {
	if prev.HasTrack() && s.history != nil {
		id := prev.Track.ID
		s.write(func() {
			if err := s.history.UpdateResume(id, 0); err != nil {
				s.log.Warn().Err(err).Str("track", id).Msg("failed to reset resume position")
			}
		})
	}

	next := s.queue.Advance()
	if next == nil {
		s.log.Info().Msg("queue finished")
		return
	}
	s.engine.UserRequestsTrackSwitch(*next)
}

// saveResume queues the current position for the history. Runs on the loop.
func (s *Session) saveResume() {
	if s.history == nil || s.current == nil {
		return
	}
	st, err := s.engine.Snapshot(context.Background())
	if err != nil || !st.State.HasTrack() {
		return
	}
	id, pos := st.State.Track.ID, st.State.Position
	s.write(func() {
		if err := s.history.UpdateResume(id, pos); err != nil {
			s.log.Warn().Err(err).Str("track", id).Msg("failed to save resume position")
		}
	})
}

func (s *Session) volumeChanged(percent int) {
	s.write(func() {
		if err := s.prefs.SaveVolume(percent); err != nil {
			s.log.Warn().Err(err).Int("volume", percent).Msg("failed to save volume")
		}
	})
}

func (s *Session) write(fn func()) {
	select {
	case s.writes <- fn:
	default:
		s.log.Warn().Msg("write queue full, dropping write")
	}
}

func (s *Session) writeHistory() {
	defer s.wg.Done()
	for fn := range s.writes {
		fn()
	}
}

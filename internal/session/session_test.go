package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tessro/cadence/internal/backend/sim"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine"
	"github.com/tessro/cadence/internal/storage"
)

type memHistory struct {
	mu     sync.Mutex
	adds   []string
	resume map[string]float64
}

func newMemHistory() *memHistory {
	return &memHistory{resume: map[string]float64{}}
}

func (h *memHistory) AddToHistory(t core.Track) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.adds = append(h.adds, t.ID)
	return nil
}

func (h *memHistory) UpdateResume(id string, pos float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resume[id] = pos
	return nil
}

func (h *memHistory) Resume(id string) (float64, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos, ok := h.resume[id]
	return pos, ok, nil
}

func (h *memHistory) added() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.adds...)
}

func (h *memHistory) resumeAt(id string) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos, ok := h.resume[id]
	return pos, ok
}

func runSession(t *testing.T, s *Session) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			stop()
			require.NoError(t, <-done)
		})
	}
	t.Cleanup(cancel)
	return cancel
}

func snapshot(s *Session) core.PlaybackState {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, _ := s.Engine().Snapshot(ctx)
	return st.State
}

func fastSim() *sim.Backend {
	return sim.New(sim.WithTickInterval(2*time.Millisecond), sim.WithRate(50))
}

func TestAutoAdvance(t *testing.T) {
	hist := newMemHistory()
	s := New(fastSim(), nil, nil, []Option{WithHistory(hist)})
	runSession(t, s)

	s.Play([]core.Track{
		{ID: "a", Duration: 300 * time.Millisecond},
		{ID: "b", Duration: 300 * time.Millisecond},
	}, 0)

	require.Eventually(t, func() bool {
		st := snapshot(s)
		return st.HasTrack() && st.Track.ID == "b" && st.Paused
	}, 3*time.Second, 5*time.Millisecond, "queue stops after the last track")

	require.Eventually(t, func() bool {
		return len(hist.added()) == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"a", "b"}, hist.added())

	pos, ok := hist.resumeAt("a")
	require.True(t, ok)
	require.Zero(t, pos, "finished tracks resume from the start")
}

func TestRepeatOne(t *testing.T) {
	hist := newMemHistory()
	s := New(fastSim(), nil, nil, []Option{WithHistory(hist), WithRepeat(core.RepeatOne)})
	runSession(t, s)

	s.Play([]core.Track{{ID: "a", Duration: 200 * time.Millisecond}, {ID: "b", Duration: time.Minute}}, 0)

	require.Eventually(t, func() bool {
		return len(hist.added()) >= 3
	}, 3*time.Second, 5*time.Millisecond)
	for _, id := range hist.added() {
		require.Equal(t, "a", id)
	}
}

func TestNextPrev(t *testing.T) {
	s := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, nil)
	runSession(t, s)

	tracks := []core.Track{{ID: "a", Duration: time.Minute}, {ID: "b", Duration: time.Minute}, {ID: "c", Duration: time.Minute}}
	s.Play(tracks, 1)
	require.Eventually(t, func() bool {
		st := snapshot(s)
		return st.HasTrack() && st.Track.ID == "b"
	}, 2*time.Second, 5*time.Millisecond)

	s.Next()
	require.Eventually(t, func() bool { return snapshot(s).Track.ID == "c" }, 2*time.Second, 5*time.Millisecond)

	s.Next()
	require.Eventually(t, func() bool { return snapshot(s).Track.ID == "a" }, 2*time.Second, 5*time.Millisecond, "next wraps")

	s.Prev()
	require.Eventually(t, func() bool { return snapshot(s).Track.ID == "c" }, 2*time.Second, 5*time.Millisecond, "prev wraps")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q, err := s.Queue(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, q.CurrentIndex)
	require.Len(t, q.Tracks, 3)
}

func TestResume(t *testing.T) {
	hist := newMemHistory()
	hist.resume["a"] = 20
	s := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, []Option{WithHistory(hist), WithResume(true)})
	stop := runSession(t, s)

	s.Play([]core.Track{{ID: "a", Duration: time.Minute}}, 0)
	require.Eventually(t, func() bool {
		st := snapshot(s)
		return st.HasTrack() && st.Position >= 20
	}, 2*time.Second, 5*time.Millisecond)

	stop()
	pos, _ := hist.resumeAt("a")
	require.GreaterOrEqual(t, pos, 20.0, "position is saved on shutdown")
}

// gatedHistory holds Resume lookups until released.
type gatedHistory struct {
	*memHistory
	gate    chan struct{}
	release func()
}

func newGatedHistory() *gatedHistory {
	h := &gatedHistory{memHistory: newMemHistory(), gate: make(chan struct{})}
	var once sync.Once
	h.release = func() { once.Do(func() { close(h.gate) }) }
	return h
}

func (h *gatedHistory) Resume(id string) (float64, bool, error) {
	<-h.gate
	return h.memHistory.Resume(id)
}

func TestResumeLookupDoesNotBlockLoop(t *testing.T) {
	hist := newGatedHistory()
	hist.resume["a"] = 20
	s := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, []Option{WithHistory(hist), WithResume(true)})
	runSession(t, s)
	t.Cleanup(hist.release)

	s.Play([]core.Track{{ID: "a", Duration: time.Minute}}, 0)
	require.Eventually(t, func() bool {
		st := snapshot(s)
		return st.HasTrack() && st.Track.ID == "a"
	}, 2*time.Second, 5*time.Millisecond, "loop keeps running while the lookup waits")
	require.Less(t, snapshot(s).Position, 20.0)

	hist.release()
	require.Eventually(t, func() bool {
		return snapshot(s).Position >= 20
	}, 2*time.Second, 5*time.Millisecond)
}

func TestResumeSkippedAfterTrackSwitch(t *testing.T) {
	hist := newGatedHistory()
	hist.resume["a"] = 20
	s := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, []Option{WithHistory(hist), WithResume(true)})
	runSession(t, s)
	t.Cleanup(hist.release)

	s.Play([]core.Track{{ID: "a", Duration: time.Minute}, {ID: "b", Duration: time.Minute}}, 0)
	require.Eventually(t, func() bool {
		st := snapshot(s)
		return st.HasTrack() && st.Track.ID == "a"
	}, 2*time.Second, 5*time.Millisecond)

	s.Next()
	require.Eventually(t, func() bool { return snapshot(s).Track.ID == "b" }, 2*time.Second, 5*time.Millisecond)

	hist.release()
	time.Sleep(50 * time.Millisecond)
	st := snapshot(s)
	require.Equal(t, "b", st.Track.ID)
	require.Less(t, st.Position, 20.0, "a's resume position is not applied to b")
}

func TestResumeAcrossSessions(t *testing.T) {
	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "cadence.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	tracks := []core.Track{{ID: "a", Duration: time.Minute}}

	first := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, []Option{WithHistory(store), WithResume(true)})
	stop := runSession(t, first)
	first.Play(tracks, 0)
	require.Eventually(t, func() bool { st := snapshot(first); return st.HasTrack() }, 2*time.Second, 5*time.Millisecond)
	first.Engine().UserSeek(25)
	require.Eventually(t, func() bool { return snapshot(first).Position >= 25 }, 2*time.Second, 5*time.Millisecond)
	stop()

	saved, ok, err := store.Resume("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.GreaterOrEqual(t, saved, 25.0)

	second := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, []Option{WithHistory(store), WithResume(true)})
	runSession(t, second)
	second.Play(tracks, 0)
	require.Eventually(t, func() bool {
		st := snapshot(second)
		return st.HasTrack() && st.Position >= saved
	}, 2*time.Second, 5*time.Millisecond)

	history, err := store.History(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

// volumeSpy records the volumes requested from the backend.
type volumeSpy struct {
	*sim.Backend
	mu   sync.Mutex
	vols []int
}

func (b *volumeSpy) RequestVolume(percent int) {
	b.mu.Lock()
	b.vols = append(b.vols, percent)
	b.mu.Unlock()
	b.Backend.RequestVolume(percent)
}

func (b *volumeSpy) requested() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.vols...)
}

type memPrefs struct {
	mu   sync.Mutex
	vols []int
}

func (p *memPrefs) SaveVolume(percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vols = append(p.vols, percent)
	return nil
}

func (p *memPrefs) saved() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.vols...)
}

func TestVolumeReachesBackendAndIsSaved(t *testing.T) {
	backend := &volumeSpy{Backend: sim.New(sim.WithTickInterval(5 * time.Millisecond))}
	prefs := &memPrefs{}
	s := New(backend, nil, nil, []Option{WithPreferences(prefs)}, engine.WithVolume(40))
	runSession(t, s)

	require.Eventually(t, func() bool {
		return len(backend.requested()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []int{40}, backend.requested(), "configured volume is sent at startup")
	require.Empty(t, prefs.saved(), "the starting volume is not a user choice")

	s.Engine().UserSetVolume(130)
	require.Eventually(t, func() bool {
		return len(prefs.saved()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []int{100}, prefs.saved())
	require.Equal(t, []int{40, 100}, backend.requested())
	require.Equal(t, 100, snapshot(s).Volume)
}

func TestVolumeSavedToBoltStore(t *testing.T) {
	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "cadence.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, []Option{WithPreferences(store)})
	stop := runSession(t, s)
	s.Engine().UserSetVolume(35)
	require.Eventually(t, func() bool { return snapshot(s).Volume == 35 }, 2*time.Second, 5*time.Millisecond)
	stop()

	v, ok, err := store.Volume()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 35, v)
}

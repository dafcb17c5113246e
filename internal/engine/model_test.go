package engine

import (
	"math"
	"testing"
	"time"

	"github.com/tessro/cadence/internal/core"
)

type modelListener struct {
	tracks    []core.PlaybackState
	positions []float64
	paused    []bool
	volumes   []int
}

func (l *modelListener) TrackChanged(s core.PlaybackState) { l.tracks = append(l.tracks, s) }
func (l *modelListener) PositionChanged(v float64)         { l.positions = append(l.positions, v) }
func (l *modelListener) PausedChanged(p bool)              { l.paused = append(l.paused, p) }
func (l *modelListener) VolumeChanged(v int)               { l.volumes = append(l.volumes, v) }

func TestClampPosition(t *testing.T) {
	tests := []struct {
		seconds, duration, want float64
	}{
		{10, 100, 10},
		{-1, 100, 0},
		{150, 100, 100},
		{150, 0, 150},
		{math.NaN(), 100, 0},
		{100, 100, 100},
	}
	for _, tt := range tests {
		if got := ClampPosition(tt.seconds, tt.duration); got != tt.want {
			t.Errorf("ClampPosition(%v, %v) = %v, want %v", tt.seconds, tt.duration, got, tt.want)
		}
	}
}

func TestClampVolume(t *testing.T) {
	tests := map[int]int{-5: 0, 0: 0, 42: 42, 100: 100, 150: 100}
	for in, want := range tests {
		if got := ClampVolume(in); got != want {
			t.Errorf("ClampVolume(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestModelSetTrack(t *testing.T) {
	l := &modelListener{}
	m := NewModel(70, l)

	if st := m.State(); !st.Paused || st.HasTrack() {
		t.Fatalf("initial state = %+v", st)
	}

	m.SetPosition(12)
	m.SetTrack(core.Track{ID: "t1", Duration: 3 * time.Minute})

	st := m.State()
	if st.Position != 0 || st.Paused || st.Volume != 70 {
		t.Errorf("state after SetTrack = %+v", st)
	}
	if m.Duration() != 180 {
		t.Errorf("Duration() = %v, want 180", m.Duration())
	}
	if len(l.tracks) != 1 || l.tracks[0].Track.ID != "t1" {
		t.Errorf("track notifications = %+v", l.tracks)
	}
}

func TestModelSetPositionIdempotent(t *testing.T) {
	l := &modelListener{}
	m := NewModel(100, l)
	m.SetTrack(core.Track{Duration: 100 * time.Second})

	m.SetPosition(42)
	m.SetPosition(42)
	m.SetPosition(500)

	if m.State().Position != 100 {
		t.Errorf("Position = %v, want 100", m.State().Position)
	}
	want := []float64{42, 42, 100}
	if len(l.positions) != len(want) {
		t.Fatalf("positions = %v, want %v", l.positions, want)
	}
	for i := range want {
		if l.positions[i] != want[i] {
			t.Errorf("positions[%d] = %v, want %v", i, l.positions[i], want[i])
		}
	}
}

func TestModelNotifiesOnChangeOnly(t *testing.T) {
	l := &modelListener{}
	m := NewModel(50, l)

	m.SetPaused(true)
	m.SetPaused(false)
	m.SetPaused(false)
	m.SetVolume(50)
	m.SetVolume(150)
	m.SetVolume(200)

	if len(l.paused) != 1 || l.paused[0] {
		t.Errorf("paused notifications = %v", l.paused)
	}
	if len(l.volumes) != 1 || l.volumes[0] != 100 {
		t.Errorf("volume notifications = %v", l.volumes)
	}
}

func TestModelStateIsCopy(t *testing.T) {
	m := NewModel(100, &modelListener{})
	st := m.State()
	st.Volume = 1
	if m.State().Volume != 100 {
		t.Error("State() returned shared storage")
	}
}

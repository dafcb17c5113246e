package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tessro/cadence/internal/backend/sim"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine"
	"github.com/tessro/cadence/internal/session"
)

func startConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	sess := session.New(sim.New(sim.WithTickInterval(5*time.Millisecond)), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	sess.Play([]core.Track{
		{ID: "a", Title: "Alpha", Artists: []string{"Band"}, Duration: time.Minute},
		{ID: "b", Title: "Beta", Duration: time.Minute},
	}, 0)

	var out bytes.Buffer
	c := newConsole(sess, &out)
	require.Eventually(t, func() bool {
		st := consoleStatus(t, c)
		return st.State.HasTrack() && !st.State.Paused
	}, 2*time.Second, 5*time.Millisecond)
	return c, &out
}

func consoleStatus(t *testing.T, c *console) engine.Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := c.eng.Snapshot(ctx)
	require.NoError(t, err)
	return st
}

func execLine(t *testing.T, c *console, line string) bool {
	t.Helper()
	quit, err := c.exec(context.Background(), line)
	require.NoError(t, err, line)
	return quit
}

func TestConsolePlaybackCommands(t *testing.T) {
	c, _ := startConsole(t)

	execLine(t, c, "seek 0:30")
	require.Eventually(t, func() bool {
		return consoleStatus(t, c).State.Position >= 30
	}, time.Second, 5*time.Millisecond)

	execLine(t, c, "vol 40")
	require.Eventually(t, func() bool {
		return consoleStatus(t, c).State.Volume == 40
	}, time.Second, 5*time.Millisecond)

	execLine(t, c, "pause")
	require.Eventually(t, func() bool {
		return consoleStatus(t, c).State.Paused
	}, time.Second, 5*time.Millisecond)

	// pausing twice leaves playback paused
	execLine(t, c, "pause")
	time.Sleep(20 * time.Millisecond)
	require.True(t, consoleStatus(t, c).State.Paused)

	execLine(t, c, "resume")
	require.Eventually(t, func() bool {
		return !consoleStatus(t, c).State.Paused
	}, time.Second, 5*time.Millisecond)
}

func TestConsoleDrag(t *testing.T) {
	c, _ := startConsole(t)

	execLine(t, c, "drag")
	execLine(t, c, "move 45")
	st := consoleStatus(t, c)
	require.Equal(t, engine.DragDragging, st.Drag)
	require.Equal(t, 45.0, st.Shown)

	execLine(t, c, "cancel")
	require.Equal(t, engine.DragIdle, consoleStatus(t, c).Drag)

	execLine(t, c, "drag")
	execLine(t, c, "move 50")
	execLine(t, c, "release")
	require.Eventually(t, func() bool {
		st := consoleStatus(t, c)
		return st.Drag == engine.DragIdle && st.State.Position >= 50
	}, time.Second, 5*time.Millisecond)
}

func TestConsoleQueueAndStatus(t *testing.T) {
	c, out := startConsole(t)

	execLine(t, c, "next")
	require.Eventually(t, func() bool {
		st := consoleStatus(t, c)
		return st.State.HasTrack() && st.State.Track.ID == "b"
	}, time.Second, 5*time.Millisecond)

	execLine(t, c, "repeat all")
	q, err := c.sess.Queue(context.Background())
	require.NoError(t, err)
	require.Equal(t, core.RepeatAll, q.Repeat)

	execLine(t, c, "status")
	require.Contains(t, out.String(), "Beta")
	require.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestConsoleErrors(t *testing.T) {
	c, _ := startConsole(t)

	for _, line := range []string{"seek", "seek abc", "move", "vol loud", "repeat", "repeat sometimes", "dance"} {
		_, err := c.exec(context.Background(), line)
		require.Error(t, err, line)
	}

	require.False(t, execLine(t, c, ""))
	require.True(t, execLine(t, c, "quit"))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"90", 90, false},
		{"12.5", 12.5, false},
		{"1:30", 90, false},
		{"1:02:03", 3723, false},
		{"0:00", 0, false},
		{"1:60", 0, true},
		{"-5", 0, true},
		{"a:b", 0, true},
		{"1:2:3:4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseClock(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatStatus(t *testing.T) {
	track := &core.Track{Title: "Alpha", Artists: []string{"Band"}, Duration: 3 * time.Minute}

	tests := []struct {
		name string
		st   engine.Status
		want string
	}{
		{
			name: "idle",
			st:   engine.Status{},
			want: "⏹ nothing playing",
		},
		{
			name: "playing",
			st:   engine.Status{State: core.PlaybackState{Track: track, Position: 65, Volume: 80}},
			want: "▶ Alpha — Band  " + strings.Repeat("━", 7) + strings.Repeat("─", 13) + " 1:05 / 3:00  vol 80%  lyrics 0",
		},
		{
			name: "dragging shows held value",
			st: engine.Status{
				State: core.PlaybackState{Track: track, Position: 65, Paused: true, Volume: 80},
				Drag:  engine.DragDragging,
				Shown: 120,
			},
			want: "⏸ Alpha — Band  " + strings.Repeat("━", 13) + strings.Repeat("─", 7) + " 2:00 / 3:00  vol 80%  lyrics 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatus(tt.st); got != tt.want {
				t.Errorf("formatStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

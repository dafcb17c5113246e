package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tessro/cadence/internal/config"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/storage"
	"github.com/tessro/cadence/internal/tail"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := TruncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name           string
		current, total float64
		want           string
	}{
		{"unknown length", 5, 0, "──────────"},
		{"start", 0, 100, "──────────"},
		{"half", 50, 100, "━━━━━─────"},
		{"past end", 150, 100, "━━━━━━━━━━"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatProgress(tt.current, tt.total, 10); got != tt.want {
				t.Errorf("FormatProgress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		kind    string
		in      string
		want    interface{}
		wantErr bool
	}{
		{"int", "60", int64(60), false},
		{"int", "sixty", nil, true},
		{"bool", "true", true, false},
		{"bool", "off", false, false},
		{"bool", "maybe", nil, true},
		{"string", "latte", "latte", false},
	}
	for _, tt := range tests {
		got, err := parseConfigValue(tt.kind, tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseConfigValue(%q, %q) error = %v, wantErr %v", tt.kind, tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseConfigValue(%q, %q) = %v, want %v", tt.kind, tt.in, got, tt.want)
		}
	}
}

func TestValidateRaw(t *testing.T) {
	ok := map[string]interface{}{
		"playback": map[string]interface{}{"volume": int64(60), "backend": "sim"},
	}
	require.NoError(t, validateRaw(ok))

	bad := map[string]interface{}{
		"playback": map[string]interface{}{"volume": int64(160)},
	}
	err := validateRaw(bad)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestConfigKeyList(t *testing.T) {
	list := configKeyList()
	for key := range configKinds {
		require.Contains(t, list, key)
	}
	require.Less(t, strings.Index(list, "cache.backend"), strings.Index(list, "tui.theme"))
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, []core.HistoryEntry{
		{
			Track:    core.Track{Title: "Alpha", Artists: []string{"Band"}},
			PlayedAt: time.Now().Add(-3 * time.Minute),
			ResumeAt: 95,
		},
		{
			Track:    core.Track{Title: "Beta"},
			PlayedAt: time.Now().Add(-2 * time.Hour),
		},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "TITLE")
	require.Contains(t, lines[1], "3 minutes ago")
	require.Contains(t, lines[1], "1:35")
	require.Contains(t, lines[2], "2 hours ago")
	require.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "-"))
}

func TestToEventJSON(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := tail.Event{
		Type:      tail.EventLyricLine,
		Timestamp: ts,
		Current: &tail.View{
			Title:     "Alpha",
			Artist:    "Band",
			Position:  12,
			Duration:  180,
			Volume:    70,
			Lines:     []core.LyricLine{{Timestamp: 10, Text: "hello"}},
			Highlight: 0,
		},
	}

	got := toEventJSON(e)
	require.Equal(t, "lyric_line", got.Type)
	require.Equal(t, "2026-01-02T03:04:05Z", got.Timestamp)
	require.Equal(t, "hello", got.Line)
	require.Equal(t, 70, got.Volume)

	empty := toEventJSON(tail.Event{Type: tail.EventPause, Timestamp: ts})
	require.Equal(t, "pause", empty.Type)
	require.Empty(t, empty.Title)
}

func TestValidateRawAcceptsMutedVolume(t *testing.T) {
	muted := map[string]interface{}{
		"playback": map[string]interface{}{"volume": int64(0)},
	}
	require.NoError(t, validateRaw(muted))
}

func TestStartVolume(t *testing.T) {
	c := config.Default()
	c.Playback.Volume = 70
	require.Equal(t, 70, startVolume(c, nil))

	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "cadence.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.Equal(t, 70, startVolume(c, store), "nothing saved yet")

	require.NoError(t, store.SaveVolume(0))
	require.Equal(t, 0, startVolume(c, store), "saved volume wins, even when muted")

	require.NoError(t, store.ClearVolume())
	require.Equal(t, 70, startVolume(c, store))
}

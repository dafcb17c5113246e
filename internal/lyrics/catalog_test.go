package lyrics

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

type stubCatalog struct {
	lines []core.LyricLine
	err   error
	calls int
}

func (s *stubCatalog) FetchLyrics(ctx context.Context, track core.Track) ([]core.LyricLine, error) {
	s.calls++
	return s.lines, s.err
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]core.LyricLine
	err  error
}

func (m *memCache) GetLyrics(ctx context.Context, key string) ([]core.LyricLine, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	l, ok := m.data[key]
	return l, ok, nil
}

func (m *memCache) PutLyrics(ctx context.Context, key string, lines []core.LyricLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]core.LyricLine{}
	}
	m.data[key] = lines
	return m.err
}

func TestSidecar(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(filepath.Join(dir, "song.lrc"), []byte("[00:01.00]local"), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := Sidecar{}.FetchLyrics(context.Background(), core.Track{URI: audio, Source: core.SourceFile})
	if err != nil {
		t.Fatalf("FetchLyrics() error = %v", err)
	}
	if len(lines) != 1 || lines[0].Text != "local" {
		t.Errorf("FetchLyrics() = %v", lines)
	}

	lines, err = Sidecar{}.FetchLyrics(context.Background(), core.Track{URI: filepath.Join(dir, "other.mp3"), Source: core.SourceFile})
	if err != nil || lines != nil {
		t.Errorf("missing sidecar = %v, %v", lines, err)
	}

	lines, _ = Sidecar{}.FetchLyrics(context.Background(), core.Track{URI: "http://x/song.mp3", Source: core.SourceStream})
	if lines != nil {
		t.Errorf("stream track returned %v", lines)
	}
}

func TestSidecarPaths(t *testing.T) {
	got := SidecarPaths("/music/a.mp3")
	if len(got) != 2 || got[0] != "/music/a.lrc" || got[1] != "/music/a.mp3.lrc" {
		t.Errorf("SidecarPaths() = %v", got)
	}
}

func TestKey(t *testing.T) {
	a := testTrack
	b := testTrack
	b.ID = "different-id"
	b.Title = "SONG"
	if Key(a) != Key(b) {
		t.Error("key should ignore ID and case")
	}

	c := testTrack
	c.Album = "Other"
	if Key(a) == Key(c) {
		t.Error("key should depend on album")
	}
}

func TestCachedHitAvoidsFetch(t *testing.T) {
	upstream := &stubCatalog{lines: []core.LyricLine{{Timestamp: 1, Text: "x"}}}
	cache := &memCache{}
	c := NewCached(upstream, cache, zerolog.Nop())

	for i := 0; i < 3; i++ {
		lines, err := c.FetchLyrics(context.Background(), testTrack)
		if err != nil || len(lines) != 1 {
			t.Fatalf("FetchLyrics() = %v, %v", lines, err)
		}
	}
	if upstream.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.calls)
	}
}

func TestCachedSkipsEmpty(t *testing.T) {
	upstream := &stubCatalog{}
	cache := &memCache{}
	c := NewCached(upstream, cache, zerolog.Nop())

	_, _ = c.FetchLyrics(context.Background(), testTrack)
	_, _ = c.FetchLyrics(context.Background(), testTrack)
	if upstream.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", upstream.calls)
	}
	if len(cache.data) != 0 {
		t.Errorf("empty result cached: %v", cache.data)
	}
}

func TestCachedReadErrorFallsThrough(t *testing.T) {
	upstream := &stubCatalog{lines: []core.LyricLine{{Timestamp: 1, Text: "x"}}}
	c := NewCached(upstream, &memCache{err: errors.ErrCacheMiss}, zerolog.Nop())

	lines, err := c.FetchLyrics(context.Background(), testTrack)
	if err != nil || len(lines) != 1 {
		t.Errorf("FetchLyrics() = %v, %v", lines, err)
	}
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")
	found := []core.LyricLine{{Timestamp: 0, Text: "found"}}

	tests := []struct {
		name      string
		catalogs  []core.LyricCatalog
		wantLines int
		wantErr   error
	}{
		{
			name:      "first with lines wins",
			catalogs:  []core.LyricCatalog{&stubCatalog{}, &stubCatalog{lines: found}, &stubCatalog{lines: found}},
			wantLines: 1,
		},
		{
			name:      "failure falls through",
			catalogs:  []core.LyricCatalog{&stubCatalog{err: boom}, &stubCatalog{lines: found}},
			wantLines: 1,
		},
		{
			name:     "all failed",
			catalogs: []core.LyricCatalog{&stubCatalog{err: boom}, &stubCatalog{err: boom}},
			wantErr:  boom,
		},
		{
			name:     "nothing found",
			catalogs: []core.LyricCatalog{&stubCatalog{}, &stubCatalog{err: boom}},
			wantErr:  errors.ErrLyricsNotFound,
		},
		{
			name:    "empty chain",
			wantErr: errors.ErrLyricsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := NewChain(zerolog.Nop(), tt.catalogs...).FetchLyrics(context.Background(), testTrack)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FetchLyrics() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || len(lines) != tt.wantLines {
				t.Errorf("FetchLyrics() = %v, %v", lines, err)
			}
		})
	}
}

func TestChainStopsAtFirstHit(t *testing.T) {
	first := &stubCatalog{lines: []core.LyricLine{{Text: "a"}}}
	second := &stubCatalog{lines: []core.LyricLine{{Text: "b"}}}
	_, _ = NewChain(zerolog.Nop(), first, nil, second).FetchLyrics(context.Background(), testTrack)
	if second.calls != 0 {
		t.Error("second catalog should not be asked")
	}
}

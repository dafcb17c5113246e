package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFallsBackToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Song.mp3")
	writeFile(t, path)

	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if track.Title != "My Song" {
		t.Errorf("Title = %q, want %q", track.Title, "My Song")
	}
	if track.Source != core.SourceFile || track.URI != path {
		t.Errorf("track = %+v", track)
	}
	if track.ID != TrackID(path) {
		t.Errorf("ID = %q, want %q", track.ID, TrackID(path))
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, errors.ErrTrackNotFound) {
		t.Errorf("Load() error = %v, want ErrTrackNotFound", err)
	}
}

func TestTrackIDStable(t *testing.T) {
	a := TrackID("/music/a.mp3")
	if a != TrackID("/music/a.mp3") {
		t.Error("TrackID should be deterministic")
	}
	if a == TrackID("/music/b.mp3") {
		t.Error("different paths should get different IDs")
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.flac"))
	writeFile(t, filepath.Join(dir, "a.mp3"))
	writeFile(t, filepath.Join(dir, "sub", "c.OGG"))
	writeFile(t, filepath.Join(dir, "cover.jpg"))
	writeFile(t, filepath.Join(dir, "a.lrc"))

	res, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.HasErrors() {
		t.Errorf("Scan() errors = %v", res.Errors)
	}

	var titles []string
	for _, tr := range res.Data {
		titles = append(titles, tr.Title)
	}
	want := []string{"a", "b", "c"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestScanNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp3")
	writeFile(t, path)
	if _, err := Scan(path); err == nil {
		t.Error("Scan() of a file should fail")
	}
}

func TestFilter(t *testing.T) {
	tracks := []core.Track{
		{Title: "Blue Monday", Artists: []string{"New Order"}},
		{Title: "Ceremony", Artists: []string{"New Order"}, Album: "Substance"},
		{Title: "Atmosphere", Artists: []string{"Joy Division"}},
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"new order", 2},
		{"SUBSTANCE", 1},
		{"nothing", 0},
	}
	for _, tt := range tests {
		if got := len(Filter(tracks, tt.query)); got != tt.want {
			t.Errorf("Filter(%q) = %d tracks, want %d", tt.query, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.mp3")
	writeFile(t, file)
	writeFile(t, filepath.Join(dir, "album", "two.mp3"))

	res, err := Resolve([]string{file, filepath.Join(dir, "album"), "https://example.com/stream", filepath.Join(dir, "nope.mp3")})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Data) != 3 {
		t.Fatalf("Resolve() = %d tracks, want 3", len(res.Data))
	}
	if res.Data[2].Source != core.SourceStream {
		t.Errorf("URL source = %v, want stream", res.Data[2].Source)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], errors.ErrTrackNotFound) {
		t.Errorf("Resolve() errors = %v", res.Errors)
	}

	if _, err := Resolve(nil); !errors.Is(err, errors.ErrEmptyLibrary) {
		t.Errorf("Resolve(nil) error = %v, want ErrEmptyLibrary", err)
	}
}

// id3Frame encodes an ID3v2.3 frame.
func id3Frame(id string, body []byte) []byte {
	n := len(body)
	out := append([]byte(id), byte(n>>24), byte(n>>16), byte(n>>8), byte(n), 0, 0)
	return append(out, body...)
}

// writeTagged writes an MP3 with a title and a PNG cover in its ID3v2 tag.
func writeTagged(t *testing.T, path, title string, cover []byte) {
	t.Helper()
	var frames []byte
	frames = append(frames, id3Frame("TIT2", append([]byte{0}, title...))...)
	apic := append([]byte{0}, "image/png"...)
	apic = append(apic, 0, 3, 0)
	frames = append(frames, id3Frame("APIC", append(apic, cover...))...)

	n := len(frames)
	header := []byte{'I', 'D', '3', 3, 0, 0,
		byte(n>>21) & 0x7f, byte(n>>14) & 0x7f, byte(n>>7) & 0x7f, byte(n) & 0x7f}
	data := append(header, frames...)
	data = append(data, make([]byte, 64)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEmbeddedArt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover song.mp3")
	cover := []byte("\x89PNG fake image bytes")
	writeTagged(t, path, "Cover Song", cover)

	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if track.Title != "Cover Song" {
		t.Errorf("Title = %q, want %q", track.Title, "Cover Song")
	}
	if !strings.HasPrefix(track.ArtRef, "file://") || !strings.HasSuffix(track.ArtRef, "#picture") {
		t.Fatalf("ArtRef = %q, want a file URI with a picture fragment", track.ArtRef)
	}

	pic, err := Art(track.ArtRef)
	if err != nil {
		t.Fatalf("Art() error = %v", err)
	}
	if pic.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", pic.MIMEType)
	}
	if string(pic.Data) != string(cover) {
		t.Errorf("Data = %q, want %q", pic.Data, cover)
	}
}

func TestArtRejectsOtherReferences(t *testing.T) {
	for _, ref := range []string{"embedded", "https://example.com/a.png", "file:///tmp/a.mp3"} {
		if _, err := Art(ref); err == nil {
			t.Errorf("Art(%q) should fail", ref)
		}
	}
}

func TestLoadWithoutArt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.mp3")
	writeFile(t, path)
	track, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if track.ArtRef != "" {
		t.Errorf("ArtRef = %q, want empty", track.ArtRef)
	}
}

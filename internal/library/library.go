// Package library turns audio files on disk into tracks.
package library

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

// namespace scopes track IDs derived from file paths.
var namespace = uuid.MustParse("6f1d3b2e-8c4a-4e57-9a0b-3c2d1e4f5a6b")

var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".aac":  true,
	".wav":  true,
}

// IsAudio reports whether path has a supported audio extension.
func IsAudio(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// TrackID returns the stable ID for the file at path.
func TrackID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(namespace, []byte(path)).String()
}

// Load reads a single file. Missing or unreadable tags are not an error: the
// title falls back to the file name.
func Load(path string) (core.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return core.Track{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Track{}, fmt.Errorf("%w: %s", errors.ErrTrackNotFound, path)
		}
		return core.Track{}, err
	}
	defer func() { _ = f.Close() }()

	t := core.Track{
		ID:     TrackID(abs),
		URI:    abs,
		Source: core.SourceFile,
	}

	if m, err := tag.ReadFrom(f); err == nil {
		t.Title = strings.TrimSpace(m.Title())
		t.Album = strings.TrimSpace(m.Album())
		if a := strings.TrimSpace(m.Artist()); a != "" {
			t.Artists = []string{a}
		} else if a := strings.TrimSpace(m.AlbumArtist()); a != "" {
			t.Artists = []string{a}
		}
		if m.Picture() != nil {
			t.ArtRef = artRef(abs)
		}
	}

	if t.Title == "" {
		t.Title = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	return t, nil
}

// artFragment marks a file URI as naming the file's embedded picture.
const artFragment = "picture"

func artRef(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), Fragment: artFragment}
	return u.String()
}

// Art resolves a track's ArtRef to the picture embedded in its file.
func Art(ref string) (*tag.Picture, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid art reference %q: %w", ref, err)
	}
	if u.Scheme != "file" || u.Fragment != artFragment {
		return nil, fmt.Errorf("unsupported art reference %q", ref)
	}
	path := filepath.FromSlash(u.Path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}
	pic := m.Picture()
	if pic == nil {
		return nil, fmt.Errorf("no embedded picture in %s", path)
	}
	return pic, nil
}

// Scan walks dir for audio files. Files that cannot be read are reported in
// the result's errors; the rest are returned sorted by path.
func Scan(dir string) (*errors.PartialResult[[]core.Track], error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path is not a directory: %s", dir)
	}

	result := &errors.PartialResult[[]core.Track]{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.AddError(err)
			return nil
		}
		if d.IsDir() || !IsAudio(path) {
			return nil
		}
		t, err := Load(path)
		if err != nil {
			result.AddError(fmt.Errorf("%s: %w", path, err))
			return nil
		}
		result.Data = append(result.Data, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Data, func(i, j int) bool {
		return result.Data[i].URI < result.Data[j].URI
	})
	return result, nil
}

// Filter returns the tracks whose title, artist or album contains query,
// ignoring case. An empty query matches everything.
func Filter(tracks []core.Track, query string) []core.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tracks
	}
	var out []core.Track
	for _, t := range tracks {
		hay := strings.ToLower(t.Title + " " + t.Artist() + " " + t.Album + " " + filepath.Base(t.URI))
		if strings.Contains(hay, q) {
			out = append(out, t)
		}
	}
	return out
}

// Resolve turns command-line arguments into tracks. Each argument may be an
// audio file, a directory, or an http(s) URL.
func Resolve(args []string) (*errors.PartialResult[[]core.Track], error) {
	result := &errors.PartialResult[[]core.Track]{}
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			result.Data = append(result.Data, core.Track{
				ID:     uuid.NewSHA1(namespace, []byte(arg)).String(),
				URI:    arg,
				Title:  arg,
				Source: core.SourceStream,
			})
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			result.AddError(fmt.Errorf("%w: %s", errors.ErrTrackNotFound, arg))
			continue
		}
		if info.IsDir() {
			sub, err := Scan(arg)
			if err != nil {
				result.AddError(err)
				continue
			}
			result.Data = append(result.Data, sub.Data...)
			result.Errors = append(result.Errors, sub.Errors...)
			continue
		}

		t, err := Load(arg)
		if err != nil {
			result.AddError(err)
			continue
		}
		result.Data = append(result.Data, t)
	}

	if len(result.Data) == 0 && !result.HasErrors() {
		return nil, errors.ErrEmptyLibrary
	}
	return result, nil
}

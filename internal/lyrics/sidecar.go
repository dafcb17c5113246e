package lyrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

// Sidecar reads lyrics from an .lrc file stored next to the audio file.
type Sidecar struct{}

// FetchLyrics implements core.LyricCatalog.
func (Sidecar) FetchLyrics(ctx context.Context, track core.Track) ([]core.LyricLine, error) {
	if track.Source != core.SourceFile || track.URI == "" {
		return nil, nil
	}

	for _, p := range SidecarPaths(track.URI) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		return Parse(string(data)), nil
	}
	return nil, nil
}

// SidecarPaths returns the candidate .lrc paths for an audio file, most
// specific first.
func SidecarPaths(audioPath string) []string {
	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(audioPath, ext)
	paths := []string{base + ".lrc"}
	if ext != "" {
		paths = append(paths, audioPath+".lrc")
	}
	return paths
}

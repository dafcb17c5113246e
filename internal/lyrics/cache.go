package lyrics

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
)

// Cache stores fetched lyric lines by key.
type Cache interface {
	// GetLyrics returns the cached lines and whether the key was present.
	GetLyrics(ctx context.Context, key string) ([]core.LyricLine, bool, error)
	PutLyrics(ctx context.Context, key string, lines []core.LyricLine) error
}

type cacheKey struct {
	Artist   string
	Title    string
	Album    string
	Duration int
}

// Key returns the cache key for a track. Tracks with the same artist, title
// and album and a duration within the same second share a key.
func Key(track core.Track) string {
	k := cacheKey{
		Artist:   strings.ToLower(track.Artist()),
		Title:    strings.ToLower(track.Title),
		Album:    strings.ToLower(track.Album),
		Duration: int(math.Round(track.DurationSeconds())),
	}
	h, err := hashstructure.Hash(k, hashstructure.FormatV2, nil)
	if err != nil {
		return track.ID
	}
	return strconv.FormatUint(h, 16)
}

// Cached wraps a catalog with a cache. Only non-empty results are stored, so
// a track whose lyrics appear upstream later is picked up on the next fetch.
type Cached struct {
	catalog core.LyricCatalog
	cache   Cache
	log     zerolog.Logger
}

// NewCached creates a caching catalog.
func NewCached(catalog core.LyricCatalog, cache Cache, log zerolog.Logger) *Cached {
	return &Cached{catalog: catalog, cache: cache, log: log}
}

// FetchLyrics implements core.LyricCatalog.
func (c *Cached) FetchLyrics(ctx context.Context, track core.Track) ([]core.LyricLine, error) {
	key := Key(track)

	lines, ok, err := c.cache.GetLyrics(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("lyrics cache read failed")
	} else if ok {
		c.log.Debug().Str("key", key).Int("lines", len(lines)).Msg("lyrics cache hit")
		return lines, nil
	}

	lines, err = c.catalog.FetchLyrics(ctx, track)
	if err != nil || len(lines) == 0 {
		return lines, err
	}

	if err := c.cache.PutLyrics(ctx, key, lines); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("lyrics cache write failed")
	}
	return lines, nil
}

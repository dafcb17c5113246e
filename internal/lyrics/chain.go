package lyrics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

// Chain asks each catalog in turn and returns the first non-empty result.
type Chain struct {
	catalogs []core.LyricCatalog
	log      zerolog.Logger
}

// NewChain creates a chain over catalogs. Nil entries are skipped.
func NewChain(log zerolog.Logger, catalogs ...core.LyricCatalog) *Chain {
	c := &Chain{log: log}
	for _, cat := range catalogs {
		if cat != nil {
			c.catalogs = append(c.catalogs, cat)
		}
	}
	return c
}

// Len returns the number of catalogs in the chain.
func (c *Chain) Len() int {
	return len(c.catalogs)
}

// FetchLyrics implements core.LyricCatalog. When every catalog fails the
// errors are joined; when they all succeed without lines it returns
// errors.ErrLyricsNotFound.
func (c *Chain) FetchLyrics(ctx context.Context, track core.Track) ([]core.LyricLine, error) {
	var failed errors.PartialResult[struct{}]

	for i, cat := range c.catalogs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := cat.FetchLyrics(ctx, track)
		if err != nil {
			c.log.Debug().Err(err).Int("catalog", i).Str("track", track.ID).Msg("lyric catalog failed")
			failed.AddError(err)
			continue
		}
		if len(lines) > 0 {
			return lines, nil
		}
	}

	if failed.HasErrors() && len(failed.Errors) == len(c.catalogs) {
		return nil, failed.Err()
	}
	return nil, fmt.Errorf("%w: %s", errors.ErrLyricsNotFound, track.DisplayTitle())
}

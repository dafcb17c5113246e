package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/backend/mpv"
	"github.com/tessro/cadence/internal/backend/sim"
	"github.com/tessro/cadence/internal/config"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/library"
	"github.com/tessro/cadence/internal/logger"
	"github.com/tessro/cadence/internal/lyrics"
	"github.com/tessro/cadence/internal/session"
	"github.com/tessro/cadence/internal/storage"
	"github.com/tessro/cadence/internal/wizard"
)

// newBackend creates the playback backend named in the config.
func newBackend(c *config.Config) core.Backend {
	tick := time.Duration(c.Playback.TickInterval) * time.Millisecond
	switch c.Playback.Backend {
	case "sim":
		return sim.New(
			sim.WithTickInterval(tick),
			sim.WithLogger(logger.Component("sim")),
		)
	default:
		return mpv.New(
			mpv.WithBinary(c.Playback.MPVPath),
			mpv.WithSocket(c.Playback.SocketPath),
			mpv.WithTickInterval(tick),
			mpv.WithLogger(logger.Component("mpv")),
		)
	}
}

// openStore opens the bbolt file that holds history and the lyric cache.
func openStore(c *config.Config) (*storage.BoltStore, error) {
	ttl := time.Duration(c.Cache.TTL) * time.Hour
	return storage.OpenBolt(c.Cache.Path, storage.WithTTL(ttl))
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newCatalog builds the lyric provider chain: sidecar files first, then the
// remote provider behind the configured cache. store may be nil when the
// cache backend is not bolt.
func newCatalog(c *config.Config, store *storage.BoltStore) (core.LyricCatalog, io.Closer, error) {
	log := logger.Component("lyrics")
	var (
		catalogs []core.LyricCatalog
		cs       closers
	)

	if c.Lyrics.SidecarEnabled() || c.Lyrics.Provider == "local" {
		catalogs = append(catalogs, lyrics.Sidecar{})
	}

	if c.Lyrics.Provider == "lrclib" {
		var remote core.LyricCatalog = lyrics.NewLRCLIB(
			c.Lyrics.BaseURL,
			time.Duration(c.Lyrics.Timeout)*time.Second,
			lyrics.WithLogger(log),
		)

		switch c.Cache.Backend {
		case "bolt":
			if store != nil {
				remote = lyrics.NewCached(remote, store, log)
			}
		case "redis":
			rc, err := storage.NewRedisCache(c.Cache.RedisURL, time.Duration(c.Cache.TTL)*time.Hour)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			cs = append(cs, rc)
			remote = lyrics.NewCached(remote, rc, log)
		}
		catalogs = append(catalogs, remote)
	}

	if len(catalogs) == 0 {
		return nil, cs, nil
	}
	return lyrics.NewChain(log, catalogs...), cs, nil
}

// loadTracks resolves args into a play queue. Without args the configured
// library directory is scanned. Unreadable files are reported on stderr and
// skipped.
func loadTracks(args []string, filter string) ([]core.Track, error) {
	var (
		result *errors.PartialResult[[]core.Track]
		err    error
	)
	if len(args) > 0 {
		result, err = library.Resolve(args)
	} else {
		if cfg.Library.Dir == "" {
			return nil, errors.ErrEmptyLibrary
		}
		result, err = library.Scan(cfg.Library.Dir)
	}
	if err != nil {
		return nil, err
	}
	if result.HasErrors() {
		fmt.Fprintln(os.Stderr, result.ErrorSummary())
		logger.Log.Warn().Err(result.Err()).Msg("some tracks could not be loaded")
	}

	tracks := library.Filter(result.Data, filter)
	if len(tracks) == 0 {
		return nil, errors.ErrEmptyLibrary
	}
	return tracks, nil
}

// chooseStart asks which track to start with when the queue came from a
// library scan and a terminal is available. Otherwise playback starts at the
// first track.
func chooseStart(args []string, tracks []core.Track, search bool) (int, error) {
	if !wizard.NeedsTrack(args) || len(tracks) < 2 || !wizard.IsTerminal() {
		return 0, nil
	}
	var (
		idx int
		err error
	)
	if search {
		idx, err = wizard.RunSearch(tracks)
	} else {
		idx, err = wizard.PickTrack(tracks)
	}
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, fmt.Errorf("no track selected")
	}
	return idx, nil
}

// startVolume is the volume last chosen during playback, or the configured
// one when none was saved.
func startVolume(c *config.Config, store *storage.BoltStore) int {
	if store == nil {
		return c.Playback.Volume
	}
	v, ok, err := store.Volume()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("could not read saved volume")
		return c.Playback.Volume
	}
	if !ok {
		return c.Playback.Volume
	}
	return v
}

// sessionFlags are the queue flags shared by play and ui.
type sessionFlags struct {
	repeat string
	resume bool
	filter string
	search bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.repeat, "repeat", "r", "", "repeat mode: off, all, one (default from config)")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "resume tracks where they were left")
	cmd.Flags().StringVar(&f.filter, "filter", "", "only queue tracks matching this text")
	cmd.Flags().BoolVarP(&f.search, "search", "s", false, "pick the first track with a search prompt")
}

// buildSession wires a session around presenter. The returned closer
// releases the store and cache connections; call it after Run returns.
// store is nil when history is unavailable.
func buildSession(presenter core.Presenter, f sessionFlags) (*session.Session, *storage.BoltStore, io.Closer, error) {
	repeat := f.repeat
	if repeat == "" {
		repeat = cfg.Playback.Repeat
	}
	mode, err := core.ParseRepeatMode(repeat)
	if err != nil {
		return nil, nil, nil, err
	}

	var cs closers
	store, err := openStore(cfg)
	if err != nil {
		logger.Log.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("history unavailable")
		store = nil
	} else {
		cs = append(cs, store)
	}

	var cacheStore *storage.BoltStore
	if cfg.Cache.Backend == "bolt" {
		cacheStore = store
	}
	catalog, cc, err := newCatalog(cfg, cacheStore)
	if err != nil {
		_ = cs.Close()
		return nil, nil, nil, err
	}
	cs = append(cs, cc)

	opts := []session.Option{
		session.WithRepeat(mode),
		session.WithResume(f.resume),
		session.WithLogger(logger.Component("session")),
	}
	if store != nil {
		opts = append(opts, session.WithHistory(store), session.WithPreferences(store))
	}

	sess := session.New(newBackend(cfg), catalog, presenter, opts,
		engine.WithVolume(startVolume(cfg, store)),
	)
	return sess, store, cs, nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/library"
	"github.com/tessro/cadence/internal/lyrics"
	"github.com/tessro/cadence/internal/storage"
)

var (
	lyricsArtist   string
	lyricsTitle    string
	lyricsAlbum    string
	lyricsDuration time.Duration
	lyricsAt       string
	lyricsPlain    bool
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics [file]",
	Short: "Fetch synced lyrics for a track",
	Long: `Fetch time-synced lyrics through the configured providers and print them
as LRC. The track is read from an audio file's tags, or given with flags.

Examples:
  cadence lyrics song.flac
  cadence lyrics --artist "Daft Punk" --title "Digital Love"
  cadence lyrics song.flac --at 1:30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLyrics,
}

func init() {
	lyricsCmd.Flags().StringVar(&lyricsArtist, "artist", "", "track artist")
	lyricsCmd.Flags().StringVar(&lyricsTitle, "title", "", "track title")
	lyricsCmd.Flags().StringVar(&lyricsAlbum, "album", "", "album name")
	lyricsCmd.Flags().DurationVar(&lyricsDuration, "duration", 0, "track length, e.g. 3m42s")
	lyricsCmd.Flags().StringVar(&lyricsAt, "at", "", "print only the line active at this position")
	lyricsCmd.Flags().BoolVar(&lyricsPlain, "plain", false, "print text without timestamps")
	rootCmd.AddCommand(lyricsCmd)
}

type lyricsOutput struct {
	Track  core.Track       `json:"track"`
	Lines  []core.LyricLine `json:"lines"`
	Active *int             `json:"active,omitempty"`
}

func runLyrics(cmd *cobra.Command, args []string) error {
	track, err := lyricsTrack(args)
	if err != nil {
		return err
	}

	var store *storage.BoltStore
	if cfg.Cache.Backend == "bolt" {
		if s, err := openStore(cfg); err == nil {
			store = s
			defer func() { _ = s.Close() }()
		}
	}
	catalog, cc, err := newCatalog(cfg, store)
	if err != nil {
		return err
	}
	defer func() { _ = cc.Close() }()
	if catalog == nil {
		return errors.WithSuggestion(errors.ErrLyricsNotFound, "lyrics are disabled; set lyrics.provider in the config")
	}

	timeout := time.Duration(cfg.Lyrics.Timeout)*time.Second + 5*time.Second
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	lines, err := catalog.FetchLyrics(ctx, track)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return errors.ErrLyricsNotFound
	}

	if lyricsAt != "" {
		at, err := parseClock(lyricsAt)
		if err != nil {
			return err
		}
		idx, ok := engine.NewTimeline(lines).ActiveIndex(at)
		if JSONOutput() {
			out := lyricsOutput{Track: track, Lines: lines}
			if ok {
				out.Active = &idx
			}
			return printJSON(out)
		}
		if ok {
			fmt.Println(lines[idx].Text)
		}
		return nil
	}

	if JSONOutput() {
		return printJSON(lyricsOutput{Track: track, Lines: lines})
	}
	if lyricsPlain {
		for _, l := range lines {
			fmt.Println(l.Text)
		}
		return nil
	}
	fmt.Print(lyrics.Format(lines))
	return nil
}

// lyricsTrack builds the lookup track from a file argument, with flags
// overriding its tags.
func lyricsTrack(args []string) (core.Track, error) {
	var track core.Track
	if len(args) == 1 {
		t, err := library.Load(args[0])
		if err != nil {
			return core.Track{}, err
		}
		track = t
	}
	if lyricsArtist != "" {
		track.Artists = []string{lyricsArtist}
	}
	if lyricsTitle != "" {
		track.Title = lyricsTitle
	}
	if lyricsAlbum != "" {
		track.Album = lyricsAlbum
	}
	if lyricsDuration > 0 {
		track.Duration = lyricsDuration
	}
	if track.Title == "" {
		fmt.Fprintln(os.Stderr, "Usage: cadence lyrics <file> or --artist A --title T")
		return core.Track{}, fmt.Errorf("no track given")
	}
	return track, nil
}

// Package wizard holds the interactive prompts used when a command is run
// without the arguments it needs.
package wizard

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/tessro/cadence/internal/config"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/tui/styles"
	"golang.org/x/term"
)

// IsTerminal returns true if stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// NeedsTrack returns true if a track argument is required but missing.
func NeedsTrack(args []string) bool {
	return len(args) == 0
}

// TrackLabel formats a track for a picker row.
func TrackLabel(t core.Track) string {
	label := t.DisplayTitle()
	if a := t.Artist(); a != "" {
		label += " — " + a
	}
	if t.Duration > 0 {
		label += fmt.Sprintf(" (%s)", core.FormatClock(t.DurationSeconds()))
	}
	return label
}

// PickTrack asks the user to choose one of tracks and returns its index.
func PickTrack(tracks []core.Track) (int, error) {
	if !IsTerminal() {
		return -1, errors.ErrNoTerminal
	}
	if len(tracks) == 0 {
		return -1, errors.ErrEmptyLibrary
	}

	options := make([]huh.Option[int], len(tracks))
	for i, t := range tracks {
		options[i] = huh.NewOption(TrackLabel(t), i)
	}

	selected := 0
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select a track").
				Description("Type / to filter").
				Options(options...).
				Filtering(true).
				Height(15).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return -1, fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}

// ConfigureInteractively walks through the settings most people change and
// writes the answers into cfg.
func ConfigureInteractively(cfg *config.Config) error {
	if !IsTerminal() {
		return errors.ErrNoTerminal
	}

	themes := make([]huh.Option[string], len(styles.Themes))
	for i, name := range styles.Themes {
		themes[i] = huh.NewOption(name, name)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Playback backend").
				Options(
					huh.NewOption("mpv (real audio)", "mpv"),
					huh.NewOption("sim (silent, for testing)", "sim"),
				).
				Value(&cfg.Playback.Backend),
			huh.NewInput().
				Title("Music directory").
				Description("Scanned by 'cadence play' when no files are given").
				Value(&cfg.Library.Dir),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Lyrics provider").
				Options(
					huh.NewOption("LRCLIB", "lrclib"),
					huh.NewOption("Sidecar .lrc files only", "local"),
					huh.NewOption("none", "none"),
				).
				Value(&cfg.Lyrics.Provider),
			huh.NewSelect[string]().
				Title("Lyric cache").
				Options(
					huh.NewOption("bbolt file", "bolt"),
					huh.NewOption("redis", "redis"),
					huh.NewOption("none", "none"),
				).
				Value(&cfg.Cache.Backend),
			huh.NewSelect[string]().
				Title("Theme").
				Options(themes...).
				Value(&cfg.TUI.Theme),
		),
	)
	return form.Run()
}

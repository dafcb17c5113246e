package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/core"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	Long: `List recently played tracks, newest first, with the position playback
would resume from.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of tracks to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.History(historyLimit)
	if err != nil {
		return err
	}

	if JSONOutput() {
		if entries == nil {
			entries = []core.HistoryEntry{}
		}
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No tracks played yet")
		return nil
	}
	printHistory(os.Stdout, entries)
	return nil
}

func printHistory(out io.Writer, entries []core.HistoryEntry) {
	t := NewTableWriter(out, "PLAYED", "TITLE", "ARTIST", "RESUME")
	for _, e := range entries {
		resume := "-"
		if e.ResumeAt > 0 {
			resume = core.FormatClock(e.ResumeAt)
		}
		t.Row(
			humanize.Time(e.PlayedAt),
			TruncateString(e.Track.DisplayTitle(), 40),
			TruncateString(e.Track.Artist(), 30),
			resume,
		)
	}
	t.Flush()
}

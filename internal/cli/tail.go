package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailNoLyrics  bool
)

// addTailFlags registers the event output flags on cmd.
func addTailFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	cmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	cmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	cmd.Flags().BoolVar(&tailNoLyrics, "no-lyrics", false, "do not print lyric lines")
}

// newTailFormatter builds a formatter from the tail flags.
func newTailFormatter() (*tail.Formatter, error) {
	if err := tail.ValidateTemplate(tailFormat); err != nil {
		return nil, fmt.Errorf("invalid format template: %w", err)
	}
	return tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithLyrics(!tailNoLyrics),
		tail.WithTemplate(tailFormat),
	), nil
}

// eventJSON is the --json shape of a tail event.
type eventJSON struct {
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Title     string  `json:"title,omitempty"`
	Artist    string  `json:"artist,omitempty"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"`
	Paused    bool    `json:"paused"`
	Volume    int     `json:"volume"`
	Line      string  `json:"line,omitempty"`
}

// printEvents writes presenter events to out until ctx is done.
func printEvents(ctx context.Context, p *tail.Presenter, f *tail.Formatter, out io.Writer) {
	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-p.Events():
			if !f.Wants(e.Type) {
				continue
			}
			if JSONOutput() {
				_ = enc.Encode(toEventJSON(e))
				continue
			}
			_, _ = fmt.Fprintln(out, f.Format(e))
		}
	}
}

func toEventJSON(e tail.Event) eventJSON {
	out := eventJSON{
		Type:      e.Type.String(),
		Timestamp: e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	if v := e.Current; v != nil {
		out.Title = v.Title
		out.Artist = v.Artist
		out.Position = v.Position
		out.Duration = v.Duration
		out.Paused = v.Paused
		out.Volume = v.Volume
		out.Line = v.Line()
	}
	return out
}

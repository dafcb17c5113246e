package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/styles"
)

// Playback is the now-playing state as told to the presenter.
type Playback struct {
	Title    string
	Artist   string
	Position float64
	Duration float64
	Paused   bool
	Volume   int
	Dragging bool
}

// Panel geometry. The progress bar sits on a fixed row below the border,
// panel title, a gap, the title and artist lines, and another gap.
const (
	ProgressRow = 6
	panelInset  = 2 // border + padding
)

// NowPlaying displays the currently playing track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// ProgressSpan returns the first column and width of the progress bar in a
// panel of the given width, relative to the panel's left edge.
func ProgressSpan(width int, duration float64) (x, barWidth int) {
	tw := len(core.FormatClock(duration))
	barWidth = width - panelInset - 2*tw - 2
	if barWidth < 1 {
		barWidth = 1
	}
	return panelInset + tw + 1, barWidth
}

// Render renders the now playing panel
func (n *NowPlaying) Render(p Playback, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if p.Title == "" && p.Artist == "" {
		content = styles.Muted.Render("No track playing")
	} else {
		content = n.renderTrack(p, width)
	}

	return styles.Panel(focused).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			content,
		))
}

func (n *NowPlaying) renderTrack(p Playback, width int) string {
	inner := width - panelInset
	icon := styles.StatusIcon(p.Paused)
	title := styles.Title.Render(truncate(p.Title, inner-2))
	artist := styles.Subtitle.Render(truncate(p.Artist, inner-2))

	_, barWidth := ProgressSpan(width, p.Duration)
	tw := len(core.FormatClock(p.Duration))
	percent := 0.0
	if p.Duration > 0 {
		percent = p.Position / p.Duration * 100
	}
	progress := fmt.Sprintf("%*s %s %s",
		tw, core.FormatClock(p.Position),
		styles.ProgressBar(percent, barWidth, p.Dragging),
		core.FormatClock(p.Duration))

	status := styles.Muted.Render(fmt.Sprintf("🔊 %d%%", p.Volume))
	if p.Dragging {
		status += "  " + styles.Paused.Render("seeking")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"",
		progress,
		status,
	)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return strings.TrimSpace(string(r[:max-3])) + "..."
}

package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/styles"
)

// Lyrics displays the timed lyric lines, keeping the active line centred.
type Lyrics struct{}

// NewLyrics creates a new Lyrics component
func NewLyrics() *Lyrics {
	return &Lyrics{}
}

// Window returns the slice bounds of lines to show so that active stays near
// the middle of a panel with room for visible lines.
func Window(total, active, visible int) (start, end int) {
	if visible <= 0 || total == 0 {
		return 0, 0
	}
	if total <= visible {
		return 0, total
	}
	if active < 0 {
		return 0, visible
	}
	start = active - visible/2
	if start < 0 {
		start = 0
	}
	if start+visible > total {
		start = total - visible
	}
	return start, start + visible
}

// Render renders the lyrics panel
func (l *Lyrics) Render(lines []core.LyricLine, active, width, height int, focused bool) string {
	title := styles.PanelTitle("Lyrics", focused)

	var content string
	if len(lines) == 0 {
		content = styles.Muted.Render("No lyrics")
	} else {
		start, end := Window(len(lines), active, height-3)
		rows := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			text := truncate(lines[i].Text, width-panelInset)
			if text == "" {
				text = "♪"
			}
			if i == active {
				rows = append(rows, styles.ActiveLyric.Render(text))
			} else {
				rows = append(rows, styles.Lyric.Render(text))
			}
		}
		content = lipgloss.JoinVertical(lipgloss.Left, rows...)
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

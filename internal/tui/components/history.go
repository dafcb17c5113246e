package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/styles"
)

// History displays recently played tracks
type History struct {
	now func() time.Time
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{now: time.Now}
}

// Render renders the history panel
func (h *History) Render(entries []core.HistoryEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, width-panelInset*2, height-3)
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

func (h *History) renderHistory(entries []core.HistoryEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)
	for i, entry := range entries {
		if i >= maxLines {
			break
		}

		ago := humanize.RelTime(entry.PlayedAt, h.now(), "ago", "from now")
		icon := "✓"
		if entry.ResumeAt > 0 {
			icon = "◐"
		}

		label := truncate(entry.Track.DisplayTitle(), width-len(ago)-4)
		pad := width - 2 - len([]rune(label)) - len(ago)
		if pad < 1 {
			pad = 1
		}
		lines = append(lines, fmt.Sprintf("%s %s%*s%s",
			styles.Dim.Render(icon), label, pad, "", styles.Dim.Render(ago)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

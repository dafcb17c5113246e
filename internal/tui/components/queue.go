package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/styles"
)

// Queue displays the playback queue
type Queue struct {
	offset   int
	selected int
}

// NewQueue creates a new Queue component
func NewQueue() *Queue {
	return &Queue{}
}

// SelectNext moves the cursor down, stopping at the last of n tracks.
func (q *Queue) SelectNext(n int) {
	if q.selected < n-1 {
		q.selected++
	}
}

// SelectPrev moves the cursor up.
func (q *Queue) SelectPrev() {
	if q.selected > 0 {
		q.selected--
	}
}

// Selected returns the selected index
func (q *Queue) Selected() int {
	return q.selected
}

// Render renders the queue panel
func (q *Queue) Render(queue *core.Queue, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Queue (repeat %s)", repeatLabel(queue)), focused)

	var content string
	if queue == nil || queue.IsEmpty() {
		content = styles.Muted.Render("Queue is empty")
	} else {
		content = q.renderQueue(queue, width-panelInset*2, height-3)
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

func repeatLabel(queue *core.Queue) core.RepeatMode {
	if queue == nil || queue.Repeat == "" {
		return core.RepeatOff
	}
	return queue.Repeat
}

func (q *Queue) renderQueue(queue *core.Queue, width, maxLines int) string {
	tracks := queue.Tracks
	if q.selected >= len(tracks) {
		q.selected = len(tracks) - 1
	}

	visible := maxLines - 1 // room for the "more" line
	if visible < 1 {
		visible = 1
	}
	// keep the cursor on screen
	if q.selected < q.offset {
		q.offset = q.selected
	}
	if q.selected >= q.offset+visible {
		q.offset = q.selected - visible + 1
	}

	start := q.offset
	end := start + visible
	if end > len(tracks) {
		end = len(tracks)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		track := tracks[i]
		num := fmt.Sprintf("%2d.", i+1)
		label := truncate(track.DisplayTitle(), width*2/3)
		if a := track.Artist(); a != "" {
			label += " — " + truncate(a, width/3)
		}

		var line string
		switch {
		case i == queue.CurrentIndex:
			line = styles.Playing.Render(fmt.Sprintf("%s ▶ %s", num, label))
		case i == q.selected:
			line = styles.Highlight.Render(fmt.Sprintf("%s › %s", num, label))
		default:
			line = fmt.Sprintf("%s   %s", styles.Dim.Render(num), label)
		}
		lines = append(lines, line)
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

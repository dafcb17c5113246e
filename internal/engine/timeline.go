package engine

import (
	"sort"

	"github.com/tessro/cadence/internal/core"
)

// Timeline is a time-ordered sequence of lyric lines for one track.
//
// Lines never change after construction. Queries keep a forward-only cursor
// so the usual case of steadily increasing positions is amortised O(1);
// queries behind the cursor fall back to a binary search.
type Timeline struct {
	lines   []core.LyricLine
	cursor  int
	last    float64
	queried bool
}

// NewTimeline builds a timeline from lines, sorted by timestamp. Lines that
// share a timestamp keep their input order.
func NewTimeline(lines []core.LyricLine) *Timeline {
	sorted := make([]core.LyricLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return &Timeline{lines: sorted}
}

// EmptyTimeline returns a timeline with no lines.
func EmptyTimeline() *Timeline {
	return &Timeline{}
}

// Len returns the number of lines.
func (t *Timeline) Len() int {
	return len(t.lines)
}

// Lines returns a copy of the sorted lines.
func (t *Timeline) Lines() []core.LyricLine {
	out := make([]core.LyricLine, len(t.lines))
	copy(out, t.lines)
	return out
}

// Line returns the line at index i.
func (t *Timeline) Line(i int) (core.LyricLine, bool) {
	if i < 0 || i >= len(t.lines) {
		return core.LyricLine{}, false
	}
	return t.lines[i], true
}

// LastQueried returns the position of the most recent query, and whether
// there has been one since construction or the last Reset.
func (t *Timeline) LastQueried() (float64, bool) {
	return t.last, t.queried
}

// Reset moves the cursor back to the first line.
func (t *Timeline) Reset() {
	t.cursor = 0
	t.last = 0
	t.queried = false
}

// ActiveIndex returns the index of the last line whose timestamp is at or
// before seconds. Before the first timestamp it returns 0; for an empty
// timeline it returns false.
func (t *Timeline) ActiveIndex(seconds float64) (int, bool) {
	n := len(t.lines)
	if n == 0 {
		return 0, false
	}

	if seconds < t.lines[t.cursor].Timestamp {
		t.cursor = t.search(seconds)
	}
	for t.cursor+1 < n && t.lines[t.cursor+1].Timestamp <= seconds {
		t.cursor++
	}

	t.last = seconds
	t.queried = true
	return t.cursor, true
}

func (t *Timeline) search(seconds float64) int {
	i := sort.Search(len(t.lines), func(i int) bool {
		return t.lines[i].Timestamp > seconds
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

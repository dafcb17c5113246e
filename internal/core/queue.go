package core

import "fmt"

// RepeatMode controls what happens when a track ends.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// ParseRepeatMode parses a repeat mode name.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch RepeatMode(s) {
	case RepeatOff, "":
		return RepeatOff, nil
	case RepeatAll:
		return RepeatAll, nil
	case RepeatOne:
		return RepeatOne, nil
	}
	return RepeatOff, fmt.Errorf("invalid repeat mode: %s (must be off, all, or one)", s)
}

// Queue represents a playback queue.
type Queue struct {
	Tracks       []Track    `json:"tracks"`
	CurrentIndex int        `json:"current_index"`
	Repeat       RepeatMode `json:"repeat"`
}

// Current returns the currently playing track, or nil if the queue is empty.
func (q *Queue) Current() *Track {
	if q == nil || len(q.Tracks) == 0 || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Tracks) {
		return nil
	}
	return &q.Tracks[q.CurrentIndex]
}

// Upcoming returns tracks after the current position.
func (q *Queue) Upcoming() []Track {
	if q == nil || len(q.Tracks) == 0 || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Tracks)-1 {
		return nil
	}
	return q.Tracks[q.CurrentIndex+1:]
}

// Len returns the total number of tracks in the queue.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Advance moves to the track that should play after the current one ended,
// honouring the repeat mode. It returns nil when playback should stop.
func (q *Queue) Advance() *Track {
	if q.IsEmpty() {
		return nil
	}
	switch q.Repeat {
	case RepeatOne:
		return q.Current()
	case RepeatAll:
		q.CurrentIndex = (q.CurrentIndex + 1) % len(q.Tracks)
		return q.Current()
	}
	if q.CurrentIndex >= len(q.Tracks)-1 {
		return nil
	}
	q.CurrentIndex++
	return q.Current()
}

// Next skips forward one track, wrapping around at the end.
func (q *Queue) Next() *Track {
	if q.IsEmpty() {
		return nil
	}
	q.CurrentIndex = (q.CurrentIndex + 1) % len(q.Tracks)
	return q.Current()
}

// Prev skips back one track, wrapping around at the start.
func (q *Queue) Prev() *Track {
	if q.IsEmpty() {
		return nil
	}
	q.CurrentIndex = (q.CurrentIndex - 1 + len(q.Tracks)) % len(q.Tracks)
	return q.Current()
}

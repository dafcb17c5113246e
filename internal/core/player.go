package core

import (
	"context"
	"time"
)

// Backend is the playback backend that decodes and outputs audio.
//
// Request methods must not block: implementations queue the request onto
// their own worker and report the outcome later through the EventSink.
type Backend interface {
	// Start launches the backend worker. Transport events are delivered to
	// sink from the worker goroutine until ctx is cancelled.
	Start(ctx context.Context, sink EventSink) error

	RequestPlay(track Track)
	RequestPause(paused bool)
	RequestSeek(seconds float64)
	RequestVolume(percent int)

	Close() error
}

// EventSink receives transport events from a backend worker.
type EventSink interface {
	OnPositionTick(seconds float64)
	OnTrackChanged(track Track)
	OnPausedChanged(paused bool)
	OnVolumeChanged(percent int)
	OnTrackEnded()
}

// Presenter is driven by the engine with the values to display.
type Presenter interface {
	ShowPosition(seconds float64)
	ShowDuration(seconds float64)
	ShowTrackMeta(title, artist string)
	ShowPausedState(paused bool)
	ShowVolume(percent int)
	ShowLyrics(lines []LyricLine)
	// HighlightLyricLine receives the active line index, or NoLyricLine.
	HighlightLyricLine(index int)
}

// LyricCatalog retrieves timed lyrics for a track.
type LyricCatalog interface {
	FetchLyrics(ctx context.Context, track Track) ([]LyricLine, error)
}

// HistoryEntry represents a recently played track.
type HistoryEntry struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"played_at"`
	ResumeAt float64   `json:"resume_at"`
}

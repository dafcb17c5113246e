package core

// NoLyricLine is the highlight index used when no lyric line is active.
const NoLyricLine = -1

// LyricLine is a single timed lyric line. Timestamp is in seconds from the
// start of the track.
type LyricLine struct {
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
}

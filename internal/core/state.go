package core

// PlaybackState represents the current playback state.
//
// Position is in seconds and always lies within [0, Track duration] when the
// duration is known.
type PlaybackState struct {
	Track    *Track  `json:"track"`
	Position float64 `json:"position"`
	Paused   bool    `json:"paused"`
	Volume   int     `json:"volume"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// Duration returns the current track length in seconds, or 0 without a track.
func (s *PlaybackState) Duration() float64 {
	if !s.HasTrack() {
		return 0
	}
	return s.Track.DurationSeconds()
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	d := s.Duration()
	if d == 0 {
		return 0
	}
	return s.Position / d * 100
}

package engine

import "github.com/tessro/cadence/internal/core"

// multiPresenter fans every call out to a list of presenters in order.
type multiPresenter []core.Presenter

// MultiPresenter returns a presenter that forwards to each of ps. With no
// arguments it discards everything.
func MultiPresenter(ps ...core.Presenter) core.Presenter {
	out := make(multiPresenter, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m multiPresenter) ShowPosition(seconds float64) {
	for _, p := range m {
		p.ShowPosition(seconds)
	}
}

func (m multiPresenter) ShowDuration(seconds float64) {
	for _, p := range m {
		p.ShowDuration(seconds)
	}
}

func (m multiPresenter) ShowTrackMeta(title, artist string) {
	for _, p := range m {
		p.ShowTrackMeta(title, artist)
	}
}

func (m multiPresenter) ShowPausedState(paused bool) {
	for _, p := range m {
		p.ShowPausedState(paused)
	}
}

func (m multiPresenter) ShowVolume(percent int) {
	for _, p := range m {
		p.ShowVolume(percent)
	}
}

func (m multiPresenter) ShowLyrics(lines []core.LyricLine) {
	for _, p := range m {
		p.ShowLyrics(lines)
	}
}

func (m multiPresenter) HighlightLyricLine(index int) {
	for _, p := range m {
		p.HighlightLyricLine(index)
	}
}

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/components"
)

// View is the presenter's latest picture of the player.
type View struct {
	components.Playback
	Lines     []core.LyricLine
	Highlight int
}

type viewMsg View

// Presenter implements core.Presenter for the TUI. Engine calls only update
// a shared View and raise a flag; Pump copies the View into the program off
// the engine's goroutine, so a slow render never stalls the engine.
type Presenter struct {
	mu     sync.Mutex
	view   View
	notify chan struct{}
}

// NewPresenter creates a TUI presenter.
func NewPresenter() *Presenter {
	return &Presenter{
		view:   View{Highlight: core.NoLyricLine},
		notify: make(chan struct{}, 1),
	}
}

func (p *Presenter) update(fn func(v *View)) {
	p.mu.Lock()
	fn(&p.view)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current View.
func (p *Presenter) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Lines = append([]core.LyricLine(nil), p.view.Lines...)
	return v
}

// Pump delivers View updates to send until ctx is cancelled.
func (p *Presenter) Pump(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.notify:
			send(viewMsg(p.Snapshot()))
		}
	}
}

// ShowPosition implements core.Presenter.
func (p *Presenter) ShowPosition(seconds float64) {
	p.update(func(v *View) { v.Position = seconds })
}

// ShowDuration implements core.Presenter.
func (p *Presenter) ShowDuration(seconds float64) {
	p.update(func(v *View) { v.Duration = seconds })
}

// ShowTrackMeta implements core.Presenter.
func (p *Presenter) ShowTrackMeta(title, artist string) {
	p.update(func(v *View) {
		v.Title = title
		v.Artist = artist
	})
}

// ShowPausedState implements core.Presenter.
func (p *Presenter) ShowPausedState(paused bool) {
	p.update(func(v *View) { v.Paused = paused })
}

// ShowVolume implements core.Presenter.
func (p *Presenter) ShowVolume(percent int) {
	p.update(func(v *View) { v.Volume = percent })
}

// ShowLyrics implements core.Presenter.
func (p *Presenter) ShowLyrics(lines []core.LyricLine) {
	p.update(func(v *View) {
		v.Lines = lines
		v.Highlight = core.NoLyricLine
	})
}

// HighlightLyricLine implements core.Presenter.
func (p *Presenter) HighlightLyricLine(index int) {
	p.update(func(v *View) { v.Highlight = index })
}

// Package styles holds the TUI palette. Colors come from a Catppuccin
// flavor chosen at startup with Use.
package styles

import (
	"fmt"
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Themes lists the accepted theme names.
var Themes = []string{"auto", "latte", "frappe", "macchiato", "mocha"}

// Colors
var (
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextDim   lipgloss.Color
)

// Text styles
var (
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Label       lipgloss.Style
	Highlight   lipgloss.Style
	Muted       lipgloss.Style
	Dim         lipgloss.Style
	Playing     lipgloss.Style
	Paused      lipgloss.Style
	Lyric       lipgloss.Style
	ActiveLyric lipgloss.Style
)

// Border styles
var (
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	apply(catppuccin.Mocha)
}

// Flavor resolves a theme name. "auto" picks Latte on light terminals and
// Mocha otherwise.
func Flavor(name string) (catppuccin.Flavor, error) {
	if name == "" || strings.EqualFold(name, "auto") {
		if lipgloss.HasDarkBackground() {
			return catppuccin.Mocha, nil
		}
		return catppuccin.Latte, nil
	}
	f := catppuccin.Variant(name)
	if f == nil {
		return nil, fmt.Errorf("unknown theme %q (must be one of %s)", name, strings.Join(Themes, ", "))
	}
	return f, nil
}

// Use switches every style to the named theme.
func Use(name string) error {
	f, err := Flavor(name)
	if err != nil {
		return err
	}
	apply(f)
	return nil
}

func apply(f catppuccin.Flavor) {
	Primary = lipgloss.Color(f.Mauve().Hex)
	Secondary = lipgloss.Color(f.Green().Hex)
	Warning = lipgloss.Color(f.Peach().Hex)
	Error = lipgloss.Color(f.Red().Hex)
	Border = lipgloss.Color(f.Surface2().Hex)
	Text = lipgloss.Color(f.Text().Hex)
	TextMuted = lipgloss.Color(f.Subtext0().Hex)
	TextDim = lipgloss.Color(f.Overlay0().Hex)

	Title = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Subtitle = lipgloss.NewStyle().Foreground(TextMuted)
	Label = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Playing = lipgloss.NewStyle().Foreground(Secondary)
	Paused = lipgloss.NewStyle().Foreground(Warning)
	Lyric = lipgloss.NewStyle().Foreground(TextMuted)
	ActiveLyric = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(f.Yellow().Hex))

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)
	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
}

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar renders a bar of exactly width cells. dragging switches the
// fill to the warning color so a held seek is visibly distinct.
func ProgressBar(percent float64, width int, dragging bool) string {
	if width <= 0 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	fill := Primary
	if dragging {
		fill = Warning
	}
	filledStyle := lipgloss.NewStyle().Foreground(fill)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(paused bool) string {
	if paused {
		return Paused.Render("⏸")
	}
	return Playing.Render("▶")
}

package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/tui/styles"
)

// SearchField restricts which track field a query matches.
type SearchField int

const (
	SearchAll SearchField = iota
	SearchTitle
	SearchArtist
	SearchAlbum
	searchFieldCount
)

var searchFieldNames = []string{"All", "Title", "Artist", "Album"}

// SearchResult is a matching track and its position in the library.
type SearchResult struct {
	Index    int
	Title    string
	Subtitle string
}

// SearchFunc is a function that performs a search.
type SearchFunc func(query string, field SearchField) ([]SearchResult, error)

// LibrarySearch searches tracks in memory, ignoring case.
func LibrarySearch(tracks []core.Track) SearchFunc {
	return func(query string, field SearchField) ([]SearchResult, error) {
		q := strings.ToLower(strings.TrimSpace(query))
		if q == "" {
			return nil, nil
		}
		var out []SearchResult
		for i, t := range tracks {
			var hay string
			switch field {
			case SearchTitle:
				hay = t.Title
			case SearchArtist:
				hay = t.Artist()
			case SearchAlbum:
				hay = t.Album
			default:
				hay = t.Title + " " + t.Artist() + " " + t.Album
			}
			if strings.Contains(strings.ToLower(hay), q) {
				out = append(out, SearchResult{
					Index:    i,
					Title:    t.DisplayTitle(),
					Subtitle: subtitle(t),
				})
			}
		}
		return out, nil
	}
}

func subtitle(t core.Track) string {
	parts := make([]string, 0, 2)
	if a := t.Artist(); a != "" {
		parts = append(parts, a)
	}
	if t.Album != "" {
		parts = append(parts, t.Album)
	}
	return strings.Join(parts, " · ")
}

// SearchModel is the bubbletea model for the search wizard.
type SearchModel struct {
	input      textinput.Model
	results    []SearchResult
	cursor     int
	field      SearchField
	searchFunc SearchFunc
	selected   *SearchResult
	err        error
	debounce   time.Duration
	lastQuery  string
	width      int
	height     int
}

// NewSearchModel creates a new search wizard model.
func NewSearchModel(searchFunc SearchFunc) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search by title, artist or album..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return SearchModel{
		input:      ti,
		searchFunc: searchFunc,
		debounce:   150 * time.Millisecond,
		width:      80,
		height:     20,
	}
}

// Init initializes the model.
func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

type debounceMsg struct {
	query string
}

type searchResultsMsg struct {
	results []SearchResult
	err     error
}

// Update handles messages.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if len(m.results) > 0 && m.cursor < len(m.results) {
				m.selected = &m.results[m.cursor]
				return m, tea.Quit
			}
			return m, nil

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil

		case "tab":
			m.field = (m.field + 1) % searchFieldCount
			return m, m.doSearch(m.input.Value())

		case "shift+tab":
			m.field = (m.field + searchFieldCount - 1) % searchFieldCount
			return m, m.doSearch(m.input.Value())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4

	case debounceMsg:
		if msg.query == m.input.Value() && msg.query != m.lastQuery {
			m.lastQuery = msg.query
			return m, m.doSearch(msg.query)
		}
		return m, nil

	case searchResultsMsg:
		m.results = msg.results
		m.err = msg.err
		m.cursor = 0
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	if m.input.Value() != m.lastQuery {
		query := m.input.Value()
		cmds = append(cmds, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return debounceMsg{query: query}
		}))
	}

	return m, tea.Batch(cmds...)
}

func (m SearchModel) doSearch(query string) tea.Cmd {
	field := m.field
	return func() tea.Msg {
		results, err := m.searchFunc(query, field)
		return searchResultsMsg{results: results, err: err}
	}
}

// View renders the model.
func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("🔍 Search library"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	active := lipgloss.NewStyle().Padding(0, 2).Background(styles.Primary).Foreground(styles.Text)
	inactive := lipgloss.NewStyle().Padding(0, 2).Foreground(styles.TextMuted)
	for i, name := range searchFieldNames {
		if SearchField(i) == m.field {
			b.WriteString(active.Render(name))
		} else {
			b.WriteString(inactive.Render(name))
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Error).Render("Error: " + m.err.Error()))
	case len(m.results) == 0 && m.input.Value() != "":
		b.WriteString(styles.Muted.Render("No results found"))
	default:
		maxResults := m.height - 10
		if maxResults < 5 {
			maxResults = 5
		}
		for i, result := range m.results {
			if i >= maxResults {
				b.WriteString(styles.Dim.Render(fmt.Sprintf("  ...and %d more", len(m.results)-maxResults)))
				break
			}
			line := result.Title
			if result.Subtitle != "" {
				line += " " + styles.Muted.Render(result.Subtitle)
			}
			if i == m.cursor {
				b.WriteString(styles.Highlight.Render("▸ ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓ navigate • tab switch field • enter select • esc quit"))
	return b.String()
}

// Selected returns the selected result, or nil if none.
func (m SearchModel) Selected() *SearchResult {
	return m.selected
}

// RunSearch runs the search wizard over tracks and returns the chosen index,
// or -1 if the user quit without choosing.
func RunSearch(tracks []core.Track) (int, error) {
	if !IsTerminal() {
		return -1, errors.ErrNoTerminal
	}
	p := tea.NewProgram(NewSearchModel(LibrarySearch(tracks)), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return -1, err
	}
	if sel := final.(SearchModel).Selected(); sel != nil {
		return sel.Index, nil
	}
	return -1, nil
}

package tui

import (
	"context"

	"github.com/shelfindex/bookfts/internal/search"
	tea "github.com/charmbracelet/bubbletea"
)

// performSearch runs a book search in the background
func performSearch(engine *search.Engine, query string) tea.Cmd {
	return func() tea.Msg {
		resp, err := engine.Search(context.Background(), search.Params{
			Query: query,
			Limit: 20,
			Fuzzy: true,
		})
		if err != nil {
			return errMsg{err}
		}
		return resultsMsg(resp.Results)
	}
}

// recordClick records a click against a book's click count in the
// background; the UI doesn't wait on it. Update opens the detail view.
func recordClick(engine *search.Engine, bookID int) tea.Cmd {
	return func() tea.Msg {
		engine.RecordClick(context.Background(), bookID)
		return nil
	}
}

type resultsMsg []search.Result
type errMsg struct{ err error }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}

		switch m.state {
		case StateInput:
			switch msg.Type {
			case tea.KeyEnter:
				if m.query != "" {
					m.state = StateSearching
					return m, performSearch(m.engine, m.query)
				}
			case tea.KeyEsc:
				return m, tea.Quit
			case tea.KeyBackspace:
				if len(m.query) > 0 {
					m.query = m.query[:len(m.query)-1]
				}
			case tea.KeyRunes:
				m.query += string(msg.Runes)
			case tea.KeySpace:
				m.query += " "
			}

		case StateBrowsing, StateError:
			switch msg.String() {
			case "q", "esc":
				m.state = StateInput
				m.results = nil
				m.cursor = 0
				m.err = nil
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.results)-1 {
					m.cursor++
				}
			case "enter":
				if m.state == StateBrowsing && m.cursor < len(m.results) {
					r := m.results[m.cursor]
					m.detail = &r
					m.state = StateDetail
					return m, recordClick(m.engine, r.Book.ID)
				}
			}

		case StateDetail:
			switch msg.String() {
			case "q", "esc", "enter":
				m.state = StateBrowsing
				m.detail = nil
			}
		}

	case resultsMsg:
		m.results = msg
		m.state = StateBrowsing
		m.cursor = 0

	case errMsg:
		m.err = msg.err
		m.state = StateError

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

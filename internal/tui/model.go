// Package tui implements an interactive Bubble Tea browser over search
// results, grounded on the teacher's internal/tui package shape (a single
// Model cycling through input/searching/browsing/error states) generalized
// from a command list to a scored book list.
package tui

import (
	"github.com/shelfindex/bookfts/internal/search"
	tea "github.com/charmbracelet/bubbletea"
)

// AppState represents the current state of the TUI
type AppState int

const (
	StateInput AppState = iota
	StateSearching
	StateBrowsing
	StateDetail
	StateError
)

// Model holds the application state
type Model struct {
	state          AppState
	query          string
	results        []search.Result
	cursor         int
	viewportOffset int
	detail         *search.Result
	err            error
	width          int
	height         int
	engine         *search.Engine
}

// NewModel creates a new TUI model bound to engine, optionally kicking off
// an immediate search for initialQuery.
func NewModel(engine *search.Engine, initialQuery string) Model {
	m := Model{
		state:  StateInput,
		query:  initialQuery,
		engine: engine,
		cursor: 0,
	}

	if initialQuery != "" {
		m.state = StateSearching
	}

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, tea.EnterAltScreen)

	if m.query != "" {
		cmds = append(cmds, performSearch(m.engine, m.query))
	}

	return tea.Batch(cmds...)
}

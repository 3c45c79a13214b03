// Package tui implements the Bubbletea terminal UI for Omniscient.
//
// Structure:
// - Screen constants as iota
// - Single Model struct holds ALL state
// - Update() with type switch
// - Per-screen key handlers returning (tea.Model, tea.Cmd)
// - Vim keys (j/k) for navigation
// - PrevScreen for back navigation
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/daneb/omniscient/internal/store"
)

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenSearch
	ScreenSearchResults
	ScreenRecent
	ScreenTop
	ScreenDetail
)

// ─── Custom Messages ─────────────────────────────────────────────────────────

type statsLoadedMsg struct {
	stats *store.Stats
	err   error
}

type searchResultsMsg struct {
	results []store.Record
	query   string
	err     error
}

type recentLoadedMsg struct {
	records []store.Record
	err     error
}

type topLoadedMsg struct {
	records []store.Record
	err     error
}

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	store      *store.Store
	Version    string
	Screen     Screen
	PrevScreen Screen
	Width      int
	Height     int
	Cursor     int
	Scroll     int

	// Error display
	ErrorMsg string

	// Dashboard
	Stats *store.Stats

	// Search
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResults []store.Record
	Searching     bool
	SearchSpinner spinner.Model

	// Recent / Top lists
	RecentCommands []store.Record
	TopCommands    []store.Record

	// Record detail
	Selected     *store.Record
	DetailScroll int
}

// New creates a new TUI model connected to the given store.
func New(s *store.Store, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search history..."
	ti.CharLimit = 256
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return Model{
		store:         s,
		Version:       version,
		Screen:        ScreenDashboard,
		SearchInput:   ti,
		SearchSpinner: sp,
	}
}

// Init loads initial data (stats for the dashboard).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadStats(m.store),
		tea.EnterAltScreen,
	)
}

// ─── Commands (data loading) ─────────────────────────────────────────────────

func loadStats(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		stats, err := s.Stats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func searchHistory(s *store.Store, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := s.Query(context.Background(), store.Query{
			Term:  query,
			Limit: 50,
			Order: store.OrderRelevance,
		})
		return searchResultsMsg{results: results, query: query, err: err}
	}
}

func loadRecent(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		records, err := s.Recent(context.Background(), 50, "", false)
		return recentLoadedMsg{records: records, err: err}
	}
}

func loadTop(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		records, err := s.Top(context.Background(), 50, "", false)
		return topLoadedMsg{records: records, err: err}
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/daneb/omniscient/internal/store"
)

// ─── Logo ────────────────────────────────────────────────────────────────────

func renderLogo() string {
	logoText := []string{
		`   ____   __  ___  _   __  ____   _____  ______  ____  ______  _   __ ______`,
		`  / __ \ /  |/  / / | / / /  _/  / ___/ / ____/ /  _/ / ____/ / | / //_  __/`,
		` / / / // /|_/ / /  |/ /  / /    \__ \ / /      / /  / __/   /  |/ /  / /   `,
		`/ /_/ // /  / / / /|  / _/ /    ___/ // /___  _/ /  / /___  / /|  /  / /    `,
		`\____//_/  /_/ /_/ |_/ /___/   /____/ \____/ /___/ /_____/ /_/ |_/  /_/     `,
	}

	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorOverlay).
		Padding(0, 1).
		MarginBottom(1)

	textStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	taglineStyle := lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)

	var b strings.Builder
	for _, line := range logoText {
		b.WriteString(" " + textStyle.Render(line) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(taglineStyle.Render(" > omniscient — every command, remembered"))

	return frameStyle.Render(b.String()) + "\n"
}

// ─── View (main router) ─────────────────────────────────────────────────────

func (m Model) View() string {
	var content string

	switch m.Screen {
	case ScreenDashboard:
		content = m.viewDashboard()
	case ScreenSearch:
		content = m.viewSearch()
	case ScreenSearchResults:
		content = m.viewSearchResults()
	case ScreenRecent:
		content = m.viewList("Recent Commands", m.RecentCommands, false)
	case ScreenTop:
		content = m.viewList("Top Commands", m.TopCommands, true)
	case ScreenDetail:
		content = m.viewDetail()
	default:
		content = "Unknown screen"
	}

	// Show error if present
	if m.ErrorMsg != "" {
		content += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}

	return appStyle.Render(content)
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder

	b.WriteString(renderLogo())
	b.WriteString("\n")

	if m.Stats != nil {
		statsContent := fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %s",
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.TotalCommands)),
			statLabelStyle.Render("commands"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.SuccessfulCommands)),
			statLabelStyle.Render("succeeded"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.FailedCommands)),
			statLabelStyle.Render("failed"),
			statNumberStyle.Render(fmt.Sprintf("%.0f%%", m.Stats.SuccessRate())),
			statLabelStyle.Render("success rate"),
		)
		b.WriteString(statCardStyle.Render(statsContent))
		b.WriteString("\n")

		if len(m.Stats.ByCategory) > 0 {
			b.WriteString(titleStyle.Render("  Categories"))
			b.WriteString("\n")

			limit := 5
			for i, c := range m.Stats.ByCategory {
				if i >= limit {
					break
				}
				b.WriteString(listItemStyle.Render(fmt.Sprintf("• %-12s %d", c.Category, c.Count)))
				b.WriteString("\n")
			}
			if len(m.Stats.ByCategory) > limit {
				remaining := len(m.Stats.ByCategory) - limit
				b.WriteString(fmt.Sprintf("    %s\n", timestampStyle.Render(fmt.Sprintf("...and %d more categories", remaining))))
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString(statCardStyle.Render("Loading stats..."))
		b.WriteString("\n")
	}

	// Menu
	b.WriteString(titleStyle.Render("  Actions"))
	b.WriteString("\n")

	for i, item := range dashboardMenuItems {
		if i == m.Cursor {
			b.WriteString(menuSelectedStyle.Render("▸ " + item))
		} else {
			b.WriteString(menuItemStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter select • s search • q quit"))

	return b.String()
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Search History"))
	b.WriteString("\n\n")

	b.WriteString(searchInputStyle.Render(m.SearchInput.View()))
	b.WriteString("\n\n")

	if m.Searching {
		b.WriteString(fmt.Sprintf("  %s Searching...\n\n", m.SearchSpinner.View()))
	}

	b.WriteString(helpStyle.Render("  Type a query and press enter • esc go back"))

	return b.String()
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) viewSearchResults() string {
	var b strings.Builder

	resultCount := len(m.SearchResults)
	header := fmt.Sprintf("  Search: %q — %d result", m.SearchQuery, resultCount)
	if resultCount != 1 {
		header += "s"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if resultCount == 0 {
		b.WriteString(noResultsStyle.Render("No commands found. Try a different query."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  / new search • esc back"))
		return b.String()
	}

	b.WriteString(m.renderRecordList(m.SearchResults, false))
	b.WriteString(helpStyle.Render("\n  j/k navigate • enter detail • / search • esc back"))

	return b.String()
}

// ─── Recent / Top lists ──────────────────────────────────────────────────────

func (m Model) viewList(title string, records []store.Record, byUsage bool) string {
	var b strings.Builder

	count := len(records)
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %s — %d total", title, count)))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No commands recorded yet."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  esc back"))
		return b.String()
	}

	b.WriteString(m.renderRecordList(records, byUsage))
	b.WriteString(helpStyle.Render("\n  j/k navigate • enter detail • esc back"))

	return b.String()
}

// ─── Record Detail ───────────────────────────────────────────────────────────

func (m Model) viewDetail() string {
	var b strings.Builder

	if m.Selected == nil {
		b.WriteString(headerStyle.Render("  Command Detail"))
		b.WriteString("\n")
		b.WriteString(noResultsStyle.Render("Nothing selected."))
		return b.String()
	}

	rec := m.Selected

	b.WriteString(headerStyle.Render(fmt.Sprintf("  Command #%d", rec.ID)))
	b.WriteString("\n")

	b.WriteString(commandStyle.Render(rec.Command))
	b.WriteString("\n")

	exitStyle := exitOKStyle
	exitText := "0 (ok)"
	if !rec.Success() {
		exitStyle = exitFailStyle
		exitText = fmt.Sprintf("%d", rec.ExitCode)
	}

	rows := []struct {
		label string
		value string
	}{
		{"Category:", categoryBadgeStyle.Render(rec.Category)},
		{"Directory:", pathStyle.Render(rec.Cwd)},
		{"Exit:", exitStyle.Render(exitText)},
		{"Duration:", detailValueStyle.Render(fmt.Sprintf("%d ms", rec.DurationMS))},
		{"Used:", detailValueStyle.Render(fmt.Sprintf("%d times", rec.UsageCount))},
		{"First run:", timestampStyle.Render(rec.OccurredAt.Format("2006-01-02 15:04:05"))},
		{"Last used:", timestampStyle.Render(rec.LastUsedAt.Format("2006-01-02 15:04:05"))},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%s %s\n", detailLabelStyle.Render(row.label), row.value))
	}

	b.WriteString(helpStyle.Render("\n  esc back"))

	return b.String()
}

// ─── Shared Renderers ────────────────────────────────────────────────────────

func (m Model) renderRecordList(records []store.Record, byUsage bool) string {
	var b strings.Builder

	count := len(records)
	visibleItems := (m.Height - 10) / 2 // 2 lines per record item
	if visibleItems < 3 {
		visibleItems = 3
	}

	end := m.Scroll + visibleItems
	if end > count {
		end = count
	}

	for i := m.Scroll; i < end; i++ {
		b.WriteString(m.renderRecordListItem(i, records[i], byUsage))
	}

	if count > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	return b.String()
}

func (m Model) renderRecordListItem(index int, rec store.Record, byUsage bool) string {
	cursor := "  "
	style := listItemStyle
	if index == m.Cursor {
		cursor = "▸ "
		style = listSelectedStyle
	}

	lead := timestampStyle.Render(rec.LastUsedAt.Format("Jan 02 15:04"))
	if byUsage {
		lead = statNumberStyle.Width(5).Render(fmt.Sprintf("%dx", rec.UsageCount))
	}

	exit := exitOKStyle.Render("✓")
	if !rec.Success() {
		exit = exitFailStyle.Render("✗")
	}

	line := fmt.Sprintf("%s%s %s %s %s\n",
		cursor,
		lead,
		exit,
		style.Render(truncateStr(rec.Command, 60)),
		categoryBadgeStyle.Render("["+rec.Category+"]"))

	line += fmt.Sprintf("      %s\n", pathStyle.Render(truncateStr(rec.Cwd, 70)))

	return line
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func truncateStr(s string, max int) string {
	// Remove newlines for single-line display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

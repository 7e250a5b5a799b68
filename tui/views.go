// ABOUTME: Render functions for the dashboard panes
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("COLDREACH"))
	s.WriteString("  ")
	s.WriteString(m.renderConnection())
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderTable())
	s.WriteString("\n\n")

	s.WriteString(m.renderStatsLine())
	s.WriteString("\n")
	if m.status != "" {
		s.WriteString(m.status)
		s.WriteString("\n")
	}
	s.WriteString(m.renderHelp())

	return s.String()
}

func (m Model) renderConnection() string {
	if m.handle.IsConnected() {
		return connectedStyle.Render("● live")
	}
	return offlineStyle.Render("○ offline")
}

func (m Model) renderTabs() string {
	tabs := []string{"Leads", "Campaigns", "Activity"}
	var rendered []string

	for i, tab := range tabs {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	switch m.tab {
	case TabLeads:
		return m.renderLeadsTable()
	case TabCampaigns:
		return m.renderCampaignsTable()
	case TabActivity:
		return m.renderActivityTable()
	}
	return ""
}

func (m Model) renderLeadsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 25},
		{Title: "Company", Width: 20},
		{Title: "Status", Width: 12},
		{Title: "Headline", Width: 30},
	}

	var rows []table.Row
	for _, l := range m.leads {
		status := l.Status
		if m.optimist.Pending(l.ID.String()) {
			status += " *"
		}
		rows = append(rows, table.Row{l.Name, l.Company, status, l.Headline})
	}

	return m.buildTable(columns, rows)
}

func (m Model) renderCampaignsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Status", Width: 12},
		{Title: "Daily Limit", Width: 12},
	}

	var rows []table.Row
	for _, c := range m.campaigns {
		rows = append(rows, table.Row{c.Name, c.Status, fmt.Sprintf("%d", c.DailyLimit)})
	}

	return m.buildTable(columns, rows)
}

func (m Model) renderActivityTable() string {
	columns := []table.Column{
		{Title: "When", Width: 17},
		{Title: "Verb", Width: 10},
		{Title: "Kind", Width: 15},
		{Title: "Entity", Width: 36},
	}

	var rows []table.Row
	for _, a := range m.activity {
		rows = append(rows, table.Row{
			a.CreatedAt.Format("2006-01-02 15:04"),
			string(a.Verb),
			a.EntityKind,
			a.EntityID,
		})
	}

	return m.buildTable(columns, rows)
}

func (m Model) buildTable(columns []table.Column, rows []table.Row) string {
	height := m.height - 12
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderStatsLine() string {
	if m.stats == nil {
		return ""
	}
	line := fmt.Sprintf("%d leads · %d campaigns (%d active) · %d replied this week",
		m.stats.TotalLeads, m.stats.TotalCampaigns, m.stats.ActiveCampaigns, m.stats.RepliedThisWeek)
	if m.cache.IsStale(queryStats) {
		line += "  (refreshing)"
	}
	return helpStyle.Render(line)
}

func (m Model) renderHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"a: Advance lead",
		"c: Toggle connection",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

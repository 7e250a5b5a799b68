// ABOUTME: Terminal dashboard using bubbletea
// ABOUTME: Reads through the query cache and pushes optimistic status changes
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/coldreach/coldreach/client"
	"github.com/coldreach/coldreach/models"
)

// Tab is the active dashboard pane.
type Tab int

const (
	TabLeads Tab = iota
	TabCampaigns
	TabActivity
)

const (
	queryLeads     = "leads"
	queryCampaigns = "campaigns"
	queryStats     = "stats"
	queryActivity  = "activity"
)

type tickMsg time.Time

type mutationDoneMsg struct {
	leadID string
	lead   *models.Lead
	err    error
}

// Model is the main bubbletea model.
type Model struct {
	api      *apiClient
	handle   *client.Handle
	cache    *client.Cache
	optimist *client.Optimist
	logger   *log.Logger

	tab         Tab
	selectedRow int

	leads     []models.Lead
	campaigns []models.Campaign
	activity  []models.Activity
	stats     *models.DashboardStats

	width  int
	height int
	status string
}

// NewModel wires the dashboard against an already-connected client stack.
func NewModel(api *apiClient, handle *client.Handle, cache *client.Cache, logger *log.Logger) Model {
	return Model{
		api:      api,
		handle:   handle,
		cache:    cache,
		optimist: client.NewOptimist(cache, logger),
		logger:   logger,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tick()
	case mutationDoneMsg:
		return m.settleMutation(msg), nil
	}
	return m, nil
}

// refresh reads every view through the cache. Stale entries serve the
// last-known value and refetch in the background, so this stays cheap.
func (m *Model) refresh() {
	ctx := context.Background()

	if v, err := m.cache.Get(ctx, queryLeads); err == nil {
		m.leads = v.([]models.Lead)
	}
	if v, err := m.cache.Get(ctx, queryCampaigns); err == nil {
		m.campaigns = v.([]models.Campaign)
	}
	if v, err := m.cache.Get(ctx, queryStats); err == nil {
		m.stats = v.(*models.DashboardStats)
	}
	if v, err := m.cache.Get(ctx, queryActivity); err == nil {
		m.activity = v.([]models.Activity)
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % 3
		m.selectedRow = 0
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "c":
		m.handle.ToggleConnection()
		if m.handle.IsConnected() {
			m.status = "connected"
		} else {
			m.status = "offline"
		}
	case "a":
		return m.advanceSelected()
	case "r":
		m.cache.Invalidate(client.TagLeads, client.TagCampaigns, client.TagDashboard)
	}
	return m, nil
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabLeads:
		return len(m.leads)
	case TabCampaigns:
		return len(m.campaigns)
	case TabActivity:
		return len(m.activity)
	}
	return 0
}

// advanceSelected optimistically moves the selected lead to its next
// pipeline status, then confirms with the server.
func (m Model) advanceSelected() (tea.Model, tea.Cmd) {
	if m.tab != TabLeads || m.selectedRow >= len(m.leads) {
		return m, nil
	}
	lead := m.leads[m.selectedRow]
	next := models.NextLeadStatus(lead.Status)
	if next == lead.Status {
		m.status = "lead is terminal"
		return m, nil
	}
	id := lead.ID.String()

	err := m.optimist.Begin(id, queryLeads, func(current interface{}) interface{} {
		leads, _ := current.([]models.Lead)
		patched := make([]models.Lead, len(leads))
		copy(patched, leads)
		for i := range patched {
			if patched[i].ID == lead.ID {
				patched[i].Status = next
			}
		}
		return patched
	})
	if err != nil {
		m.status = "change already pending"
		return m, nil
	}

	m.status = "saving..."
	api := m.api
	return m, func() tea.Msg {
		updated, err := api.UpdateLeadStatus(context.Background(), id, next)
		return mutationDoneMsg{leadID: id, lead: updated, err: err}
	}
}

// settleMutation resolves an in-flight optimistic patch with the server's
// answer.
func (m Model) settleMutation(msg mutationDoneMsg) Model {
	if msg.err != nil {
		m.optimist.Fail(msg.leadID, msg.err == ErrGone)
		m.status = "change rejected: " + msg.err.Error()
		return m
	}

	// Rebuild the list around the authoritative record.
	current, _ := m.cache.Peek(queryLeads)
	leads, _ := current.([]models.Lead)
	settled := make([]models.Lead, len(leads))
	copy(settled, leads)
	for i := range settled {
		if settled[i].ID == msg.lead.ID {
			settled[i] = *msg.lead
		}
	}
	m.optimist.Commit(msg.leadID, settled)
	m.status = "saved"
	return m
}

// Run wires the client stack against the API server and blocks in the TUI.
func Run(apiURL, socketURL, token string, handleCfg client.HandleConfig, logger *log.Logger) error {
	api := newAPIClient(apiURL, token)

	cache := client.NewCache(logger)
	cache.Register(queryLeads, client.Query{
		Tags: []string{client.TagLeads},
		Fetch: func(ctx context.Context) (interface{}, error) {
			return api.Leads(ctx)
		},
		Refresh: 30 * time.Second,
	})
	cache.Register(queryCampaigns, client.Query{
		Tags: []string{client.TagCampaigns},
		Fetch: func(ctx context.Context) (interface{}, error) {
			return api.Campaigns(ctx)
		},
		Refresh: 30 * time.Second,
	})
	cache.Register(queryStats, client.Query{
		Tags: []string{client.TagDashboard},
		Fetch: func(ctx context.Context) (interface{}, error) {
			return api.Stats(ctx)
		},
		Refresh: 30 * time.Second,
	})
	cache.Register(queryActivity, client.Query{
		Tags: []string{client.TagDashboard},
		Fetch: func(ctx context.Context) (interface{}, error) {
			return api.Activity(ctx)
		},
		Refresh: 30 * time.Second,
	})

	handleCfg.URL = socketURL
	handle := client.NewHandle(handleCfg, logger)
	defer handle.Close()

	unbind := client.BindInvalidator(handle, cache, logger)
	defer unbind()

	if err := handle.Connect(); err != nil {
		// The dashboard still works offline on the polling fallback.
		logger.Warn("push channel unavailable, polling only", "err", err)
	}

	model := NewModel(api, handle, cache, logger)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	connectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

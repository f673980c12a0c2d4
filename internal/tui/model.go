// Package tui is the price dashboard served over SSH.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dashboard-sync/internal/client"
	"dashboard-sync/internal/dashboard"
	"dashboard-sync/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PriceSource is the server API the dashboard reads from.
type PriceSource interface {
	FetchPrices(ctx context.Context) (domain.Snapshot, error)
	TriggerUpdate(ctx context.Context) (*client.UpdateResult, error)
}

const requestTimeout = 30 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tableBorder  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

type (
	pricesMsg struct {
		snap domain.Snapshot
		err  error
	}
	syncMsg struct {
		res *client.UpdateResult
		err error
	}
	tickMsg time.Time
)

// Model keeps the rendered rows and patches their price cells whenever a
// new snapshot arrives, the same way the browser script patches the page.
type Model struct {
	source   PriceSource
	interval time.Duration
	username string

	table   table.Model
	rows    []dashboard.Row
	changed []string

	lastUpdate string
	status     string
	err        error
	width      int
	height     int
}

func NewModel(source PriceSource, interval time.Duration, username string) *Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return &Model{
		source:   source,
		interval: interval,
		username: username,
		table:    t,
		rows:     []dashboard.Row{{"Symbol", "Name", "Price", "Pair", "Updated"}},
		status:   "Loading prices...",
	}
}

func columns(width int) []table.Column {
	if width < 60 {
		width = 60
	}
	rest := width - 10 - 14 - 12
	return []table.Column{
		{Title: "Symbol", Width: 10},
		{Title: "Name", Width: rest / 2},
		{Title: "Price", Width: 14},
		{Title: "Pair", Width: 12},
		{Title: "Updated", Width: rest - rest/2},
	}
}

// SetSize adapts the table to the terminal.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.table.SetColumns(columns(width - 4))
	if h := height - 8; h > 3 {
		m.table.SetHeight(h)
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "Syncing with Airtable..."
			return m, m.sync()
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	case pricesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applySnapshot(msg.snap)
		return m, nil
	case syncMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
			m.status = "Sync failed"
		case !msg.res.Success:
			m.status = msg.res.Message
		default:
			m.status = msg.res.Message
			return m, m.fetch()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Crypto prices"))
	if m.username != "" {
		b.WriteString(statusStyle.Render("  " + m.username))
	}
	b.WriteString("\n\n")
	b.WriteString(tableBorder.Render(m.table.View()))
	b.WriteString("\n")

	if len(m.changed) > 0 {
		b.WriteString(changedStyle.Render("Updated: " + strings.Join(m.changed, ", ")))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	last := m.lastUpdate
	if last == "" {
		last = "never"
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s | last update %s | r: sync  q: quit", m.status, last)))
	return b.String()
}

// applySnapshot keeps one row per symbol in the snapshot, carrying over the
// displayed price so that only cells outside tolerance are rewritten.
func (m *Model) applySnapshot(snap domain.Snapshot) {
	existing := make(map[string]dashboard.Row, len(m.rows))
	for _, row := range m.rows[1:] {
		existing[row[dashboard.SymbolColumn]] = row
	}

	symbols := make([]string, 0, len(snap.Prices))
	for s := range snap.Prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	rows := make([]dashboard.Row, 0, len(symbols)+1)
	rows = append(rows, m.rows[0])
	for _, s := range symbols {
		entry := snap.Prices[s]
		price := ""
		if prev, ok := existing[s]; ok {
			price = prev[dashboard.PriceColumn]
		}
		rows = append(rows, dashboard.Row{s, entry.Name, price, entry.Pair, entry.LastUpdate})
	}

	changes := dashboard.Patch(rows, snap.Prices)
	dashboard.Apply(rows, changes)

	m.changed = m.changed[:0]
	for _, ch := range changes {
		m.changed = append(m.changed, ch.Symbol)
	}
	m.rows = rows
	if ts := snap.LastUpdateISO(); ts != nil {
		m.lastUpdate = *ts
	}
	m.status = fmt.Sprintf("%d symbols", len(symbols))

	tableRows := make([]table.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		tableRows = append(tableRows, table.Row(row))
	}
	m.table.SetRows(tableRows)
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := m.source.FetchPrices(ctx)
		return pricesMsg{snap: snap, err: err}
	}
}

func (m *Model) sync() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := m.source.TriggerUpdate(ctx)
		return syncMsg{res: res, err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

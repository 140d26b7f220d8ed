// Package tui is the interactive terminal browser.
//
// The bubbletea Update loop is the only place model state changes. Every
// database call runs as a tea.Cmd that goes through the client, and so
// through the bridge, and reports back with a message.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/slickdata/internal/bridge"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/credstore"
	"github.com/leapstack-labs/slickdata/internal/history"
	"github.com/leapstack-labs/slickdata/internal/notifier"
	"github.com/leapstack-labs/slickdata/internal/results"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

type focus int

const (
	focusConnections focus = iota
	focusTables
	focusInput
	focusResults
	focusCount
)

const (
	leftWidth    = 30
	maxCellWidth = 40
)

// Options are the dependencies of the browser.
type Options struct {
	Bridge       *bridge.Bridge
	Store        *credstore.Store
	History      *history.Store // optional
	Logger       *slog.Logger
	PreviewLimit int    // 0 previews whole tables
	Connect      string // connection opened once the list loads
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx          context.Context
	bridge       *bridge.Bridge
	store        *credstore.Store
	history      *history.Store
	logger       *slog.Logger
	previewLimit int
	autoConnect  string

	notifier    *notifier.Notifier
	view        *results.View
	gens        <-chan uint64
	unsubscribe func()
	reloads     <-chan struct{}

	conns  list.Model
	tables list.Model
	input  textinput.Model
	grid   table.Model
	help   help.Model
	keys   keyMap

	client   *client.Client
	result   *core.QueryResult
	shownGen uint64
	sortCol  int

	focus     focus
	status    string
	statusErr bool
	width     int
	height    int
}

// New builds the model. Close releases what it holds.
func New(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	n := notifier.New()
	gens, unsubscribe := n.Subscribe()

	conns := list.New(nil, list.NewDefaultDelegate(), leftWidth, 10)
	conns.Title = "Connections"
	conns.SetShowHelp(false)
	conns.SetFilteringEnabled(false)
	conns.DisableQuitKeybindings()

	compact := list.NewDefaultDelegate()
	compact.ShowDescription = false
	compact.SetSpacing(0)
	tables := list.New(nil, compact, leftWidth, 10)
	tables.Title = "Tables"
	tables.SetShowHelp(false)
	tables.SetFilteringEnabled(false)
	tables.DisableQuitKeybindings()

	input := textinput.New()
	input.Prompt = "SQL> "
	input.Placeholder = "SELECT ..."

	grid := table.New(table.WithFocused(false))

	return &Model{
		ctx:          ctx,
		bridge:       opts.Bridge,
		store:        opts.Store,
		history:      opts.History,
		logger:       logger,
		previewLimit: opts.PreviewLimit,
		autoConnect:  opts.Connect,
		notifier:     n,
		view:         results.NewView(results.WithNotifier(n), results.WithLogger(logger)),
		gens:         gens,
		unsubscribe:  unsubscribe,
		conns:        conns,
		tables:       tables,
		input:        input,
		grid:         grid,
		help:         help.New(),
		keys:         defaultKeyMap(),
		result:       core.EmptyResult(),
		status:       "Select a connection and press enter",
	}
}

// Close drops the active client and stops the notifier.
func (m *Model) Close() {
	if m.client != nil {
		m.client.Release()
		m.client = nil
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.notifier.Close()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadConnections(), waitForGeneration(m.gens), waitForReload(m.reloads))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectionsMsg:
		items := make([]list.Item, len(msg.conns))
		for i, c := range msg.conns {
			items[i] = connItem{cfg: c}
		}
		m.conns.SetItems(items)
		m.setStatus(fmt.Sprintf("%d connections", len(msg.conns)))
		if name := m.autoConnect; name != "" {
			m.autoConnect = ""
			for i, c := range msg.conns {
				if c.Name == name {
					m.conns.Select(i)
					m.setFocus(focusConnections)
					return m, m.activate()
				}
			}
			m.setError(core.InvalidInputf("no connection named %q", name))
		}
		return m, nil

	case connectedMsg:
		if m.client != nil {
			m.client.Release()
		}
		m.client = msg.client
		m.view.SetExecutor(history.NewRecorder(msg.client, m.history, msg.client.Name(), m.logger))
		m.view.SetResult("", nil)
		m.refresh()
		m.tables.SetItems(nil)
		m.setStatus("Connected to " + msg.client.Config().String())
		return m, m.loadTables()

	case tablesMsg:
		if m.client == nil || m.client.Name() != msg.connection {
			return m, nil
		}
		items := make([]list.Item, len(msg.tables))
		for i, t := range msg.tables {
			items[i] = tableItem{table: t}
		}
		m.tables.SetItems(items)
		return m, nil

	case resultMsg:
		m.refresh()
		m.setStatus(m.resultStatus())
		return m, nil

	case generationMsg:
		m.refresh()
		return m, waitForGeneration(m.gens)

	case reloadMsg:
		return m, tea.Batch(m.loadConnections(), waitForReload(m.reloads))

	case errMsg:
		m.setError(msg.err)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m, m.activate()
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Reload):
		m.setStatus("Reloading connections")
		return m, m.loadConnections()
	case key.Matches(msg, m.keys.Sort):
		return m, m.sortSelected(results.Unspecified)
	case key.Matches(msg, m.keys.SortDefault):
		return m, m.sortSelected(results.Default)
	case m.focus == focusResults && key.Matches(msg, m.keys.Left):
		if m.sortCol > 0 {
			m.sortCol--
			m.renderGrid()
		}
		return m, nil
	case m.focus == focusResults && key.Matches(msg, m.keys.Right):
		if m.sortCol < m.result.Width()-1 {
			m.sortCol++
			m.renderGrid()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusConnections:
		m.conns, cmd = m.conns.Update(msg)
	case focusTables:
		m.tables, cmd = m.tables.Update(msg)
	case focusResults:
		m.grid, cmd = m.grid.Update(msg)
	}
	return m, cmd
}

// activate handles enter in the focused pane.
func (m *Model) activate() tea.Cmd {
	switch m.focus {
	case focusConnections:
		item, ok := m.conns.SelectedItem().(connItem)
		if !ok {
			return nil
		}
		if !item.cfg.Usable() {
			m.setError(core.InvalidInputf("connection %q has no stored secret", item.cfg.Name))
			return nil
		}
		m.setStatus("Connecting to " + item.cfg.String())
		return m.connect(item.cfg)

	case focusTables:
		item, ok := m.tables.SelectedItem().(tableItem)
		if !ok {
			return nil
		}
		query := previewQuery(item.table, m.previewLimit)
		m.input.SetValue(query)
		return m.run(query)

	case focusInput:
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return nil
		}
		return m.run(query)
	}
	return nil
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		// Cursor blink is not needed.
		_ = m.input.Focus()
	} else {
		m.input.Blur()
	}
	if f == focusResults {
		m.grid.Focus()
	} else {
		m.grid.Blur()
	}
	m.renderGrid()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

// setError shows err verbatim in the status line.
func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) resultStatus() string {
	s := fmt.Sprintf("%d rows", m.result.Len())
	if st := m.view.SortState(); st.Column != "" {
		s += fmt.Sprintf(", sorted by %s %s", st.Column, st.Direction)
	}
	return s
}

// refresh pulls the view's result when its generation moved past the one
// on screen.
func (m *Model) refresh() {
	if m.view.Generation() == m.shownGen {
		return
	}
	res, gen := m.view.Snapshot()
	m.result = res
	m.shownGen = gen
	if m.sortCol >= res.Width() {
		m.sortCol = max(res.Width()-1, 0)
	}
	m.renderGrid()
}

func (m *Model) renderGrid() {
	res := m.result
	st := m.view.SortState()

	widths := make([]int, res.Width())
	for i, name := range res.Columns {
		widths[i] = lipgloss.Width(name) + 3
	}
	rows := make([]table.Row, len(res.Rows))
	for r, row := range res.Rows {
		cells := make(table.Row, len(row))
		for i, cell := range row {
			cell = strings.ReplaceAll(cell, "\n", " ")
			cells[i] = cell
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
		rows[r] = cells
	}

	cols := make([]table.Column, res.Width())
	for i, name := range res.Columns {
		title := name
		if st.Column == name {
			switch st.Direction {
			case results.Ascending:
				title += " ▲"
			case results.Descending:
				title += " ▼"
			}
		}
		if i == m.sortCol && m.focus == focusResults {
			title = "›" + title
		}
		cols[i] = table.Column{Title: title, Width: min(widths[i], maxCellWidth)}
	}

	// Rows must never be wider than the columns.
	m.grid.SetRows(nil)
	m.grid.SetColumns(cols)
	m.grid.SetRows(rows)
}

func (m *Model) resize() {
	bodyH := max(m.height-2, 8)
	rightW := max(m.width-leftWidth-4, 20)

	connsH := (bodyH - 4) / 2
	m.conns.SetSize(leftWidth, connsH)
	m.tables.SetSize(leftWidth, bodyH-4-connsH)

	m.input.Width = rightW - lipgloss.Width(m.input.Prompt) - 1
	m.grid.SetWidth(rightW)
	m.grid.SetHeight(max(bodyH-5, 1))
	m.help.Width = m.width
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.pane(focusConnections).Render(m.conns.View()),
		m.pane(focusTables).Render(m.tables.View()),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.pane(focusInput).Render(m.input.View()),
		m.pane(focusResults).Render(m.grid.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusView(), m.help.View(m.keys))
}

func (m *Model) pane(f focus) lipgloss.Style {
	if m.focus == f {
		return focusedPaneStyle
	}
	return paneStyle
}

func (m *Model) statusView() string {
	style := statusStyle
	if m.statusErr {
		style = errorStatusStyle
	}
	return style.Width(max(m.width, 1)).Render(m.status)
}

// previewQuery selects the first rows of t.
func previewQuery(t core.Table, limit int) string {
	name := results.QuoteIdent(t.Name)
	if s := t.SchemaName(); s != "" {
		name = results.QuoteIdent(s) + "." + name
	}
	q := "SELECT * FROM " + name
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

type connItem struct {
	cfg core.ConnectionConfig
}

func (i connItem) Title() string { return i.cfg.Name }

func (i connItem) Description() string {
	desc := strings.ToLower(i.cfg.DBType.String())
	if !i.cfg.Usable() {
		desc += " (no secret)"
	}
	return desc
}

func (i connItem) FilterValue() string { return i.cfg.Name }

type tableItem struct {
	table core.Table
}

func (i tableItem) Title() string       { return i.table.QualifiedName() }
func (i tableItem) Description() string { return "" }
func (i tableItem) FilterValue() string { return i.table.QualifiedName() }

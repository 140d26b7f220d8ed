package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/results"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

// The commands below run off the Update loop. They capture what they need
// up front and never touch the model.

func (m *Model) loadConnections() tea.Cmd {
	store := m.store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		conns, err := store.Load()
		if err != nil {
			return errMsg{err: err}
		}
		return connectionsMsg{conns: conns}
	}
}

func (m *Model) connect(cfg core.ConnectionConfig) tea.Cmd {
	ctx, br, logger := m.ctx, m.bridge, m.logger
	return func() tea.Msg {
		c, err := client.Open(ctx, br, cfg, logger)
		if err != nil {
			return errMsg{err: err}
		}
		return connectedMsg{client: c}
	}
}

func (m *Model) loadTables() tea.Cmd {
	ctx, c := m.ctx, m.client
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		tables, err := c.Tables(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return tablesMsg{connection: c.Name(), tables: tables}
	}
}

func (m *Model) run(query string) tea.Cmd {
	ctx, view := m.ctx, m.view
	m.setStatus("Running...")
	return func() tea.Msg {
		if err := view.Run(ctx, query); err != nil {
			return errMsg{err: err}
		}
		return resultMsg{gen: view.Generation()}
	}
}

// sortSelected sorts on the selected result column.
func (m *Model) sortSelected(dir results.Direction) tea.Cmd {
	if m.result.Width() == 0 {
		return nil
	}
	ctx, view := m.ctx, m.view
	column := m.result.Columns[m.sortCol]
	m.setStatus("Sorting by " + column + "...")
	return func() tea.Msg {
		if err := view.Sort(ctx, column, dir); err != nil {
			return errMsg{err: err}
		}
		return resultMsg{gen: view.Generation()}
	}
}

func waitForGeneration(gens <-chan uint64) tea.Cmd {
	if gens == nil {
		return nil
	}
	return func() tea.Msg {
		gen, ok := <-gens
		if !ok {
			return nil
		}
		return generationMsg(gen)
	}
}

func waitForReload(reloads <-chan struct{}) tea.Cmd {
	if reloads == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-reloads; !ok {
			return nil
		}
		return reloadMsg{}
	}
}

package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, opts)
	defer m.Close()

	if opts.Store != nil {
		reloads := make(chan struct{}, 1)
		err := opts.Store.Watch(ctx, func() {
			select {
			case reloads <- struct{}{}:
			default:
			}
		})
		if err != nil {
			m.logger.Warn("not watching connections file", slog.String("error", err.Error()))
		} else {
			m.reloads = reloads
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}

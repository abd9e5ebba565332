package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"frontier/internal/core/app"
)

// Run starts the interactive explorer and blocks until the user quits.
// Watcher reloads are forwarded into the event loop so panes refresh live.
func Run(a *app.App) error {
	p := tea.NewProgram(NewModel(a), tea.WithAltScreen())

	a.SetOnReload(func(analysis *app.Analysis) {
		p.Send(reloadMsg{analysis: analysis})
	})
	defer a.SetOnReload(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dennisdiepolder/monti/calldesk/internal/view"
)

// Run starts the full-screen program and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, manager *view.Manager) error {
	p := tea.NewProgram(New(ctx, manager), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := manager.Subscribe(func(view.Snapshot) {
		p.Send(changedMsg{})
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

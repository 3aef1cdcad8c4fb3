package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/taskdeck/internal/api"
	"github.com/balkashynov/taskdeck/internal/store"
)

// RunBoard starts the interactive board against the given API client.
func RunBoard(client *api.Client) error {
	projects := store.NewProjectStore(client)
	tasks := store.NewTaskStore(client)

	model := NewBoardModel(projects, tasks)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

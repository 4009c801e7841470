package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

func NewApp(mode string) *Model {
	return &Model{
		state:   StateWelcome,
		mode:    mode,
		welcome: NewWelcome(mode),
		client:  NewClient(),
	}
}

// same as NewApp but against an explicit server
func NewAppWithClient(mode string, client *Client) *Model {
	m := NewApp(mode)
	m.client = client

	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// only quit from welcome screen, not from the workspace
		if msg.String() == "ctrl+c" && m.state == StateWelcome {
			return m, tea.Quit
		}

		// in the workspace, ctrl+c goes back to welcome
		if msg.String() == "ctrl+c" && m.state == StateWorkspace {
			if m.workspace != nil {
				m.workspace.Close()
				m.workspace = nil
			}

			m.state = StateWelcome
			return m, nil
		}

		if m.err != nil {
			m.err = nil
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ErrorMsg:
		m.err = msg.err
		return m, nil

	case WorkspaceCreatedMsg:
		m.workspace = NewWorkspaceModel(m.client, msg.view)
		m.state = StateWorkspace

		var sized tea.Cmd
		if m.width > 0 {
			m.workspace, sized = m.workspace.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}

		return m, tea.Batch(m.workspace.Init(), sized)
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)

	case StateWorkspace:
		return m.updateWorkspace(msg)

	default:
		return m, nil
	}
}

func (m *Model) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateWorkspace:
		return m.workspace.View()

	default:
		return "Unknown state"
	}
}

func (m *Model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.welcome, cmd = m.welcome.Update(msg, m.client)

	return m, cmd
}

func (m *Model) updateWorkspace(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.workspace == nil {
		return m, nil
	}

	var cmd tea.Cmd
	m.workspace, cmd = m.workspace.Update(msg)

	return m, cmd
}

func errorView(err error) string {
	return fmt.Sprintf("\n  Error: %v\n\n  Press any key to continue\n", err)
}

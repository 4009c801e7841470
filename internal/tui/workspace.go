package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"codeberg.org/algrv/codelab/internal/catalog"
	ws "codeberg.org/algrv/codelab/internal/websocket"
	"codeberg.org/algrv/codelab/internal/workspace"
)

const helpText = "[l: language] [f: framework] [r: run] [a: apply] [x: execute] [d: download] [ctrl+c: back]"

// returns the workspace screen for a freshly created workspace
func NewWorkspaceModel(client *Client, view workspace.View) *WorkspaceModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPurple)

	return &WorkspaceModel{
		client:   client,
		events:   NewWSClient(client.EventsURL()),
		view:     view,
		terminal: viewport.New(80, 10),
		spinner:  s,
		status:   "connecting",
	}
}

func (m *WorkspaceModel) Init() tea.Cmd {
	return tea.Batch(m.events.ConnectCmd(), m.spinner.Tick)
}

func (m *WorkspaceModel) Update(msg tea.Msg) (*WorkspaceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.terminal.Width = max(20, msg.Width-4)
		m.terminal.Height = max(5, msg.Height/3)

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(20, msg.Width-6)),
		)
		if err == nil {
			m.glamourRenderer = renderer
		}

		m.ready = true
		return m, nil

	case EventMsg:
		return m, tea.Batch(m.handleEvent(msg.msg), m.events.NextEventCmd())

	case DisconnectedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("disconnected: %v", msg.err)
		} else {
			m.status = "disconnected"
		}
		return m, nil

	case WorkspaceViewMsg:
		m.view = msg.view
		m.busy = false
		return m, nil

	case RunFinishedMsg:
		m.busy = false
		m.output = m.render(formatRunResult(msg.result))
		m.status = fmt.Sprintf("generated %d file(s), press a to apply", len(msg.result.Artifacts))
		return m, nil

	case ApplyFinishedMsg:
		m.busy = false
		m.status = fmt.Sprintf("wrote %s", strings.Join(msg.written, ", "))
		if len(msg.skipped) > 0 {
			m.status += fmt.Sprintf(" (skipped %d without a file name)", len(msg.skipped))
		}
		return m, m.client.RefreshCmd()

	case DownloadFinishedMsg:
		m.busy = false
		m.status = "saved " + msg.path
		return m, nil

	case RequestErrorMsg:
		m.busy = false
		m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.terminal, cmd = m.terminal.Update(msg)

	return m, cmd
}

func (m *WorkspaceModel) handleKey(msg tea.KeyMsg) (*WorkspaceModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "l":
		m.busy = true
		return m, m.client.SetLanguageCmd(cycle(catalog.Languages(), m.view.Selection.Language))

	case "f":
		if len(m.view.Options) == 0 {
			m.status = "no frameworks for " + m.view.Selection.Language
			return m, nil
		}
		m.busy = true
		return m, m.client.SetFrameworkCmd(cycle(m.view.Options, m.view.Selection.Framework))

	case "r":
		m.busy = true
		m.status = "generating"
		return m, m.client.RunCmd()

	case "a":
		m.busy = true
		return m, m.client.ApplyCmd()

	case "x":
		if !m.view.CanExecute {
			m.status = fmt.Sprintf("cannot execute while %s", m.view.State)
			return m, nil
		}
		m.busy = true
		return m, m.client.ExecuteCmd()

	case "d":
		if !m.view.CanDownload {
			m.status = "download is available once installation finishes"
			return m, nil
		}
		m.busy = true
		return m, m.client.DownloadCmd(downloadName)
	}

	var cmd tea.Cmd
	m.terminal, cmd = m.terminal.Update(msg)

	return m, cmd
}

func (m *WorkspaceModel) handleEvent(msg ws.Message) tea.Cmd {
	switch msg.Type {
	case ws.TypeWorkspaceState:
		var view workspace.View
		if err := msg.UnmarshalPayload(&view); err == nil {
			m.view = view
		}
		m.status = "connected"

	case ws.TypeTerminalOutput:
		var payload workspace.TerminalOutputPayload
		if err := msg.UnmarshalPayload(&payload); err == nil {
			m.terminalText = appendTerminal(m.terminalText, payload.Data)
			m.terminal.SetContent(m.terminalText)
			m.terminal.GotoBottom()
		}

	case ws.TypeLifecycleChanged, ws.TypePreviewReady, ws.TypeCodeLoaded, ws.TypeTranscriptUpdated:
		return m.client.RefreshCmd()

	case ws.TypeError:
		var payload errorResponse
		if err := msg.UnmarshalPayload(&payload); err == nil {
			m.status = payload.Message
		}

	case ws.TypeWorkspaceClosed, ws.TypeServerShutdown:
		var payload ws.ServerShutdownPayload
		if err := msg.UnmarshalPayload(&payload); err == nil {
			m.status = payload.Reason
		}
	}

	return nil
}

func (m *WorkspaceModel) render(markdown string) string {
	if m.glamourRenderer == nil {
		return markdown
	}

	out, err := m.glamourRenderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return out
}

// closes the realtime connection
func (m *WorkspaceModel) Close() {
	m.events.Close()
}

func (m *WorkspaceModel) View() string {
	var b strings.Builder

	header := lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Render("WORKSPACE " + shortID(m.view.ID))
	help := lipgloss.NewStyle().Foreground(colorGray).Render(helpText)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		header,
		strings.Repeat(" ", max(1, m.width-lipgloss.Width(header)-lipgloss.Width(help)-2)),
		help,
	))
	b.WriteString("\n\n")

	framework := m.view.Selection.Framework
	if framework == "" {
		framework = "-"
	}

	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		promptStyle.Render("language:"), commandStyle.Render(m.view.Selection.Language),
		promptStyle.Render("framework:"), commandStyle.Render(framework),
		promptStyle.Render("state:"), stateStyle(m.view.State).Render(string(m.view.State)),
	))

	if m.view.Error != "" {
		b.WriteString(errorStyle.Render("  " + m.view.Error))
		b.WriteString("\n")
	}

	b.WriteString(infoStyle.Render("preview: " + m.view.PreviewURL))
	b.WriteString("\n\n")

	output := m.output
	if output == "" {
		output = lipgloss.NewStyle().Foreground(colorGray).Italic(true).
			Render("press r to generate code for the selected language and framework.")
	}

	b.WriteString(borderStyle.Width(max(20, m.width-4)).Render(output))
	b.WriteString("\n")

	b.WriteString(borderStyle.Width(max(20, m.width-4)).Render(m.terminal.View()))
	b.WriteString("\n")

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}

	b.WriteString(infoStyle.Render(status))

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

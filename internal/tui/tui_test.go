package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentcore "codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/llm"
	ws "codeberg.org/algrv/codelab/internal/websocket"
	"codeberg.org/algrv/codelab/internal/workspace"
)

func typeInto(w *Welcome, client *Client, text string) tea.Cmd {
	for _, r := range text {
		w, _ = w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, client)
	}

	_, cmd := w.Update(tea.KeyMsg{Type: tea.KeyEnter}, client)

	return cmd
}

func TestCycle(t *testing.T) {
	options := []string{"react", "vue", "svelte"}

	assert.Equal(t, "vue", cycle(options, "react"))
	assert.Equal(t, "react", cycle(options, "svelte"))
	assert.Equal(t, "react", cycle(options, "unknown"))
	assert.Equal(t, "", cycle(nil, "react"))
}

func TestAppendTerminal(t *testing.T) {
	assert.Equal(t, "a\nb\n", appendTerminal("a\n", "b\n"))

	long := strings.Repeat("x", maxTerminalBytes) + "\nlast line\n"
	trimmed := appendTerminal("", long)

	assert.LessOrEqual(t, len(trimmed), maxTerminalBytes)
	assert.Equal(t, "last line\n", trimmed)
}

func TestFormatRunResult(t *testing.T) {
	out := formatRunResult(RunResult{
		Artifacts: []agentcore.Artifact{{Language: "typescript", Code: "export {}\n", Description: "the app", FileName: "src/App.tsx"}},
		Appended: []agentcore.Message{
			{Role: llm.RoleAssistant, Content: "{}"},
			{Role: llm.RoleTool, Name: "getWeather", Content: "25C and sunny in Paris"},
		},
		SkippedToolCalls: []agentcore.SkippedToolCall{{Name: "launchRocket", Reason: "unknown tool"}},
		Model:            "gpt-4o",
		TranscriptLength: 3,
	})

	assert.Contains(t, out, "### src/App.tsx")
	assert.Contains(t, out, "```typescript\nexport {}\n```")
	assert.Contains(t, out, "tool `getWeather`: 25C and sunny in Paris")
	assert.Contains(t, out, "skipped tool `launchRocket`")
	assert.NotContains(t, out, "no generated files")

	empty := formatRunResult(RunResult{
		Appended: []agentcore.Message{{Role: llm.RoleAssistant, Content: "I cannot help with that."}},
	})
	assert.Contains(t, empty, "no generated files")
	assert.Contains(t, empty, "I cannot help with that.")
}

func TestWelcomeCommands(t *testing.T) {
	client := NewClientWithEndpoint("http://localhost:0")

	prod := NewWelcome("production")
	assert.False(t, prod.available("start"))
	assert.True(t, prod.available("workspace"))

	cmd := typeInto(prod, client, "start")
	require.NotNil(t, cmd)

	msg, ok := cmd().(ErrorMsg)
	require.True(t, ok)
	assert.Contains(t, msg.err.Error(), "unknown command: start")
	assert.Empty(t, prod.input)

	assert.Nil(t, typeInto(NewWelcome("development"), client, ""))

	quit := typeInto(NewWelcome("development"), client, "quit")
	require.NotNil(t, quit)
	assert.IsType(t, tea.QuitMsg{}, quit())
}

func TestModelOpensWorkspace(t *testing.T) {
	srv, _ := newFakeAPI(t)
	app := NewAppWithClient("development", NewClientWithEndpoint(srv.URL))

	_, err := app.client.CreateWorkspace(t.Context())
	require.NoError(t, err)

	model, cmd := app.Update(WorkspaceCreatedMsg{view: workspace.View{ID: "ws-1", State: workspace.StateBooting}, token: "secret"})
	require.NotNil(t, cmd)

	m := model.(*Model)
	assert.Equal(t, StateWorkspace, m.state)
	require.NotNil(t, m.workspace)
	assert.Contains(t, m.View(), "booting")

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = model.(*Model)
	assert.Equal(t, StateWelcome, m.state)
	assert.Nil(t, m.workspace)
}

func TestModelShowsErrors(t *testing.T) {
	app := NewApp("development")

	model, _ := app.Update(ErrorMsg{err: assert.AnError})
	assert.Contains(t, model.View(), assert.AnError.Error())

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.NotContains(t, model.View(), assert.AnError.Error())
}

func newWorkspaceModel(t *testing.T, view workspace.View) *WorkspaceModel {
	t.Helper()

	client := NewClientWithEndpoint("http://localhost:0")
	client.workspaceID = view.ID

	return NewWorkspaceModel(client, view)
}

func event(t *testing.T, msgType string, payload any) EventMsg {
	t.Helper()

	msg, err := ws.NewMessage(msgType, "ws-1", payload)
	require.NoError(t, err)

	return EventMsg{msg: *msg}
}

func TestWorkspaceModelEvents(t *testing.T) {
	m := newWorkspaceModel(t, workspace.View{ID: "ws-1", State: workspace.StateBooting})

	m, cmd := m.Update(event(t, ws.TypeWorkspaceState, workspace.View{ID: "ws-1", State: workspace.StateInstalling}))
	assert.NotNil(t, cmd)
	assert.Equal(t, workspace.StateInstalling, m.view.State)
	assert.Equal(t, "connected", m.status)

	m, _ = m.Update(event(t, ws.TypeTerminalOutput, workspace.TerminalOutputPayload{Data: "Packages: +120\n"}))
	m, _ = m.Update(event(t, ws.TypeTerminalOutput, workspace.TerminalOutputPayload{Data: "done\n"}))
	assert.Equal(t, "Packages: +120\ndone\n", m.terminalText)

	m, _ = m.Update(event(t, ws.TypeWorkspaceClosed, ws.WorkspaceClosedPayload{Reason: "deleted"}))
	assert.Equal(t, "deleted", m.status)

	m, _ = m.Update(DisconnectedMsg{})
	assert.Equal(t, "disconnected", m.status)
}

func TestWorkspaceModelKeys(t *testing.T) {
	m := newWorkspaceModel(t, workspace.View{ID: "ws-1", State: workspace.StateInstalling})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "cannot execute while installing")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "installation finishes")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "no frameworks")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.NotNil(t, cmd)
	assert.True(t, m.busy)

	// keys are ignored while a request is in flight
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	assert.Nil(t, cmd)

	m, _ = m.Update(RequestErrorMsg{action: "run", err: assert.AnError})
	assert.False(t, m.busy)
	assert.Contains(t, m.status, "run failed")
}

func TestWorkspaceModelRunFinished(t *testing.T) {
	m := newWorkspaceModel(t, workspace.View{ID: "ws-1", State: workspace.StateReady})

	m, _ = m.Update(RunFinishedMsg{result: RunResult{
		Artifacts: []agentcore.Artifact{{FileName: "src/App.tsx", Code: "x"}},
	}})

	assert.Contains(t, m.output, "src/App.tsx")
	assert.Contains(t, m.status, "generated 1 file(s)")

	_, cmd := m.Update(ApplyFinishedMsg{written: []string{"src/App.tsx"}})
	assert.NotNil(t, cmd)
}

package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	agentcore "codeberg.org/algrv/codelab/internal/agent"
	ws "codeberg.org/algrv/codelab/internal/websocket"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// represents the current state of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateWorkspace
)

// main TUI application model
type Model struct {
	state     AppState
	mode      string
	width     int
	height    int
	err       error
	welcome   *Welcome
	workspace *WorkspaceModel
	client    *Client
}

// sent when an error occurs
type ErrorMsg struct {
	err error
}

// sent once a workspace has been created on the server
type WorkspaceCreatedMsg struct {
	view  workspace.View
	token string
}

// carries a fresh workspace snapshot
type WorkspaceViewMsg struct {
	view workspace.View
}

// sent when a generation request finishes
type RunFinishedMsg struct {
	result RunResult
}

// sent when generated files have been written
type ApplyFinishedMsg struct {
	written []string
	skipped []string
}

// sent when the project archive has been saved
type DownloadFinishedMsg struct {
	path string
}

// sent when a request fails without ending the session
type RequestErrorMsg struct {
	action string
	err    error
}

// one realtime event from the server
type EventMsg struct {
	msg ws.Message
}

// sent when the realtime connection drops
type DisconnectedMsg struct {
	err error
}

// sent when the server starts
type ServerStartedMsg struct{}

// welcome screen model
type Welcome struct {
	mode     string
	input    string
	commands []Command
}

// represents an available TUI command
type Command struct {
	Name        string
	Description string
	Available   bool
}

// workspace screen: pickers, generation output, terminal and preview
type WorkspaceModel struct {
	client          *Client
	events          *WSClient
	view            workspace.View
	width           int
	height          int
	terminal        viewport.Model
	terminalText    string
	output          string
	status          string
	busy            bool
	spinner         spinner.Model
	glamourRenderer *glamour.TermRenderer
	ready           bool
}

// response of POST /run as the TUI reads it
type RunResult struct {
	Appended         []agentcore.Message         `json:"appended"`
	SkippedToolCalls []agentcore.SkippedToolCall `json:"skipped_tool_calls"`
	Artifacts        []agentcore.Artifact        `json:"artifacts"`
	Model            string                      `json:"model"`
	TranscriptLength int                         `json:"transcript_length"`
}

type workspaceResponse struct {
	Workspace workspace.View `json:"workspace"`
	Token     string         `json:"token"`
}

type applyResponse struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

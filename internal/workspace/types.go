// Package workspace ties a sandbox to the state one user sees: the
// language and framework selection, the transcript, the editor code, the
// preview URL and the lifecycle of the generated project.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/sandbox"
)

var (
	ErrNotFound        = errors.New("workspace not found")
	ErrNotReady        = errors.New("workspace is not ready")
	ErrNoArtifacts     = errors.New("no generated files to apply")
	ErrAlreadyStarted  = errors.New("workspace bootstrap already started")
	ErrWorkspaceClosed = errors.New("workspace has been closed")
)

// LoadingPreview is the preview location shown until a server is ready.
const LoadingPreview = "loading.html"

type State string

const (
	StateBooting          State = "booting"
	StateInstalling       State = "installing"
	StateReady            State = "ready"
	StateRunning          State = "running"
	StatePreviewAvailable State = "preview_available"
	StateFailed           State = "failed"
)

// reports whether Execute is allowed in this state
func (s State) CanExecute() bool {
	switch s {
	case StateReady, StateRunning, StatePreviewAvailable:
		return true
	}

	return false
}

type EventType string

const (
	EventTerminalOutput    EventType = "terminal_output"
	EventLifecycleChanged  EventType = "lifecycle_changed"
	EventPreviewReady      EventType = "preview_ready"
	EventCodeLoaded        EventType = "code_loaded"
	EventTranscriptUpdated EventType = "transcript_updated"
)

type Event struct {
	Type    EventType
	Payload any
}

type TerminalOutputPayload struct {
	Data string `json:"data"`
}

type LifecycleChangedPayload struct {
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

type PreviewReadyPayload struct {
	Port int    `json:"port"`
	URL  string `json:"url"`
}

type CodeLoadedPayload struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

type TranscriptUpdatedPayload struct {
	Count int `json:"count"`
}

// Notifier receives workspace events as they happen. Nothing is replayed:
// a listener that attaches later only sees later events.
type Notifier interface {
	Publish(workspaceID string, ev Event)
}

// adapts a function to Notifier
type NotifierFunc func(workspaceID string, ev Event)

func (f NotifierFunc) Publish(workspaceID string, ev Event) {
	f(workspaceID, ev)
}

// Commands are the processes a workspace runs. An empty Scaffold or
// Install skips that bootstrap step.
type Commands struct {
	Scaffold  []string
	Install   []string
	Start     []string
	EntryFile string
}

type Options struct {
	ID          string
	Sandbox     sandbox.Options
	Commands    Commands
	InitialTree sandbox.FileSystemTree
	Notifier    Notifier
}

type Workspace struct {
	ID        string
	CreatedAt time.Time

	sandbox    *sandbox.Sandbox
	commands   Commands
	tree       sandbox.FileSystemTree
	notifier   Notifier
	transcript *agent.Transcript

	// serializes Execute
	execMu sync.Mutex

	mu           sync.RWMutex
	state        State
	failure      string
	started      bool
	installed    bool
	closed       bool
	selection    catalog.Selection
	code         string
	previewURL   string
	lastActivity time.Time
	server       *sandbox.Process
	unsubscribe  func()
}

// View is a snapshot of what the user sees.
type View struct {
	ID               string            `json:"id"`
	State            State             `json:"state"`
	Error            string            `json:"error,omitempty"`
	Selection        catalog.Selection `json:"selection"`
	Options          []string          `json:"framework_options"`
	PreviewURL       string            `json:"preview_url"`
	EntryFile        string            `json:"entry_file"`
	Code             string            `json:"code"`
	CanExecute       bool              `json:"can_execute"`
	CanDownload      bool              `json:"can_download"`
	TranscriptLength int               `json:"transcript_length"`
	CreatedAt        time.Time         `json:"created_at"`
	LastActivity     time.Time         `json:"last_activity"`
}

// ApplyResult lists the files written from generated artifacts.
type ApplyResult struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped,omitempty"`
}

type ManagerConfig struct {
	// template for each workspace's sandbox; ID is assigned per workspace
	Sandbox     sandbox.Options
	Commands    Commands
	InitialTree sandbox.FileSystemTree
	Notifier    Notifier
	// idle workspaces are torn down after TTL; zero uses DefaultTTL
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Manager struct {
	config     ManagerConfig
	workspaces map[string]*Workspace
	mu         sync.RWMutex

	bootCtx    context.Context
	cancelBoot context.CancelFunc
	stopChan   chan struct{}
	stopOnce   sync.Once
}

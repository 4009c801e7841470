package workspace

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
)

// exported downloads never carry installed dependencies
var exportExcludes = []string{"node_modules"}

// New boots the sandbox for a workspace. Call Bootstrap to prepare the
// project.
func New(ctx context.Context, opts Options) (*Workspace, error) {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}

	sbOpts := opts.Sandbox
	sbOpts.ID = opts.ID

	sb, err := sandbox.Boot(ctx, sbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to boot sandbox: %w", err)
	}

	tree := opts.InitialTree
	if tree == nil {
		tree = sandbox.FileSystemTree{}
	}

	now := time.Now()

	return &Workspace{
		ID:           opts.ID,
		CreatedAt:    now,
		sandbox:      sb,
		commands:     opts.Commands,
		tree:         tree,
		notifier:     opts.Notifier,
		transcript:   agent.NewTranscript(),
		state:        StateBooting,
		selection:    catalog.DefaultSelection(),
		previewURL:   LoadingPreview,
		lastActivity: now,
	}, nil
}

func (w *Workspace) publish(t EventType, payload any) {
	if w.notifier == nil {
		return
	}

	w.notifier.Publish(w.ID, Event{Type: t, Payload: payload})
}

func (w *Workspace) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Workspace) PreviewURL() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.previewURL
}

// current editor contents
func (w *Workspace) Code() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.code
}

func (w *Workspace) Selection() catalog.Selection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.selection
}

func (w *Workspace) Transcript() *agent.Transcript {
	return w.transcript
}

// updates the last activity time
func (w *Workspace) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActivity = time.Now()
}

func (w *Workspace) LastActivity() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastActivity
}

func (w *Workspace) View() View {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return View{
		ID:               w.ID,
		State:            w.state,
		Error:            w.failure,
		Selection:        w.selection,
		Options:          w.selection.Options(),
		PreviewURL:       w.previewURL,
		EntryFile:        w.commands.EntryFile,
		Code:             w.code,
		CanExecute:       !w.closed && w.state.CanExecute(),
		CanDownload:      !w.closed && w.installed,
		TranscriptLength: w.transcript.Len(),
		CreatedAt:        w.CreatedAt,
		LastActivity:     w.lastActivity,
	}
}

// switches language and clears the framework
func (w *Workspace) SetLanguage(lang string) (catalog.Selection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.selection.SetLanguage(lang); err != nil {
		return w.selection, err
	}

	w.lastActivity = time.Now()

	return w.selection, nil
}

func (w *Workspace) SetFramework(fw string) (catalog.Selection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.selection.SetFramework(fw); err != nil {
		return w.selection, err
	}

	w.lastActivity = time.Now()

	return w.selection, nil
}

// Run asks the agent for code using the current selection. Runs are not
// serialized; each one appends to the transcript when it finishes.
func (w *Workspace) Run(ctx context.Context, a *agent.Agent) (*agent.RunResult, error) {
	w.Touch()

	result, err := a.Run(ctx, agent.RunRequest{
		Selection:  w.Selection(),
		Transcript: w.transcript,
	})
	if err != nil {
		return nil, err
	}

	w.publish(EventTranscriptUpdated, TranscriptUpdatedPayload{Count: w.transcript.Len()})

	return result, nil
}

// Apply writes the files described by the latest model reply into the
// sandbox.
func (w *Workspace) Apply() (*ApplyResult, error) {
	reply, ok := w.transcript.Last(llm.RoleAssistant)
	if !ok {
		return nil, ErrNoArtifacts
	}

	artifacts, err := agent.ParseArtifacts(reply.Content)
	if err != nil || len(artifacts) == 0 {
		return nil, ErrNoArtifacts
	}

	result := &ApplyResult{}

	for _, a := range artifacts {
		name := strings.TrimSpace(a.FileName)
		if name == "" {
			result.Skipped = append(result.Skipped, a.Description)
			continue
		}

		if err := w.WriteCode(name, a.Code); err != nil {
			return result, err
		}

		result.Written = append(result.Written, name)
	}

	logger.ForWorkspace(w.ID).Info("applied generated files", "written", len(result.Written), "skipped", len(result.Skipped))

	return result, nil
}

// WriteCode writes content to the sandbox as is. Writing the entry file
// also replaces the editor code.
func (w *Workspace) WriteCode(p, content string) error {
	if err := w.sandbox.WriteFile(p, []byte(content)); err != nil {
		return err
	}

	isEntry := w.isEntryFile(p)

	w.mu.Lock()
	if isEntry {
		w.code = content
	}
	w.lastActivity = time.Now()
	w.mu.Unlock()

	if isEntry {
		w.publish(EventCodeLoaded, CodeLoadedPayload{Path: w.commands.EntryFile, Code: content})
	}

	return nil
}

func (w *Workspace) isEntryFile(p string) bool {
	if w.commands.EntryFile == "" {
		return false
	}

	return path.Clean("/"+p) == path.Clean("/"+w.commands.EntryFile)
}

func (w *Workspace) ReadFile(p string) (string, error) {
	data, err := w.sandbox.ReadFile(p)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (w *Workspace) ReadDir(p string) ([]sandbox.DirEntry, error) {
	return w.sandbox.ReadDir(p)
}

// Export writes an archive of the project without installed dependencies.
// It is available once installation has completed. An empty format means
// zip.
func (w *Workspace) Export(ctx context.Context, out io.Writer, format sandbox.ExportFormat) error {
	w.mu.RLock()
	installed, closed := w.installed, w.closed
	w.mu.RUnlock()

	if closed {
		return ErrWorkspaceClosed
	}

	if !installed {
		return ErrNotReady
	}

	return w.sandbox.Export(ctx, out, ".", sandbox.ExportOptions{
		Format:   format,
		Excludes: exportExcludes,
	})
}

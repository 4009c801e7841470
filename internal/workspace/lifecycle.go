package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
)

// how long Execute waits for a replaced server to exit
const serverStopTimeout = 5 * time.Second

// Bootstrap mounts the initial tree, scaffolds the project, installs its
// dependencies and loads the entry file into the editor. It runs once per
// workspace. Any failure leaves the workspace failed for good.
func (w *Workspace) Bootstrap(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	log := logger.ForWorkspace(w.ID)

	if err := w.sandbox.Mount(ctx, w.tree); err != nil {
		return w.fail(fmt.Errorf("failed to mount project: %w", err))
	}

	if err := w.runStep(ctx, "scaffold", w.commands.Scaffold); err != nil {
		return w.fail(err)
	}

	w.setState(StateInstalling)

	if err := w.runStep(ctx, "install", w.commands.Install); err != nil {
		return w.fail(err)
	}

	code := ""

	data, err := w.sandbox.ReadFile(w.commands.EntryFile)
	switch {
	case err == nil:
		code = string(data)
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("entry file not found after install", "path", w.commands.EntryFile)
	default:
		log.Warn("failed to read entry file", "path", w.commands.EntryFile, "error", err)
	}

	w.mu.Lock()
	w.code = code
	w.installed = true
	w.mu.Unlock()

	w.publish(EventCodeLoaded, CodeLoadedPayload{Path: w.commands.EntryFile, Code: code})
	w.setState(StateReady)

	log.Info("workspace ready")

	return nil
}

// runs one bootstrap process to completion, streaming its output
func (w *Workspace) runStep(ctx context.Context, name string, argv []string) error {
	if len(argv) == 0 {
		return nil
	}

	p, err := w.sandbox.Spawn(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("%s failed to start: %w", name, err)
	}

	w.stream(p)

	code, err := p.Wait(ctx)
	if err != nil {
		_ = p.Kill()
		return fmt.Errorf("%s did not finish: %w", name, err)
	}

	if code != 0 {
		return fmt.Errorf("%s exited with code %d", name, code)
	}

	return nil
}

// forwards process output to the notifier until the process exits
func (w *Workspace) stream(p *sandbox.Process) {
	for chunk := range p.Output() {
		w.publish(EventTerminalOutput, TerminalOutputPayload{Data: string(chunk)})
	}
}

func (w *Workspace) fail(err error) error {
	w.mu.Lock()
	w.state = StateFailed
	w.failure = err.Error()
	w.mu.Unlock()

	logger.ForWorkspace(w.ID).Warn("workspace failed", "error", err)

	w.publish(EventLifecycleChanged, LifecycleChangedPayload{State: StateFailed, Error: err.Error()})

	return err
}

func (w *Workspace) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()

	w.publish(EventLifecycleChanged, LifecycleChangedPayload{State: s})
}

// Execute starts the dev server. A server started by an earlier Execute is
// stopped first and its readiness subscription released.
func (w *Workspace) Execute(ctx context.Context) error {
	if len(w.commands.Start) == 0 {
		return fmt.Errorf("no start command configured")
	}

	w.execMu.Lock()
	defer w.execMu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWorkspaceClosed
	}

	if !w.state.CanExecute() {
		state := w.state
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotReady, state)
	}

	previous, unsubscribe := w.server, w.unsubscribe
	w.server, w.unsubscribe = nil, nil
	w.lastActivity = time.Now()
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	if previous != nil {
		w.stopServer(previous)
	}

	// running before spawn so an early readiness event is not dropped
	w.mu.Lock()
	w.previewURL = LoadingPreview
	w.state = StateRunning
	w.mu.Unlock()

	w.publish(EventLifecycleChanged, LifecycleChangedPayload{State: StateRunning})

	unsubscribe = w.sandbox.OnServerReady(w.serverReady)

	p, err := w.sandbox.Spawn(ctx, w.commands.Start[0], w.commands.Start[1:]...)
	if err != nil {
		unsubscribe()
		w.setState(StateReady)

		return fmt.Errorf("failed to start server: %w", err)
	}

	w.mu.Lock()
	w.server = p
	w.unsubscribe = unsubscribe
	w.mu.Unlock()

	go w.watchServer(p)

	return nil
}

func (w *Workspace) stopServer(p *sandbox.Process) {
	if err := p.Kill(); err != nil {
		logger.ForWorkspace(w.ID).Warn("failed to stop previous server", "process_id", p.ID, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
	defer cancel()

	if _, err := p.Wait(ctx); err != nil {
		logger.ForWorkspace(w.ID).Warn("previous server did not exit", "process_id", p.ID, "error", err)
	}
}

func (w *Workspace) watchServer(p *sandbox.Process) {
	w.stream(p)

	code, err := p.Wait(context.Background())

	w.mu.Lock()
	if w.closed || w.server != p {
		// replaced by a newer Execute or torn down
		w.mu.Unlock()
		return
	}

	w.server = nil
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.previewURL = LoadingPreview
	w.mu.Unlock()

	if err != nil || code != 0 {
		if err == nil {
			err = fmt.Errorf("server exited with code %d", code)
		}

		_ = w.fail(err)

		return
	}

	w.setState(StateReady)
}

func (w *Workspace) serverReady(ev sandbox.ServerReady) {
	w.mu.Lock()
	if w.closed || (w.state != StateRunning && w.state != StatePreviewAvailable) {
		w.mu.Unlock()
		return
	}

	w.previewURL = ev.URL
	w.state = StatePreviewAvailable
	w.mu.Unlock()

	w.publish(EventPreviewReady, PreviewReadyPayload{Port: ev.Port, URL: ev.URL})
	w.publish(EventLifecycleChanged, LifecycleChangedPayload{State: StatePreviewAvailable})
}

// Teardown stops the server and removes the sandbox.
func (w *Workspace) Teardown(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}

	w.closed = true
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	w.server = nil
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	return w.sandbox.Teardown(ctx)
}

package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"codeberg.org/algrv/codelab/internal/logger"
)

// Boot creates the sandbox directory and its executor.
func Boot(ctx context.Context, opts Options) (*Sandbox, error) {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}

	if opts.Root == "" {
		opts.Root = filepath.Join(os.TempDir(), "codelab")
	}

	root := filepath.Join(opts.Root, opts.ID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sandbox root: %w", err)
	}

	executor := opts.Executor
	if executor == nil {
		var err error

		switch opts.Runtime {
		case RuntimeLocal, "":
			executor = NewLocalExecutor()
		case RuntimeDocker:
			executor, err = NewDockerExecutor(ctx, opts.ID, root, opts.Image)
		default:
			err = fmt.Errorf("unknown sandbox runtime %q", opts.Runtime)
		}

		if err != nil {
			_ = os.RemoveAll(root)
			return nil, err
		}
	}

	logger.Debug("sandbox booted", "sandbox_id", opts.ID, "root", root, "runtime", opts.Runtime)

	return &Sandbox{
		id:          opts.ID,
		root:        root,
		executor:    executor,
		previewHost: opts.PreviewHost,
		processes:   make(map[string]*Process),
		subscribers: make(map[int]func(ServerReady)),
	}, nil
}

func (s *Sandbox) ID() string {
	return s.id
}

// host directory backing the sandbox file system
func (s *Sandbox) Root() string {
	return s.root
}

// Spawn starts command in the sandbox root. ctx bounds only the start; the
// process runs until it exits or is killed.
func (s *Sandbox) Spawn(ctx context.Context, command string, args ...string) (*Process, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}

	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return nil, ErrTornDown
	}
	s.mu.Unlock()

	argv := append([]string{command}, args...)

	execution, err := s.executor.Start(ctx, s.root, argv)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", command, err)
	}

	p := newProcess(s, argv, execution)

	s.mu.Lock()
	s.processes[p.ID] = p
	s.mu.Unlock()

	go p.pump()

	return p, nil
}

// OnServerReady registers fn for readiness events. The returned function
// removes the registration and is safe to call more than once.
func (s *Sandbox) OnServerReady(fn func(ServerReady)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Sandbox) emitServerReady(ev ServerReady) {
	s.mu.Lock()
	subs := make([]func(ServerReady), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Sandbox) forget(p *Process) {
	s.mu.Lock()
	delete(s.processes, p.ID)
	s.mu.Unlock()
}

// Teardown kills running processes, releases the executor and removes the
// sandbox directory.
func (s *Sandbox) Teardown(ctx context.Context) error {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return nil
	}
	s.tornDown = true

	procs := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		procs = append(procs, p)
	}
	s.subscribers = make(map[int]func(ServerReady))
	s.mu.Unlock()

	for _, p := range procs {
		if err := p.Kill(); err != nil {
			logger.Warn("failed to kill sandbox process", "sandbox_id", s.id, "process_id", p.ID, "error", err)
		}
	}

	if err := s.executor.Close(ctx); err != nil {
		logger.Warn("failed to close sandbox executor", "sandbox_id", s.id, "error", err)
	}

	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("failed to remove sandbox root: %w", err)
	}

	return nil
}

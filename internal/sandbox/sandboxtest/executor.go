// Package sandboxtest provides a scripted sandbox executor for tests.
package sandboxtest

import (
	"context"
	"io"
	"strings"
	"sync"

	"codeberg.org/algrv/codelab/internal/sandbox"
)

// Script describes what a command does when started.
type Script struct {
	Output   []string
	ExitCode int
	// keep running after writing output until killed
	Block bool
	// called with the sandbox directory before output is written
	Effect func(dir string)
}

// Executor runs Scripts keyed by the joined command line.
type Executor struct {
	mu      sync.Mutex
	scripts map[string]Script
	started []string
	killed  []string
}

func NewExecutor(scripts map[string]Script) *Executor {
	return &Executor{scripts: scripts}
}

func (e *Executor) Start(_ context.Context, dir string, argv []string) (sandbox.Execution, error) {
	line := strings.Join(argv, " ")

	e.mu.Lock()
	script, ok := e.scripts[line]
	e.started = append(e.started, line)
	e.mu.Unlock()

	if !ok {
		script = Script{Output: []string{"command not found: " + argv[0] + "\n"}, ExitCode: 127}
	}

	pr, pw := io.Pipe()

	x := &execution{
		executor: e,
		line:     line,
		reader:   pr,
		writer:   pw,
		exitCode: script.ExitCode,
		killed:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	go x.run(dir, script)

	return x, nil
}

func (e *Executor) Close(context.Context) error {
	return nil
}

// command lines started so far, in order
func (e *Executor) Started() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.started...)
}

// command lines killed so far, in order
func (e *Executor) Killed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.killed...)
}

type execution struct {
	executor *Executor
	line     string
	reader   *io.PipeReader
	writer   *io.PipeWriter
	exitCode int

	once   sync.Once
	killed chan struct{}
	done   chan struct{}
}

func (x *execution) run(dir string, script Script) {
	defer close(x.done)
	defer x.writer.Close() //nolint:errcheck

	if script.Effect != nil {
		script.Effect(dir)
	}

	for _, chunk := range script.Output {
		select {
		case <-x.killed:
			x.exitCode = -1
			return
		default:
		}

		if _, err := x.writer.Write([]byte(chunk)); err != nil {
			return
		}
	}

	if script.Block {
		<-x.killed
		x.exitCode = -1
	}
}

func (x *execution) Output() io.Reader {
	return x.reader
}

func (x *execution) Wait() (int, error) {
	<-x.done
	return x.exitCode, nil
}

func (x *execution) Kill() error {
	x.once.Do(func() {
		x.executor.mu.Lock()
		x.executor.killed = append(x.executor.killed, x.line)
		x.executor.mu.Unlock()

		close(x.killed)
	})

	return nil
}

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// how long Wait keeps reading output after the process exits, for children
// that inherited the pipe
const localWaitDelay = 2 * time.Second

// LocalExecutor runs processes directly on the host with the sandbox root
// as working directory.
type LocalExecutor struct{}

func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

type localExecution struct {
	cmd    *exec.Cmd
	reader *io.PipeReader

	once     sync.Once
	done     chan struct{}
	exitCode int
	err      error
}

func (e *LocalExecutor) Start(_ context.Context, dir string, argv []string) (Execution, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	pr, pw := io.Pipe()

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // commands come from server configuration
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "FORCE_COLOR=0", "CI=1")
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = localWaitDelay
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	ex := &localExecution{cmd: cmd, reader: pr, done: make(chan struct{})}

	go func() {
		err := cmd.Wait()

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			ex.exitCode = 0
		case errors.As(err, &exitErr):
			ex.exitCode = exitErr.ExitCode()
		default:
			ex.exitCode = -1
			ex.err = err
		}

		_ = pw.Close()
		close(ex.done)
	}()

	return ex, nil
}

func (e *LocalExecutor) Close(context.Context) error {
	return nil
}

func (x *localExecution) Output() io.Reader {
	return x.reader
}

func (x *localExecution) Wait() (int, error) {
	<-x.done
	return x.exitCode, x.err
}

func (x *localExecution) Kill() error {
	var err error

	x.once.Do(func() {
		err = killProcessGroup(x.cmd)
	})

	return err
}

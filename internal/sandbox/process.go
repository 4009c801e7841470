package sandbox

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"codeberg.org/algrv/codelab/internal/logger"
)

const (
	outputChunkSize   = 4096
	outputChannelSize = 256
	// bytes of the previous chunk kept when scanning for URLs split across reads
	scanCarry = 256
)

func newProcess(s *Sandbox, argv []string, execution Execution) *Process {
	return &Process{
		ID:        uuid.New().String(),
		Command:   argv,
		sandbox:   s,
		execution: execution,
		output:    make(chan []byte, outputChannelSize),
		done:      make(chan struct{}),
		ports:     make(map[int]bool),
	}
}

// Output delivers chunks as the process writes them. The channel is closed
// when the process exits. Chunks are not retained.
func (p *Process) Output() <-chan []byte {
	return p.output
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		return p.exitCode, p.err
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// reports whether the process has exited
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Process) Kill() error {
	if p.Exited() {
		return nil
	}

	return p.execution.Kill()
}

func (p *Process) pump() {
	defer p.sandbox.forget(p)

	var carry []byte
	buf := make([]byte, outputChunkSize)
	r := p.execution.Output()

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			p.output <- chunk

			window := append(carry, chunk...)
			p.scan(window)

			if len(window) > scanCarry {
				window = window[len(window)-scanCarry:]
			}
			carry = append([]byte(nil), window...)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("sandbox output read ended", "process_id", p.ID, "error", err)
			}
			break
		}
	}

	close(p.output)

	p.exitCode, p.err = p.execution.Wait()
	close(p.done)
}

// looks for local server URLs and starts a probe for each new port
func (p *Process) scan(window []byte) {
	for _, port := range detectPorts(window) {
		p.portsMu.Lock()
		seen := p.ports[port]
		p.ports[port] = true
		p.portsMu.Unlock()

		if seen {
			continue
		}

		go p.awaitPort(port)
	}
}

func (p *Process) awaitPort(port int) {
	if !probePort(p.done, port) {
		return
	}

	ev := ServerReady{Port: port, URL: previewURL(p.sandbox.previewHost, p.sandbox.id, port)}

	logger.Info("sandbox server ready", "sandbox_id", p.sandbox.id, "port", port, "url", ev.URL)

	p.sandbox.emitServerReady(ev)
}

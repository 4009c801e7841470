package sandbox_test

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/sandbox/sandboxtest"
)

func newSandbox(t *testing.T, executor sandbox.Executor) *sandbox.Sandbox {
	t.Helper()

	s, err := sandbox.Boot(context.Background(), sandbox.Options{
		ID:       "proc",
		Root:     t.TempDir(),
		Runtime:  sandbox.RuntimeLocal,
		Executor: executor,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Teardown(context.Background()) })

	return s
}

func collect(p *sandbox.Process) string {
	var sb strings.Builder
	for chunk := range p.Output() {
		sb.Write(chunk)
	}
	return sb.String()
}

func TestSpawnLocal_OutputAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	s := newSandbox(t, nil)

	p, err := s.Spawn(context.Background(), "sh", "-c", "echo hello; echo oops 1>&2; exit 3")
	require.NoError(t, err)

	out := collect(p)

	code, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "oops")
}

func TestSpawnLocal_RunsInRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	s := newSandbox(t, nil)
	require.NoError(t, s.WriteFile("marker.txt", []byte("here")))

	p, err := s.Spawn(context.Background(), "cat", "marker.txt")
	require.NoError(t, err)

	assert.Equal(t, "here", collect(p))
}

func TestSpawnLocal_StartFailure(t *testing.T) {
	s := newSandbox(t, nil)

	_, err := s.Spawn(context.Background(), "definitely-not-a-command-xyz")
	assert.Error(t, err)

	_, err = s.Spawn(context.Background(), "")
	assert.ErrorIs(t, err, sandbox.ErrEmptyCommand)
}

func TestSpawnLocal_Kill(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	s := newSandbox(t, nil)

	p, err := s.Spawn(context.Background(), "sh", "-c", "sleep 30")
	require.NoError(t, err)

	go collect(p)

	require.NoError(t, p.Kill())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = p.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, p.Exited())
}

func TestServerReadyEvent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port

	executor := sandboxtest.NewExecutor(map[string]sandboxtest.Script{
		"npm run dev": {
			Output: []string{"  ➜  Local:   http://local", fmt.Sprintf("host:%d/\n", port)},
			Block:  true,
		},
	})

	s := newSandbox(t, executor)

	events := make(chan sandbox.ServerReady, 4)
	unsubscribe := s.OnServerReady(func(ev sandbox.ServerReady) { events <- ev })
	defer unsubscribe()

	p, err := s.Spawn(context.Background(), "npm", "run", "dev")
	require.NoError(t, err)
	go collect(p)

	select {
	case ev := <-events:
		assert.Equal(t, port, ev.Port)
		assert.Equal(t, fmt.Sprintf("http://localhost:%d", port), ev.URL)
	case <-time.After(5 * time.Second):
		t.Fatal("expected server-ready event")
	}

	require.NoError(t, p.Kill())
}

func TestServerReady_Unsubscribe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port

	executor := sandboxtest.NewExecutor(map[string]sandboxtest.Script{
		"serve": {Output: []string{fmt.Sprintf("http://localhost:%d\n", port)}},
	})

	s := newSandbox(t, executor)

	stale := make(chan sandbox.ServerReady, 1)
	unsubscribe := s.OnServerReady(func(ev sandbox.ServerReady) { stale <- ev })
	unsubscribe()
	unsubscribe()

	fresh := make(chan sandbox.ServerReady, 1)
	defer s.OnServerReady(func(ev sandbox.ServerReady) { fresh <- ev })()

	p, err := s.Spawn(context.Background(), "serve")
	require.NoError(t, err)
	go collect(p)

	select {
	case <-fresh:
	case <-time.After(5 * time.Second):
		t.Fatal("expected event for active subscriber")
	}

	select {
	case <-stale:
		t.Fatal("cancelled subscriber received an event")
	default:
	}
}

func TestServerReady_PortEmittedOncePerProcess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	line := fmt.Sprintf("http://localhost:%d\n", port)

	executor := sandboxtest.NewExecutor(map[string]sandboxtest.Script{
		"serve": {Output: []string{line, line, line}, Block: true},
	})

	s := newSandbox(t, executor)

	events := make(chan sandbox.ServerReady, 4)
	defer s.OnServerReady(func(ev sandbox.ServerReady) { events <- ev })()

	p, err := s.Spawn(context.Background(), "serve")
	require.NoError(t, err)
	go collect(p)

	<-events

	select {
	case <-events:
		t.Fatal("port reported twice")
	case <-time.After(500 * time.Millisecond):
	}

	require.NoError(t, p.Kill())
}

package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/sandbox/sandboxtest"
)

func waitReady(t *testing.T, w *Workspace) {
	t.Helper()

	require.Eventually(t, func() bool {
		return w.State() == StateReady
	}, 5*time.Second, 20*time.Millisecond)
}

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *recorder) {
	t.Helper()

	rec := &recorder{}

	m := NewManager(ManagerConfig{
		Sandbox: sandbox.Options{
			Root:     t.TempDir(),
			Executor: sandboxtest.NewExecutor(defaultScripts()),
		},
		Commands:        testCommands,
		Notifier:        rec,
		TTL:             ttl,
		CleanupInterval: time.Hour,
	})

	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	return m, rec
}

func TestManager_CreateBootstrapsInBackground(t *testing.T) {
	m, rec := newTestManager(t, time.Hour)

	w, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, w.ID)

	waitReady(t, w)

	assert.Contains(t, rec.states(), StateReady)

	got, ok := m.Get(w.ID)
	require.True(t, ok)
	assert.Same(t, w, got)
	assert.Equal(t, 1, m.Count())
}

func TestManager_Delete(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)

	w, err := m.Create(context.Background())
	require.NoError(t, err)
	waitReady(t, w)

	require.NoError(t, m.Delete(context.Background(), w.ID))

	_, ok := m.Get(w.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, m.Delete(context.Background(), w.ID), ErrNotFound)
}

func TestManager_GetUnknown(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)

	_, ok := m.Get("missing")
	assert.False(t, ok)
}

func TestManager_RemoveExpired(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	w, err := m.Create(context.Background())
	require.NoError(t, err)
	waitReady(t, w)

	assert.Equal(t, 0, m.removeExpired(time.Now()))
	assert.Equal(t, 1, m.removeExpired(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, m.Count())
}

func TestManager_Shutdown(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)

	w, err := m.Create(context.Background())
	require.NoError(t, err)
	waitReady(t, w)

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	assert.Equal(t, 0, m.Count())
	assert.False(t, w.View().CanExecute)
}

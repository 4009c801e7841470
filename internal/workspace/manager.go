package workspace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"codeberg.org/algrv/codelab/internal/logger"
)

const (
	DefaultTTL             = 2 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// creates a workspace manager and starts its cleanup loop
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	bootCtx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:     cfg,
		workspaces: make(map[string]*Workspace),
		bootCtx:    bootCtx,
		cancelBoot: cancel,
		stopChan:   make(chan struct{}),
	}

	go m.cleanupExpiredWorkspaces()

	return m
}

// Create boots a workspace and bootstraps it in the background. Progress
// is reported through the configured notifier.
func (m *Manager) Create(ctx context.Context) (*Workspace, error) {
	w, err := New(ctx, Options{
		ID:          uuid.New().String(),
		Sandbox:     m.config.Sandbox,
		Commands:    m.config.Commands,
		InitialTree: m.config.InitialTree,
		Notifier:    m.config.Notifier,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.workspaces[w.ID] = w
	m.mu.Unlock()

	logger.ForWorkspace(w.ID).Info("workspace created")

	go func() {
		// failure is recorded on the workspace and already logged
		_ = w.Bootstrap(m.bootCtx)
	}()

	return w, nil
}

// retrieves a workspace by ID and marks it active
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.RLock()
	w, exists := m.workspaces[id]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(w.LastActivity()) > m.config.TTL {
		return nil, false
	}

	w.Touch()

	return w, true
}

// removes a workspace and tears it down
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	w, exists := m.workspaces[id]
	delete(m.workspaces, id)
	m.mu.Unlock()

	if !exists {
		return ErrNotFound
	}

	return w.Teardown(ctx)
}

// returns the number of live workspaces
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workspaces)
}

// periodically tears down idle workspaces
func (m *Manager) cleanupExpiredWorkspaces() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.removeExpired(time.Now())
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) removeExpired(now time.Time) int {
	var expired []*Workspace

	m.mu.Lock()
	for id, w := range m.workspaces {
		if now.Sub(w.LastActivity()) > m.config.TTL {
			expired = append(expired, w)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()

	for _, w := range expired {
		if err := w.Teardown(context.Background()); err != nil {
			logger.ForWorkspace(w.ID).Warn("failed to tear down expired workspace", "error", err)
			continue
		}

		logger.ForWorkspace(w.ID).Info("expired workspace removed")
	}

	return len(expired)
}

// Shutdown stops the cleanup loop, cancels running bootstraps and tears
// down every workspace.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.cancelBoot()
	})

	m.mu.Lock()
	all := make([]*Workspace, 0, len(m.workspaces))
	for id, w := range m.workspaces {
		all = append(all, w)
		delete(m.workspaces, id)
	}
	m.mu.Unlock()

	var firstErr error

	for _, w := range all {
		if err := w.Teardown(ctx); err != nil {
			logger.ForWorkspace(w.ID).Warn("failed to tear down workspace", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

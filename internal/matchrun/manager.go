package matchrun

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kozaktomas/event-gallery/internal/constants"
	"github.com/kozaktomas/event-gallery/internal/facematch"
)

// Manager keeps runs by id and allows one live run per viewer.
type Manager struct {
	controller *Controller
	runs       *cache.Cache
	ttl        time.Duration

	mu     sync.Mutex
	active map[string]string // viewer key → run id
	owners map[string]string // run id → viewer key
}

// NewManager creates a manager whose runs expire ttl after their last access.
// Expired runs are cancelled.
func NewManager(controller *Controller, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = constants.DefaultRunTTL
	}
	m := &Manager{
		controller: controller,
		runs:       cache.New(ttl, ttl/2),
		ttl:        ttl,
		active:     make(map[string]string),
		owners:     make(map[string]string),
	}
	m.runs.OnEvicted(func(runID string, v any) {
		if run, ok := v.(*Run); ok {
			run.Cancel()
		}
		m.forget(runID)
	})
	return m
}

// Start cancels the viewer's previous run and starts a new one. A run that fails
// validation is returned with its error and is not stored.
func (m *Manager) Start(ctx context.Context, viewerKey, sessionID string, selfie facematch.Embedding) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prevID, ok := m.active[viewerKey]; ok {
		if prev := m.lookup(prevID); prev != nil {
			prev.Cancel()
		}
		delete(m.active, viewerKey)
	}

	run, err := m.controller.Start(ctx, sessionID, selfie)
	if err != nil {
		return run, err
	}
	m.runs.Set(run.ID, run, cache.DefaultExpiration)
	m.active[viewerKey] = run.ID
	m.owners[run.ID] = viewerKey
	return run, nil
}

// Get returns a run by id and refreshes its expiry, or nil.
func (m *Manager) Get(runID string) *Run {
	run := m.lookup(runID)
	if run != nil {
		m.runs.Set(runID, run, cache.DefaultExpiration)
	}
	return run
}

// GetOwned returns a run only if it was started by viewerKey.
func (m *Manager) GetOwned(viewerKey, runID string) *Run {
	m.mu.Lock()
	owner, ok := m.owners[runID]
	m.mu.Unlock()
	if !ok || owner != viewerKey {
		return nil
	}
	return m.Get(runID)
}

// Active returns the viewer's latest run, or nil.
func (m *Manager) Active(viewerKey string) *Run {
	m.mu.Lock()
	id, ok := m.active[viewerKey]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.Get(id)
}

// Cancel cancels a run by id. It reports whether the run exists.
func (m *Manager) Cancel(runID string) bool {
	run := m.lookup(runID)
	if run == nil {
		return false
	}
	run.Cancel()
	return true
}

// Shutdown cancels every live run.
func (m *Manager) Shutdown() {
	for _, item := range m.runs.Items() {
		if run, ok := item.Object.(*Run); ok {
			run.Cancel()
		}
	}
}

func (m *Manager) forget(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, runID)
	for viewer, id := range m.active {
		if id == runID {
			delete(m.active, viewer)
		}
	}
}

func (m *Manager) lookup(runID string) *Run {
	v, ok := m.runs.Get(runID)
	if !ok {
		return nil
	}
	run, _ := v.(*Run)
	return run
}

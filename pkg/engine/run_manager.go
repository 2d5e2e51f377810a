package engine

import (
	"context"
	"sync"

	"yqhp/automation-engine/pkg/types"
)

// ManagedRun pairs a run's context with its cancel function so callers can
// stop it by id.
type ManagedRun struct {
	Run    *types.ExecutionContext
	cancel context.CancelFunc
}

// Cancel requests cancellation of the run.
func (m *ManagedRun) Cancel() {
	m.cancel()
}

// RunManager tracks in-flight runs by id. Runs are added when execution
// starts and removed when they reach a terminal state; lookups after that go
// to the store.
type RunManager struct {
	mu   sync.RWMutex
	runs map[string]*ManagedRun
}

// NewRunManager creates an empty RunManager.
func NewRunManager() *RunManager {
	return &RunManager{runs: make(map[string]*ManagedRun)}
}

// Add registers an in-flight run.
func (m *RunManager) Add(run *types.ExecutionContext, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = &ManagedRun{Run: run, cancel: cancel}
}

// Get returns the in-flight run with the given id.
func (m *RunManager) Get(runID string) (*ManagedRun, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[runID]
	return r, ok
}

// Remove drops a run from tracking, releasing its cancel function.
func (m *RunManager) Remove(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, runID)
}

// Count returns the number of in-flight runs.
func (m *RunManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// IDs returns the ids of all in-flight runs.
func (m *RunManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	return ids
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yqhp/automation-engine/pkg/types"
)

// MemoryStore is the in-process Store used by the CLI and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*types.Workflow // keyed name@version
	versions  map[string][]string        // name -> versions in save order
	results   map[string]*types.ExecutionResult
	order     []string // run ids in save order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]*types.Workflow),
		versions:  make(map[string][]string),
		results:   make(map[string]*types.ExecutionResult),
	}
}

func workflowKey(name, version string) string {
	return fmt.Sprintf("%s@%s", name, version)
}

// SaveWorkflow implements Store.
func (s *MemoryStore) SaveWorkflow(ctx context.Context, wf *types.Workflow) error {
	if wf.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := workflowKey(wf.Name, wf.Version)
	if _, exists := s.workflows[key]; !exists {
		s.versions[wf.Name] = append(s.versions[wf.Name], wf.Version)
	}
	s.workflows[key] = wf
	return nil
}

// LoadWorkflow implements Store.
func (s *MemoryStore) LoadWorkflow(ctx context.Context, name, version string) (*types.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if version == "" {
		saved := s.versions[name]
		if len(saved) == 0 {
			return nil, fmt.Errorf("workflow %s: %w", name, ErrNotFound)
		}
		version = saved[len(saved)-1]
	}
	wf, ok := s.workflows[workflowKey(name, version)]
	if !ok {
		return nil, fmt.Errorf("workflow %s@%s: %w", name, version, ErrNotFound)
	}
	return wf, nil
}

// SaveResult implements Store.
func (s *MemoryStore) SaveResult(ctx context.Context, result *types.ExecutionResult) error {
	if result.RunID == "" {
		return fmt.Errorf("result run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.RunID]; !exists {
		s.order = append(s.order, result.RunID)
	}
	s.results[result.RunID] = result
	return nil
}

// LoadResult implements Store.
func (s *MemoryStore) LoadResult(ctx context.Context, runID string) (*types.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return result, nil
}

// ListResults implements Store.
func (s *MemoryStore) ListResults(ctx context.Context) ([]*types.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.ExecutionResult, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.results[s.order[i]])
	}
	return out, nil
}

// WorkflowNames returns the names of all stored workflows, sorted.
func (s *MemoryStore) WorkflowNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

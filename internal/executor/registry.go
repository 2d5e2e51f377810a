package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yqhp/automation-engine/pkg/types"
)

// Registry maps step kinds to their executors.
type Registry struct {
	mu        sync.RWMutex
	executors map[types.StepKind]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[types.StepKind]Executor),
	}
}

// Register adds an executor for its kind. Registering a kind twice is an
// error.
func (r *Registry) Register(e Executor) error {
	if e == nil {
		return fmt.Errorf("cannot register nil executor")
	}
	kind := e.Kind()
	if kind == "" {
		return fmt.Errorf("executor kind must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[kind]; exists {
		return fmt.Errorf("executor already registered for kind: %s", kind)
	}
	r.executors[kind] = e
	return nil
}

// MustRegister registers an executor and panics on error.
func (r *Registry) MustRegister(e Executor) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Get returns the executor for a kind, or nil when none is registered.
func (r *Registry) Get(kind types.StepKind) Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.executors[kind]
}

// GetOrError returns the executor for a kind or a NotFound error.
func (r *Registry) GetOrError(kind types.StepKind) (Executor, error) {
	e := r.Get(kind)
	if e == nil {
		return nil, NewNotFoundError(string(kind))
	}
	return e, nil
}

// Has reports whether a kind has a registered executor.
func (r *Registry) Has(kind types.StepKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.executors[kind]
	return exists
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []types.StepKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]types.StepKind, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Count returns the number of registered executors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}

// InitAll initializes every registered executor with its config section.
func (r *Registry) InitAll(ctx context.Context, configs map[types.StepKind]map[string]any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for kind, e := range r.executors {
		config := configs[kind]
		if config == nil {
			config = make(map[string]any)
		}
		if err := e.Init(ctx, config); err != nil {
			return NewInitError(string(kind), "init failed", err)
		}
	}
	return nil
}

// CleanupAll cleans up every registered executor, returning the last error.
func (r *Registry) CleanupAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var lastErr error
	for kind, e := range r.executors {
		if err := e.Cleanup(ctx); err != nil {
			lastErr = fmt.Errorf("cleanup executor %s: %w", kind, err)
		}
	}
	return lastErr
}

// Package capability defines the dispatch interface for delegated_action
// steps and the registry that resolves capabilities at engine construction.
package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Capability is an external system the engine can delegate a step to. The
// engine treats it as a black box: it calls Invoke and interprets the error
// as the step's success or failure.
type Capability interface {
	// Name returns the capability name steps reference.
	Name() string

	// Invoke performs one action. Implementations must honor ctx
	// cancellation and return promptly when it fires.
	Invoke(ctx context.Context, action string, args map[string]any) (map[string]any, error)
}

// Registry maps capability names to implementations. Lookups after
// construction are read-only, so a single RWMutex suffices.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]Capability)}
}

// DefaultRegistry returns a registry with the built-in capabilities
// (script, http) already registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewScriptCapability())
	r.MustRegister(NewHTTPCapability())
	return r
}

// Register adds a capability. Registering a duplicate name is an error.
func (r *Registry) Register(c Capability) error {
	if c == nil {
		return fmt.Errorf("cannot register nil capability")
	}
	name := c.Name()
	if name == "" {
		return fmt.Errorf("cannot register capability with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.capabilities[name]; exists {
		return fmt.Errorf("capability already registered: %s", name)
	}
	r.capabilities[name] = c
	return nil
}

// MustRegister is like Register but panics on error. Intended for wiring
// built-ins at startup.
func (r *Registry) MustRegister(c Capability) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the capability with the given name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[name]
	return c, ok
}

// Has reports whether a capability is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the sorted names of all registered capabilities.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.capabilities)
}

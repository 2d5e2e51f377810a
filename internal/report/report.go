// Package report delivers finished run results to configured destinations:
// the console, JSON files, or webhook endpoints.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"yqhp/automation-engine/pkg/types"
)

// Reporter delivers one run result to a destination.
type Reporter interface {
	// Name returns the reporter name.
	Name() string

	// Report delivers the result. Reporters must be safe to call more than
	// once with different results.
	Report(ctx context.Context, result *types.ExecutionResult) error

	// Close releases any resources held by the reporter.
	Close() error
}

// Factory creates a reporter for a destination target. The target's meaning
// is reporter-specific: a file path for json, a URL for webhook, empty for
// console.
type Factory func(target string) (Reporter, error)

// Registry maps reporter type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in reporters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.factories["console"] = func(string) (Reporter, error) { return NewConsoleReporter(nil), nil }
	r.factories["json"] = NewJSONFileReporter
	r.factories["webhook"] = func(target string) (Reporter, error) {
		return NewWebhookReporter(&WebhookConfig{URL: target})
	}
	return r
}

// Register adds a factory for a reporter type.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("reporter type already registered: %s", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds a reporter from a spec of the form "type" or "type=target",
// e.g. "console", "json=result.json", "webhook=https://ci.internal/hooks/runs".
func (r *Registry) Create(spec string) (Reporter, error) {
	name, target, _ := strings.Cut(spec, "=")
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown reporter type: %s", name)
	}
	return factory(target)
}

// Manager fans one result out to multiple reporters.
type Manager struct {
	reporters []Reporter
}

// NewManager builds a manager from reporter specs using the registry.
func NewManager(registry *Registry, specs []string) (*Manager, error) {
	m := &Manager{}
	for _, spec := range specs {
		rep, err := registry.Create(spec)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.reporters = append(m.reporters, rep)
	}
	return m, nil
}

// Add appends a reporter to the manager.
func (m *Manager) Add(rep Reporter) {
	m.reporters = append(m.reporters, rep)
}

// Report delivers the result to every reporter. All reporters are attempted;
// their errors are joined.
func (m *Manager) Report(ctx context.Context, result *types.ExecutionResult) error {
	var errs []error
	for _, rep := range m.reporters {
		if err := rep.Report(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("reporter %s: %w", rep.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every reporter.
func (m *Manager) Close() error {
	var errs []error
	for _, rep := range m.reporters {
		if err := rep.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package template holds the named template library behind template_expansion
// steps. A template is a command or action body with ${var} placeholders; the
// library resolves a template name plus a variable map into a concrete
// parameter set the step runner can execute directly.
package template

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"yqhp/automation-engine/pkg/types"
)

// Template is a reusable command or action body. Exactly one of Command or
// Action must be set. Required lists the variables the caller must supply.
type Template struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Required    []string             `yaml:"required,omitempty"`
	Command     *types.CommandParams `yaml:"command,omitempty"`
	Action      *types.ActionParams  `yaml:"action,omitempty"`
}

// Validate checks that the template is well formed.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if (t.Command == nil) == (t.Action == nil) {
		return fmt.Errorf("template %q must declare exactly one of command or action", t.Name)
	}
	return nil
}

// Expansion is the concrete parameter set produced by expanding a template.
// Exactly one of Command or Action is set, mirroring the template body.
type Expansion struct {
	Command *types.CommandParams
	Action  *types.ActionParams
}

// Library is a thread-safe registry of named templates.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{templates: make(map[string]*Template)}
}

// Register adds a template to the library. Registering a name twice is an
// error; use distinct names for variants.
func (l *Library) Register(t *Template) error {
	if t == nil {
		return fmt.Errorf("cannot register nil template")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.templates[t.Name]; exists {
		return fmt.Errorf("template %q is already registered", t.Name)
	}
	l.templates[t.Name] = t
	return nil
}

// MustRegister is like Register but panics on error. Intended for static
// registration at startup.
func (l *Library) MustRegister(t *Template) {
	if err := l.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the template with the given name.
func (l *Library) Get(name string) (*Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[name]
	return t, ok
}

// Has reports whether a template with the given name is registered.
func (l *Library) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Names returns the registered template names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered templates.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}

// LoadFile reads template definitions from a YAML file and registers them.
// The file holds a list of templates under a top-level "templates" key.
func (l *Library) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open template file: %w", err)
	}
	defer f.Close()
	return l.load(f, path)
}

// LoadDir loads every .yaml/.yml file in dir, in lexical order.
func (l *Library) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read template dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := l.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

type templateFile struct {
	Templates []*Template `yaml:"templates"`
}

func (l *Library) load(r io.Reader, source string) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file templateFile
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("parse template file %s: %w", source, err)
	}
	for _, t := range file.Templates {
		if err := l.Register(t); err != nil {
			return fmt.Errorf("template file %s: %w", source, err)
		}
	}
	return nil
}

// Expand resolves a template_expansion parameter set into a concrete command
// or action ready for execution. Every required variable must be supplied and
// every placeholder in the body must resolve.
func (l *Library) Expand(params *types.TemplateParams) (*Expansion, error) {
	t, ok := l.Get(params.Template)
	if !ok {
		return nil, NewNotFoundError(params.Template)
	}
	for _, name := range t.Required {
		if _, ok := params.Variables[name]; !ok {
			return nil, NewMissingVariableError(t.Name, name)
		}
	}
	sub := &substituter{template: t.Name, variables: params.Variables}
	if t.Command != nil {
		line, err := sub.text(t.Command.Line)
		if err != nil {
			return nil, err
		}
		env := make(map[string]string, len(t.Command.Env))
		for k, v := range t.Command.Env {
			resolved, err := sub.text(v)
			if err != nil {
				return nil, err
			}
			env[k] = resolved
		}
		return &Expansion{Command: &types.CommandParams{Line: line, Env: env}}, nil
	}
	args, err := sub.value(t.Action.Args)
	if err != nil {
		return nil, err
	}
	argMap, _ := args.(map[string]any)
	return &Expansion{Action: &types.ActionParams{
		Capability: t.Action.Capability,
		Action:     t.Action.Action,
		Args:       argMap,
	}}, nil
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type substituter struct {
	template  string
	variables map[string]any
}

// text replaces every ${var} in s with the supplied value rendered as text.
func (s *substituter) text(in string) (string, error) {
	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(in, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		v, ok := s.variables[name]
		if !ok {
			if firstErr == nil {
				firstErr = NewUnknownVariableError(s.template, name)
			}
			return match
		}
		return fmt.Sprintf("%v", v)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// value substitutes placeholders through nested maps and slices. A string that
// is exactly one placeholder is replaced by the typed variable value, so
// numbers and booleans survive expansion into action args.
func (s *substituter) value(in any) (any, error) {
	switch v := in.(type) {
	case string:
		if m := placeholderRe.FindStringSubmatch(v); m != nil && m[0] == v {
			value, ok := s.variables[m[1]]
			if !ok {
				return nil, NewUnknownVariableError(s.template, m[1])
			}
			return value, nil
		}
		return s.text(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			resolved, err := s.value(elem)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			resolved, err := s.value(elem)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return in, nil
	}
}

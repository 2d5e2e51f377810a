package executor

import (
	"context"

	"yqhp/automation-engine/pkg/types"
)

// BaseExecutor carries the shared plumbing of every executor: the kind it
// serves and the config map handed to Init.
type BaseExecutor struct {
	kind   types.StepKind
	config map[string]any
}

// NewBaseExecutor creates a BaseExecutor for the given kind.
func NewBaseExecutor(kind types.StepKind) *BaseExecutor {
	return &BaseExecutor{
		kind:   kind,
		config: make(map[string]any),
	}
}

// Kind returns the step kind.
func (b *BaseExecutor) Kind() types.StepKind {
	return b.kind
}

// Init stores the configuration.
func (b *BaseExecutor) Init(ctx context.Context, config map[string]any) error {
	if config == nil {
		config = make(map[string]any)
	}
	b.config = config
	return nil
}

// Cleanup releases nothing by default.
func (b *BaseExecutor) Cleanup(ctx context.Context) error {
	return nil
}

// ConfigString returns a string config value or the default.
func (b *BaseExecutor) ConfigString(key, defaultVal string) string {
	if val, ok := b.config[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}

// ConfigInt returns an integer config value or the default.
func (b *BaseExecutor) ConfigInt(key string, defaultVal int) int {
	if val, ok := b.config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultVal
}

// ConfigBool returns a boolean config value or the default.
func (b *BaseExecutor) ConfigBool(key string, defaultVal bool) bool {
	if val, ok := b.config[key]; ok {
		if v, ok := val.(bool); ok {
			return v
		}
	}
	return defaultVal
}

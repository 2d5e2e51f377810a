package capability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// ScriptCapability evaluates JavaScript snippets in an embedded goja runtime.
// The runtime is sandboxed: no filesystem, network, or process access is
// exposed, only the args passed to the action and a captured console.
type ScriptCapability struct{}

// NewScriptCapability creates the script capability.
func NewScriptCapability() *ScriptCapability {
	return &ScriptCapability{}
}

// Name implements Capability.
func (c *ScriptCapability) Name() string {
	return "script"
}

// Invoke supports a single action, "eval". Args: "source" (the script) and
// an optional "variables" map bound as globals. The script's completion value
// becomes the "value" result field; console output is collected into "logs".
func (c *ScriptCapability) Invoke(ctx context.Context, action string, args map[string]any) (map[string]any, error) {
	if action != "eval" {
		return nil, fmt.Errorf("script capability has no action %q", action)
	}
	source, _ := args["source"].(string)
	if source == "" {
		return nil, fmt.Errorf("script eval requires a source argument")
	}

	vm := goja.New()
	logs := newConsole(vm)

	if vars, ok := args["variables"].(map[string]any); ok {
		for k, v := range vars {
			if err := vm.Set(k, v); err != nil {
				return nil, fmt.Errorf("bind variable %s: %w", k, err)
			}
		}
	}

	// Interrupt the VM if the caller's deadline or cancellation fires;
	// goja scripts cannot otherwise be preempted.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(source)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("script failed: %w", err)
	}

	result := map[string]any{"logs": logs.entries()}
	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		result["value"] = val.Export()
	}
	return result, nil
}

// console captures console.log/info/warn/error output from scripts.
type console struct {
	mu   sync.Mutex
	logs []string
}

func newConsole(vm *goja.Runtime) *console {
	c := &console{}
	log := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = fmt.Sprintf("%v", arg.Export())
		}
		c.mu.Lock()
		c.logs = append(c.logs, fmt.Sprintf("[%s] %s",
			time.Now().Format("15:04:05.000"), strings.Join(parts, " ")))
		c.mu.Unlock()
		return goja.Undefined()
	}

	obj := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		_ = obj.Set(level, log)
	}
	_ = vm.Set("console", obj)
	return c
}

func (c *console) entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.logs))
	copy(out, c.logs)
	return out
}

// Package engine is the public API of the workflow execution engine. It ties
// the validator, planner, executors and staged runner together behind four
// operations: Validate, Plan, Execute and Cancel.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	core "yqhp/automation-engine/internal/engine"
	"yqhp/automation-engine/internal/executor"
	"yqhp/automation-engine/internal/plan"
	"yqhp/automation-engine/internal/template"
	"yqhp/automation-engine/internal/validate"
	"yqhp/automation-engine/pkg/capability"
	"yqhp/automation-engine/pkg/logger"
	"yqhp/automation-engine/pkg/store"
	"yqhp/automation-engine/pkg/types"
)

// Config configures an Engine.
type Config struct {
	// MaxConcurrent bounds in-flight steps within one stage.
	MaxConcurrent int
	// SafetyRulesFile optionally extends the built-in safety deny-list.
	SafetyRulesFile string
	// TemplateDir optionally loads workflow templates at startup.
	TemplateDir string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent: core.DefaultMaxConcurrent,
	}
}

// Engine validates, plans and executes workflows. It is safe for concurrent
// use; each Execute call owns its run's state exclusively.
type Engine struct {
	config       *Config
	validator    *validate.Validator
	capabilities *capability.Registry
	templates    *template.Library
	executors    *executor.Registry
	runner       *core.Runner
	store        store.Store
	runs         *RunManager
	events       *EventBus
}

// Option configures an Engine beyond its Config.
type Option func(*Engine)

// WithStore sets the persistence collaborator results are saved to.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithCapability registers an extra capability for delegated actions.
func WithCapability(c capability.Capability) Option {
	return func(e *Engine) { e.capabilities.MustRegister(c) }
}

// New creates an Engine. The built-in script and http capabilities are always
// available; extra ones come in through WithCapability.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	rules := validate.DefaultRuleSet()
	if cfg.SafetyRulesFile != "" {
		loaded, err := validate.LoadRuleSet(cfg.SafetyRulesFile)
		if err != nil {
			return nil, fmt.Errorf("load safety rules: %w", err)
		}
		rules = loaded
	}
	validator := validate.NewWithRules(rules)

	e := &Engine{
		config:       cfg,
		validator:    validator,
		capabilities: capability.DefaultRegistry(),
		templates:    template.NewLibrary(),
		executors:    executor.NewRegistry(),
		runs:         NewRunManager(),
		events:       NewEventBus(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.TemplateDir != "" {
		if err := e.templates.LoadDir(cfg.TemplateDir); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}
	validator.WithTemplates(e.templates)

	e.runner = core.NewRunner(e.executors,
		core.WithMaxConcurrent(cfg.MaxConcurrent),
		core.WithEventSink(e.events))

	e.executors.MustRegister(executor.NewCommandExecutor())
	e.executors.MustRegister(executor.NewActionExecutor(e.capabilities))
	e.executors.MustRegister(executor.NewConditionalExecutor(e.runner))
	e.executors.MustRegister(executor.NewTemplateExecutor(e.templates, e.executors, rules))

	return e, nil
}

// Templates exposes the template library for registration at startup.
func (e *Engine) Templates() *template.Library {
	return e.templates
}

// Events exposes the run event bus for streaming consumers.
func (e *Engine) Events() *EventBus {
	return e.events
}

// Validate checks a workflow structurally and against the safety deny-list.
// It is a pure function of the workflow; nothing is recorded.
func (e *Engine) Validate(wf *types.Workflow) *types.ValidationResult {
	return e.validator.Validate(wf)
}

// Plan computes the staged execution plan without running anything.
func (e *Engine) Plan(wf *types.Workflow) (*types.ExecutionPlan, error) {
	return plan.Resolve(wf.Steps)
}

// ExecuteOptions tune one Execute call.
type ExecuteOptions struct {
	// DryRun exercises validation, planning and state transitions without
	// performing real side effects.
	DryRun bool
	// RunID overrides the generated run id. Callers that start runs
	// asynchronously set it so they can hand the id out before Execute
	// returns.
	RunID string
}

// Execute runs a workflow to a terminal state. It returns an error only when
// the run cannot start: validation failure, bad inputs, or an unplannable
// graph. Once the run reaches RUNNING the result is always a complete
// ExecutionResult; step failures, timeouts, rollback and cancellation are
// inside it, never in the error return.
func (e *Engine) Execute(ctx context.Context, wf *types.Workflow, inputs map[string]any, opts ExecuteOptions) (*types.ExecutionResult, error) {
	vr := e.validator.Validate(wf)
	if !vr.IsValid() {
		return nil, &types.EngineError{
			Code:    types.ErrCodeValidation,
			Message: fmt.Sprintf("workflow %s is invalid: %s", wf.Name, vr.Errors[0].String()),
		}
	}

	resolved, err := wf.ResolveInputs(inputs)
	if err != nil {
		return nil, err
	}

	execPlan, err := plan.Resolve(wf.Steps)
	if err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	run := types.NewExecutionContext(runID, wf, resolved, opts.DryRun)
	run.SetStatus(types.RunStatusValidated)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.runs.Add(run, cancel)
	defer func() {
		e.runs.Remove(runID)
		e.events.CloseRun(runID)
	}()

	result := e.runner.Execute(runCtx, run, execPlan)

	if e.store != nil {
		saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer saveCancel()
		if err := e.store.SaveResult(saveCtx, result); err != nil {
			logger.Error("save run result failed",
				zap.String("run_id", runID), zap.Error(err))
		}
	}
	return result, nil
}

// Cancel requests cancellation of an in-flight run. In-flight steps are
// marked cancelled and the run finishes FAILED.
func (e *Engine) Cancel(runID string) error {
	managed, ok := e.runs.Get(runID)
	if !ok {
		return types.NewRunNotFoundError(runID)
	}
	managed.Cancel()
	return nil
}

// Status returns the current status of a run: in-flight runs come from the
// run manager, finished ones from the store.
func (e *Engine) Status(ctx context.Context, runID string) (types.RunStatus, error) {
	if managed, ok := e.runs.Get(runID); ok {
		return managed.Run.Status(), nil
	}
	if e.store != nil {
		result, err := e.store.LoadResult(ctx, runID)
		if err == nil {
			return result.Status, nil
		}
	}
	return "", types.NewRunNotFoundError(runID)
}

// Result returns the stored result of a finished run.
func (e *Engine) Result(ctx context.Context, runID string) (*types.ExecutionResult, error) {
	if e.store == nil {
		return nil, types.NewRunNotFoundError(runID)
	}
	result, err := e.store.LoadResult(ctx, runID)
	if err != nil {
		return nil, types.NewRunNotFoundError(runID)
	}
	return result, nil
}

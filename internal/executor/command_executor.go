package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"yqhp/automation-engine/pkg/types"
)

// allowedEnv is the set of host environment variables a command step
// inherits. Everything else is stripped; workflow inputs come in as WF_*.
var allowedEnv = []string{"PATH", "HOME", "LANG", "TZ"}

// CommandExecutor runs command steps as a subprocess. The command line is
// split into argv without shell interpretation, so metacharacters, pipes and
// substitutions have no effect.
type CommandExecutor struct {
	*BaseExecutor
	workDir string
}

// NewCommandExecutor creates a CommandExecutor.
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{
		BaseExecutor: NewBaseExecutor(types.StepKindCommand),
	}
}

// Init reads the optional work_dir config.
func (e *CommandExecutor) Init(ctx context.Context, config map[string]any) error {
	if err := e.BaseExecutor.Init(ctx, config); err != nil {
		return err
	}
	e.workDir = e.ConfigString("work_dir", "")
	return nil
}

// Execute runs the step's command line and captures stdout and stderr. A
// non-zero exit still returns the captured output alongside the error.
func (e *CommandExecutor) Execute(ctx context.Context, step *types.Step, run *types.ExecutionContext) (map[string]any, error) {
	params := step.Command
	if params == nil {
		return nil, NewParamsError(step.ID, "command step has no command parameters")
	}

	argv, err := SplitCommandLine(params.Line)
	if err != nil {
		return nil, NewParamsError(step.ID, err.Error())
	}
	if len(argv) == 0 {
		return nil, NewParamsError(step.ID, "command line is empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.workDir
	cmd.Env = buildEnv(params.Env, run.Inputs)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	output := map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode(cmd, runErr),
	}

	if runErr != nil {
		// Surface cancellation and deadline so the runner can classify the
		// outcome; the process was already killed by CommandContext.
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		return output, NewInvocationError(step.ID, fmt.Sprintf("command %q failed", argv[0]), runErr)
	}
	return output, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

// buildEnv assembles the constrained subprocess environment: allow-listed
// host variables, then WF_* variables derived from workflow inputs, then the
// step's own declared env entries.
func buildEnv(stepEnv map[string]string, inputs map[string]any) []string {
	env := make([]string, 0, len(allowedEnv)+len(inputs)+len(stepEnv))
	for _, name := range allowedEnv {
		if val, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+val)
		}
	}
	for name, val := range inputs {
		env = append(env, "WF_"+envName(name)+"="+fmt.Sprintf("%v", val))
	}
	for name, val := range stepEnv {
		env = append(env, name+"="+val)
	}
	return env
}

// envName maps an input name to an environment-variable suffix: uppercased,
// with every non-alphanumeric rune collapsed to an underscore.
func envName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SplitCommandLine splits a command line into argv. Single and double quotes
// group words; no other shell syntax is recognized.
func SplitCommandLine(line string) ([]string, error) {
	var argv []string
	var current strings.Builder
	var quote rune
	inWord := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command line")
	}
	if inWord {
		argv = append(argv, current.String())
	}
	return argv, nil
}

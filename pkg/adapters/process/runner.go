package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Runner implements ports.CommandExecutor for local processes.
// Only commands registered by name can run; callers never supply a command
// line, only environment values.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess is an allowed command.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded tools file.
func WithRegistry(tools map[string]Tool) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			r.registry[name] = RegisteredProcess{
				Command: tool.Command,
				Args:    tool.Args,
				Env:     tool.Environment,
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a runner with an empty allow-list.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Names lists the registered commands.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the command registered as name and returns its trimmed stdout.
// env entries are exported as COLLOQUY_ARG_<KEY>. Unknown names fail with
// domain.ErrCommandNotAllowed.
func (r *Runner) Execute(ctx context.Context, name string, env map[string]string) (string, error) {
	proc, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrCommandNotAllowed, name)
	}

	vars := make(map[string]string, len(proc.Env)+len(env))
	for k, v := range proc.Env {
		vars[k] = v
	}
	for k, v := range env {
		vars["COLLOQUY_ARG_"+strings.ToUpper(k)] = v
	}
	return run(ctx, r.baseDir, proc.Command, proc.Args, vars)
}

const waitDelay = 500 * time.Millisecond

// run executes command and returns its trimmed stdout. A failed process
// reports its stderr in the error.
func run(ctx context.Context, dir, command string, args []string, env map[string]string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	// Grandchildren may keep the output pipes open after a kill.
	cmd.WaitDelay = waitDelay

	extra := make([]string, 0, len(env))
	for k, v := range env {
		extra = append(extra, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), extra...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", command, ctxErr)
		}
		return "", fmt.Errorf("%s failed: %w: %s", command, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Package registry holds commands implemented in process. Rule templates
// reach them through the same allow-list as external tools.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// CommandFunc implements a command. env carries the sentence, that and topic.
type CommandFunc func(ctx context.Context, env map[string]string) (string, error)

// Registry manages in-process commands. Names it does not know are passed to
// the fallback executor, if any.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
	fallback ports.CommandExecutor
}

// Option configures a Registry.
type Option func(*Registry)

// WithFallback sets the executor used for unregistered names.
func WithFallback(exec ports.CommandExecutor) Option {
	return func(r *Registry) {
		r.fallback = exec
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		commands: make(map[string]CommandFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a command to the registry.
// If a command with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = fn
}

// Names lists the registered commands, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs name. Unknown names fail with domain.ErrCommandNotAllowed
// unless a fallback executor is set.
func (r *Registry) Execute(ctx context.Context, name string, env map[string]string) (string, error) {
	r.mu.RLock()
	fn, ok := r.commands[name]
	r.mu.RUnlock()

	if !ok {
		if r.fallback != nil {
			return r.fallback.Execute(ctx, name, env)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrCommandNotAllowed, name)
	}
	return fn(ctx, env)
}

// RegisterBuiltins adds the clock commands "date" and "time".
func RegisterBuiltins(r *Registry, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.Register("date", func(ctx context.Context, env map[string]string) (string, error) {
		return now().Format("Monday, January 2, 2006"), nil
	})
	r.Register("time", func(ctx context.Context, env map[string]string) (string, error) {
		return now().Format("3:04 PM"), nil
	})
}

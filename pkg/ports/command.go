package ports

import "context"

// CommandExecutor runs external commands that were explicitly authorized.
// Unknown names fail with domain.ErrCommandNotAllowed.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, env map[string]string) (string, error)
}

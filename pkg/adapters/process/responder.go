package process

import (
	"context"
	"fmt"

	"github.com/aretw0/colloquy/pkg/ports"
)

// Responder answers each sentence by running an external program.
//
// The program gets the turn on its environment (COLLOQUY_INPUT,
// COLLOQUY_SENTENCE, COLLOQUY_THAT, COLLOQUY_TOPIC, COLLOQUY_SESSION) and its
// stdout is the reply. A non-zero exit fails the turn.
type Responder struct {
	Command string
	Args    []string
	Dir     string
}

// NewResponder creates a process responder.
func NewResponder(command string, args ...string) *Responder {
	return &Responder{Command: command, Args: args}
}

// Respond runs the program for one sentence.
func (r *Responder) Respond(ctx context.Context, req ports.ResponseRequest) (string, error) {
	env := map[string]string{
		"COLLOQUY_INPUT":    req.Request,
		"COLLOQUY_SENTENCE": req.Sentence,
		"COLLOQUY_THAT":     req.That,
		"COLLOQUY_TOPIC":    req.Topic,
		"COLLOQUY_SESSION":  req.SessionID,
	}
	out, err := run(ctx, r.Dir, r.Command, r.Args, env)
	if err != nil {
		return "", fmt.Errorf("process responder: %w", err)
	}
	return out, nil
}

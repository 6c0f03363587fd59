package ports

import (
	"context"

	"github.com/aretw0/colloquy/pkg/domain"
)

// ResponseRequest is everything a responder may look at for one sentence.
type ResponseRequest struct {
	SessionID string
	// Request is the full, original turn input.
	Request string
	// Sentence is the sentence being answered, or the repetition sentinel.
	Sentence string
	That     string
	Topic    string
	// Turn holds the reply sentences already produced during this turn.
	Turn       *domain.TurnContext
	Predicates PredicateStore
	Triples    TripleStore
}

// Responder produces the reply for a single sentence.
// It may update predicates and triples as a side effect.
type Responder interface {
	Respond(ctx context.Context, req ResponseRequest) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, req ResponseRequest) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, req ResponseRequest) (string, error) {
	return f(ctx, req)
}

// LearnedFlusher persists categories learned during a session.
type LearnedFlusher interface {
	Flush(ctx context.Context) error
}

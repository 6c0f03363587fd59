package ports

import (
	"context"

	"github.com/aretw0/colloquy/pkg/domain"
)

// PredicateStore holds the predicates of one session.
type PredicateStore interface {
	// Get returns the value for key, falling back to loaded defaults.
	Get(key string) (string, bool)
	Put(key, value string)
	// LoadDefaults reads default values from path.
	LoadDefaults(path string) error
	// Values returns a copy of the explicitly set values.
	Values() map[string]string
}

// TripleStore keeps knowledge facts. Adding an existing triple is a no-op.
// Implementations must be safe for concurrent use by several sessions.
type TripleStore interface {
	AddTriple(ctx context.Context, triple domain.Triple) error
	// Match returns the triples with the given subject and predicate.
	// An empty argument matches anything.
	Match(ctx context.Context, subject, predicate string) ([]domain.Triple, error)
}

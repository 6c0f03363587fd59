package memory

import (
	"context"
	"sync"

	"github.com/aretw0/colloquy/pkg/domain"
)

// TripleStore implements ports.TripleStore in memory.
// Triples are returned in insertion order. Safe for concurrent use.
type TripleStore struct {
	mu      sync.RWMutex
	seen    map[domain.Triple]struct{}
	triples []domain.Triple
}

// NewTripleStore creates an empty store.
func NewTripleStore() *TripleStore {
	return &TripleStore{seen: make(map[domain.Triple]struct{})}
}

// AddTriple stores t unless it is already present.
func (s *TripleStore) AddTriple(ctx context.Context, t domain.Triple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[t]; ok {
		return nil
	}
	s.seen[t] = struct{}{}
	s.triples = append(s.triples, t)
	return nil
}

// Match returns triples matching subject and predicate; empty means any.
func (s *TripleStore) Match(ctx context.Context, subject, predicate string) ([]domain.Triple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Triple
	for _, t := range s.triples {
		if subject != "" && t.Subject != subject {
			continue
		}
		if predicate != "" && t.Predicate != predicate {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Len returns the number of stored triples.
func (s *TripleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

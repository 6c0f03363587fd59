package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/colloquy/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTriplePrefix namespaces the triple sets.
const DefaultTriplePrefix = "colloquy:triples:"

// TripleStore implements ports.TripleStore on Redis sets.
// Every triple is a JSON member of an "all" set and of a per-subject set,
// so duplicates collapse and subject lookups avoid a full scan.
type TripleStore struct {
	client *backend.Client
	prefix string
}

// NewTripleStore creates a triple store. An empty prefix selects DefaultTriplePrefix.
func NewTripleStore(client *backend.Client, prefix string) *TripleStore {
	if prefix == "" {
		prefix = DefaultTriplePrefix
	}
	return &TripleStore{client: client, prefix: prefix}
}

func (s *TripleStore) allKey() string {
	return s.prefix + "all"
}

func (s *TripleStore) subjectKey(subject string) string {
	return s.prefix + "subject:" + subject
}

// AddTriple stores t. Re-adding an existing triple is a no-op.
func (s *TripleStore) AddTriple(ctx context.Context, t domain.Triple) error {
	member, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal triple: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.allKey(), member)
	pipe.SAdd(ctx, s.subjectKey(t.Subject), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add triple: %w", err)
	}
	return nil
}

// Match returns triples matching subject and predicate; empty means any.
func (s *TripleStore) Match(ctx context.Context, subject, predicate string) ([]domain.Triple, error) {
	key := s.allKey()
	if subject != "" {
		key = s.subjectKey(subject)
	}
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read triples: %w", err)
	}

	var out []domain.Triple
	for _, m := range members {
		var t domain.Triple
		if err := json.Unmarshal([]byte(m), &t); err != nil {
			return nil, fmt.Errorf("corrupt triple %q: %w", m, err)
		}
		if predicate != "" && t.Predicate != predicate {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

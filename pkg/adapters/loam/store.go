// Package loam keeps learned categories as documents in a loam repository,
// one Markdown file per category with the matching keys in its frontmatter.
package loam

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/google/uuid"
)

const docPrefix = "learned-"

// CategoryMetadata is the frontmatter of a learned category document.
type CategoryMetadata struct {
	Pattern   string `json:"pattern" mapstructure:"pattern"`
	That      string `json:"that" mapstructure:"that"`
	Topic     string `json:"topic" mapstructure:"topic"`
	SessionID string `json:"session_id" mapstructure:"session_id"`
	LearnedAt string `json:"learned_at" mapstructure:"learned_at"`
}

// Store reads and writes learned categories.
type Store struct {
	repo  core.Repository
	typed *loam.TypedRepository[CategoryMetadata]
}

// Open initializes (or reuses) a repository rooted at dir.
func Open(dir string) (*Store, error) {
	repo, err := loam.Init(dir, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to init learned repository at %s: %w", dir, err)
	}
	return New(repo), nil
}

// New wraps an existing repository.
func New(repo core.Repository) *Store {
	return &Store{
		repo:  repo,
		typed: loam.NewTypedRepository[CategoryMetadata](repo),
	}
}

// SaveCategories writes each category as a new document.
func (s *Store) SaveCategories(ctx context.Context, cats []domain.LearnedCategory) error {
	for _, c := range cats {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to allocate document id: %w", err)
		}
		learnedAt := c.LearnedAt
		if learnedAt.IsZero() {
			learnedAt = time.Now()
		}
		doc := core.Document{
			ID:      docPrefix + id.String() + ".md",
			Content: c.Template,
			Metadata: core.Metadata{
				"pattern":    c.Pattern,
				"that":       c.That,
				"topic":      c.Topic,
				"session_id": c.SessionID,
				"learned_at": learnedAt.UTC().Format(time.RFC3339),
			},
		}
		if err := s.repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to save learned category %q: %w", c.Pattern, err)
		}
	}
	return nil
}

// LoadCategories returns every stored category, oldest first.
func (s *Store) LoadCategories(ctx context.Context) ([]domain.LearnedCategory, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	cats := make([]domain.LearnedCategory, 0, len(docs))
	for _, listed := range docs {
		if !strings.HasPrefix(listed.ID, docPrefix) {
			continue
		}
		// List only carries metadata; the template is the document body.
		doc, err := s.typed.Get(ctx, listed.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}
		if doc.Data.Pattern == "" {
			continue
		}
		learnedAt, _ := time.Parse(time.RFC3339, doc.Data.LearnedAt)
		cats = append(cats, domain.LearnedCategory{
			Pattern:   doc.Data.Pattern,
			That:      doc.Data.That,
			Topic:     doc.Data.Topic,
			Template:  strings.TrimSpace(doc.Content),
			SessionID: doc.Data.SessionID,
			LearnedAt: learnedAt,
		})
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].LearnedAt.Before(cats[j].LearnedAt)
	})
	return cats, nil
}

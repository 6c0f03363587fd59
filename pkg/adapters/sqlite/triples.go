// Package sqlite provides a persistent triple store backed by SQLite
// (pure Go driver, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/colloquy/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS triples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(subject, predicate, object)
);
CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject);
CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);
`

// InMemory opens a private database that lives as long as the store.
const InMemory = ":memory:"

// TripleStore implements ports.TripleStore on a SQLite table.
type TripleStore struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path and migrates the schema.
func Open(path string) (*TripleStore, error) {
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == InMemory {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate triples schema: %w", err)
	}
	return &TripleStore{db: db}, nil
}

// AddTriple inserts t; the unique constraint turns duplicates into no-ops.
func (s *TripleStore) AddTriple(ctx context.Context, t domain.Triple) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO triples (subject, predicate, object) VALUES (?, ?, ?)`,
		t.Subject, t.Predicate, t.Object)
	if err != nil {
		return fmt.Errorf("failed to insert triple: %w", err)
	}
	return nil
}

// Match returns triples matching subject and predicate in insertion order.
// An empty argument matches anything.
func (s *TripleStore) Match(ctx context.Context, subject, predicate string) ([]domain.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, predicate, object FROM triples
		WHERE (?1 = '' OR subject = ?1) AND (?2 = '' OR predicate = ?2)
		ORDER BY id`, subject, predicate)
	if err != nil {
		return nil, fmt.Errorf("failed to query triples: %w", err)
	}
	defer rows.Close()

	var out []domain.Triple
	for rows.Next() {
		var t domain.Triple
		if err := rows.Scan(&t.Subject, &t.Predicate, &t.Object); err != nil {
			return nil, fmt.Errorf("failed to scan triple: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns the number of stored triples.
func (s *TripleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count triples: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *TripleStore) Close() error {
	return s.db.Close()
}

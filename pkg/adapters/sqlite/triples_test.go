package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/colloquy/pkg/adapters/sqlite"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.TripleStore = (*sqlite.TripleStore)(nil)

func TestSQLiteTripleStore_Contract(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	defer store.Close()

	ports.RunTripleStoreContract(t, store)
}

func TestSQLiteTripleStore_InMemory(t *testing.T) {
	store, err := sqlite.Open(sqlite.InMemory)
	require.NoError(t, err)
	defer store.Close()

	ports.RunTripleStoreContract(t, store)
}

func TestSQLiteTripleStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kb.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.AddTriple(ctx, domain.Triple{Subject: "earth", Predicate: "orbits", Object: "sun"}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := reopened.Match(ctx, "earth", "orbits")
	require.NoError(t, err)
	assert.Equal(t, []domain.Triple{{Subject: "earth", Predicate: "orbits", Object: "sun"}}, got)
}

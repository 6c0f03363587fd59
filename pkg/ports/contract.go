package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot(sessionID, 4)
		snap.CustomerID = "customer-1"
		snap.Inputs.Add("hello")
		snap.Inputs.Add("how are you")
		snap.Requests.Add("hello. how are you?")
		snap.Responses.Add("Hi! Fine, thanks.")
		turn := domain.NewHistory[string](4, "contextThat")
		turn.Add("Hi")
		turn.Add("Fine, thanks")
		snap.Thats.Add(turn)
		snap.Predicates["topic"] = "greetings"

		require.NoError(t, store.Save(ctx, sessionID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "customer-1", loaded.CustomerID)
		assert.Equal(t, []string{"how are you", "hello"}, loaded.Inputs.Items())
		assert.Equal(t, 4, loaded.Inputs.Capacity())
		assert.Equal(t, 1, loaded.Thats.Len())
		assert.Equal(t, "Fine, thanks", domain.LastThat(loaded.Thats, "unknown"))
		assert.Equal(t, "greetings", loaded.Predicates["topic"])
	})

	t.Run("Load Isolation", func(t *testing.T) {
		snap := domain.NewSnapshot(sessionID, 4)
		snap.Inputs.Add("first")
		require.NoError(t, store.Save(ctx, sessionID, snap))

		snap.Inputs.Add("mutated after save")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Inputs.Len(), "store must not alias the caller's snapshot")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSnapshot(sessionID, 4)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot(id1, 4))
		_ = store.Save(ctx, id2, domain.NewSnapshot(id2, 4))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunTripleStoreContract verifies that a TripleStore implementation adheres to
// the interface contract. The store must start empty.
func RunTripleStoreContract(t *testing.T, store TripleStore) {
	ctx := context.Background()

	facts := []domain.Triple{
		{Subject: "cat", Predicate: "isa", Object: "animal"},
		{Subject: "cat", Predicate: "says", Object: "meow"},
		{Subject: "dog", Predicate: "isa", Object: "animal"},
	}

	t.Run("Add and Match", func(t *testing.T) {
		for _, f := range facts {
			require.NoError(t, store.AddTriple(ctx, f))
		}

		got, err := store.Match(ctx, "cat", "isa")
		require.NoError(t, err)
		assert.Equal(t, []domain.Triple{facts[0]}, got)

		got, err = store.Match(ctx, "cat", "")
		require.NoError(t, err)
		assert.ElementsMatch(t, facts[:2], got)

		got, err = store.Match(ctx, "", "isa")
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.Triple{facts[0], facts[2]}, got)
	})

	t.Run("Duplicates Are Ignored", func(t *testing.T) {
		require.NoError(t, store.AddTriple(ctx, facts[0]))

		got, err := store.Match(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, got, len(facts))
	})

	t.Run("No Match", func(t *testing.T) {
		got, err := store.Match(ctx, "unicorn", "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

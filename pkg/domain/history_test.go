package domain_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_BoundedLength(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7} {
		for n := 0; n <= 10; n++ {
			t.Run(fmt.Sprintf("cap=%d/n=%d", capacity, n), func(t *testing.T) {
				h := domain.NewHistory[int](capacity, "test")
				for i := 1; i <= n; i++ {
					h.Add(i)
					latest, ok := h.Get(0)
					require.True(t, ok)
					assert.Equal(t, i, latest, "Get(0) must be the last inserted element")
				}
				assert.Equal(t, min(n, capacity), h.Len())
			})
		}
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := domain.NewHistory[string](3, "input")
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		h.Add(s)
	}

	assert.Equal(t, []string{"e", "d", "c"}, h.Items())
	_, ok := h.Get(3)
	assert.False(t, ok, "evicted element must not be reachable")
}

func TestHistory_OutOfRange(t *testing.T) {
	h := domain.NewHistory[string](4, "input")

	_, ok := h.Get(0)
	assert.False(t, ok)

	h.Add("only")
	_, ok = h.Get(1)
	assert.False(t, ok)
	_, ok = h.Get(-1)
	assert.False(t, ok)
	_, ok = h.Get(100)
	assert.False(t, ok)

	var nilHistory *domain.History[string]
	_, ok = nilHistory.Get(0)
	assert.False(t, ok)
	assert.Equal(t, 0, nilHistory.Len())
}

func TestHistory_Unbounded(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		h := domain.NewHistory[int](capacity, "free")
		for i := 0; i < 100; i++ {
			h.Add(i)
		}
		assert.Equal(t, 100, h.Len())
		assert.Equal(t, 0, h.Capacity())
		oldest, ok := h.Get(99)
		require.True(t, ok)
		assert.Equal(t, 0, oldest)
	}
}

func TestHistory_Nested(t *testing.T) {
	thats := domain.NewHistory[*domain.History[string]](2, "that")

	for turn := 1; turn <= 3; turn++ {
		sub := domain.NewHistory[string](2, "contextThat")
		sub.Add(fmt.Sprintf("turn %d first", turn))
		sub.Add(fmt.Sprintf("turn %d second", turn))
		thats.Add(sub)
	}

	assert.Equal(t, 2, thats.Len(), "outer level applies its own bound")
	assert.Equal(t, "turn 3 second", domain.LastThat(thats, "unknown"))

	older, ok := thats.Get(1)
	require.True(t, ok)
	first, _ := older.Get(1)
	assert.Equal(t, "turn 2 first", first)
}

func TestLastThat_Defaults(t *testing.T) {
	thats := domain.NewHistory[*domain.History[string]](4, "that")
	assert.Equal(t, "unknown", domain.LastThat(thats, "unknown"))

	thats.Add(domain.NewHistory[string](4, "contextThat"))
	assert.Equal(t, "unknown", domain.LastThat(thats, "unknown"), "empty slot falls back too")
}

func TestHistory_Clear(t *testing.T) {
	h := domain.NewHistory[string](2, "x")
	h.Add("a")
	h.Clear()
	assert.Equal(t, 0, h.Len())
	h.Add("b")
	got, _ := h.Get(0)
	assert.Equal(t, "b", got)
}

func TestHistory_JSON(t *testing.T) {
	thats := domain.NewHistory[*domain.History[string]](3, "that")
	sub := domain.NewHistory[string](3, "contextThat")
	sub.Add("Hello there")
	sub.Add("How can I help")
	thats.Add(sub)

	data, err := json.Marshal(thats)
	require.NoError(t, err)

	var decoded domain.NestedHistory
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 3, decoded.Capacity())
	assert.Equal(t, "that", decoded.Label())
	assert.Equal(t, "How can I help", domain.LastThat(&decoded, "unknown"))

	inner, ok := decoded.Get(0)
	require.True(t, ok)
	assert.Equal(t, []string{"How can I help", "Hello there"}, inner.Items())
}

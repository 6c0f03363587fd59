package domain

import "encoding/json"

// History is a bounded log ordered most-recent-first.
// Index 0 is always the latest item. When the capacity is positive, adding an
// item beyond it evicts the oldest one. A capacity of zero (or less) disables
// eviction.
//
// History is not safe for concurrent use; it is owned by a single session.
type History[T any] struct {
	label    string
	capacity int
	items    []T // oldest-first
}

// NestedHistory holds one history of "that" sentences per completed turn.
type NestedHistory = History[*History[string]]

// NewHistory creates an empty history.
func NewHistory[T any](capacity int, label string) *History[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &History[T]{
		label:    label,
		capacity: capacity,
	}
}

// Add inserts item as the most recent element, dropping the oldest one on overflow.
func (h *History[T]) Add(item T) {
	h.items = append(h.items, item)
	if h.capacity > 0 && len(h.items) > h.capacity {
		n := copy(h.items, h.items[len(h.items)-h.capacity:])
		clear(h.items[n:])
		h.items = h.items[:n]
	}
}

// Get returns the element at index, counting back from the most recent one.
// The boolean is false when index is out of range.
func (h *History[T]) Get(index int) (T, bool) {
	var zero T
	if h == nil || index < 0 || index >= len(h.items) {
		return zero, false
	}
	return h.items[len(h.items)-1-index], true
}

// Len returns the number of stored elements.
func (h *History[T]) Len() int {
	if h == nil {
		return 0
	}
	return len(h.items)
}

// Capacity returns the configured bound (0 means unbounded).
func (h *History[T]) Capacity() int {
	return h.capacity
}

// Label returns the descriptive name given at construction.
func (h *History[T]) Label() string {
	return h.label
}

// Items returns a copy of the elements, most recent first.
func (h *History[T]) Items() []T {
	if h == nil {
		return nil
	}
	out := make([]T, len(h.items))
	for i := range h.items {
		out[i] = h.items[len(h.items)-1-i]
	}
	return out
}

// Clear drops every element.
func (h *History[T]) Clear() {
	clear(h.items)
	h.items = h.items[:0]
}

type historyJSON[T any] struct {
	Label    string `json:"label,omitempty"`
	Capacity int    `json:"capacity"`
	Items    []T    `json:"items"`
}

// MarshalJSON encodes the history with its items most recent first.
func (h *History[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyJSON[T]{
		Label:    h.label,
		Capacity: h.capacity,
		Items:    h.Items(),
	})
}

// UnmarshalJSON rebuilds the history, re-applying the capacity bound.
func (h *History[T]) UnmarshalJSON(data []byte) error {
	var raw historyJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*h = *NewHistory[T](raw.Capacity, raw.Label)
	for i := len(raw.Items) - 1; i >= 0; i-- {
		h.Add(raw.Items[i])
	}
	return nil
}

// LastThat returns the first sentence of the most recent turn in thats,
// or def when there is none.
func LastThat(thats *NestedHistory, def string) string {
	turn, ok := thats.Get(0)
	if !ok || turn == nil {
		return def
	}
	that, ok := turn.Get(0)
	if !ok {
		return def
	}
	return that
}

package domain

import "time"

// LearnedCategory is a rule acquired during a conversation that should
// outlive it once flushed.
type LearnedCategory struct {
	Pattern   string    `json:"pattern" yaml:"pattern"`
	That      string    `json:"that,omitempty" yaml:"that,omitempty"`
	Topic     string    `json:"topic,omitempty" yaml:"topic,omitempty"`
	Template  string    `json:"template" yaml:"template"`
	SessionID string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	LearnedAt time.Time `json:"learned_at" yaml:"learned_at"`
}

package domain

import (
	"context"
	"time"
)

// TurnEvent describes a whole turn.
type TurnEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Phase     TurnPhase     `json:"phase"`
	Request   string        `json:"request"`
	Reply     string        `json:"reply,omitempty"`
	Sentences int           `json:"sentences"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// SentenceEvent describes the hand-off of one sentence to the responder.
type SentenceEvent struct {
	Timestamp  time.Time     `json:"timestamp"`
	SessionID  string        `json:"session_id"`
	Index      int           `json:"index"`
	Sentence   string        `json:"sentence"`
	Repetition bool          `json:"repetition,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for conversation observability.
// Any of them may be nil.
type LifecycleHooks struct {
	OnTurnStart  func(context.Context, *TurnEvent)
	OnSentence   func(context.Context, *SentenceEvent)
	OnTurnCommit func(context.Context, *TurnEvent)
	OnTurnError  func(context.Context, *TurnEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurnStart:  chain(h.OnTurnStart, other.OnTurnStart),
		OnSentence:   chain(h.OnSentence, other.OnSentence),
		OnTurnCommit: chain(h.OnTurnCommit, other.OnTurnCommit),
		OnTurnError:  chain(h.OnTurnError, other.OnTurnError),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

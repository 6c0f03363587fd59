package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/colloquy/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failed turns
// at warn level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start", "session_id", e.SessionID)
		},
		OnSentence: func(ctx context.Context, e *domain.SentenceEvent) {
			logger.DebugContext(ctx, "sentence",
				"session_id", e.SessionID,
				"index", e.Index,
				"repetition", e.Repetition,
				"duration", e.Duration,
			)
		},
		OnTurnCommit: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_commit",
				"session_id", e.SessionID,
				"sentences", e.Sentences,
				"duration", e.Duration,
			)
		},
		OnTurnError: func(ctx context.Context, e *domain.TurnEvent) {
			logger.WarnContext(ctx, "turn_recovered",
				"session_id", e.SessionID,
				"sentences", e.Sentences,
				"error", e.Err,
			)
		},
	}
}

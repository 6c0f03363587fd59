package runtime

import (
	"fmt"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Settings are the per-conversation tunables.
type Settings struct {
	MaxHistory         int
	RepetitionCount    int
	JPTokenize         bool
	DefaultThat        string
	DefaultTopic       string
	NullInput          string
	RepetitionSentinel string
	ErrorResponse      string
	// WriteLearned enables the learned-category flush after each successful turn.
	WriteLearned bool
	// ResponderTimeout bounds each responder call; zero means no timeout.
	ResponderTimeout time.Duration
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxHistory:         domain.DefaultMaxHistory,
		RepetitionCount:    domain.DefaultRepetitionCount,
		DefaultThat:        domain.DefaultThat,
		DefaultTopic:       domain.DefaultTopic,
		NullInput:          domain.DefaultNullInput,
		RepetitionSentinel: domain.DefaultRepetitionSentinel,
		ErrorResponse:      domain.DefaultErrorResponse,
	}
}

// Validate rejects settings a conversation cannot run with.
func (s Settings) Validate() error {
	if s.MaxHistory < 0 {
		return fmt.Errorf("%w: max_history must not be negative, got %d", domain.ErrInvalidConfig, s.MaxHistory)
	}
	if s.RepetitionCount < 0 {
		return fmt.Errorf("%w: repetition_count must not be negative, got %d", domain.ErrInvalidConfig, s.RepetitionCount)
	}
	if s.ErrorResponse == "" {
		return fmt.Errorf("%w: error_response must not be empty", domain.ErrInvalidConfig)
	}
	if s.ResponderTimeout < 0 {
		return fmt.Errorf("%w: responder_timeout must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

package colloquy

import (
	"context"
	"fmt"

	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/aretw0/colloquy/pkg/session"
	"github.com/google/uuid"
)

// Session is an in-process conversation. Every completed turn is also saved
// to the bot's snapshot store so other surfaces can inspect it.
//
// A Session must not be used by two goroutines at once.
type Session struct {
	bot  *Bot
	conv *runtime.Conversation
}

// SessionOption configures NewSession.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	customerID string
	write      *bool
}

// WithCustomerID tags the session with the customer it belongs to.
func WithCustomerID(id string) SessionOption {
	return func(o *sessionOptions) {
		o.customerID = id
	}
}

// WithWriteMode overrides write_learned for this session.
func WithWriteMode(on bool) SessionOption {
	return func(o *sessionOptions) {
		o.write = &on
	}
}

// NewSession starts a conversation. An empty id allocates a fresh one.
// The knowledge files of the config directory are ingested first.
func (b *Bot) NewSession(ctx context.Context, id string, opts ...SessionOption) (*Session, error) {
	if id == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate session id: %w", err)
		}
		id = u.String()
	}

	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}

	conv, err := b.open(ctx, id, nil, o)
	if err != nil {
		return nil, err
	}
	return &Session{bot: b, conv: conv}, nil
}

// Restore resumes a stored session in process.
func (b *Bot) Restore(ctx context.Context, id string, opts ...SessionOption) (*Session, error) {
	snap, err := b.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	conv, err := b.open(ctx, id, snap, o)
	if err != nil {
		return nil, err
	}
	return &Session{bot: b, conv: conv}, nil
}

// Open implements session.Opener for the stateless Respond path.
func (b *Bot) Open(ctx context.Context, id string, snap *domain.Snapshot) (session.Conversation, error) {
	return b.open(ctx, id, snap, sessionOptions{})
}

func (b *Bot) open(ctx context.Context, id string, snap *domain.Snapshot, o sessionOptions) (*runtime.Conversation, error) {
	settings := b.settings
	if o.write != nil {
		settings.WriteLearned = *o.write
	}

	// Facts only need to be ingested once per session; the stores ignore
	// duplicates either way.
	if snap == nil {
		n := b.IngestTriples(ctx, b.configPath(TriplesFile))
		b.logger.Debug("ingested triples", "session_id", id, "count", n)
	}
	predicates := memory.NewPredicates(nil)
	runtime.LoadPredicateDefaults(b.configPath(PredicatesFile), predicates, b.logger)

	opts := []runtime.Option{
		runtime.WithSettings(settings),
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithNormalizer(b.normalizer),
		runtime.WithPredicates(predicates),
		runtime.WithTriples(b.triples),
		runtime.WithSnapshot(snap),
	}
	if o.customerID != "" {
		opts = append(opts, runtime.WithCustomerID(o.customerID))
	}
	if b.rules != nil {
		opts = append(opts, runtime.WithFlusher(b.rules.Flusher(id)))
	}
	return runtime.NewConversation(id, b.responder, opts...)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.conv.ID() }

// CustomerID returns the customer the session belongs to.
func (s *Session) CustomerID() string { return s.conv.CustomerID() }

// Predicates exposes the session predicates.
func (s *Session) Predicates() ports.PredicateStore { return s.conv.Predicates() }

// Snapshot returns a detached copy of the session state.
func (s *Session) Snapshot() *domain.Snapshot { return s.conv.Snapshot() }

// ProcessTurn answers input. A failed turn yields the configured error
// response; use Respond to tell it apart from a real reply.
func (s *Session) ProcessTurn(ctx context.Context, input string) string {
	return s.Respond(ctx, input).Reply
}

// Respond answers input and saves the session snapshot under the session
// lock. A storage failure is logged and does not affect the reply.
func (s *Session) Respond(ctx context.Context, input string) domain.TurnResult {
	var (
		res domain.TurnResult
		ran bool
	)
	id := s.conv.ID()
	err := s.bot.manager.WithLock(ctx, id, func(ctx context.Context) error {
		res, ran = s.conv.Respond(ctx, input), true
		return s.bot.store.Save(ctx, id, s.conv.Snapshot())
	})
	if !ran {
		s.bot.logger.Error("turn not run", "session_id", id, "error", err)
		return domain.TurnResult{Reply: s.bot.settings.ErrorResponse, Recovered: true, Err: err}
	}
	if err != nil {
		s.bot.logger.Warn("failed to save session", "session_id", id, "error", err)
	}
	return res
}

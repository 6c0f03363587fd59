package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// Option configures a Conversation.
type Option func(*Conversation)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(c *Conversation) {
		c.settings = s
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Conversation) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithCustomerID tags the conversation with the customer it belongs to.
func WithCustomerID(id string) Option {
	return func(c *Conversation) {
		c.customerID = id
	}
}

// WithNormalizer overrides the input normalizer.
func WithNormalizer(n ports.Normalizer) Option {
	return func(c *Conversation) {
		c.normalizer = n
	}
}

// WithTokenizer overrides the tokenizer used when JPTokenize is on.
func WithTokenizer(t ports.Tokenizer) Option {
	return func(c *Conversation) {
		c.tokenizer = t
	}
}

// WithSplitter overrides the sentence splitter.
func WithSplitter(s ports.SentenceSplitter) Option {
	return func(c *Conversation) {
		c.splitter = s
	}
}

// WithPredicates sets the session predicate store.
func WithPredicates(p ports.PredicateStore) Option {
	return func(c *Conversation) {
		c.predicates = p
	}
}

// WithTriples sets the knowledge store handed to the responder.
func WithTriples(t ports.TripleStore) Option {
	return func(c *Conversation) {
		c.triples = t
	}
}

// WithFlusher sets the learned-category persistence hook.
func WithFlusher(f ports.LearnedFlusher) Option {
	return func(c *Conversation) {
		c.flusher = f
	}
}

// WithSnapshot resumes a conversation from a stored snapshot.
func WithSnapshot(snap *domain.Snapshot) Option {
	return func(c *Conversation) {
		c.restore = snap
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

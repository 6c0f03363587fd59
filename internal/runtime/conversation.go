package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/adapters/text"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

var newlineRuns = regexp.MustCompile(`\n{2,}`)

// Conversation owns the state of one conversational session: the rolling
// histories, the predicate store and the collaborators used to answer a turn.
//
// A Conversation is single-writer. Callers must not run two turns on the same
// Conversation concurrently; pkg/session serializes them.
type Conversation struct {
	id         string
	customerID string
	settings   Settings

	inputs    *domain.History[string]
	requests  *domain.History[string]
	responses *domain.History[string]
	thats     *domain.NestedHistory

	predicates ports.PredicateStore
	triples    ports.TripleStore
	normalizer ports.Normalizer
	tokenizer  ports.Tokenizer
	splitter   ports.SentenceSplitter
	responder  ports.Responder
	flusher    ports.LearnedFlusher

	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
	restore *domain.Snapshot
}

// NewConversation creates a conversation answered by responder.
func NewConversation(id string, responder ports.Responder, opts ...Option) (*Conversation, error) {
	if responder == nil {
		return nil, fmt.Errorf("%w: responder is required", domain.ErrInvalidConfig)
	}

	c := &Conversation{
		id:        id,
		settings:  DefaultSettings(),
		responder: responder,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.settings.Validate(); err != nil {
		return nil, err
	}

	if c.normalizer == nil {
		c.normalizer = text.NewNormalizer()
	}
	if c.splitter == nil {
		c.splitter = text.NewSplitter(text.DefaultTerminators)
	}
	if c.tokenizer == nil {
		c.tokenizer = text.CJKTokenizer{}
	}
	if c.predicates == nil {
		c.predicates = memory.NewPredicates(nil)
	}
	if c.triples == nil {
		c.triples = memory.NewTripleStore()
	}

	snap := domain.NewSnapshot(id, c.settings.MaxHistory)
	if c.restore != nil {
		snap = c.restore
		c.restore = nil
		if c.customerID == "" {
			c.customerID = snap.CustomerID
		}
	}
	// Restored histories take the configured bound, not the stored one.
	capacity := c.settings.MaxHistory
	c.inputs = rebound(snap.Inputs, capacity, "input")
	c.requests = rebound(snap.Requests, capacity, "request")
	c.responses = rebound(snap.Responses, capacity, "response")
	c.thats = domain.NewHistory[*domain.History[string]](capacity, "that")
	turns := snap.Thats.Items()
	for i := len(turns) - 1; i >= 0; i-- {
		c.thats.Add(rebound(turns[i], capacity, "that"))
	}
	for k, v := range snap.Predicates {
		c.predicates.Put(k, v)
	}
	if _, ok := c.predicates.Get(domain.TopicPredicate); !ok {
		c.predicates.Put(domain.TopicPredicate, c.settings.DefaultTopic)
	}

	return c, nil
}

// rebound copies h into a history of the given capacity, keeping the most
// recent items. A nil h yields an empty history.
func rebound(h *domain.History[string], capacity int, label string) *domain.History[string] {
	out := domain.NewHistory[string](capacity, label)
	items := h.Items()
	for i := len(items) - 1; i >= 0; i-- {
		out.Add(items[i])
	}
	return out
}

// ID returns the session identifier.
func (c *Conversation) ID() string { return c.id }

// CustomerID returns the customer the session belongs to, if any.
func (c *Conversation) CustomerID() string { return c.customerID }

// Settings returns the active settings.
func (c *Conversation) Settings() Settings { return c.settings }

// Predicates returns the session predicate store.
func (c *Conversation) Predicates() ports.PredicateStore { return c.predicates }

// Triples returns the knowledge store the responder sees.
func (c *Conversation) Triples() ports.TripleStore { return c.triples }

// Inputs returns the raw input history (one entry per sentence).
func (c *Conversation) Inputs() *domain.History[string] { return c.inputs }

// Requests returns the history of completed turn requests.
func (c *Conversation) Requests() *domain.History[string] { return c.requests }

// Responses returns the history of completed turn responses.
func (c *Conversation) Responses() *domain.History[string] { return c.responses }

// Thats returns the nested history of reply sentences, one slot per turn.
func (c *Conversation) Thats() *domain.NestedHistory { return c.thats }

// ProcessTurn answers input and returns only the reply text. A failed turn
// yields the configured error response, indistinguishable from a real reply
// except by comparing against it. Use Respond to tell them apart.
func (c *Conversation) ProcessTurn(ctx context.Context, input string) string {
	return c.Respond(ctx, input).Reply
}

// Respond runs one turn: the input is normalized, split into sentences and
// each sentence is handed to the responder. The turn-level histories are
// committed only if every sentence succeeds. Failures are never returned as
// errors; they show up as a recovered result carrying the cause.
func (c *Conversation) Respond(ctx context.Context, request string) domain.TurnResult {
	start := c.now()
	event := &domain.TurnEvent{
		Timestamp: start,
		SessionID: c.id,
		Phase:     domain.PhaseNormalizing,
		Request:   request,
	}
	if c.hooks.OnTurnStart != nil {
		c.hooks.OnTurnStart(ctx, event)
	}

	sentences := c.splitter.Split(c.prepare(request))
	event.Phase = domain.PhaseSplitting
	event.Sentences = len(sentences)

	turn := domain.NewTurnContext(c.settings.MaxHistory)
	var buf strings.Builder

	for i, sentence := range sentences {
		event.Phase = domain.PhaseSentence
		reply, err := c.answer(ctx, request, i, sentence, turn)
		if err != nil {
			// Sentences never handed to the responder still count as input.
			for _, rest := range sentences[i+1:] {
				c.inputs.Add(rest)
			}
			return c.fail(ctx, event, start, err)
		}
		c.absorb(turn, reply)
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(strings.TrimSpace(reply))
	}

	event.Phase = domain.PhaseCommitting
	response := buf.String()
	c.requests.Add(request)
	c.responses.Add(response)
	c.thats.Add(turn.History())

	reply := strings.TrimSpace(newlineRuns.ReplaceAllString(response, "\n"))

	if c.settings.WriteLearned && c.flusher != nil {
		if err := c.flusher.Flush(ctx); err != nil {
			c.logger.Warn("failed to persist learned categories", "session_id", c.id, "error", err)
		}
	}

	event.Phase = domain.PhaseIdle
	event.Reply = reply
	event.Duration = c.now().Sub(start)
	if c.hooks.OnTurnCommit != nil {
		c.hooks.OnTurnCommit(ctx, event)
	}
	c.logger.Debug("turn committed", "session_id", c.id, "count", len(sentences))

	return domain.TurnResult{Reply: reply, Sentences: len(sentences)}
}

// prepare normalizes text and, when enabled, re-tokenizes it.
func (c *Conversation) prepare(s string) string {
	s = c.normalizer.Normalize(s)
	if c.settings.JPTokenize {
		s = c.tokenizer.Tokenize(s)
	}
	return s
}

// answer handles sentence i of the turn and returns the raw responder output.
func (c *Conversation) answer(ctx context.Context, request string, i int, sentence string, turn *domain.TurnContext) (string, error) {
	repeated := domain.IsRepetition(c.inputs, domain.Upper(sentence), c.settings.RepetitionCount, c.settings.NullInput, sentence)
	c.inputs.Add(sentence)

	asked := sentence
	if repeated {
		asked = c.settings.RepetitionSentinel
	}

	topic, ok := c.predicates.Get(domain.TopicPredicate)
	if !ok {
		topic = c.settings.DefaultTopic
	}

	req := ports.ResponseRequest{
		SessionID:  c.id,
		Request:    request,
		Sentence:   asked,
		That:       domain.LastThat(c.thats, c.settings.DefaultThat),
		Topic:      topic,
		Turn:       turn,
		Predicates: c.predicates,
		Triples:    c.triples,
	}

	started := c.now()
	reply, err := c.call(ctx, req)
	if err != nil {
		err = &domain.ResponderError{Sentence: asked, Err: err}
	}

	if c.hooks.OnSentence != nil {
		c.hooks.OnSentence(ctx, &domain.SentenceEvent{
			Timestamp:  started,
			SessionID:  c.id,
			Index:      i,
			Sentence:   asked,
			Repetition: repeated,
			Duration:   c.now().Sub(started),
			Err:        err,
		})
	}
	return reply, err
}

// call invokes the responder, bounding it by the configured timeout and
// turning panics into errors.
func (c *Conversation) call(ctx context.Context, req ports.ResponseRequest) (reply string, err error) {
	if c.settings.ResponderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.ResponderTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panic: %v", r)
		}
	}()
	return c.responder.Respond(ctx, req)
}

// absorb records the reply sentences in the turn context.
func (c *Conversation) absorb(turn *domain.TurnContext, reply string) {
	parts := c.splitter.Split(c.prepare(reply))
	if len(parts) == 0 {
		turn.Add(c.settings.DefaultThat)
		return
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			p = c.settings.DefaultThat
		}
		turn.Add(p)
	}
}

func (c *Conversation) fail(ctx context.Context, event *domain.TurnEvent, start time.Time, err error) domain.TurnResult {
	c.logger.Error("turn failed", "session_id", c.id, "error", err)

	event.Reply = c.settings.ErrorResponse
	event.Duration = c.now().Sub(start)
	event.Err = err
	if c.hooks.OnTurnError != nil {
		c.hooks.OnTurnError(ctx, event)
	}
	return domain.TurnResult{
		Reply:     c.settings.ErrorResponse,
		Recovered: true,
		Sentences: event.Sentences,
		Err:       err,
	}
}

// Snapshot returns a detached copy of the session state.
func (c *Conversation) Snapshot() *domain.Snapshot {
	thats := domain.NewHistory[*domain.History[string]](c.thats.Capacity(), c.thats.Label())
	items := c.thats.Items()
	for i := len(items) - 1; i >= 0; i-- {
		thats.Add(cloneHistory(items[i]))
	}
	return &domain.Snapshot{
		SessionID:  c.id,
		CustomerID: c.customerID,
		Inputs:     cloneHistory(c.inputs),
		Requests:   cloneHistory(c.requests),
		Responses:  cloneHistory(c.responses),
		Thats:      thats,
		Predicates: c.predicates.Values(),
		UpdatedAt:  c.now(),
	}
}

func cloneHistory(h *domain.History[string]) *domain.History[string] {
	if h == nil {
		return nil
	}
	out := domain.NewHistory[string](h.Capacity(), h.Label())
	items := h.Items()
	for i := len(items) - 1; i >= 0; i-- {
		out.Add(items[i])
	}
	return out
}

package runtime_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a scripted responder that remembers every request it saw.
type recorder struct {
	mu    sync.Mutex
	calls []ports.ResponseRequest
	reply func(req ports.ResponseRequest) (string, error)
}

func (r *recorder) Respond(ctx context.Context, req ports.ResponseRequest) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	if r.reply == nil {
		return "ok", nil
	}
	return r.reply(req)
}

func echo() *recorder {
	return &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		return "You said " + req.Sentence + ".", nil
	}}
}

func newConversation(t *testing.T, r ports.Responder, opts ...runtime.Option) *runtime.Conversation {
	t.Helper()
	c, err := runtime.NewConversation("s1", r, opts...)
	require.NoError(t, err)
	return c
}

func settings(mut func(*runtime.Settings)) runtime.Option {
	s := runtime.DefaultSettings()
	mut(&s)
	return runtime.WithSettings(s)
}

func TestConversation_SuccessfulTurnCommitsOnce(t *testing.T) {
	c := newConversation(t, echo())
	ctx := context.Background()

	inputs := []string{"Hello there", "How are you", "Goodbye now"}
	for i, input := range inputs {
		res := c.Respond(ctx, input)
		require.True(t, res.OK())
		assert.Equal(t, i+1, c.Requests().Len())
		assert.Equal(t, i+1, c.Responses().Len())
		assert.Equal(t, i+1, c.Thats().Len())
	}

	last, _ := c.Requests().Get(0)
	assert.Equal(t, "Goodbye now", last)
	resp, _ := c.Responses().Get(0)
	assert.Equal(t, "You said Goodbye now.", resp)
}

func TestConversation_MultiSentenceTurn(t *testing.T) {
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		if strings.HasPrefix(req.Sentence, "Hello") {
			return "Hi!", nil
		}
		return "Fine. And you?", nil
	}}
	c := newConversation(t, r)
	ctx := context.Background()

	res := c.Respond(ctx, "Hello. How are you?")
	require.True(t, res.OK())
	assert.Equal(t, "Hi! Fine. And you?", res.Reply)
	assert.Equal(t, 2, res.Sentences)

	require.Len(t, r.calls, 2)
	assert.Equal(t, "Hello", r.calls[0].Sentence)
	assert.Equal(t, "How are you", r.calls[1].Sentence)
	assert.Equal(t, "Hello. How are you?", r.calls[1].Request)

	// Both sentences see the that of the previous turn, not their sibling's.
	assert.Equal(t, domain.DefaultThat, r.calls[0].That)
	assert.Equal(t, domain.DefaultThat, r.calls[1].That)

	turn, ok := c.Thats().Get(0)
	require.True(t, ok)
	assert.Equal(t, []string{"And you", "Fine", "Hi"}, turn.Items())

	r.calls = nil
	c.Respond(ctx, "Good. Thanks.")
	require.Len(t, r.calls, 2)
	assert.Equal(t, "And you", r.calls[0].That)
	assert.Equal(t, "And you", r.calls[1].That)
}

func TestConversation_TurnContextVisibleToResponder(t *testing.T) {
	var seen []int
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		seen = append(seen, req.Turn.Len())
		return "Reply " + req.Sentence, nil
	}}
	c := newConversation(t, r)

	c.Respond(context.Background(), "one. two. three")
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestConversation_InputHistoryGrowsPerSentence(t *testing.T) {
	fail := false
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	}}
	c := newConversation(t, r)
	ctx := context.Background()

	c.Respond(ctx, "a. b. c")
	assert.Equal(t, 3, c.Inputs().Len())

	fail = true
	res := c.Respond(ctx, "d. e")
	assert.True(t, res.Recovered)
	assert.Equal(t, 5, c.Inputs().Len(), "unprocessed sentences are still recorded")
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, c.Inputs().Items())
}

func TestConversation_FailedTurnCommitsNothing(t *testing.T) {
	cause := errors.New("engine down")
	calls := 0
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		calls++
		if calls == 3 {
			return "", cause
		}
		return "fine", nil
	}}
	c := newConversation(t, r)
	ctx := context.Background()

	require.True(t, c.Respond(ctx, "first").OK())

	res := c.Respond(ctx, "second. third")
	assert.True(t, res.Recovered)
	assert.False(t, res.OK())
	assert.Equal(t, domain.DefaultErrorResponse, res.Reply)
	assert.ErrorIs(t, res.Err, cause)

	var rerr *domain.ResponderError
	require.ErrorAs(t, res.Err, &rerr)
	assert.Equal(t, "third", rerr.Sentence)

	assert.Equal(t, 1, c.Requests().Len())
	assert.Equal(t, 1, c.Responses().Len())
	assert.Equal(t, 1, c.Thats().Len())
}

func TestConversation_ProcessTurnReturnsErrorResponse(t *testing.T) {
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		return "", errors.New("nope")
	}}
	c := newConversation(t, r, settings(func(s *runtime.Settings) {
		s.ErrorResponse = "I am confused."
	}))

	assert.Equal(t, "I am confused.", c.ProcessTurn(context.Background(), "hi"))
	assert.Equal(t, 0, c.Requests().Len())
}

func TestConversation_ResponderPanicIsRecovered(t *testing.T) {
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		panic("bad rule")
	}}
	c := newConversation(t, r)

	var res domain.TurnResult
	assert.NotPanics(t, func() {
		res = c.Respond(context.Background(), "hi")
	})
	assert.True(t, res.Recovered)
	assert.ErrorContains(t, res.Err, "bad rule")
}

func TestConversation_ResponderTimeout(t *testing.T) {
	slow := ports.ResponderFunc(func(ctx context.Context, req ports.ResponseRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := newConversation(t, slow, settings(func(s *runtime.Settings) {
		s.ResponderTimeout = 20 * time.Millisecond
	}))

	res := c.Respond(context.Background(), "hi")
	assert.True(t, res.Recovered)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestConversation_Repetition(t *testing.T) {
	r := echo()
	c := newConversation(t, r, settings(func(s *runtime.Settings) {
		s.RepetitionCount = 3
	}))
	ctx := context.Background()

	for range 3 {
		c.Respond(ctx, "hi")
	}
	for _, call := range r.calls {
		assert.Equal(t, "hi", call.Sentence)
	}

	c.Respond(ctx, "HI")
	last := r.calls[len(r.calls)-1]
	assert.Equal(t, domain.DefaultRepetitionSentinel, last.Sentence)

	latest, _ := c.Inputs().Get(0)
	assert.Equal(t, "HI", latest, "the literal input is recorded, not the sentinel")
}

func TestConversation_NullInputNeverRepeats(t *testing.T) {
	r := echo()
	c := newConversation(t, r, settings(func(s *runtime.Settings) {
		s.RepetitionCount = 1
		s.NullInput = "NULL_INPUT"
	}))
	ctx := context.Background()

	c.Respond(ctx, "NULL_INPUT")
	c.Respond(ctx, "NULL_INPUT")

	for _, call := range r.calls {
		assert.Equal(t, "NULL_INPUT", call.Sentence)
	}
}

func TestConversation_ZeroLookbackDisablesRepetition(t *testing.T) {
	r := echo()
	c := newConversation(t, r, settings(func(s *runtime.Settings) {
		s.RepetitionCount = 0
	}))

	c.Respond(context.Background(), "hello")
	assert.Equal(t, "hello", r.calls[0].Sentence)
}

func TestConversation_TopicFromPredicates(t *testing.T) {
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		if req.Sentence == "lets talk about cats" {
			req.Predicates.Put(domain.TopicPredicate, "cats")
		}
		return "sure", nil
	}}
	c := newConversation(t, r)

	c.Respond(context.Background(), "lets talk about cats. what do they eat")
	require.Len(t, r.calls, 2)
	assert.Equal(t, domain.DefaultTopic, r.calls[0].Topic)
	assert.Equal(t, "cats", r.calls[1].Topic, "topic is read before every sentence")
}

func TestConversation_BlankReplyUsesDefaultThat(t *testing.T) {
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		return "   ", nil
	}}
	c := newConversation(t, r, settings(func(s *runtime.Settings) {
		s.DefaultThat = "nothing"
	}))

	res := c.Respond(context.Background(), "hi")
	assert.True(t, res.OK())
	assert.Equal(t, "", res.Reply)

	turn, _ := c.Thats().Get(0)
	assert.Equal(t, []string{"nothing"}, turn.Items())
}

func TestConversation_ReplyCollapsesNewlines(t *testing.T) {
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		return "line one\n\n\nline two\n", nil
	}}
	c := newConversation(t, r)

	res := c.Respond(context.Background(), "hi")
	assert.Equal(t, "line one\nline two", res.Reply)
}

func TestConversation_JPTokenize(t *testing.T) {
	r := echo()
	c := newConversation(t, r, settings(func(s *runtime.Settings) {
		s.JPTokenize = true
	}))

	c.Respond(context.Background(), "猫")
	assert.Equal(t, "猫", r.calls[0].Sentence)

	c.Respond(context.Background(), "猫犬")
	assert.Equal(t, "猫 犬", r.calls[1].Sentence)
}

type flusher struct {
	calls int
	err   error
}

func (f *flusher) Flush(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestConversation_FlushLearned(t *testing.T) {
	t.Run("Write Mode Off", func(t *testing.T) {
		f := &flusher{}
		c := newConversation(t, echo(), runtime.WithFlusher(f))
		c.Respond(context.Background(), "hi")
		assert.Zero(t, f.calls)
	})

	t.Run("Write Mode On", func(t *testing.T) {
		f := &flusher{err: errors.New("disk full")}
		c := newConversation(t, echo(), runtime.WithFlusher(f), settings(func(s *runtime.Settings) {
			s.WriteLearned = true
		}))

		res := c.Respond(context.Background(), "hi")
		assert.True(t, res.OK(), "flush failures are not fatal")
		assert.Equal(t, 1, f.calls)
	})

	t.Run("Not On Failure", func(t *testing.T) {
		f := &flusher{}
		bad := ports.ResponderFunc(func(ctx context.Context, req ports.ResponseRequest) (string, error) {
			return "", errors.New("x")
		})
		c := newConversation(t, bad, runtime.WithFlusher(f), settings(func(s *runtime.Settings) {
			s.WriteLearned = true
		}))
		c.Respond(context.Background(), "hi")
		assert.Zero(t, f.calls)
	})
}

func TestConversation_LifecycleHooks(t *testing.T) {
	var log []string
	hooks := domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			log = append(log, "start:"+e.Request)
		},
		OnSentence: func(ctx context.Context, e *domain.SentenceEvent) {
			log = append(log, "sentence:"+e.Sentence)
		},
		OnTurnCommit: func(ctx context.Context, e *domain.TurnEvent) {
			log = append(log, "commit:"+e.Reply)
		},
		OnTurnError: func(ctx context.Context, e *domain.TurnEvent) {
			log = append(log, "error:"+e.Err.Error())
		},
	}

	fail := false
	r := &recorder{reply: func(req ports.ResponseRequest) (string, error) {
		if fail {
			return "", errors.New("down")
		}
		return "yo", nil
	}}
	c := newConversation(t, r, runtime.WithLifecycleHooks(hooks))
	ctx := context.Background()

	c.Respond(ctx, "a. b")
	fail = true
	c.Respond(ctx, "c")

	assert.Equal(t, []string{
		"start:a. b",
		"sentence:a",
		"sentence:b",
		"commit:yo yo",
		"start:c",
		"sentence:c",
		`error:responder failed on "c": down`,
	}, log)
}

func TestConversation_SnapshotRestore(t *testing.T) {
	preds := memory.NewPredicates(nil)
	c := newConversation(t, echo(), runtime.WithCustomerID("cust-9"), runtime.WithPredicates(preds))
	ctx := context.Background()

	c.Respond(ctx, "Hello. Bye")
	preds.Put("name", "Ada")

	snap := c.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, "cust-9", snap.CustomerID)
	assert.Equal(t, "Ada", snap.Predicates["name"])

	// The snapshot is detached from the live conversation.
	c.Respond(ctx, "more")
	assert.Equal(t, 1, snap.Requests.Len())

	r := echo()
	restored := newConversation(t, r, runtime.WithSnapshot(snap))
	assert.Equal(t, "cust-9", restored.CustomerID())
	assert.Equal(t, []string{"Bye", "Hello"}, restored.Inputs().Items())

	name, _ := restored.Predicates().Get("name")
	assert.Equal(t, "Ada", name)

	restored.Respond(ctx, "again")
	assert.Equal(t, "You said Bye", r.calls[0].That)
}

func TestConversation_RestoreAppliesConfiguredCapacity(t *testing.T) {
	snap := domain.NewSnapshot("s1", 5)
	for _, in := range []string{"one", "two", "three", "four", "five"} {
		snap.Inputs.Add(in)
		snap.Requests.Add(in)
		snap.Responses.Add("re " + in)
		that := domain.NewHistory[string](5, "that")
		that.Add("re " + in)
		snap.Thats.Add(that)
	}

	shrunk := newConversation(t, echo(), runtime.WithSnapshot(snap), settings(func(s *runtime.Settings) {
		s.MaxHistory = 3
	}))
	assert.Equal(t, 3, shrunk.Requests().Capacity())
	assert.Equal(t, []string{"five", "four", "three"}, shrunk.Requests().Items())
	assert.Equal(t, []string{"five", "four", "three"}, shrunk.Inputs().Items())
	assert.Equal(t, 3, shrunk.Thats().Len())
	assert.Equal(t, 3, shrunk.Thats().Capacity())
	assert.Equal(t, "re five", domain.LastThat(shrunk.Thats(), "none"))
	assert.Equal(t, 5, snap.Requests.Len(), "the snapshot itself is not modified")

	grown := newConversation(t, echo(), runtime.WithSnapshot(snap), settings(func(s *runtime.Settings) {
		s.MaxHistory = 10
	}))
	assert.Equal(t, 10, grown.Requests().Capacity())
	assert.Equal(t, 5, grown.Requests().Len())

	res := grown.Respond(context.Background(), "six")
	require.True(t, res.OK())
	assert.Equal(t, 6, grown.Requests().Len())
}

func TestConversation_InvalidSettings(t *testing.T) {
	_, err := runtime.NewConversation("s", echo(), settings(func(s *runtime.Settings) {
		s.MaxHistory = -1
	}))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = runtime.NewConversation("s", echo(), settings(func(s *runtime.Settings) {
		s.ErrorResponse = ""
	}))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = runtime.NewConversation("s", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestConversation_TopicSeeded(t *testing.T) {
	c := newConversation(t, echo(), settings(func(s *runtime.Settings) {
		s.DefaultTopic = "weather"
	}))
	topic, ok := c.Predicates().Get(domain.TopicPredicate)
	assert.True(t, ok)
	assert.Equal(t, "weather", topic)
}

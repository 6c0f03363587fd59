package rules

import (
	"context"
	"fmt"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// scope is the data a template sees. Its exported methods are the template
// vocabulary: {{.Star 1}}, {{.Get "name"}}, {{.Query "cat" "isa"}} and so on.
type scope struct {
	ctx  context.Context
	req  ports.ResponseRequest
	m    matchResult
	exec ports.CommandExecutor
}

func newScope(ctx context.Context, req ports.ResponseRequest, m matchResult, exec ports.CommandExecutor) *scope {
	return &scope{ctx: ctx, req: req, m: m, exec: exec}
}

// Sentence is the sentence being answered.
func (s *scope) Sentence() string { return s.req.Sentence }

// Input is the whole turn.
func (s *scope) Input() string { return s.req.Request }

// That is the previous reply sentence.
func (s *scope) That() string { return s.req.That }

// Topic is the current topic predicate.
func (s *scope) Topic() string { return s.req.Topic }

// Star returns the n-th (1-based) wildcard capture of the pattern.
func (s *scope) Star(n int) string { return nth(s.m.stars, n) }

// ThatStar returns the n-th wildcard capture of the that pattern.
func (s *scope) ThatStar(n int) string { return nth(s.m.thatStars, n) }

// TopicStar returns the n-th wildcard capture of the topic pattern.
func (s *scope) TopicStar(n int) string { return nth(s.m.topicStars, n) }

// Get reads a predicate; unknown names are empty.
func (s *scope) Get(name string) string {
	if s.req.Predicates == nil {
		return ""
	}
	v, _ := s.req.Predicates.Get(name)
	return v
}

// Set writes a predicate and returns the value.
func (s *scope) Set(name, value string) string {
	if s.req.Predicates != nil {
		s.req.Predicates.Put(name, value)
	}
	return value
}

// Query returns the object of the first triple matching subject and
// predicate, or an empty string.
func (s *scope) Query(subject, predicate string) (string, error) {
	if s.req.Triples == nil {
		return "", nil
	}
	found, err := s.req.Triples.Match(s.ctx, subject, predicate)
	if err != nil {
		return "", fmt.Errorf("query %s %s: %w", subject, predicate, err)
	}
	if len(found) == 0 {
		return "", nil
	}
	return found[0].Object, nil
}

// System runs an allow-listed command and returns its output. The current
// sentence, that and topic are passed as arguments.
func (s *scope) System(name string) (string, error) {
	if s.exec == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrCommandNotAllowed, name)
	}
	return s.exec.Execute(s.ctx, name, map[string]string{
		"sentence": s.req.Sentence,
		"that":     s.req.That,
		"topic":    s.req.Topic,
	})
}

func nth(xs []string, n int) string {
	if n < 1 || n > len(xs) {
		return ""
	}
	return xs[n-1]
}

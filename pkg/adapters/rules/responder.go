// Package rules is a small keyword and wildcard responder driven by a YAML
// file. It can set predicates, record triples and learn new rules at run time.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategorySink persists learned categories.
type CategorySink interface {
	SaveCategories(ctx context.Context, cats []domain.LearnedCategory) error
}

// Responder implements ports.Responder. It is safe for concurrent use by
// many sessions.
type Responder struct {
	rules    []*compiled
	fallback *template.Template

	mu      sync.RWMutex
	learned []*compiled
	pending map[string][]domain.LearnedCategory

	exec   ports.CommandExecutor
	sink   CategorySink
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Responder.
type Option func(*Responder)

// WithExecutor lets templates run allow-listed commands through .System.
func WithExecutor(exec ports.CommandExecutor) Option {
	return func(r *Responder) {
		r.exec = exec
	}
}

// WithSink sets where flushed categories are written.
func WithSink(sink CategorySink) Option {
	return func(r *Responder) {
		r.sink = sink
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) {
		r.logger = logger
	}
}

// New compiles the rules of f.
func New(f File, opts ...Option) (*Responder, error) {
	r := &Responder{
		pending: make(map[string][]domain.LearnedCategory),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	for i, rule := range f.Rules {
		c, err := compile(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, rule.Pattern, err)
		}
		r.rules = append(r.rules, c)
	}
	rank(r.rules)

	if f.Fallback != "" {
		t, err := parse("fallback", f.Fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		r.fallback = t
	}
	return r, nil
}

// Restore adds previously learned categories. Invalid ones are skipped and logged.
func (r *Responder) Restore(cats []domain.LearnedCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range cats {
		c, err := compile(Rule{Pattern: cat.Pattern, That: cat.That, Topic: cat.Topic, Template: cat.Template})
		if err != nil {
			r.logger.Warn("skipping learned category", "pattern", cat.Pattern, "error", err)
			continue
		}
		r.learned = append(r.learned, c)
	}
}

// Learned returns the number of rules learned or restored so far.
func (r *Responder) Learned() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.learned)
}

// Respond answers one sentence.
func (r *Responder) Respond(ctx context.Context, req ports.ResponseRequest) (string, error) {
	input := words(req.Sentence)
	that := words(req.That)
	topic := words(req.Topic)

	r.mu.RLock()
	candidates := make([]*compiled, 0, len(r.learned)+len(r.rules))
	for i := len(r.learned) - 1; i >= 0; i-- {
		candidates = append(candidates, r.learned[i])
	}
	r.mu.RUnlock()
	candidates = append(candidates, r.rules...)

	for _, c := range candidates {
		m, ok := c.match(input, that, topic)
		if !ok {
			continue
		}
		return r.fire(ctx, c, newScope(ctx, req, m, r.exec))
	}

	if r.fallback != nil {
		return render(r.fallback, newScope(ctx, req, matchResult{}, r.exec))
	}
	return "", fmt.Errorf("%w: %q", domain.ErrNoMatch, req.Sentence)
}

func (r *Responder) fire(ctx context.Context, c *compiled, s *scope) (string, error) {
	for _, set := range c.set {
		v, err := render(set.value, s)
		if err != nil {
			return "", fmt.Errorf("set %s: %w", set.name, err)
		}
		s.Set(set.name, v)
	}

	if c.triple != nil && s.req.Triples != nil {
		t, err := c.triple.render(s)
		if err != nil {
			return "", err
		}
		if err := s.req.Triples.AddTriple(ctx, t); err != nil {
			return "", fmt.Errorf("failed to record triple: %w", err)
		}
	}

	if c.learn != nil {
		if err := r.learn(c.learn, s); err != nil {
			return "", err
		}
	}

	return render(c.template, s)
}

func (r *Responder) learn(l *compiledLearn, s *scope) error {
	pat, err := render(l.pattern, s)
	if err != nil {
		return fmt.Errorf("learn pattern: %w", err)
	}
	tmpl, err := render(l.template, s)
	if err != nil {
		return fmt.Errorf("learn template: %w", err)
	}
	var that string
	if l.that != nil {
		if that, err = render(l.that, s); err != nil {
			return fmt.Errorf("learn that: %w", err)
		}
	}

	cat := domain.LearnedCategory{
		Pattern:   strings.Join(words(pat), " "),
		That:      that,
		Template:  tmpl,
		SessionID: s.req.SessionID,
		LearnedAt: r.now(),
	}
	c, err := compile(Rule{Pattern: cat.Pattern, That: cat.That, Template: cat.Template})
	if err != nil {
		return fmt.Errorf("learned rule: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.learned = append(r.learned, c)
	r.pending[cat.SessionID] = append(r.pending[cat.SessionID], cat)
	r.logger.Debug("learned category", "session_id", cat.SessionID, "pattern", cat.Pattern)
	return nil
}

// Flusher returns the learned-category hook for one session.
func (r *Responder) Flusher(sessionID string) ports.LearnedFlusher {
	return flusher{r: r, sessionID: sessionID}
}

type flusher struct {
	r         *Responder
	sessionID string
}

// Flush writes the categories the session learned since the last flush.
// They stay pending if the sink fails.
func (f flusher) Flush(ctx context.Context) error {
	f.r.mu.Lock()
	cats := f.r.pending[f.sessionID]
	delete(f.r.pending, f.sessionID)
	f.r.mu.Unlock()

	if len(cats) == 0 || f.r.sink == nil {
		return nil
	}
	if err := f.r.sink.SaveCategories(ctx, cats); err != nil {
		f.r.mu.Lock()
		f.r.pending[f.sessionID] = append(cats, f.r.pending[f.sessionID]...)
		f.r.mu.Unlock()
		return err
	}
	return nil
}

type namedTemplate struct {
	name  string
	value *template.Template
}

type compiledTriple struct {
	subject, predicate, object *template.Template
}

func (t *compiledTriple) render(s *scope) (domain.Triple, error) {
	var out domain.Triple
	var err error
	if out.Subject, err = render(t.subject, s); err != nil {
		return out, fmt.Errorf("triple subject: %w", err)
	}
	if out.Predicate, err = render(t.predicate, s); err != nil {
		return out, fmt.Errorf("triple predicate: %w", err)
	}
	if out.Object, err = render(t.object, s); err != nil {
		return out, fmt.Errorf("triple object: %w", err)
	}
	return out, nil
}

type compiledLearn struct {
	pattern, that, template *template.Template
}

type compiled struct {
	pattern  pattern
	that     pattern
	topic    pattern
	template *template.Template
	set      []namedTemplate
	triple   *compiledTriple
	learn    *compiledLearn
}

type matchResult struct {
	stars, thatStars, topicStars []string
}

func (c *compiled) match(input, that, topic []string) (matchResult, bool) {
	var m matchResult
	var ok bool
	if m.stars, ok = c.pattern.match(input); !ok {
		return m, false
	}
	if c.that != nil {
		if m.thatStars, ok = c.that.match(that); !ok {
			return m, false
		}
	}
	if c.topic != nil {
		if m.topicStars, ok = c.topic.match(topic); !ok {
			return m, false
		}
	}
	return m, true
}

func compile(rule Rule) (*compiled, error) {
	if strings.TrimSpace(rule.Pattern) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	c := &compiled{pattern: compilePattern(rule.Pattern)}
	if rule.That != "" {
		c.that = compilePattern(rule.That)
	}
	if rule.Topic != "" {
		c.topic = compilePattern(rule.Topic)
	}

	var err error
	if c.template, err = parse("template", rule.Template); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rule.Set))
	for name := range rule.Set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, err := parse("set."+name, rule.Set[name])
		if err != nil {
			return nil, err
		}
		c.set = append(c.set, namedTemplate{name: name, value: t})
	}

	if rule.Triple != nil {
		ct := &compiledTriple{}
		if ct.subject, err = parse("triple.subject", rule.Triple.Subject); err != nil {
			return nil, err
		}
		if ct.predicate, err = parse("triple.predicate", rule.Triple.Predicate); err != nil {
			return nil, err
		}
		if ct.object, err = parse("triple.object", rule.Triple.Object); err != nil {
			return nil, err
		}
		c.triple = ct
	}

	if rule.Learn != nil {
		cl := &compiledLearn{}
		if cl.pattern, err = parse("learn.pattern", rule.Learn.Pattern); err != nil {
			return nil, err
		}
		if cl.template, err = parse("learn.template", rule.Learn.Template); err != nil {
			return nil, err
		}
		if rule.Learn.That != "" {
			if cl.that, err = parse("learn.that", rule.Learn.That); err != nil {
				return nil, err
			}
		}
		c.learn = cl
	}
	return c, nil
}

// rank orders rules so that context-constrained and more literal patterns
// are tried first. Ties keep file order.
func rank(rules []*compiled) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if (a.that != nil) != (b.that != nil) {
			return a.that != nil
		}
		if (a.topic != nil) != (b.topic != nil) {
			return a.topic != nil
		}
		return a.pattern.literals() > b.pattern.literals()
	})
}

var funcs = template.FuncMap{
	"upper": domain.Upper,
	"lower": func(s string) string { return cases.Lower(language.Und).String(s) },
	"title": func(s string) string { return cases.Title(language.Und).String(s) },
	"trim":  strings.TrimSpace,
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

func render(t *template.Template, s *scope) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, s); err != nil {
		return "", err
	}
	return b.String(), nil
}

package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
)

// Defaults of the console loop.
const (
	DefaultQuitWord = "quit"
	DefaultPrompt   = "> "
	// PrimeInput is the turn sent by WithPrime.
	PrimeInput = "SET PREDICATES"
)

// Turner answers one turn of a conversation.
type Turner interface {
	ID() string
	Respond(ctx context.Context, input string) domain.TurnResult
}

// Runner drives a Turner from a line-oriented console.
type Runner struct {
	turner   Turner
	in       io.Reader
	out      io.Writer
	renderer ContentRenderer
	prime    bool
	quit     string
	prompt   string
	logger   *slog.Logger
}

// New creates a runner for t.
func New(t Turner, opts ...Option) *Runner {
	r := &Runner{
		turner: t,
		in:     os.Stdin,
		out:    os.Stdout,
		quit:   DefaultQuitWord,
		prompt: DefaultPrompt,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type line struct {
	text string
	err  error
}

// Run loops until the quit word, end of input or cancellation of ctx.
// Only cancellation is reported as an error.
func (r *Runner) Run(ctx context.Context) error {
	if r.prime {
		res := r.turner.Respond(ctx, PrimeInput)
		r.logger.Debug("primed session", "session_id", r.turner.ID(), "recovered", res.Recovered)
	}

	lines := make(chan line)
	done := make(chan struct{})
	defer close(done)
	go r.pump(lines, done)

	for {
		fmt.Fprint(r.out, r.prompt)

		var l line
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return ctx.Err()
		case l, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}
		if l.err != nil {
			return fmt.Errorf("failed to read input: %w", l.err)
		}

		input, err := SanitizeInput(strings.TrimSpace(l.text))
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v. Please try again.\n", err)
			continue
		}
		if input == "" {
			continue
		}
		if strings.EqualFold(input, r.quit) {
			return nil
		}

		res := r.turner.Respond(ctx, input)
		if res.Recovered {
			r.logger.Warn("turn recovered", "session_id", r.turner.ID(), "error", res.Err)
		}
		r.print(res.Reply)
	}
}

// pump reads lines until EOF. It stops early once done is closed, although a
// read already blocked on the terminal only returns with the next line.
func (r *Runner) pump(lines chan<- line, done <-chan struct{}) {
	defer close(lines)
	reader := bufio.NewReader(r.in)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			select {
			case lines <- line{text: text}:
			case <-done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case lines <- line{err: err}:
				case <-done:
				}
			}
			return
		}
	}
}

func (r *Runner) print(reply string) {
	out := reply
	if r.renderer != nil {
		if rendered, err := r.renderer(reply); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.out, strings.TrimSpace(out))
}

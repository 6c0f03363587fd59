package runner

import (
	"io"
	"log/slog"
)

// Option configures a Runner.
type Option func(*Runner)

// WithInput sets where lines are read from (default os.Stdin).
func WithInput(r io.Reader) Option {
	return func(rn *Runner) {
		rn.in = r
	}
}

// WithOutput sets where prompts and replies go (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) {
		rn.out = w
	}
}

// WithRenderer formats replies before printing, e.g. as markdown.
func WithRenderer(r ContentRenderer) Option {
	return func(rn *Runner) {
		rn.renderer = r
	}
}

// WithPrime sends PrimeInput as a silent first turn so rules can initialize
// predicates before the user speaks.
func WithPrime(on bool) Option {
	return func(rn *Runner) {
		rn.prime = on
	}
}

// WithQuitWord changes the input that ends the loop.
func WithQuitWord(word string) Option {
	return func(rn *Runner) {
		rn.quit = word
	}
}

// WithPrompt changes the prompt printed before each read.
func WithPrompt(prompt string) Option {
	return func(rn *Runner) {
		rn.prompt = prompt
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		rn.logger = logger
	}
}

package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptySessionID is returned by stores when asked for a blank session ID.
var ErrEmptySessionID = errors.New("session ID cannot be empty")

// ErrInvalidConfig is returned when a configuration value violates a precondition.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNoMatch is returned by a responder that has nothing to say for a sentence.
var ErrNoMatch = errors.New("no response matched")

// ErrCommandNotAllowed is returned when an external command is not on the allow-list.
var ErrCommandNotAllowed = errors.New("command not allowed")

// ResponderError wraps a failure of the external responder for one sentence.
type ResponderError struct {
	Sentence string
	Err      error
}

func (e *ResponderError) Error() string {
	return fmt.Sprintf("responder failed on %q: %v", e.Sentence, e.Err)
}

func (e *ResponderError) Unwrap() error {
	return e.Err
}

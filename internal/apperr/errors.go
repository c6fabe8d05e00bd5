package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrConflictingTransition = errors.New("conflicting transition")
	ErrEmptyMessage          = errors.New("empty message")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrTimeout               = errors.New("timeout")
)

// TransitionError reports an illegal status change. It unwraps to
// ErrInvalidTransition so callers can match with errors.Is.
type TransitionError struct {
	From      string
	Requested string
	Reason    string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.Requested, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.Requested)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func InvalidTransition(from, requested, reason string) error {
	return &TransitionError{From: from, Requested: requested, Reason: reason}
}

// Validation reports a rejected input that is not a status change.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

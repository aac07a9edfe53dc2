// Package apperr carries typed application errors so callers branch on the
// kind of failure instead of on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	NotFound
	InvalidState
	ValidationFailed
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case InvalidState:
		return "invalid_state"
	case ValidationFailed:
		return "validation_failed"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a failure with a user-facing message. Message is shown to players
// and staff as-is, so it stays in French like the rest of the UI.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorized(msg string) *Error     { return New(Unauthorized, msg) }
func NewForbidden(msg string) *Error        { return New(Forbidden, msg) }
func NewNotFound(msg string) *Error         { return New(NotFound, msg) }
func NewInvalidState(msg string) *Error     { return New(InvalidState, msg) }
func NewValidationFailed(msg string) *Error { return New(ValidationFailed, msg) }
func NewConflict(msg string) *Error         { return New(Conflict, msg) }

// KindOf returns Internal for errors that are not *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message, or fallback for untyped errors.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// Package apperr defines the tagged error type returned by the scheduling
// services. Callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies a failure for the transport layer.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindAccessDenied Kind = "access_denied"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
)

// Error is a failure with an explicit kind. Conflicts carries the ids of the
// appointments that overlap a requested interval, when known.
type Error struct {
	Kind      Kind
	Message   string
	Conflicts []uuid.UUID
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrAccessDenied = &Error{Kind: KindAccessDenied}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrValidation   = &Error{Kind: KindValidation}
)

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func AccessDenied() *Error {
	return &Error{Kind: KindAccessDenied, Message: "access denied"}
}

func Conflict(msg string, conflicts ...uuid.UUID) *Error {
	return &Error{Kind: KindConflict, Message: msg, Conflicts: conflicts}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

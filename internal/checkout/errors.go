package checkout

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers. Handlers map kinds to status codes.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindInactive   Kind = "inactive"
	KindExpired    Kind = "expired"
	KindConflict   Kind = "conflict"
	KindUpstream   Kind = "upstream_error"
	KindStore      Kind = "store_error"
)

// Sentinels for errors.Is; any *Error of the same kind matches.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrInactive   = &Error{Kind: KindInactive}
	ErrExpired    = &Error{Kind: KindExpired}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrUpstream   = &Error{Kind: KindUpstream}
	ErrStore      = &Error{Kind: KindStore}
)

// Error is returned by every Service operation. Message is safe to show to callers;
// Err carries the internal cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	// Fields lists failed validation rules by JSON field name.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindStore for errors not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

func validationError(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func notFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func inactive(msg string) *Error { return &Error{Kind: KindInactive, Message: msg} }

func expired(msg string) *Error { return &Error{Kind: KindExpired, Message: msg} }

func conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

func storeError(msg string, err error) *Error {
	return &Error{Kind: KindStore, Message: msg, Err: err}
}

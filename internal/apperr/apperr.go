// Package apperr defines the tagged error type returned by every OralVault operation.
//
// Operations return (value, error); when the error is an *Error the caller can branch on
// its Kind instead of parsing the message. At the HTTP boundary the kind becomes the
// envelope's error code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindParse        Kind = "parse_error"
	KindMalformedRow Kind = "malformed_row"
	KindEmptyInput   Kind = "empty_input"
	KindPersistence  Kind = "persistence_error"
	KindDuplicateKey Kind = "duplicate_key"
	KindNotFound     Kind = "not_found"
	KindInvalid      Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindUpstream     Kind = "upstream_error"
	KindUnavailable  Kind = "unavailable"
	KindRateLimited  Kind = "rate_limited"
	KindInternal     Kind = "internal"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrParse        = &Error{Kind: KindParse}
	ErrMalformedRow = &Error{Kind: KindMalformedRow}
	ErrEmptyInput   = &Error{Kind: KindEmptyInput}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrDuplicateKey = &Error{Kind: KindDuplicateKey}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalid      = &Error{Kind: KindInvalid}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUpstream     = &Error{Kind: KindUpstream}
	ErrUnavailable  = &Error{Kind: KindUnavailable}
	ErrRateLimited  = &Error{Kind: KindRateLimited}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal for any other
// non-nil error, and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func NotFound(entity string, id int64) *Error {
	return New(KindNotFound, "%s %d not found", entity, id)
}

func Invalid(format string, args ...interface{}) *Error {
	return New(KindInvalid, format, args...)
}

func Persistence(err error, format string, args ...interface{}) *Error {
	return Wrap(KindPersistence, err, format, args...)
}

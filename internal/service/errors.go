package service

import (
	"errors"
	"fmt"
)

// Kind classifies why an issue operation failed.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidArgument
	KindForbidden
	KindMisconfigured
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindForbidden:
		return "forbidden"
	case KindMisconfigured:
		return "misconfigured"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to the caller, Err
// carries the detail for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Temporary marks failures the caller may retry unchanged (e.g. an
	// identity provider timeout).
	Temporary bool
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindInternal if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message that may be sent to the caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return msgInternal
}

// The messages for authentication and authorization failures are fixed so
// responses do not reveal anything about other identities.
const (
	msgUnauthenticated = "user not authenticated"
	msgForbidden       = "identifier mismatch"
	msgMisconfigured   = "missing call service configuration"
	msgInternal        = "internal error"
)

func unauthenticated(err error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msgUnauthenticated, Err: err}
}

func forbidden(err error) *Error {
	return &Error{Kind: KindForbidden, Message: msgForbidden, Err: err}
}

func invalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

func misconfigured(err error) *Error {
	return &Error{Kind: KindMisconfigured, Message: msgMisconfigured, Err: err}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: msgInternal, Err: err}
}

// IsTemporary reports whether err is a classified failure the caller may retry.
func IsTemporary(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Temporary
}

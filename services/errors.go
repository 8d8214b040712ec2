package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for the transport boundary.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindAuth
	KindToken
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindToken:
		return "token"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// Error is returned by every service operation. Message is safe to show to
// callers; Err carries the internal cause and is never exposed.
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so the sentinels
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == e.Message
}

var (
	ErrUsernameTaken       = &Error{Kind: KindConflict, Message: "username already registered"}
	ErrInvalidCredentials  = &Error{Kind: KindAuth, Message: "invalid username or password"}
	ErrInvalidToken        = &Error{Kind: KindToken, Message: "invalid or expired token"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrApplicationNotFound = &Error{Kind: KindNotFound, Message: "application not found"}
)

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func forbiddenError(msg string, cause error) error {
	return &Error{Kind: KindForbidden, Message: msg, Err: cause}
}

func unexpectedError(msg string, cause error) error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: cause}
}

// KindOf reports the kind of err; anything that is not an *Error is unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

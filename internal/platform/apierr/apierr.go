package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable error category exposed to clients.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindStore          Kind = "store"
)

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status the error maps to.
func (e *Error) Status() int { return e.Kind.Status() }

// PublicMessage is the message safe to return to clients. Store errors never
// leak the underlying cause.
func (e *Error) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == KindStore || e.Err == nil {
		return http.StatusText(e.Status())
	}
	return e.Err.Error()
}

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error     { return New(KindValidation, msg, nil) }
func Authentication(msg string) *Error { return New(KindAuthentication, msg, nil) }
func Authorization(msg string) *Error  { return New(KindAuthorization, msg, nil) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg, nil) }
func Conflict(msg string) *Error       { return New(KindConflict, msg, nil) }

// Store wraps a persistence failure.
func Store(err error) *Error { return New(KindStore, "", err) }

// From coerces any error into an *Error. Unknown errors become store errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Store(err)
}

// KindOf reports the kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}

package pipeline

import (
	"errors"
	"net/http"
)

type Kind string

const (
	InvalidInput       Kind = "InvalidInput"
	ServiceUnavailable Kind = "ServiceUnavailable"
	FetchFailed        Kind = "FetchFailed"
	NoReviewsFound     Kind = "NoReviewsFound"
	InternalError      Kind = "InternalError"
)

const internalMessage = "internal server error"

func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidInput, FetchFailed:
		return http.StatusBadRequest
	case NoReviewsFound:
		return http.StatusNotFound
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the only error type Run returns. Message is safe to show callers;
// Err keeps the underlying cause for local logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or InternalError for anything else.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return InternalError
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func internal(err error) *Error {
	return &Error{Kind: InternalError, Message: internalMessage, Err: err}
}

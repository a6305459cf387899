package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of the transport that produced it.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindNetwork      Kind = "network"
	KindServer       Kind = "server"
)

// Error is the typed error returned by gateways and services.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "resource not found", Status: http.StatusNotFound}
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed", Status: http.StatusUnprocessableEntity}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden", Status: http.StatusForbidden}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict", Status: http.StatusConflict}
	ErrNetwork      = &Error{Kind: KindNetwork, Message: "network failure", Status: http.StatusBadGateway}
	ErrServer       = &Error{Kind: KindServer, Message: "internal server error", Status: http.StatusInternalServerError}
)

func defaultStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New builds an error of the given kind with the default status for it.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: defaultStatus(kind)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: defaultStatus(kind), Err: err}
}

// WithStatus overrides the HTTP status, used for upstream server failures.
func WithStatus(kind Kind, status int, message string) *Error {
	if status == 0 {
		status = defaultStatus(kind)
	}
	return &Error{Kind: kind, Message: message, Status: status}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

// From normalises any error into an *Error. Unknown errors become server errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindServer, ErrServer.Message)
}

// KindOf reports the kind of err, or KindServer for untyped errors.
func KindOf(err error) Kind {
	if e := From(err); e != nil {
		return e.Kind
	}
	return ""
}

// StatusOf reports the HTTP status an error should be rendered with.
func StatusOf(err error) int {
	if e := From(err); e != nil {
		if e.Status != 0 {
			return e.Status
		}
		return defaultStatus(e.Kind)
	}
	return http.StatusOK
}

// MessageOf returns the user facing message without wrapped causes.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the subsystem an error belongs to.
type Category string

const (
	CategoryEngine   Category = "engine"
	CategoryEvent    Category = "event"
	CategoryHook     Category = "hook"
	CategoryNavigate Category = "navigate"
	CategoryStore    Category = "store"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// ErrInvalidArgument marks programmer errors: unknown hook types, undeclared
// event names, malformed options.
var ErrInvalidArgument = stderrors.New("invalid argument")

// ErrNotFound marks lookups that found nothing.
var ErrNotFound = stderrors.New("not found")

// Error is a structured error with a registered code.
type Error struct {
	// Code is the registered identifier (e.g., "S101").
	Code string

	// Category is the subsystem that raised the error.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Component is the tag of the component involved, if any.
	Component string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Kind is the sentinel reported by errors.Is (ErrInvalidArgument, ErrNotFound or nil).
	Kind error

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Component != "" {
		msg += " (" + e.Component + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is the sentinel this error is classified as.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Wrap sets the underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// WithComponent records the component tag involved.
func (e *Error) WithComponent(tag string) *Error {
	e.Component = tag
	return e
}

// WithDetail replaces the detailed explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf replaces the detailed explanation with a formatted one.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// New creates an Error from a registered code.
func New(code string) *Error {
	tmpl, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: tmpl.Category,
		Message:  tmpl.Message,
		Detail:   tmpl.Detail,
		Kind:     tmpl.Kind,
	}
}

// Newf creates an Error without a code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with the given code, unless err already is one.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first *Error in err's chain, or "".
func Code(err error) string {
	var se *Error
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

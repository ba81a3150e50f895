package mir

import (
	"errors"
	"fmt"

	"stateful/internal/diag"
	"stateful/internal/source"
)

// ErrUninitialized is wrapped by the error returned when a declared local
// is never assigned on any recorded path.
var ErrUninitialized = errors.New("mir: uninitialized variables")

// InvariantError is an internal-tier failure: the builder broke one of its
// own rules. Construct returns it for post-build checks and panics with it
// for violations detected mid-build.
type InvariantError struct {
	Code  diag.Code
	Func  string
	Block BlockID
	Msg   string
	Err   error
}

func (e *InvariantError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Func != "" {
		return fmt.Sprintf("mir: %s: %s: %s", e.Func, e.Code.ID(), msg)
	}
	return fmt.Sprintf("mir: %s: %s", e.Code.ID(), msg)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// UnsupportedError is a user-tier failure: the input uses a construct the
// builder cannot lower.
type UnsupportedError struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *UnsupportedError) Error() string {
	if e.Span.Known() {
		return fmt.Sprintf("%s: %s: %s", e.Span, e.Code.ID(), e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
}

// Diagnostic converts the error for a diag.Bag.
func (e *UnsupportedError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

func unsupported(code diag.Code, sp source.Span, format string, args ...any) error {
	msg := code.Title()
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &UnsupportedError{Code: code, Span: sp, Msg: msg}
}

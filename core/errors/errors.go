// Package errors defines the failure taxonomy shared by every sale module.
// Module errors are built with New so callers can match either the specific
// sentinel or its kind:
//
//	errors.Is(err, sale.ErrHardCapReached) // specific
//	errors.Is(err, errs.ErrCapacity)       // kind
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind sentinels. A failure of any kind aborts the triggering operation with
// no state change and no event.
var (
	ErrValidation    = stderrors.New("validation error")
	ErrAuthorization = stderrors.New("authorization error")
	ErrState         = stderrors.New("state error")
	ErrCapacity      = stderrors.New("capacity error")
	ErrNotFound      = stderrors.New("not found")
)

var kinds = []error{ErrValidation, ErrAuthorization, ErrState, ErrCapacity, ErrNotFound}

// Error is a module failure tagged with a kind.
type Error struct {
	kind error
	msg  string
}

// New declares a module sentinel of the supplied kind.
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind so errors.Is matches it.
func (e *Error) Unwrap() error { return e.kind }

// Kind returns the kind sentinel.
func (e *Error) Kind() error { return e.kind }

// Wrapf annotates a module sentinel with call specific detail while keeping
// both the sentinel and its kind matchable.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// KindOf returns a short label for the kind of err, or "internal" when err
// does not carry one.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range kinds {
		if stderrors.Is(err, kind) {
			switch kind {
			case ErrValidation:
				return "validation"
			case ErrAuthorization:
				return "authorization"
			case ErrState:
				return "state"
			case ErrCapacity:
				return "capacity"
			case ErrNotFound:
				return "not_found"
			}
		}
	}
	return "internal"
}

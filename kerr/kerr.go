// Package kerr defines the small closed error taxonomy shared by every
// kernel package: invalid arguments, resource exhaustion, missing
// objects, scheduler invariant violations, and permission denials.
package kerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of kernel error categories.
type Kind int

const (
	// InvArg is returned for invalid arguments: negative counts, zero-size
	// stacks, null handles.
	InvArg Kind = iota
	// Oom is returned when a resource (commonly a stack region) cannot be
	// allocated.
	Oom
	// NotFound is returned when a thread id, futex address, or semaphore
	// handle is absent.
	NotFound
	// NotMapped is returned when a memory region is not present.
	NotMapped
	// Internal is returned when a scheduler invariant is violated.
	Internal
	// Denied is returned when an operation is not permitted at the
	// caller's privilege level.
	Denied
	// OutOfRange is returned when an id space is exhausted.
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case InvArg:
		return "invalid argument"
	case Oom:
		return "out of memory"
	case NotFound:
		return "not found"
	case NotMapped:
		return "not mapped"
	case Internal:
		return "internal error"
	case Denied:
		return "denied"
	case OutOfRange:
		return "out of range"
	default:
		return "unknown"
	}
}

// Error is a kernel error: a Kind plus an operation-specific message and
// optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, for use with [errors.Is] and
// [errors.As].
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New constructs an *Error of the given kind for op, with an optional
// message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error of the given kind for op, wrapping cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// Is reports whether err is (or wraps) a kernel error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

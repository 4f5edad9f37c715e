package types

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ValidationError is returned for malformed addresses, unknown ports or
// unsupported port syntax. It is always raised before any device I/O.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError creates a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// CommandError is returned when device output matched an error pattern of a
// command template or command mode. Label is the human-readable text mapped
// to the pattern, or the raw device line when no pattern matched.
type CommandError struct {
	Label   string
	Command string
	Output  string
}

func (e *CommandError) Error() string { return e.Label }

// PreconditionError is returned when a mutating operation is refused before
// any device write (disabled port, missing association, duplicate monitor).
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// NewPreconditionError creates a PreconditionError with a formatted message
func NewPreconditionError(format string, args ...interface{}) *PreconditionError {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// SessionError is a transport or mode-transition fault. A session that
// produced a SessionError is never returned to the pool.
type SessionError struct {
	Code codes.Code
	Op   string
	Err  error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *SessionError) Unwrap() error { return e.Err }

// GRPCStatus lets status.Code and status.FromError classify session faults.
func (e *SessionError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Error())
}

// UnsupportedError is returned for unknown attributes and deprecated commands
type UnsupportedError struct {
	Msg string
}

func (e *UnsupportedError) Error() string { return e.Msg }

// IntegrityError is returned when device state violates a data-model
// invariant, e.g. a logical port listed in two associations.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string { return e.Msg }

// AggregateError collects per-item failures of a multi-port operation.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, ", ")
}

func (e *AggregateError) Unwrap() []error { return e.Errs }

// Aggregate returns nil for an empty slice and an *AggregateError otherwise
func Aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errs: errs}
}

// IsSessionError reports whether err (or anything it wraps) is a SessionError
func IsSessionError(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}

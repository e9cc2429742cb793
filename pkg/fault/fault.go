package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("restricted for deletion")
)

var (
	ErrAlreadyCheckedIn     = NewClientError("already checked in today", nil)
	ErrNoQuestionsAvailable = NewInternalError("no questions available", nil)
	ErrUnknownParticipant   = NewClientError("unknown participant", nil)
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrInternal
)

type Fault struct {
	Type    ErrorType
	Message string
	// Field names the offending input for validation failures.
	Field string
	Err   error
}

func (e *Fault) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), msg)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

// typeString returns a human-readable representation of the error type.
func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// NewClientError creates a new client error.
func NewClientError(msg string, err error) error {
	return &Fault{
		Type:    ErrClient,
		Message: msg,
		Err:     err,
	}
}

// NewInternalError creates a new internal server error.
func NewInternalError(msg string, err error) error {
	return &Fault{
		Type:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// NewFieldError creates a client error scoped to a single input field.
func NewFieldError(field, msg string) error {
	return &Fault{
		Type:    ErrClient,
		Message: msg,
		Field:   field,
	}
}

// IsClientError checks if an error is a client error.
func IsClientError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrClient
	}
	return false
}

// IsInternalError checks if an error is an internal error.
func IsInternalError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrInternal
	}
	return false
}

// FieldOf returns the field a validation error refers to, or "".
func FieldOf(err error) string {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// MessageOf returns the client-facing message of a fault.
func MessageOf(err error) string {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

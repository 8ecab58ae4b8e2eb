package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Assistant pipeline failures. Index writes are strict on create and update
// and best-effort on delete.
var (
	ErrClassification = errors.New("classification produced an unknown intent")
	ErrRetrieval      = errors.New("context retrieval failed")
	ErrDualWrite      = errors.New("vector index write failed")
	ErrVectorDelete   = errors.New("vector index delete failed")
	ErrToolExecution  = errors.New("tool execution failed")
	ErrUpstreamModel  = errors.New("language model call failed")
	ErrEmbedding      = errors.New("no embedding returned")
)

type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rejected field of one input. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Message returns the first message recorded for field, or "".
func (e *ValidationError) Message(field string) string {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

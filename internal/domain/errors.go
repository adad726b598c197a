package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks a request rejected before any pipeline stage ran.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEvaluationUnavailable marks a failure of a delegated (remote) evaluation.
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")
)

// FieldError is a single failed input check.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every failed field of one request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a failed check.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Empty reports whether no check failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

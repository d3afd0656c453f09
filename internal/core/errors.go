package core

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is a single violated validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated rule for an input, not just the
// first, so callers can render the full list.
type ValidationError struct {
	Violations []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no rule was violated. Returning the typed nil
// directly would make the error interface non-nil.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, f := range e.Violations {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports an operation on a missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// DuplicateBudgetError reports a second budget for a category that already
// has one. Category matching is case-insensitive.
type DuplicateBudgetError struct {
	Category string
}

func (e *DuplicateBudgetError) Error() string {
	return fmt.Sprintf("budget for category %q already exists", e.Category)
}

// WrapStore classifies a store failure: domain errors pass through
// untouched, anything else becomes an UpstreamError.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *NotFoundError
	var validation *ValidationError
	var duplicate *DuplicateBudgetError
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &duplicate) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// UpstreamError wraps a store subscription or write failure. The cause is
// preserved opaquely; the engine never retries.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

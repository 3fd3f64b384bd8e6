package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for record validation failures.
var (
	ErrMissingInterviewID = errors.New("missing interviewId")
	ErrMissingID          = errors.New("missing id")
	ErrDuplicateThemeID   = errors.New("duplicate theme id")
	ErrDuplicateQuoteID   = errors.New("duplicate quote id")
	ErrUnknownQuoteRef    = errors.New("relatedQuoteIds references unknown quote")
	ErrUnknownThemeRef    = errors.New("relatedThemeIds references unknown theme")
	ErrBadEmbeddingDim    = errors.New("embedding has wrong dimension")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// EmbeddingError reports a failed embedding call. A record that hits one is
// excluded from every downstream artifact.
type EmbeddingError struct {
	Field string // which text field was being embedded
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %s: %v", e.Field, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// NewEmbeddingError creates an EmbeddingError.
func NewEmbeddingError(field string, err error) *EmbeddingError {
	return &EmbeddingError{Field: field, Err: err}
}

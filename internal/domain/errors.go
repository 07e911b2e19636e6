package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")

	// ErrUserInput marks problems the uploader must fix: missing file,
	// missing gender selection, unreadable sheet.
	ErrUserInput = errors.New("invalid input")

	ErrProposerOverloaded = errors.New("mapping proposer overloaded")
	ErrProposerAuth       = errors.New("mapping proposer rejected credentials")
	ErrConfig             = errors.New("misconfigured")
	ErrMappingShape       = errors.New("mapping shape")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// UserInputError wraps ErrUserInput with a message meant for the uploader.
func UserInputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUserInput, fmt.Sprintf(format, args...))
}

// ConflictError reports that a source identifier already has persisted
// records. It is never resolved automatically.
type ConflictError struct {
	SourceID string
	Existing int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("source %q already ingested (%d records)", e.SourceID, e.Existing)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// MappingShapeError reports proposer output that could not be turned into a
// valid mapping. Snippet holds the offending text, truncated.
type MappingShapeError struct {
	Snippet string
	Reason  error
}

func (e *MappingShapeError) Error() string {
	return fmt.Sprintf("mapping shape: %v", e.Reason)
}

func (e *MappingShapeError) Unwrap() []error { return []error{ErrMappingShape, e.Reason} }

// NewMappingShapeError truncates raw to a diagnostic snippet.
func NewMappingShapeError(raw string, reason error) *MappingShapeError {
	const maxSnippet = 600
	snippet := raw
	if len(snippet) > maxSnippet {
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut] + "..."
	}
	return &MappingShapeError{Snippet: snippet, Reason: reason}
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("fieldMappings", "required")

	if got := err.Error(); got != "validation: fieldMappings: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "targetTables", Message: "required"},
		{Field: "fieldMappings", Message: "at least one required"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	var err error = &ConflictError{SourceID: "women_mainboard", Existing: 12}
	wrapped := fmt.Errorf("confirm: %w", err)

	if !errors.Is(wrapped, ErrConflict) {
		t.Fatal("errors.Is(wrapped, ErrConflict) = false")
	}
	var ce *ConflictError
	if !errors.As(wrapped, &ce) {
		t.Fatal("errors.As(wrapped, *ConflictError) = false")
	}
	if ce.SourceID != "women_mainboard" || ce.Existing != 12 {
		t.Errorf("unexpected conflict payload: %+v", ce)
	}
}

func TestMappingShapeError(t *testing.T) {
	t.Parallel()

	reason := errors.New("no JSON object found")
	err := NewMappingShapeError(strings.Repeat("x", 1000), reason)

	if !errors.Is(err, ErrMappingShape) {
		t.Fatal("errors.Is(err, ErrMappingShape) = false")
	}
	if !errors.Is(err, reason) {
		t.Fatal("errors.Is(err, reason) = false")
	}
	if len(err.Snippet) != 603 {
		t.Errorf("snippet len = %d, want 603", len(err.Snippet))
	}
}

func TestMappingShapeError_SnippetKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	err := NewMappingShapeError("x"+strings.Repeat("é", 1000), errors.New("bad shape"))

	if !utf8.ValidString(err.Snippet) {
		t.Fatal("snippet is not valid UTF-8")
	}
	if len(err.Snippet) != 602 {
		t.Errorf("snippet len = %d, want 602", len(err.Snippet))
	}
}

func TestUserInputError(t *testing.T) {
	t.Parallel()

	err := UserInputError("gender is required for %q", "board.csv")
	if !errors.Is(err, ErrUserInput) {
		t.Fatal("errors.Is(err, ErrUserInput) = false")
	}
	if !strings.Contains(err.Error(), `"board.csv"`) {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

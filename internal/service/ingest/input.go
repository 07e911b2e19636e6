package ingest

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// UploadInput carries the file on every request; nothing is kept between
// calls.
type UploadInput struct {
	Filename string
	Data     []byte
	// Gender overrides filename inference when non-empty.
	Gender string
}

// Validate checks the upload is present.
func (i *UploadInput) Validate() error {
	if strings.TrimSpace(i.Filename) == "" {
		return domain.UserInputError("a file is required")
	}
	if len(i.Data) == 0 {
		return domain.UserInputError("file %q is empty", i.Filename)
	}
	return nil
}

// PreviewInput requests a first mapping proposal.
type PreviewInput struct {
	Upload UploadInput
}

// RegenerateInput requests a revised proposal.
type RegenerateInput struct {
	Upload   UploadInput
	Previous domain.Mapping
	Feedback string
}

// Validate checks the input.
func (i *RegenerateInput) Validate() error {
	if err := i.Upload.Validate(); err != nil {
		return err
	}
	if len(i.Feedback) > 4000 {
		return domain.NewValidationError("feedback", "too long (max 4000)")
	}
	return nil
}

// ConfirmInput applies a reviewed mapping to the whole file.
type ConfirmInput struct {
	Upload   UploadInput
	Mapping  domain.Mapping
	AgencyID *uuid.UUID
	Enrich   bool
}

// ApplyOptions controls the batch applier.
type ApplyOptions struct {
	AgencyID *uuid.UUID
	Enrich   bool

	// firstWrite is set by the applier until one chunk has been written.
	firstWrite bool
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/inference"
)

// Inspect reads an upload and reports what was inferred from it. A gender
// that cannot be inferred is not an error here: the result asks for a
// selection instead.
func (s *Service) Inspect(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	table, err := s.readTable(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	res := &UploadResult{
		Stage:    StageIdle,
		Filename: in.Filename,
		Headers:  table.Headers,
		RowCount: len(table.Rows),
	}

	ictx, err := inference.InferContext(in.Filename, in.Gender)
	switch {
	case err == nil:
		res.Stage = StageContextInferred
		res.Context = ictx
	case errors.Is(err, domain.ErrUserInput) && strings.TrimSpace(in.Gender) == "":
		res.NeedsGender = true
		res.GenderOptions = domain.GenderValues()
		res.Context = domain.InferredContext{
			BoardCategory: inference.InferBoardCategory(in.Filename),
			SourceID:      inference.SourceID(in.Filename),
		}
	default:
		return nil, err
	}

	dup, err := s.CheckDuplicate(ctx, in.Filename)
	if err != nil {
		return nil, err
	}
	res.Duplicate = *dup

	s.log.InfoContext(ctx, "upload inspected",
		slog.String("source_id", res.Context.SourceID),
		slog.Int("rows", res.RowCount),
		slog.Bool("needs_gender", res.NeedsGender),
		slog.Bool("duplicate", dup.Exists),
	)
	return res, nil
}

// CheckDuplicate reports whether records from filename's source exist.
func (s *Service) CheckDuplicate(ctx context.Context, filename string) (*DuplicateStatus, error) {
	sourceID := inference.SourceID(filename)
	if sourceID == "" {
		return nil, domain.UserInputError("a filename is required")
	}

	n, err := s.sources.CountBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	return &DuplicateStatus{SourceID: sourceID, Exists: n > 0, Existing: n}, nil
}

// guardDuplicate refuses to continue when the source was already ingested.
func (s *Service) guardDuplicate(ctx context.Context, sourceID string) error {
	dup, err := s.CheckDuplicate(ctx, sourceID)
	if err != nil {
		return err
	}
	if dup.Exists {
		return &domain.ConflictError{SourceID: dup.SourceID, Existing: dup.Existing}
	}
	return nil
}

// load validates the upload, infers its context and decodes it.
func (s *Service) load(in UploadInput) (*domain.Table, domain.InferredContext, error) {
	if err := in.Validate(); err != nil {
		return nil, domain.InferredContext{}, err
	}
	ictx, err := inference.InferContext(in.Filename, in.Gender)
	if err != nil {
		return nil, domain.InferredContext{}, err
	}
	table, err := s.readTable(in.Filename, in.Data)
	if err != nil {
		return nil, domain.InferredContext{}, err
	}
	return table, ictx, nil
}

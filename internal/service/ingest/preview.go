package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/mappingparser"
	"github.com/heartmarshall/modelboard-ingest/internal/proposer"
	"github.com/heartmarshall/modelboard-ingest/internal/rowmapper"
)

// Preview proposes a mapping for the upload and renders it against the
// first rows.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (*PreviewResult, error) {
	table, ictx, err := s.load(in.Upload)
	if err != nil {
		return nil, err
	}
	if err := s.guardDuplicate(ctx, ictx.SourceID); err != nil {
		return nil, err
	}

	m, err := s.propose(ctx, table, ictx, nil, "")
	if err != nil {
		return nil, err
	}
	return s.render(table, ictx, m), nil
}

// Regenerate asks for a revised mapping given the previous one and optional
// reviewer feedback.
func (s *Service) Regenerate(ctx context.Context, in RegenerateInput) (*PreviewResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	table, ictx, err := s.load(in.Upload)
	if err != nil {
		return nil, err
	}
	if err := s.guardDuplicate(ctx, ictx.SourceID); err != nil {
		return nil, err
	}

	prev := in.Previous
	m, err := s.propose(ctx, table, ictx, &prev, in.Feedback)
	if err != nil {
		return nil, err
	}
	return s.render(table, ictx, m), nil
}

func (s *Service) propose(
	ctx context.Context,
	table *domain.Table,
	ictx domain.InferredContext,
	previous *domain.Mapping,
	feedback string,
) (domain.Mapping, error) {
	req := proposer.Request{
		Filename:    table.Filename,
		Headers:     table.Headers,
		Sample:      table.Sample(s.sampleRows),
		Context:     ictx,
		Descriptors: domain.Descriptors(),
		Previous:    previous,
		Feedback:    feedback,
	}

	raw, err := s.proposer.Propose(ctx, req)
	if err != nil {
		return domain.Mapping{}, fmt.Errorf("propose mapping: %w", err)
	}

	m, err := mappingparser.Extract(raw)
	if err != nil {
		s.log.WarnContext(ctx, "unusable mapping proposal",
			slog.String("source_id", ictx.SourceID),
			slog.String("error", err.Error()),
		)
		return domain.Mapping{}, err
	}

	s.log.InfoContext(ctx, "mapping proposed",
		slog.String("source_id", ictx.SourceID),
		slog.Int("fields", len(m.FieldMappings)),
		slog.Bool("regenerated", previous != nil),
	)
	return m, nil
}

func (s *Service) render(table *domain.Table, ictx domain.InferredContext, m domain.Mapping) *PreviewResult {
	n := s.cfg.PreviewRows
	if n <= 0 {
		n = 5
	}
	preview := rowmapper.ApplyAll(table.Sample(n), m, ictx)

	res := &PreviewResult{
		Stage:    StagePreviewReviewed,
		Context:  ictx,
		Mapping:  m,
		Headers:  table.Headers,
		RowCount: len(table.Rows),
		Preview:  preview,
	}
	for _, rec := range preview {
		if !rec.HasIdentity() {
			res.PreviewSkipped++
		}
	}
	return res
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/inference"
	"github.com/heartmarshall/modelboard-ingest/internal/mappingparser"
)

// Confirm applies a reviewed mapping to every row. The context is inferred
// again from the upload and the duplicate guard runs again, so a confirm can
// never rely on state from an earlier preview.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*ApplyReport, error) {
	table, ictx, err := s.load(in.Upload)
	if err != nil {
		return nil, err
	}
	if err := mappingparser.Validate(in.Mapping); err != nil {
		return nil, err
	}
	if err := s.guardDuplicate(ctx, ictx.SourceID); err != nil {
		return nil, err
	}

	if in.AgencyID != nil {
		ok, err := s.sources.AgencyExists(ctx, *in.AgencyID)
		if err != nil {
			return nil, fmt.Errorf("check agency: %w", err)
		}
		if !ok {
			return nil, domain.UserInputError("agency %s does not exist", in.AgencyID)
		}
	}

	report, err := s.applier.Apply(ctx, table.Rows, in.Mapping, ictx, ApplyOptions{
		AgencyID: in.AgencyID,
		Enrich:   in.Enrich,
	})
	if err != nil {
		return nil, fmt.Errorf("apply mapping: %w", err)
	}
	report.Stage = StageConfirmed

	s.log.InfoContext(ctx, "upload confirmed",
		slog.String("source_id", ictx.SourceID),
		slog.Int("inserted", report.Inserted),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

// DeleteBySource removes everything ingested from a source. It accepts a
// source id or the original filename.
func (s *Service) DeleteBySource(ctx context.Context, source string) (*domain.DeleteResult, error) {
	sourceID := inference.SourceID(strings.TrimSpace(source))
	if sourceID == "" {
		return nil, domain.UserInputError("a source id is required")
	}

	var res domain.DeleteResult
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		res, err = s.sources.DeleteBySource(txCtx, sourceID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete source %s: %w", sourceID, err)
	}
	if res.Models == 0 {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
	}

	s.log.WarnContext(ctx, "source deleted",
		slog.String("source_id", sourceID),
		slog.Int64("models", res.Models),
		slog.Int64("media", res.Media),
		slog.Int64("agency_links", res.AgencyLinks),
	)
	return &res, nil
}

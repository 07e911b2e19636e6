package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/heartmarshall/modelboard-ingest/internal/config"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/rowmapper"
)

// recordWriter persists one chunk of identity-bearing records. An error
// fails the whole chunk; per-record failures go in ChunkResult.Failures.
type recordWriter interface {
	WriteChunk(ctx context.Context, chunk []domain.CanonicalRecord, opts ApplyOptions) (ChunkResult, error)
}

// enrichmentDispatcher starts enrichment without waiting for it.
type enrichmentDispatcher interface {
	Dispatch(ctx context.Context, ids []string) int
}

// Applier maps every row and writes the results in chunks.
type Applier struct {
	log      *slog.Logger
	writer   recordWriter
	enricher enrichmentDispatcher
	cfg      config.IngestConfig
}

// NewApplier creates an Applier around the configured persistence strategy.
func NewApplier(logger *slog.Logger, writer recordWriter, cfg config.IngestConfig) *Applier {
	return &Applier{
		log:    logger.With("service", "apply"),
		writer: writer,
		cfg:    cfg,
	}
}

// SetEnrichment injects the optional enrichment dispatcher.
func (a *Applier) SetEnrichment(d enrichmentDispatcher) {
	a.enricher = d
}

// Apply maps rows with m and persists them. Rows without a name or handle
// are skipped. A failing chunk marks its rows failed and later chunks still
// run. Only context cancellation or a conflicting concurrent ingest aborts
// the run.
func (a *Applier) Apply(
	ctx context.Context,
	rows []domain.SourceRow,
	m domain.Mapping,
	ictx domain.InferredContext,
	opts ApplyOptions,
) (*ApplyReport, error) {
	report := &ApplyReport{SourceID: ictx.SourceID, Total: len(rows)}

	records := rowmapper.ApplyAll(rows, m, ictx)
	writable := make([]domain.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if !rec.HasIdentity() {
			report.Skipped++
			continue
		}
		writable = append(writable, rec)
	}

	chunkSize := a.cfg.BatchSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	var toEnrich []string
	chunkOpts := opts
	chunkOpts.firstWrite = true
	for start := 0; start < len(writable); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end := min(start+chunkSize, len(writable))
		chunk := writable[start:end]

		res, err := a.writer.WriteChunk(ctx, chunk, chunkOpts)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			var conflict *domain.ConflictError
			if errors.As(err, &conflict) {
				return report, err
			}
			a.log.ErrorContext(ctx, "chunk failed",
				slog.String("source_id", ictx.SourceID),
				slog.Int("first_line", chunk[0].Line),
				slog.Int("rows", len(chunk)),
				slog.String("error", err.Error()),
			)
			getMetrics().chunks.WithLabelValues("failed").Inc()
			for _, rec := range chunk {
				a.addFailure(report, RowFailure{Line: rec.Line, Name: rec.Name(), Reason: err.Error()})
			}
			continue
		}
		getMetrics().chunks.WithLabelValues("ok").Inc()
		chunkOpts.firstWrite = false

		report.Inserted += res.Inserted
		report.Existing += res.Existing
		for _, f := range res.Failures {
			a.addFailure(report, f)
		}
		report.MediaLinked += res.Media.Linked
		report.MediaExisting += res.Media.Existing
		report.AgencyLinked += res.Agency.Linked
		report.AgencyExisting += res.Agency.Existing
		report.Twins = append(report.Twins, res.Twins...)

		for _, p := range res.Persisted {
			if p.Ref.RecommendationUpdated || !(p.HasMedia || p.Ref.MediaCount > 0) {
				continue
			}
			toEnrich = append(toEnrich, p.Ref.ID)
		}
	}

	if opts.Enrich && a.enricher != nil && len(toEnrich) > 0 {
		report.EnrichmentQueued = a.enricher.Dispatch(ctx, toEnrich)
	}

	a.observe(report)
	a.log.InfoContext(ctx, "apply finished",
		slog.String("source_id", report.SourceID),
		slog.Int("total", report.Total),
		slog.Int("inserted", report.Inserted),
		slog.Int("existing", report.Existing),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int("enrichment_queued", report.EnrichmentQueued),
	)
	return report, nil
}

// addFailure counts every failure but keeps at most MaxFailureReasons.
func (a *Applier) addFailure(report *ApplyReport, f RowFailure) {
	report.Failed++
	if len(report.Failures) >= a.cfg.MaxFailureReasons {
		report.FailuresTruncated = true
		return
	}
	report.Failures = append(report.Failures, f)
}

func (a *Applier) observe(r *ApplyReport) {
	rows := getMetrics().rows
	rows.WithLabelValues("inserted").Add(float64(r.Inserted))
	rows.WithLabelValues("existing").Add(float64(r.Existing))
	rows.WithLabelValues("skipped").Add(float64(r.Skipped))
	rows.WithLabelValues("failed").Add(float64(r.Failed))
}

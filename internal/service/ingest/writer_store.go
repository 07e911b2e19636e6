package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

type modelStore interface {
	InsertBatch(ctx context.Context, records []domain.CanonicalRecord) (int, error)
	ResolveIDs(ctx context.Context, source string, records []domain.CanonicalRecord) (map[string]domain.ModelRef, error)
	LinkMedia(ctx context.Context, links []domain.MediaLink) (domain.LinkCounts, error)
	LinkAgency(ctx context.Context, agencyID uuid.UUID, modelIDs []string) (domain.LinkCounts, error)
}

// StoreWriter persists chunks directly in the database, one transaction per
// chunk.
type StoreWriter struct {
	models modelStore
	tx     txManager
}

// NewStoreWriter creates a StoreWriter.
func NewStoreWriter(models modelStore, tx txManager) *StoreWriter {
	return &StoreWriter{models: models, tx: tx}
}

// WriteChunk inserts the chunk, resolves ids by logical key and links media
// and the optional agency. A first chunk whose rows all exist already fails
// with *domain.ConflictError and is rolled back.
func (w *StoreWriter) WriteChunk(ctx context.Context, chunk []domain.CanonicalRecord, opts ApplyOptions) (ChunkResult, error) {
	if len(chunk) == 0 {
		return ChunkResult{}, nil
	}
	source := chunk[0].Text(domain.ColDataSource)

	var res ChunkResult
	err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
		res = ChunkResult{}

		inserted, err := w.models.InsertBatch(txCtx, chunk)
		if err != nil {
			return fmt.Errorf("insert models: %w", err)
		}

		refs, err := w.models.ResolveIDs(txCtx, source, chunk)
		if err != nil {
			return fmt.Errorf("resolve ids: %w", err)
		}

		var (
			links []domain.MediaLink
			ids   []string
			seen  = make(map[string]bool, len(chunk))
		)
		for _, rec := range chunk {
			ref, ok := refs[rec.IdentityKey()]
			if !ok {
				res.Failures = append(res.Failures, RowFailure{
					Line:   rec.Line,
					Name:   rec.Name(),
					Reason: "record could not be resolved after insert",
				})
				continue
			}
			res.Persisted = append(res.Persisted, PersistedRecord{Line: rec.Line, Ref: ref, HasMedia: len(rec.Media) > 0})
			for _, m := range rec.Media {
				links = append(links, domain.MediaLink{ModelID: ref.ID, Link: m.Link})
			}
			if !seen[ref.ID] {
				seen[ref.ID] = true
				ids = append(ids, ref.ID)
			}
		}
		res.Inserted = inserted
		res.Existing = max(0, len(res.Persisted)-inserted)
		// Nothing from this run precedes its first chunk, so rows found
		// there were written by a concurrent ingest of the same source.
		if opts.firstWrite && inserted == 0 && len(res.Persisted) > 0 {
			return &domain.ConflictError{SourceID: source, Existing: len(res.Persisted)}
		}

		if res.Media, err = w.models.LinkMedia(txCtx, links); err != nil {
			return fmt.Errorf("link media: %w", err)
		}
		if opts.AgencyID != nil {
			if res.Agency, err = w.models.LinkAgency(txCtx, *opts.AgencyID, ids); err != nil {
				return fmt.Errorf("link agency: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return ChunkResult{}, err
	}
	return res, nil
}

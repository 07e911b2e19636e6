package ingest

import (
	"context"
	"fmt"
	"maps"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/provider/recommend"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

type upsertClient interface {
	BatchUpsert(ctx context.Context, items []recommend.UpsertItem) ([]recommend.UpsertResult, error)
}

// RemoteWriter sends chunks to the recommendation service's batch upsert
// endpoint. The service owns identity resolution and reports possible twins.
type RemoteWriter struct {
	client upsertClient
}

// NewRemoteWriter creates a RemoteWriter.
func NewRemoteWriter(client upsertClient) *RemoteWriter {
	return &RemoteWriter{client: client}
}

// WriteChunk upserts the chunk in one request. Per-item errors become row
// failures; a transport error fails the chunk.
func (w *RemoteWriter) WriteChunk(ctx context.Context, chunk []domain.CanonicalRecord, opts ApplyOptions) (ChunkResult, error) {
	if len(chunk) == 0 {
		return ChunkResult{}, nil
	}

	var association string
	if opts.AgencyID != nil {
		association = opts.AgencyID.String()
	}

	items := make([]recommend.UpsertItem, len(chunk))
	for i, rec := range chunk {
		media := make([]string, 0, len(rec.Media))
		for _, m := range rec.Media {
			media = append(media, m.Link)
		}
		items[i] = recommend.UpsertItem{
			Record:        maps.Clone(rec.Fields),
			AssociationID: association,
			Media:         media,
		}
	}

	results, err := w.client.BatchUpsert(ctx, items)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("batch upsert: %w", err)
	}

	var res ChunkResult
	for i, r := range results {
		rec := chunk[i]
		if !r.Success {
			reason := r.Error
			if reason == "" {
				reason = "upsert rejected"
			}
			res.Failures = append(res.Failures, RowFailure{Line: rec.Line, Name: rec.Name(), Reason: reason})
			continue
		}

		res.Inserted++
		res.Media.Linked += len(rec.Media)
		if opts.AgencyID != nil {
			res.Agency.Linked++
		}
		res.Persisted = append(res.Persisted, PersistedRecord{
			Line:     rec.Line,
			Ref:      domain.ModelRef{ID: r.ID, Name: rec.Name(), MediaCount: len(rec.Media)},
			HasMedia: len(rec.Media) > 0,
		})
		if t := r.PotentialTwins; t != nil && len(t.CandidateIDs) > 0 {
			res.Twins = append(res.Twins, TwinHint{
				Line:         rec.Line,
				ID:           r.ID,
				GroupID:      t.GroupID,
				CandidateIDs: t.CandidateIDs,
			})
		}
	}
	return res, nil
}

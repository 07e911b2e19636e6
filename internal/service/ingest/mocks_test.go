package ingest

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/provider/recommend"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/proposer"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockProposer struct {
	ProposeFunc func(ctx context.Context, req proposer.Request) (string, error)
	requests    []proposer.Request
}

func (m *mockProposer) Propose(ctx context.Context, req proposer.Request) (string, error) {
	m.requests = append(m.requests, req)
	if m.ProposeFunc != nil {
		return m.ProposeFunc(ctx, req)
	}
	return "", nil
}

type mockSourceStore struct {
	CountBySourceFunc  func(ctx context.Context, source string) (int, error)
	DeleteBySourceFunc func(ctx context.Context, source string) (domain.DeleteResult, error)
	AgencyExistsFunc   func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *mockSourceStore) CountBySource(ctx context.Context, source string) (int, error) {
	if m.CountBySourceFunc != nil {
		return m.CountBySourceFunc(ctx, source)
	}
	return 0, nil
}

func (m *mockSourceStore) DeleteBySource(ctx context.Context, source string) (domain.DeleteResult, error) {
	if m.DeleteBySourceFunc != nil {
		return m.DeleteBySourceFunc(ctx, source)
	}
	return domain.DeleteResult{SourceID: source}, nil
}

func (m *mockSourceStore) AgencyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.AgencyExistsFunc != nil {
		return m.AgencyExistsFunc(ctx, id)
	}
	return true, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockModelStore struct {
	InsertBatchFunc func(ctx context.Context, records []domain.CanonicalRecord) (int, error)
	ResolveIDsFunc  func(ctx context.Context, source string, records []domain.CanonicalRecord) (map[string]domain.ModelRef, error)
	LinkMediaFunc   func(ctx context.Context, links []domain.MediaLink) (domain.LinkCounts, error)
	LinkAgencyFunc  func(ctx context.Context, agencyID uuid.UUID, modelIDs []string) (domain.LinkCounts, error)
}

func (m *mockModelStore) InsertBatch(ctx context.Context, records []domain.CanonicalRecord) (int, error) {
	if m.InsertBatchFunc != nil {
		return m.InsertBatchFunc(ctx, records)
	}
	return len(records), nil
}

// ResolveIDs defaults to one fresh id per record.
func (m *mockModelStore) ResolveIDs(ctx context.Context, source string, records []domain.CanonicalRecord) (map[string]domain.ModelRef, error) {
	if m.ResolveIDsFunc != nil {
		return m.ResolveIDsFunc(ctx, source, records)
	}
	out := make(map[string]domain.ModelRef, len(records))
	for _, r := range records {
		out[r.IdentityKey()] = domain.ModelRef{ID: uuid.NewString(), Name: r.Name()}
	}
	return out, nil
}

func (m *mockModelStore) LinkMedia(ctx context.Context, links []domain.MediaLink) (domain.LinkCounts, error) {
	if m.LinkMediaFunc != nil {
		return m.LinkMediaFunc(ctx, links)
	}
	return domain.LinkCounts{Linked: len(links)}, nil
}

func (m *mockModelStore) LinkAgency(ctx context.Context, agencyID uuid.UUID, modelIDs []string) (domain.LinkCounts, error) {
	if m.LinkAgencyFunc != nil {
		return m.LinkAgencyFunc(ctx, agencyID, modelIDs)
	}
	return domain.LinkCounts{Linked: len(modelIDs)}, nil
}

type mockWriter struct {
	WriteChunkFunc func(ctx context.Context, chunk []domain.CanonicalRecord, opts ApplyOptions) (ChunkResult, error)
	chunks         [][]domain.CanonicalRecord
}

func (m *mockWriter) WriteChunk(ctx context.Context, chunk []domain.CanonicalRecord, opts ApplyOptions) (ChunkResult, error) {
	m.chunks = append(m.chunks, chunk)
	if m.WriteChunkFunc != nil {
		return m.WriteChunkFunc(ctx, chunk, opts)
	}
	return ChunkResult{Inserted: len(chunk)}, nil
}

type mockDispatcher struct {
	ids []string
}

func (m *mockDispatcher) Dispatch(_ context.Context, ids []string) int {
	m.ids = append(m.ids, ids...)
	return len(ids)
}

type mockUpsertClient struct {
	BatchUpsertFunc func(ctx context.Context, items []recommend.UpsertItem) ([]recommend.UpsertResult, error)
}

func (m *mockUpsertClient) BatchUpsert(ctx context.Context, items []recommend.UpsertItem) ([]recommend.UpsertResult, error) {
	return m.BatchUpsertFunc(ctx, items)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

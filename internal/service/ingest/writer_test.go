package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/provider/recommend"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

func record(line int, name string, links ...string) domain.CanonicalRecord {
	rec := domain.CanonicalRecord{
		Line: line,
		Fields: map[string]any{
			domain.ColName:       name,
			domain.ColGender:     "male",
			domain.ColDataSource: "men_mainboard",
		},
	}
	for _, l := range links {
		rec.Media = append(rec.Media, domain.MediaRecord{Link: l})
	}
	return rec
}

// ---------------------------------------------------------------------------
// StoreWriter
// ---------------------------------------------------------------------------

func TestStoreWriter_WriteChunk(t *testing.T) {
	t.Parallel()
	agency := uuid.New()

	var gotLinks []domain.MediaLink
	var gotAgencyIDs []string
	store := &mockModelStore{
		InsertBatchFunc: func(context.Context, []domain.CanonicalRecord) (int, error) { return 1, nil },
		LinkMediaFunc: func(_ context.Context, links []domain.MediaLink) (domain.LinkCounts, error) {
			gotLinks = links
			return domain.LinkCounts{Linked: 1, Existing: 1}, nil
		},
		LinkAgencyFunc: func(_ context.Context, id uuid.UUID, ids []string) (domain.LinkCounts, error) {
			assert.Equal(t, agency, id)
			gotAgencyIDs = ids
			return domain.LinkCounts{Linked: 2}, nil
		},
	}
	tx := &mockTxManager{}
	w := NewStoreWriter(store, tx)

	chunk := []domain.CanonicalRecord{
		record(2, "Ada", "https://x/a.jpg", "https://x/b.jpg"),
		record(3, "Bo"),
	}
	res, err := w.WriteChunk(context.Background(), chunk, ApplyOptions{AgencyID: &agency})
	require.NoError(t, err)

	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, domain.LinkCounts{Linked: 1, Existing: 1}, res.Media)
	assert.Equal(t, domain.LinkCounts{Linked: 2}, res.Agency)
	require.Len(t, res.Persisted, 2)
	assert.True(t, res.Persisted[0].HasMedia)
	assert.False(t, res.Persisted[1].HasMedia)

	require.Len(t, gotLinks, 2)
	assert.Equal(t, res.Persisted[0].Ref.ID, gotLinks[0].ModelID)
	assert.Equal(t, "https://x/b.jpg", gotLinks[1].Link)
	assert.Len(t, gotAgencyIDs, 2)
}

func TestStoreWriter_NoAgencyNoLink(t *testing.T) {
	t.Parallel()
	store := &mockModelStore{
		LinkAgencyFunc: func(context.Context, uuid.UUID, []string) (domain.LinkCounts, error) {
			t.Fatal("agency must not be linked")
			return domain.LinkCounts{}, nil
		},
	}
	w := NewStoreWriter(store, &mockTxManager{})

	res, err := w.WriteChunk(context.Background(), []domain.CanonicalRecord{record(2, "Ada")}, ApplyOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Agency.Linked)
}

func TestStoreWriter_UnresolvedRecordFails(t *testing.T) {
	t.Parallel()
	store := &mockModelStore{
		ResolveIDsFunc: func(_ context.Context, _ string, records []domain.CanonicalRecord) (map[string]domain.ModelRef, error) {
			return map[string]domain.ModelRef{
				records[0].IdentityKey(): {ID: "only-one"},
			}, nil
		},
	}
	w := NewStoreWriter(store, &mockTxManager{})

	res, err := w.WriteChunk(context.Background(), []domain.CanonicalRecord{record(2, "Ada"), record(3, "Bo")}, ApplyOptions{})
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, 3, res.Failures[0].Line)
	assert.Equal(t, "Bo", res.Failures[0].Name)
	assert.Len(t, res.Persisted, 1)
}

func TestStoreWriter_InsertErrorFailsChunk(t *testing.T) {
	t.Parallel()
	boom := errors.New("unique violation")
	store := &mockModelStore{
		InsertBatchFunc: func(context.Context, []domain.CanonicalRecord) (int, error) { return 0, boom },
	}
	w := NewStoreWriter(store, &mockTxManager{})

	_, err := w.WriteChunk(context.Background(), []domain.CanonicalRecord{record(2, "Ada")}, ApplyOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "insert models")
}

func TestStoreWriter_FirstWriteOfExistingRowsConflicts(t *testing.T) {
	t.Parallel()
	store := &mockModelStore{
		InsertBatchFunc: func(context.Context, []domain.CanonicalRecord) (int, error) { return 0, nil },
		LinkMediaFunc: func(context.Context, []domain.MediaLink) (domain.LinkCounts, error) {
			t.Fatal("media must not be linked for a conflicting chunk")
			return domain.LinkCounts{}, nil
		},
	}
	w := NewStoreWriter(store, &mockTxManager{})

	chunk := []domain.CanonicalRecord{record(2, "Ada"), record(3, "Bo")}
	_, err := w.WriteChunk(context.Background(), chunk, ApplyOptions{firstWrite: true})

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "men_mainboard", conflict.SourceID)
	assert.Equal(t, 2, conflict.Existing)
}

func TestStoreWriter_LaterChunkCountsExisting(t *testing.T) {
	t.Parallel()
	store := &mockModelStore{
		InsertBatchFunc: func(context.Context, []domain.CanonicalRecord) (int, error) { return 0, nil },
	}
	w := NewStoreWriter(store, &mockTxManager{})

	res, err := w.WriteChunk(context.Background(), []domain.CanonicalRecord{record(2, "Ada")}, ApplyOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 1, res.Existing)
}

func TestStoreWriter_EmptyChunk(t *testing.T) {
	t.Parallel()
	tx := &mockTxManager{}
	w := NewStoreWriter(&mockModelStore{}, tx)

	res, err := w.WriteChunk(context.Background(), nil, ApplyOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, tx.calls)
}

// ---------------------------------------------------------------------------
// RemoteWriter
// ---------------------------------------------------------------------------

func TestRemoteWriter_WriteChunk(t *testing.T) {
	t.Parallel()
	agency := uuid.New()

	var got []recommend.UpsertItem
	client := &mockUpsertClient{BatchUpsertFunc: func(_ context.Context, items []recommend.UpsertItem) ([]recommend.UpsertResult, error) {
		got = items
		return []recommend.UpsertResult{
			{Success: true, ID: "m1", PotentialTwins: &recommend.Twins{GroupID: "g1", CandidateIDs: []string{"m9"}}},
			{Success: false},
			{Success: true, ID: "m3", PotentialTwins: &recommend.Twins{GroupID: "g2"}},
		}, nil
	}}
	w := NewRemoteWriter(client)

	chunk := []domain.CanonicalRecord{
		record(2, "Ada", "https://x/a.jpg"),
		record(3, "Bo"),
		record(4, "Cy", "https://x/c.jpg", "https://x/d.jpg"),
	}
	res, err := w.WriteChunk(context.Background(), chunk, ApplyOptions{AgencyID: &agency})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, agency.String(), got[0].AssociationID)
	assert.Equal(t, []string{"https://x/a.jpg"}, got[0].Media)
	assert.Equal(t, "Ada", got[0].Record["name"])

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 3, res.Media.Linked)
	assert.Equal(t, 2, res.Agency.Linked)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, RowFailure{Line: 3, Name: "Bo", Reason: "upsert rejected"}, res.Failures[0])

	require.Len(t, res.Twins, 1)
	assert.Equal(t, TwinHint{Line: 2, ID: "m1", GroupID: "g1", CandidateIDs: []string{"m9"}}, res.Twins[0])

	require.Len(t, res.Persisted, 2)
	assert.Equal(t, "m3", res.Persisted[1].Ref.ID)
	assert.Equal(t, 2, res.Persisted[1].Ref.MediaCount)
}

func TestRemoteWriter_RecordIsCopied(t *testing.T) {
	t.Parallel()
	client := &mockUpsertClient{BatchUpsertFunc: func(_ context.Context, items []recommend.UpsertItem) ([]recommend.UpsertResult, error) {
		items[0].Record["name"] = "mutated"
		return []recommend.UpsertResult{{Success: true, ID: "m1"}}, nil
	}}
	w := NewRemoteWriter(client)

	chunk := []domain.CanonicalRecord{record(2, "Ada")}
	_, err := w.WriteChunk(context.Background(), chunk, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Ada", chunk[0].Fields["name"])
}

func TestRemoteWriter_TransportErrorFailsChunk(t *testing.T) {
	t.Parallel()
	client := &mockUpsertClient{BatchUpsertFunc: func(context.Context, []recommend.UpsertItem) ([]recommend.UpsertResult, error) {
		return nil, errors.New("unexpected status 502: bad gateway")
	}}
	w := NewRemoteWriter(client)

	_, err := w.WriteChunk(context.Background(), []domain.CanonicalRecord{record(2, "Ada")}, ApplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch upsert")
}

func TestRemoteWriter_ItemError(t *testing.T) {
	t.Parallel()
	client := &mockUpsertClient{BatchUpsertFunc: func(context.Context, []recommend.UpsertItem) ([]recommend.UpsertResult, error) {
		return []recommend.UpsertResult{{Success: false, Error: "height out of range"}}, nil
	}}
	w := NewRemoteWriter(client)

	res, err := w.WriteChunk(context.Background(), []domain.CanonicalRecord{record(2, "Ada")}, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "height out of range", res.Failures[0].Reason)
	assert.Zero(t, res.Inserted)
}

package recommend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.retryDelay = time.Millisecond
	return c
}

func TestUpdateModel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/update_model/abc-123", r.URL.Path)
		assert.Equal(t, "openai", r.URL.Query().Get("provider"))
		assert.Equal(t, "true", r.URL.Query().Get("useAdvancedVision"))
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdateModel(context.Background(), "abc-123", UpdateOptions{Provider: "openai", AdvancedVision: true})
	require.NoError(t, err)
}

func TestUpdateModelPhotos(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/update_model_photos", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body photosRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, photosRequest{ModelID: "m1", UseAdvancedVision: false}, body)
	})

	require.NoError(t, c.UpdateModelPhotos(context.Background(), "m1", false))
}

func TestBatchUpsert(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upsert_models", r.URL.Path)
		var body upsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Models, 2)
		assert.Equal(t, "agency-1", body.Models[0].AssociationID)
		assert.Equal(t, []string{"https://x/1.jpg"}, body.Models[0].Media)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"success":true,"id":"m1","potentialTwins":{"groupId":"g1","candidateIds":["m0"]}},
			{"success":false,"error":"name missing"}
		]}`))
	})

	results, err := c.BatchUpsert(context.Background(), []UpsertItem{
		{Record: map[string]any{"name": "Ada"}, AssociationID: "agency-1", Media: []string{"https://x/1.jpg"}},
		{Record: map[string]any{"name": ""}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "m1", results[0].ID)
	require.NotNil(t, results[0].PotentialTwins)
	assert.Equal(t, []string{"m0"}, results[0].PotentialTwins.CandidateIDs)
	assert.False(t, results[1].Success)
	assert.Equal(t, "name missing", results[1].Error)
}

func TestBatchUpsert_ResultCountMismatch(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	_, err := c.BatchUpsert(context.Background(), []UpsertItem{{Record: map[string]any{}}})
	assert.ErrorContains(t, err, "0 results for 1 items")
}

func TestRetryOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model_id":"m1","useAdvancedVision":true}`, string(body))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.UpdateModelPhotos(context.Background(), "m1", true))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOn4xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad model id"))
	})

	err := c.UpdateModel(context.Background(), "m1", UpdateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400: bad model id")
	assert.Equal(t, int32(1), calls.Load())
}

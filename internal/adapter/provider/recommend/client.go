// Package recommend talks to the external recommendation service that
// enriches model records and can upsert them in batches.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is an HTTP client for the recommendation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	retryDelay time.Duration
}

// NewClient creates a Client. Timeout bounds each HTTP round trip.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "recommend"),
		retryDelay: 500 * time.Millisecond,
	}
}

// UpdateOptions are passed to the per-model update call.
type UpdateOptions struct {
	Provider       string
	AdvancedVision bool
}

// UpdateModel asks the service to recompute recommendations for one model.
func (c *Client) UpdateModel(ctx context.Context, modelID string, opts UpdateOptions) error {
	q := url.Values{}
	if opts.Provider != "" {
		q.Set("provider", opts.Provider)
	}
	q.Set("useAdvancedVision", strconv.FormatBool(opts.AdvancedVision))

	endpoint := c.baseURL + "/update_model/" + url.PathEscape(modelID) + "?" + q.Encode()
	return c.post(ctx, endpoint, nil, nil)
}

type photosRequest struct {
	ModelID           string `json:"model_id"`
	UseAdvancedVision bool   `json:"useAdvancedVision"`
}

// UpdateModelPhotos asks the service to analyse a model's photos.
func (c *Client) UpdateModelPhotos(ctx context.Context, modelID string, advancedVision bool) error {
	return c.post(ctx, c.baseURL+"/update_model_photos", photosRequest{
		ModelID:           modelID,
		UseAdvancedVision: advancedVision,
	}, nil)
}

// UpsertItem is one record sent to the batch upsert endpoint.
type UpsertItem struct {
	Record        map[string]any `json:"record"`
	AssociationID string         `json:"associationId,omitempty"`
	Media         []string       `json:"media,omitempty"`
}

// Twins lists existing records the service considers possible duplicates.
type Twins struct {
	GroupID      string   `json:"groupId"`
	CandidateIDs []string `json:"candidateIds"`
}

// UpsertResult is the per-item outcome, in request order.
type UpsertResult struct {
	Success        bool   `json:"success"`
	ID             string `json:"id,omitempty"`
	Error          string `json:"error,omitempty"`
	PotentialTwins *Twins `json:"potentialTwins,omitempty"`
}

type upsertRequest struct {
	Models []UpsertItem `json:"models"`
}

type upsertResponse struct {
	Results []UpsertResult `json:"results"`
}

// BatchUpsert sends items in one request. The service answers with one
// result per item.
func (c *Client) BatchUpsert(ctx context.Context, items []UpsertItem) ([]UpsertResult, error) {
	var resp upsertResponse
	if err := c.post(ctx, c.baseURL+"/upsert_models", upsertRequest{Models: items}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(items) {
		return nil, fmt.Errorf("recommend: upsert returned %d results for %d items", len(resp.Results), len(items))
	}
	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("recommend: encode request: %w", err)
		}
	}

	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	resp, err := c.doWithRetry(ctx, newReq)
	if err != nil {
		c.log.ErrorContext(ctx, "recommend request failed", slog.String("url", endpoint), slog.String("error", err.Error()))
		return fmt.Errorf("recommend: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("recommend: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("recommend: unexpected status %d: %s", resp.StatusCode, snippet(data))
	}

	c.log.DebugContext(ctx, "recommend response", slog.String("url", endpoint), slog.Int("status", resp.StatusCode))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("recommend: decode json: %w", err)
	}
	return nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *Client) doWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	req, err := newReq()
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || resp.StatusCode >= 500
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
		resp.Body.Close()
	}
	c.log.WarnContext(ctx, "recommend retry", slog.String("url", req.URL.Path), slog.String("reason", reason))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}

	if req, err = newReq(); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

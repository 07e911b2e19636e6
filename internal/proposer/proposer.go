// Package proposer asks a language model to draft a column mapping for an
// uploaded sheet. Output is untrusted free text; callers must run it
// through the mapping parser.
package proposer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// Proposer drafts a mapping for a sheet.
type Proposer interface {
	Propose(ctx context.Context, req Request) (string, error)
}

// Request is everything the proposer sees. Sample is a bounded prefix of the
// file, never the whole upload.
type Request struct {
	Filename    string
	Headers     []string
	Sample      []domain.SourceRow
	Context     domain.InferredContext
	Descriptors map[string]map[string]domain.FieldDescriptor

	// Previous and Feedback are set when regenerating.
	Previous *domain.Mapping
	Feedback string
}

// Unconfigured is used when no API key is set. Every call fails with
// domain.ErrConfig so operators see a deployment problem, not an outage.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Propose(context.Context, Request) (string, error) {
	return "", fmt.Errorf("%w: %s", domain.ErrConfig, u.Reason)
}

// ClassifyStatus wraps an upstream API error according to its HTTP status:
// overload signals become domain.ErrProposerOverloaded (retryable),
// credential problems domain.ErrProposerAuth (fatal).
func ClassifyStatus(provider string, status int, err error) error {
	switch status {
	case 529, http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrProposerOverloaded, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrProposerAuth, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

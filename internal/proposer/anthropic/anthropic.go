// Package anthropic implements the mapping proposer on the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/modelboard-ingest/internal/proposer"
)

const providerName = "anthropic"

// DefaultModel is used when no model is configured.
const DefaultModel = string(sdk.ModelClaudeSonnet4_5)

// Config holds client settings.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
	Timeout   time.Duration
}

// Proposer calls the Messages API.
type Proposer struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// New creates a Proposer. Retries are disabled in the SDK; the caller wraps
// the result in proposer.Retrying.
func New(cfg Config) *Proposer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Proposer{
		client:    sdk.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *Proposer) Propose(ctx context.Context, req proposer.Request) (string, error) {
	prompt, err := proposer.BuildUserPrompt(req)
	if err != nil {
		return "", err
	}

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    []sdk.TextBlockParam{{Text: proposer.SystemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", proposer.ClassifyStatus(providerName, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%s: %w", providerName, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%s: empty response", providerName)
	}
	return b.String(), nil
}

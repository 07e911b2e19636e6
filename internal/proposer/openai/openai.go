// Package openai implements the mapping proposer on the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/heartmarshall/modelboard-ingest/internal/proposer"
)

const providerName = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = sdk.ChatModelGPT4oMini

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
	Timeout   time.Duration
}

type Proposer struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

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

	resp, err := p.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: p.model,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(proposer.SystemPrompt),
			sdk.UserMessage(prompt),
		},
		MaxTokens: sdk.Int(p.maxTokens),
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", proposer.ClassifyStatus(providerName, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%s: %w", providerName, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: empty response", providerName)
	}
	return resp.Choices[0].Message.Content, nil
}

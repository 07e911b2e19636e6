package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/postgres"
	"github.com/heartmarshall/modelboard-ingest/internal/adapter/postgres/model"
	"github.com/heartmarshall/modelboard-ingest/internal/adapter/provider/recommend"
	"github.com/heartmarshall/modelboard-ingest/internal/adapter/sheet"
	"github.com/heartmarshall/modelboard-ingest/internal/config"
	"github.com/heartmarshall/modelboard-ingest/internal/proposer"
	"github.com/heartmarshall/modelboard-ingest/internal/proposer/anthropic"
	"github.com/heartmarshall/modelboard-ingest/internal/proposer/openai"
	"github.com/heartmarshall/modelboard-ingest/internal/service/enrichment"
	"github.com/heartmarshall/modelboard-ingest/internal/service/ingest"
)

// Components is the wired service graph shared by the server and the CLI.
type Components struct {
	Pool *pgxpool.Pool

	Ingest *ingest.Service
	// Enrichment is nil when enrichment is disabled.
	Enrichment *enrichment.Service

	ProposerConfigured bool
}

// Build connects to the database and wires every service. Call Close when
// done.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	models := model.New(pool)
	tx := postgres.NewTxManager(pool)

	var client *recommend.Client
	if cfg.Enrichment.BaseURL != "" {
		client = recommend.NewClient(cfg.Enrichment.BaseURL, cfg.Enrichment.Timeout, logger)
	}

	// Exactly one persistence strategy is active.
	var applier *ingest.Applier
	if cfg.Ingest.Persistence == config.PersistenceRemote {
		applier = ingest.NewApplier(logger, ingest.NewRemoteWriter(client), cfg.Ingest)
	} else {
		applier = ingest.NewApplier(logger, ingest.NewStoreWriter(models, tx), cfg.Ingest)
	}

	c := &Components{Pool: pool, ProposerConfigured: cfg.Proposer.Configured()}

	if cfg.Enrichment.Enabled {
		c.Enrichment = enrichment.NewService(logger, client, models, enrichment.Options{
			Provider:       cfg.Enrichment.Provider,
			AdvancedVision: cfg.Enrichment.AdvancedVision,
			Concurrency:    cfg.Enrichment.Concurrency,
		})
		applier.SetEnrichment(c.Enrichment)
	}

	c.Ingest = ingest.NewService(
		logger,
		sheet.Read,
		NewProposer(cfg.Proposer, logger),
		models,
		tx,
		applier,
		cfg.Ingest,
		cfg.Proposer.SampleRows,
	)

	logger.Info("services wired",
		slog.String("persistence", cfg.Ingest.Persistence),
		slog.String("proposer", cfg.Proposer.Provider),
		slog.Bool("proposer_configured", c.ProposerConfigured),
		slog.Bool("enrichment", cfg.Enrichment.Enabled),
	)
	return c, nil
}

// Close waits for dispatched enrichment and closes the pool.
func (c *Components) Close() {
	if c.Enrichment != nil {
		c.Enrichment.Close()
	}
	c.Pool.Close()
}

// NewProposer builds the configured mapping proposer wrapped in the
// overload retry schedule. A missing API key yields a proposer that fails
// every call with domain.ErrConfig, so the rest of the workflow still runs.
func NewProposer(cfg config.ProposerConfig, logger *slog.Logger) proposer.Proposer {
	var p proposer.Proposer
	switch {
	case !cfg.Configured():
		p = proposer.Unconfigured{Reason: cfg.Provider + " api key is not set"}
	case cfg.Provider == config.ProviderOpenAI:
		p = openai.New(openai.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: int64(cfg.MaxTokens),
			Timeout:   cfg.Timeout,
		})
	default:
		p = anthropic.New(anthropic.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: int64(cfg.MaxTokens),
			Timeout:   cfg.Timeout,
		})
	}
	return proposer.NewRetrying(p, cfg.RetryDelays, logger)
}

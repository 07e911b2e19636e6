// Package ingest runs the upload review workflow: infer context from the
// filename, propose and preview a mapping, then apply it in batches.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/modelboard-ingest/internal/config"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/proposer"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type mappingProposer interface {
	Propose(ctx context.Context, req proposer.Request) (string, error)
}

type sourceStore interface {
	CountBySource(ctx context.Context, source string) (int, error)
	DeleteBySource(ctx context.Context, source string) (domain.DeleteResult, error)
	AgencyExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TableReader decodes an uploaded file.
type TableReader func(filename string, data []byte) (*domain.Table, error)

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service orchestrates preview and confirm. It holds no per-upload state.
type Service struct {
	log        *slog.Logger
	readTable  TableReader
	proposer   mappingProposer
	sources    sourceStore
	tx         txManager
	applier    *Applier
	cfg        config.IngestConfig
	sampleRows int
}

// NewService creates the ingest service.
func NewService(
	logger *slog.Logger,
	readTable TableReader,
	proposer mappingProposer,
	sources sourceStore,
	tx txManager,
	applier *Applier,
	cfg config.IngestConfig,
	sampleRows int,
) *Service {
	if sampleRows <= 0 {
		sampleRows = 20
	}
	return &Service{
		log:        logger.With("service", "ingest"),
		readTable:  readTable,
		proposer:   proposer,
		sources:    sources,
		tx:         tx,
		applier:    applier,
		cfg:        cfg,
		sampleRows: sampleRows,
	}
}

// Package enrichment triggers the recommendation service for ingested
// models, either right after a confirm or as an explicit sweep over a
// source.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/provider/recommend"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

type recommender interface {
	UpdateModel(ctx context.Context, modelID string, opts recommend.UpdateOptions) error
	UpdateModelPhotos(ctx context.Context, modelID string, advancedVision bool) error
}

type candidateSource interface {
	EnrichmentCandidates(ctx context.Context, source string) ([]domain.ModelRef, error)
}

// Options configure the calls made per model.
type Options struct {
	Provider       string
	AdvancedVision bool
	// Concurrency bounds parallel models. Values below 1 mean sequential.
	Concurrency int
}

// Outcome is the result of enriching one model.
type Outcome struct {
	ModelID  string
	Err      error
	Duration time.Duration
}

// SweepReport summarizes a sweep.
type SweepReport struct {
	SourceID   string `json:"sourceId"`
	Candidates int    `json:"candidates"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	// Remaining counts candidates never started because the sweep was
	// cancelled.
	Remaining int  `json:"remaining"`
	Cancelled bool `json:"cancelled"`
}

// Service dispatches enrichment calls. Every outcome goes through one
// channel drained by a logging goroutine.
type Service struct {
	log        *slog.Logger
	client     recommender
	candidates candidateSource
	opts       Options

	outcomes  chan Outcome
	sinkDone  chan struct{}
	inflight  sync.WaitGroup
	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// NewService creates the service and starts its outcome sink. Call Close to
// wait for dispatched work.
func NewService(logger *slog.Logger, client recommender, candidates candidateSource, opts Options) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	s := &Service{
		log:        logger.With("service", "enrichment"),
		client:     client,
		candidates: candidates,
		opts:       opts,
		outcomes:   make(chan Outcome, 64),
		sinkDone:   make(chan struct{}),
	}
	go s.sink()
	return s
}

// Dispatch enriches ids in the background and returns how many were
// queued. The work outlives the caller's request: only values are taken
// from ctx, never its cancellation.
func (s *Service) Dispatch(ctx context.Context, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	queued := append([]string(nil), ids...)
	go func() {
		defer s.inflight.Done()
		g := new(errgroup.Group)
		g.SetLimit(s.opts.Concurrency)
		for _, id := range queued {
			g.Go(func() error {
				s.outcomes <- s.enrich(bg, id)
				return nil
			})
		}
		_ = g.Wait()
	}()

	s.log.InfoContext(ctx, "enrichment dispatched", slog.Int("models", len(queued)))
	return len(queued)
}

// Sweep enriches every candidate of source and waits for the result.
// Cancellation is checked before each model and while waiting for a free
// slot; calls already started run to completion.
func (s *Service) Sweep(ctx context.Context, source string) (*SweepReport, error) {
	refs, err := s.candidates.EnrichmentCandidates(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	report := &SweepReport{SourceID: source, Candidates: len(refs)}
	if len(refs) == 0 {
		return report, nil
	}

	// In-flight calls must not see the sweep's cancellation.
	callCtx := context.WithoutCancel(ctx)

	var (
		mu      sync.Mutex
		started int
	)
	// A slot is taken before each model so a cancel that arrives while the
	// loop waits for a free slot stops the sweep there.
	sem := semaphore.NewWeighted(int64(s.opts.Concurrency))
	g := new(errgroup.Group)
	for _, ref := range refs {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}
		started++
		g.Go(func() error {
			defer sem.Release(1)
			out := s.enrich(callCtx, ref.ID)
			s.logOutcome(out)
			mu.Lock()
			defer mu.Unlock()
			if out.Err != nil {
				report.Failed++
			} else {
				report.Succeeded++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Remaining = len(refs) - started
	report.Cancelled = report.Remaining > 0
	s.log.InfoContext(ctx, "enrichment sweep finished",
		slog.String("source_id", source),
		slog.Int("candidates", report.Candidates),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("remaining", report.Remaining),
	)
	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// Close stops accepting dispatches, waits for in-flight work and drains the
// sink.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.inflight.Wait()
		close(s.outcomes)
		<-s.sinkDone
	})
}

// enrich runs both calls. The photo call is made even when the first one
// fails.
func (s *Service) enrich(ctx context.Context, id string) Outcome {
	start := time.Now()
	errModel := s.client.UpdateModel(ctx, id, recommend.UpdateOptions{
		Provider:       s.opts.Provider,
		AdvancedVision: s.opts.AdvancedVision,
	})
	if errModel != nil {
		errModel = fmt.Errorf("update model: %w", errModel)
	}
	errPhotos := s.client.UpdateModelPhotos(ctx, id, s.opts.AdvancedVision)
	if errPhotos != nil {
		errPhotos = fmt.Errorf("update photos: %w", errPhotos)
	}
	return Outcome{ModelID: id, Err: errors.Join(errModel, errPhotos), Duration: time.Since(start)}
}

func (s *Service) sink() {
	defer close(s.sinkDone)
	for out := range s.outcomes {
		s.logOutcome(out)
	}
}

func (s *Service) logOutcome(out Outcome) {
	if out.Err != nil {
		getMetrics().models.WithLabelValues("failed").Inc()
		s.log.Error("enrichment failed",
			slog.String("model_id", out.ModelID),
			slog.Duration("duration", out.Duration),
			slog.String("error", out.Err.Error()),
		)
		return
	}
	getMetrics().models.WithLabelValues("ok").Inc()
	s.log.Info("model enriched",
		slog.String("model_id", out.ModelID),
		slog.Duration("duration", out.Duration),
	)
}

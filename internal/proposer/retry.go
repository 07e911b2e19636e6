package proposer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// Retrying retries a Proposer on overload only, waiting delays[i] before
// attempt i+2. Any other error is returned immediately.
type Retrying struct {
	next   Proposer
	delays []time.Duration
	log    *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next with a fixed backoff schedule.
func NewRetrying(next Proposer, delays []time.Duration, logger *slog.Logger) *Retrying {
	return &Retrying{
		next:   next,
		delays: delays,
		log:    logger.With("component", "proposer_retry"),
		sleep:  sleepCtx,
	}
}

func (r *Retrying) Propose(ctx context.Context, req Request) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := r.next.Propose(ctx, req)
		if err == nil {
			getMetrics().requests.WithLabelValues("ok").Inc()
			return out, nil
		}
		if !errors.Is(err, domain.ErrProposerOverloaded) {
			getMetrics().requests.WithLabelValues(resultLabel(err)).Inc()
			return "", err
		}
		if attempt >= len(r.delays) {
			getMetrics().requests.WithLabelValues("overloaded").Inc()
			r.log.ErrorContext(ctx, "proposer still overloaded, giving up",
				slog.Int("attempts", attempt+1),
				slog.String("error", err.Error()),
			)
			return "", err
		}

		delay := r.delays[attempt]
		getMetrics().retries.Inc()
		r.log.WarnContext(ctx, "proposer overloaded, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrProposerAuth):
		return "auth"
	case errors.Is(err, domain.ErrConfig):
		return "config"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

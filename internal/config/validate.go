package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Proposer.validate(); err != nil {
		return fmt.Errorf("proposer: %w", err)
	}
	if err := c.Ingest.validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := c.Enrichment.validate(c.Ingest.Persistence); err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}
	if c.RateLimit.ProposePerMinute < 0 {
		return fmt.Errorf("rate_limit: propose_per_minute must be >= 0 (got %d)", c.RateLimit.ProposePerMinute)
	}
	return nil
}

func (p *ProposerConfig) validate() error {
	switch p.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("provider must be %q or %q (got %q)", ProviderAnthropic, ProviderOpenAI, p.Provider)
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0 (got %d)", p.MaxTokens)
	}
	if p.SampleRows < 1 {
		return fmt.Errorf("sample_rows must be >= 1 (got %d)", p.SampleRows)
	}

	delays, err := ParseDurations(p.RetryDelaysRaw)
	if err != nil {
		return fmt.Errorf("retry_delays: %w", err)
	}
	p.RetryDelays = delays

	return nil
}

func (i *IngestConfig) validate() error {
	if i.BatchSize < 1 || i.BatchSize > 1000 {
		return fmt.Errorf("batch_size must be between 1 and 1000 (got %d)", i.BatchSize)
	}
	if i.PreviewRows < 1 {
		return fmt.Errorf("preview_rows must be >= 1 (got %d)", i.PreviewRows)
	}
	if i.MaxFailureReasons < 0 {
		return fmt.Errorf("max_failure_reasons must be >= 0 (got %d)", i.MaxFailureReasons)
	}
	switch i.Persistence {
	case PersistenceStore, PersistenceRemote:
	default:
		return fmt.Errorf("persistence must be %q or %q (got %q)", PersistenceStore, PersistenceRemote, i.Persistence)
	}
	return nil
}

func (e *EnrichmentConfig) validate(persistence string) error {
	needsURL := e.Enabled || persistence == PersistenceRemote
	if needsURL && e.BaseURL == "" {
		return fmt.Errorf("base_url is required when enrichment is enabled or persistence is %q", PersistenceRemote)
	}
	if e.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1 (got %d)", e.Concurrency)
	}
	return nil
}

// ParseDurations parses a comma-separated string of durations (e.g. "1s,2s")
// into a slice of time.Duration. An empty string returns a nil slice.
func ParseDurations(raw string) ([]time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", p, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("negative duration %q", p)
		}
		out = append(out, d)
	}

	return out, nil
}

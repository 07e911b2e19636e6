package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{DSN: "postgres://u:p@localhost:5432/testdb"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Proposer: ProposerConfig{
			Provider:       ProviderAnthropic,
			MaxTokens:      4096,
			RetryDelaysRaw: "1s,2s,4s,8s",
			SampleRows:     20,
		},
		Enrichment: EnrichmentConfig{Concurrency: 1},
		Ingest: IngestConfig{
			BatchSize:         50,
			PreviewRows:       5,
			MaxFailureReasons: 50,
			Persistence:       PersistenceStore,
		},
	}
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 4

log:
  level: "debug"
  format: "text"

proposer:
  provider: "openai"
  api_key: "sk-test"
  model: "gpt-4o-mini"
  retry_delays: "500ms,1s"
  sample_rows: 10

enrichment:
  enabled: true
  base_url: "http://recommend.local"
  advanced_vision: true
  concurrency: 4

ingest:
  batch_size: 25
  preview_rows: 3
  persistence: "remote"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.MaxConns != 4 {
		t.Errorf("database.max_conns = %d, want 4", cfg.Database.MaxConns)
	}

	if cfg.Proposer.Provider != ProviderOpenAI {
		t.Errorf("proposer.provider = %q, want %q", cfg.Proposer.Provider, ProviderOpenAI)
	}
	if !cfg.Proposer.Configured() {
		t.Error("proposer should be configured when api_key is set")
	}
	if len(cfg.Proposer.RetryDelays) != 2 {
		t.Fatalf("proposer.retry_delays len = %d, want 2", len(cfg.Proposer.RetryDelays))
	}
	if cfg.Proposer.RetryDelays[0] != 500*time.Millisecond {
		t.Errorf("proposer.retry_delays[0] = %v, want 500ms", cfg.Proposer.RetryDelays[0])
	}
	if cfg.Proposer.SampleRows != 10 {
		t.Errorf("proposer.sample_rows = %d, want 10", cfg.Proposer.SampleRows)
	}

	if !cfg.Enrichment.Enabled || !cfg.Enrichment.AdvancedVision {
		t.Error("enrichment.enabled and advanced_vision should be true")
	}
	if cfg.Enrichment.Concurrency != 4 {
		t.Errorf("enrichment.concurrency = %d, want 4", cfg.Enrichment.Concurrency)
	}

	if cfg.Ingest.BatchSize != 25 {
		t.Errorf("ingest.batch_size = %d, want 25", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.MaxFailureReasons != 50 {
		t.Errorf("ingest.max_failure_reasons = %d, want 50 (default)", cfg.Ingest.MaxFailureReasons)
	}
	if cfg.Ingest.Persistence != PersistenceRemote {
		t.Errorf("ingest.persistence = %q, want %q", cfg.Ingest.Persistence, PersistenceRemote)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("INGEST_BATCH_SIZE", "100")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Ingest.BatchSize != 100 {
		t.Errorf("ingest.batch_size = %d, want 100 (ENV override)", cfg.Ingest.BatchSize)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Ingest.BatchSize != 50 {
		t.Errorf("ingest.batch_size = %d, want 50 (default)", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.Persistence != PersistenceStore {
		t.Errorf("ingest.persistence = %q, want %q (default)", cfg.Ingest.Persistence, PersistenceStore)
	}
	if len(cfg.Proposer.RetryDelays) != 4 {
		t.Errorf("proposer.retry_delays len = %d, want 4 (default)", len(cfg.Proposer.RetryDelays))
	}
	if cfg.Proposer.Configured() {
		t.Error("proposer should not be configured without api_key")
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Proposer.Provider = "gemini" }},
		{"zero max tokens", func(c *Config) { c.Proposer.MaxTokens = 0 }},
		{"zero sample rows", func(c *Config) { c.Proposer.SampleRows = 0 }},
		{"bad retry delay", func(c *Config) { c.Proposer.RetryDelaysRaw = "1s,soon" }},
		{"batch size zero", func(c *Config) { c.Ingest.BatchSize = 0 }},
		{"batch size too large", func(c *Config) { c.Ingest.BatchSize = 1001 }},
		{"preview rows zero", func(c *Config) { c.Ingest.PreviewRows = 0 }},
		{"unknown persistence", func(c *Config) { c.Ingest.Persistence = "both" }},
		{"remote without url", func(c *Config) { c.Ingest.Persistence = PersistenceRemote }},
		{"enrichment without url", func(c *Config) { c.Enrichment.Enabled = true }},
		{"zero concurrency", func(c *Config) { c.Enrichment.Concurrency = 0 }},
		{"negative rate limit", func(c *Config) { c.RateLimit.ProposePerMinute = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidate_BatchSizeBoundaries(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.BatchSize = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for batch_size=1: %v", err)
	}

	cfg.Ingest.BatchSize = 1000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for batch_size=1000: %v", err)
	}
}

func TestParseDurations(t *testing.T) {
	got, err := ParseDurations(" 1s, 2s ,,4s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseDurations_Empty(t *testing.T) {
	got, err := ParseDurations("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestParseDurations_Negative(t *testing.T) {
	if _, err := ParseDurations("-1s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestLoad_EnvFileFillsUnsetVars(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "ingest.env")
	body := "DATABASE_DSN=postgres://file@localhost:5432/db\nINGEST_BATCH_SIZE=25\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(envPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILES", envPath)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("LOG_LEVEL", "warn")
	for _, k := range []string{"DATABASE_DSN", "INGEST_BATCH_SIZE"} {
		t.Setenv(k, "") // restores the original value on cleanup
		_ = os.Unsetenv(k)
	}
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.DSN != "postgres://file@localhost:5432/db" {
		t.Errorf("database.dsn = %q, want value from env file", cfg.Database.DSN)
	}
	if cfg.Ingest.BatchSize != 25 {
		t.Errorf("ingest.batch_size = %d, want 25", cfg.Ingest.BatchSize)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want process env to win over env file", cfg.Log.Level)
	}
}

func TestLoadEnvFiles_SkipsMissing(t *testing.T) {
	n, err := loadEnvFiles([]string{filepath.Join(t.TempDir(), "absent.env")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("loaded %d files, want 0", n)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" .env.local, ,.env ")
	if len(got) != 2 || got[0] != ".env.local" || got[1] != ".env" {
		t.Errorf("splitList = %v", got)
	}
}

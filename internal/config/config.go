package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Proposer   ProposerConfig   `yaml:"proposer"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Ingest     IngestConfig     `yaml:"ingest"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// CORSConfig holds CORS settings for the review console.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// RateLimitConfig bounds requests that call the mapping proposer.
type RateLimitConfig struct {
	ProposePerMinute int           `yaml:"propose_per_minute" env:"RATE_LIMIT_PROPOSE_PER_MINUTE" env-default:"20"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"   env:"RATE_LIMIT_CLEANUP_INTERVAL"   env-default:"5m"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"5m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"33554432"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ApplicationName string        `yaml:"application_name"   env:"DATABASE_APPLICATION_NAME"   env-default:"modelboard-ingest"`
	// StatementTimeout bounds a single statement; 0 leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"0s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ProposerConfig configures the language model that drafts column mappings.
type ProposerConfig struct {
	Provider       string        `yaml:"provider"     env:"PROPOSER_PROVIDER"     env-default:"anthropic"`
	APIKey         string        `yaml:"api_key"      env:"PROPOSER_API_KEY"`
	Model          string        `yaml:"model"        env:"PROPOSER_MODEL"`
	BaseURL        string        `yaml:"base_url"     env:"PROPOSER_BASE_URL"`
	MaxTokens      int           `yaml:"max_tokens"   env:"PROPOSER_MAX_TOKENS"   env-default:"4096"`
	Timeout        time.Duration `yaml:"timeout"      env:"PROPOSER_TIMEOUT"      env-default:"90s"`
	RetryDelaysRaw string        `yaml:"retry_delays" env:"PROPOSER_RETRY_DELAYS" env-default:"1s,2s,4s,8s"`
	SampleRows     int           `yaml:"sample_rows"  env:"PROPOSER_SAMPLE_ROWS"  env-default:"20"`

	// RetryDelays is parsed from RetryDelaysRaw during validation.
	RetryDelays []time.Duration `yaml:"-" env:"-"`
}

// EnrichmentConfig configures the external recommendation service.
type EnrichmentConfig struct {
	Enabled        bool          `yaml:"enabled"         env:"ENRICHMENT_ENABLED"         env-default:"false"`
	BaseURL        string        `yaml:"base_url"        env:"ENRICHMENT_BASE_URL"`
	Provider       string        `yaml:"provider"        env:"ENRICHMENT_PROVIDER"        env-default:"openai"`
	AdvancedVision bool          `yaml:"advanced_vision" env:"ENRICHMENT_ADVANCED_VISION" env-default:"false"`
	Timeout        time.Duration `yaml:"timeout"         env:"ENRICHMENT_TIMEOUT"         env-default:"2m"`
	Concurrency    int           `yaml:"concurrency"     env:"ENRICHMENT_CONCURRENCY"     env-default:"1"`
}

// IngestConfig holds batch apply and preview settings.
type IngestConfig struct {
	BatchSize         int    `yaml:"batch_size"          env:"INGEST_BATCH_SIZE"          env-default:"50"`
	PreviewRows       int    `yaml:"preview_rows"        env:"INGEST_PREVIEW_ROWS"        env-default:"5"`
	MaxFailureReasons int    `yaml:"max_failure_reasons" env:"INGEST_MAX_FAILURE_REASONS" env-default:"50"`
	Persistence       string `yaml:"persistence"         env:"INGEST_PERSISTENCE"         env-default:"store"`
}

// Persistence strategies.
const (
	PersistenceStore  = "store"
	PersistenceRemote = "remote"
)

// Proposer providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Configured reports whether a proposer can be constructed.
func (c ProposerConfig) Configured() bool {
	return c.APIKey != ""
}

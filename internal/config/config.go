package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/nefol/discovery/pkg/config"
	"github.com/nefol/discovery/pkg/database"
	"github.com/nefol/discovery/pkg/tracing"
)

// Engine and store selectors.
const (
	EngineMemory        = "memory"
	EngineElasticsearch = "elasticsearch"

	CatalogNone     = "none"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"

	HistoryMemory = "memory"
	HistoryRedis  = "redis"
)

// Config holds all configuration for the discovery server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int           `env:"DISCOVERY_HTTP_PORT" envDefault:"8020"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CacheMaxAge    time.Duration `env:"CACHE_MAX_AGE" envDefault:"30s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Search engine selection (memory or elasticsearch)
	SearchEngine       string `env:"SEARCH_ENGINE" envDefault:"memory"`
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"storefront_products"`

	// Catalog source used to bootstrap and reindex (none, file or postgres)
	CatalogSource   string `env:"CATALOG_SOURCE" envDefault:"none"`
	CatalogFile     string `env:"CATALOG_FILE" envDefault:"catalog.json"`
	PostgresMigrate bool   `env:"POSTGRES_MIGRATE" envDefault:"false"`

	// Recent and popular query storage (memory or redis)
	HistoryStore      string   `env:"HISTORY_STORE" envDefault:"memory"`
	RecentSearchLimit int      `env:"RECENT_SEARCH_LIMIT" envDefault:"5"`
	PopularQueries    []string `env:"POPULAR_QUERIES" envDefault:"sunscreen,vitamin c serum,hair oil,face wash,lip balm" envSeparator:","`
	PopularLimit      int      `env:"POPULAR_LIMIT" envDefault:"8"`

	// Discovery rules
	TaxonomyPath     string `env:"DISCOVERY_TAXONOMY_PATH"`
	SuggestMinLength int    `env:"SUGGEST_MIN_LENGTH" envDefault:"2"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"discovery"`
	KafkaDLQ     bool     `env:"KAFKA_DLQ_ENABLED" envDefault:"true"`

	Postgres database.PostgresConfig
	Redis    database.RedisConfig
	Tracing  tracing.Config
}

// Load reads configuration from .env files and the environment. The process
// environment wins over the files.
func Load(dotenvFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load discovery config: %w", err)
	}
	cfg.Tracing.Environment = cfg.Environment
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{EngineMemory, EngineElasticsearch}, c.SearchEngine) {
		return fmt.Errorf("invalid SEARCH_ENGINE %q: must be memory or elasticsearch", c.SearchEngine)
	}
	if !slices.Contains([]string{CatalogNone, CatalogFile, CatalogPostgres}, c.CatalogSource) {
		return fmt.Errorf("invalid CATALOG_SOURCE %q: must be none, file or postgres", c.CatalogSource)
	}
	if c.CatalogSource == CatalogFile && c.CatalogFile == "" {
		return fmt.Errorf("CATALOG_FILE is required when CATALOG_SOURCE=file")
	}
	if !slices.Contains([]string{HistoryMemory, HistoryRedis}, c.HistoryStore) {
		return fmt.Errorf("invalid HISTORY_STORE %q: must be memory or redis", c.HistoryStore)
	}
	if c.SuggestMinLength < 1 {
		return fmt.Errorf("SUGGEST_MIN_LENGTH must be at least 1, got %d", c.SuggestMinLength)
	}
	if c.RecentSearchLimit < 1 {
		return fmt.Errorf("RECENT_SEARCH_LIMIT must be at least 1, got %d", c.RecentSearchLimit)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}
